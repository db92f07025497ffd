package discovery

import (
	"context"

	"github.com/kbukum/licensing/httpclient"
)

// Target resolves a service to one instance URL per call. It plugs a
// Client into httpclient proxies.
type Target struct {
	client *Client
	query  Query
}

var _ httpclient.Target = (*Target)(nil)

// NewTarget returns a Target for serviceName using strategy.
func NewTarget(client *Client, serviceName string, strategy LoadBalancingStrategy) *Target {
	return &Target{
		client: client,
		query:  Query{ServiceName: serviceName, Strategy: strategy},
	}
}

// Service returns the resolved service name.
func (t *Target) Service() string { return t.query.ServiceName }

// BaseURL picks an instance and returns its URL.
func (t *Target) BaseURL(ctx context.Context) (string, error) {
	inst, err := t.client.DiscoverOne(ctx, t.query)
	if err != nil {
		return "", err
	}
	return inst.URL(), nil
}
