package organization

import (
	"context"
	"net/url"
	"strings"

	"github.com/kbukum/licensing/discovery"
	"github.com/kbukum/licensing/httpclient"
)

// DiscoveryClient resolves an organization service instance from the
// registry on every call and calls it directly.
type DiscoveryClient struct {
	adapter   *httpclient.Adapter
	discovery *discovery.Client
	query     discovery.Query
}

var _ Client = (*DiscoveryClient)(nil)

// NewDiscoveryClient returns a client resolving serviceName through disc.
// The adapter must not carry a base URL.
func NewDiscoveryClient(adapter *httpclient.Adapter, disc *discovery.Client, serviceName string, strategy discovery.LoadBalancingStrategy) *DiscoveryClient {
	return &DiscoveryClient{
		adapter:   adapter,
		discovery: disc,
		query:     discovery.Query{ServiceName: serviceName, Strategy: strategy},
	}
}

// Name returns "discovery".
func (c *DiscoveryClient) Name() string { return ModeDiscovery }

// IsAvailable is always true; resolution failures surface from Execute.
func (c *DiscoveryClient) IsAvailable(context.Context) bool { return true }

// Execute picks an instance and fetches the organization from it.
func (c *DiscoveryClient) Execute(ctx context.Context, organizationID string) (Organization, error) {
	if err := requireID(organizationID); err != nil {
		return Organization{}, err
	}
	inst, err := c.discovery.DiscoverOne(ctx, c.query)
	if err != nil {
		return Organization{}, err
	}

	target := strings.TrimRight(inst.URL(), "/") + organizationPath + url.PathEscape(organizationID)
	resp, err := httpclient.Get[Organization](c.adapter, ctx, target)
	if err != nil {
		return Organization{}, err
	}
	return resp.Data, nil
}
