package organization

import (
	"context"
	"net/http"
	"net/url"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/httpclient"
	"github.com/kbukum/licensing/provider"
)

// Client modes.
const (
	ModeREST      = "rest"
	ModeDiscovery = "discovery"
	ModeFeign     = "feign"
)

const organizationPath = "/v1/organization/"

func requireID(organizationID string) error {
	if organizationID == "" {
		return apperrors.MissingField("organizationId")
	}
	return nil
}

// RESTClient calls the organization service at a fixed base URL. It is the
// HTTP adapter adapted to the organization lookup.
type RESTClient struct {
	fetch provider.RequestResponse[string, Organization]
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient returns a client bound to the adapter's base URL.
func NewRESTClient(adapter *httpclient.Adapter) *RESTClient {
	return &RESTClient{
		fetch: provider.Adapt[string, Organization, httpclient.Request, *httpclient.Response](
			adapter, ModeREST, organizationRequest, httpclient.Decode[Organization],
		),
	}
}

func organizationRequest(_ context.Context, organizationID string) (httpclient.Request, error) {
	if err := requireID(organizationID); err != nil {
		return httpclient.Request{}, err
	}
	return httpclient.Request{
		Method: http.MethodGet,
		Path:   organizationPath + url.PathEscape(organizationID),
	}, nil
}

// Name returns "rest".
func (c *RESTClient) Name() string { return c.fetch.Name() }

// IsAvailable is always true; availability is tracked by the resilience policy.
func (c *RESTClient) IsAvailable(ctx context.Context) bool { return c.fetch.IsAvailable(ctx) }

// Execute fetches the organization with the given id.
func (c *RESTClient) Execute(ctx context.Context, organizationID string) (Organization, error) {
	return c.fetch.Execute(ctx, organizationID)
}
