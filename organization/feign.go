package organization

import (
	"context"
	"net/http"

	"github.com/kbukum/licensing/httpclient"
)

var getOrganization = httpclient.Endpoint{
	Method: http.MethodGet,
	Path:   "/v1/organization/{organizationId}",
}

// FeignClient calls the organization service through a declarative proxy.
// The proxy's target decides how the service address is resolved.
type FeignClient struct {
	proxy *httpclient.Proxy
}

var _ Client = (*FeignClient)(nil)

// NewFeignClient returns a client invoking the declared endpoint on proxy.
func NewFeignClient(proxy *httpclient.Proxy) *FeignClient {
	return &FeignClient{proxy: proxy}
}

// Name returns "feign".
func (c *FeignClient) Name() string { return ModeFeign }

// IsAvailable is always true; resolution failures surface from Execute.
func (c *FeignClient) IsAvailable(context.Context) bool { return true }

// Execute fetches the organization with the given id.
func (c *FeignClient) Execute(ctx context.Context, organizationID string) (Organization, error) {
	if err := requireID(organizationID); err != nil {
		return Organization{}, err
	}
	return httpclient.Call[Organization](ctx, c.proxy, getOrganization, map[string]string{
		"organizationId": organizationID,
	}, nil)
}
