package organization

import (
	"fmt"
	"net/http"

	"github.com/kbukum/licensing/discovery"
	"github.com/kbukum/licensing/httpclient"
	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/provider"
)

// Selector maps a client mode to one of the organization clients.
// Unknown and empty modes resolve to the default client.
type Selector struct {
	modes *provider.ModeSelector[Client]
}

// NewSelector builds a selector over clients keyed by mode.
func NewSelector(defaultMode string, clients map[string]Client, log *logger.Logger) (*Selector, error) {
	if log == nil {
		log = logger.Nop()
	}
	modes, err := provider.NewModeSelector(defaultMode, clients, log.WithComponent("organization-selector"))
	if err != nil {
		return nil, fmt.Errorf("organization selector: %w", err)
	}
	return &Selector{modes: modes}, nil
}

// Select returns the client for mode.
func (s *Selector) Select(mode string) Client {
	return s.modes.Select(mode)
}

// Resolve returns the mode Select would use.
func (s *Selector) Resolve(mode string) string {
	return s.modes.Resolve(mode)
}

// Modes returns the known modes.
func (s *Selector) Modes() []string {
	return s.modes.Modes()
}

// NewClients builds the rest, discovery and feign clients. Each client is
// wrapped with mw, outermost first.
func NewClients(cfg Config, disc *discovery.Client, strategy discovery.LoadBalancingStrategy, httpClient *http.Client, log *logger.Logger, mw ...provider.Middleware[string, Organization]) (map[string]Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	opts := []httpclient.Option{httpclient.WithLogger(log)}
	if httpClient != nil {
		opts = append(opts, httpclient.WithHTTPClient(httpClient))
	}

	restAdapter, err := httpclient.New(httpclient.Config{Name: cfg.ServiceName, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}, opts...)
	if err != nil {
		return nil, err
	}
	resolvedAdapter, err := httpclient.New(httpclient.Config{Name: cfg.ServiceName, Timeout: cfg.Timeout}, opts...)
	if err != nil {
		return nil, err
	}

	clients := map[string]Client{
		ModeREST:      NewRESTClient(restAdapter),
		ModeDiscovery: NewDiscoveryClient(resolvedAdapter, disc, cfg.ServiceName, strategy),
		ModeFeign:     NewFeignClient(httpclient.NewProxy(resolvedAdapter, discovery.NewTarget(disc, cfg.ServiceName, strategy))),
	}
	if len(mw) > 0 {
		wrap := provider.Chain(mw...)
		for mode, c := range clients {
			clients[mode] = wrap(c)
		}
	}
	return clients, nil
}
