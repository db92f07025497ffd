package discovery

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/logger"
)

// ClientConfig configures the discovery Client.
type ClientConfig struct {
	// CacheTTL is how long discovered endpoints are cached. Default: 30s.
	CacheTTL time.Duration
}

// Client adds caching, health filtering and load balancing on top of a
// Discovery backend.
type Client struct {
	discovery Discovery
	cache     *instanceCache
	log       *logger.Logger
	r         *rand.Rand
	mu        sync.Mutex
	rrIndex   map[string]int
}

// NewClient creates a Client that wraps the given Discovery backend.
func NewClient(disc Discovery, cfg ClientConfig, log *logger.Logger) *Client {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		discovery: disc,
		cache:     newInstanceCache(ttl),
		log:       log.WithComponent("discovery"),
		r:         rand.New(rand.NewSource(time.Now().UnixNano())),
		rrIndex:   make(map[string]int),
	}
}

// Discover returns the healthy instances of a service, using the cache when
// fresh. A backend failure or an empty result is a retryable
// SERVICE_UNAVAILABLE AppError.
func (c *Client) Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error) {
	if instances := c.cache.get(serviceName); instances != nil {
		return instances, nil
	}

	instances, err := c.discovery.Discover(ctx, serviceName)
	if err != nil {
		c.log.WithContext(ctx).Warn("service discovery failed", logger.Fields(
			"service", serviceName, logger.FieldError, err.Error(),
		))
		return nil, apperrors.ServiceUnavailable(serviceName).WithCause(err)
	}

	healthy := filterHealthy(instances)
	if len(healthy) == 0 {
		return nil, apperrors.ServiceUnavailable(serviceName).WithCause(ErrNoHealthyEndpoints)
	}

	c.cache.set(serviceName, healthy)
	return healthy, nil
}

// DiscoverOne returns a single instance selected by the query's load-balancing strategy.
func (c *Client) DiscoverOne(ctx context.Context, query Query) (ServiceInstance, error) {
	instances, err := c.Discover(ctx, query.ServiceName)
	if err != nil {
		return ServiceInstance{}, err
	}

	if query.Protocol != "" {
		instances = filterByProtocol(instances, query.Protocol)
	}
	if len(instances) == 0 {
		return ServiceInstance{}, apperrors.ServiceUnavailable(query.ServiceName).WithCause(ErrNoHealthyEndpoints)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch query.Strategy {
	case StrategyRoundRobin:
		key := query.ServiceName + ":" + query.Protocol
		idx := c.rrIndex[key]
		inst := instances[idx%len(instances)]
		c.rrIndex[key] = (idx + 1) % len(instances)
		return inst, nil

	case StrategyWeighted:
		return c.selectWeighted(instances), nil

	case StrategyRandom:
		fallthrough
	default:
		return instances[c.r.Intn(len(instances))], nil
	}
}

// Invalidate clears cached entries for a service.
func (c *Client) Invalidate(serviceName string) {
	c.cache.invalidate(serviceName)
}

// Close releases resources.
func (c *Client) Close() error {
	c.cache.clear()
	return c.discovery.Close()
}

func (c *Client) selectWeighted(instances []ServiceInstance) ServiceInstance {
	totalWeight := 0
	for _, inst := range instances {
		totalWeight += weightOf(inst)
	}

	r := c.r.Intn(totalWeight)
	for _, inst := range instances {
		r -= weightOf(inst)
		if r < 0 {
			return inst
		}
	}
	return instances[0]
}

func weightOf(inst ServiceInstance) int {
	if inst.Weight <= 0 {
		return 1
	}
	return inst.Weight
}

func filterHealthy(instances []ServiceInstance) []ServiceInstance {
	out := make([]ServiceInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.Health != HealthUnhealthy {
			out = append(out, inst)
		}
	}
	return out
}

func filterByProtocol(instances []ServiceInstance, protocol string) []ServiceInstance {
	var filtered []ServiceInstance
	protocolLower := strings.ToLower(protocol)
	tag := "protocol:" + protocolLower
	for _, inst := range instances {
		if strings.EqualFold(inst.Protocol, protocol) {
			filtered = append(filtered, inst)
			continue
		}
		for _, t := range inst.Tags {
			tl := strings.ToLower(t)
			if tl == tag || tl == protocolLower {
				filtered = append(filtered, inst)
				break
			}
		}
	}
	return filtered
}

// --- instance cache ---

type instanceCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	instances []ServiceInstance
	expiry    time.Time
}

func newInstanceCache(ttl time.Duration) *instanceCache {
	return &instanceCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *instanceCache) get(serviceName string) []ServiceInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[serviceName]
	if !ok || time.Now().After(entry.expiry) {
		return nil
	}
	return entry.instances
}

func (c *instanceCache) set(serviceName string, instances []ServiceInstance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[serviceName] = cacheEntry{
		instances: instances,
		expiry:    time.Now().Add(c.ttl),
	}
}

func (c *instanceCache) invalidate(serviceName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, serviceName)
}

func (c *instanceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
