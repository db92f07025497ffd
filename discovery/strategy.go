package discovery

// LoadBalancingStrategy defines how to select endpoints.
type LoadBalancingStrategy string

const (
	StrategyRandom     LoadBalancingStrategy = "random"
	StrategyRoundRobin LoadBalancingStrategy = "round_robin"
	StrategyWeighted   LoadBalancingStrategy = "weighted"
)

// Query defines parameters for a service discovery query.
type Query struct {
	ServiceName string
	Protocol    string
	Strategy    LoadBalancingStrategy
}
