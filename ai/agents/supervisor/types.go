// Package supervisor routes menu queries to specialist agents, fans out the
// selected agents, and consolidates their outputs into one answer.
package supervisor

import (
	"context"
	"time"
)

// Capability identifies one specialist domain. The set is closed; these
// strings are the wire contract between router output and the agent table.
type Capability string

const (
	CapabilityNutrition      Capability = "nutrition"
	CapabilityRecommendation Capability = "recommendation"
	CapabilityQuality        Capability = "quality"
)

// AllCapabilities lists the closed capability set in canonical order.
var AllCapabilities = []Capability{
	CapabilityNutrition,
	CapabilityRecommendation,
	CapabilityQuality,
}

// DefaultCapability is the routing fallback when classifier output cannot
// be parsed.
const DefaultCapability = CapabilityRecommendation

// Valid reports whether c belongs to the closed capability set.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityNutrition, CapabilityRecommendation, CapabilityQuality:
		return true
	}
	return false
}

// Agent is the uniform specialist contract consumed by the executor.
type Agent interface {
	Name() string
	Answer(ctx context.Context, query, menuName string) (string, error)
}

// Result is the artifact returned to the caller for one orchestrated query.
type Result struct {
	Query        string                `json:"query"`
	MenuName     string                `json:"menu_name,omitempty"`
	AgentsUsed   []Capability          `json:"agents_used"`
	AgentOutputs map[Capability]string `json:"agent_outputs"`
	Response     string                `json:"response"`
	LatencyMs    float64               `json:"latency_ms"`
}

// Config contains supervisor configuration.
type Config struct {
	// MaxParallelAgents bounds concurrent specialist calls in the parallel path.
	MaxParallelAgents int

	// RouterTimeout bounds the routing stage, retries included. Zero means
	// the caller's deadline applies.
	RouterTimeout time.Duration
}

// DefaultConfig returns the default supervisor configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxParallelAgents: 3,
	}
}

// Option configures the supervisor.
type Option func(*Config)

// WithMaxParallelAgents sets the parallel fan-out bound.
func WithMaxParallelAgents(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxParallelAgents = n
		}
	}
}

// WithRouterTimeout bounds the routing stage.
func WithRouterTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.RouterTimeout = d
		}
	}
}
