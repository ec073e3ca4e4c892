package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/explaingate/admission"
	"github.com/jonwraymond/explaingate/resilience"
)

// CapacityChecker reports admission cache saturation. A full cache refuses
// every new statement, so explain coverage is reduced until entries expire.
type CapacityChecker struct {
	name  string
	cache *admission.Cache
}

// NewCapacityChecker creates a checker for the given cache.
func NewCapacityChecker(name string, cache *admission.Cache) *CapacityChecker {
	if name == "" {
		name = "explain_cache"
	}
	return &CapacityChecker{name: name, cache: cache}
}

// Name returns the checker name.
func (c *CapacityChecker) Name() string { return c.name }

// Check is degraded when the live entry count has reached capacity.
func (c *CapacityChecker) Check(_ context.Context) Result {
	stats := c.cache.Stats()
	details := map[string]any{
		"entries":  stats.Entries,
		"capacity": stats.Capacity,
		"ttl":      stats.Timeout.String(),
	}

	if stats.Entries >= stats.Capacity {
		return Degraded(fmt.Sprintf("explain cache full: %d/%d", stats.Entries, stats.Capacity)).
			WithDetails(details)
	}
	return Healthy(fmt.Sprintf("explain cache: %d/%d", stats.Entries, stats.Capacity)).
		WithDetails(details)
}

// CircuitChecker reports the circuit breaker guarding explain runs.
type CircuitChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewCircuitChecker creates a checker for the given breaker.
func NewCircuitChecker(name string, breaker *resilience.CircuitBreaker) *CircuitChecker {
	if name == "" {
		name = "explain_circuit"
	}
	return &CircuitChecker{name: name, breaker: breaker}
}

// Name returns the checker name.
func (c *CircuitChecker) Name() string { return c.name }

// Check maps open to unhealthy and half-open to degraded.
func (c *CircuitChecker) Check(_ context.Context) Result {
	stats := c.breaker.Stats()
	details := map[string]any{
		"state":    stats.State.String(),
		"failures": stats.Failures,
	}

	switch stats.State {
	case resilience.StateOpen:
		return Unhealthy("explain circuit open", ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("explain circuit probing").WithDetails(details)
	default:
		return Healthy("explain circuit closed").WithDetails(details)
	}
}

var (
	_ Checker = (*CapacityChecker)(nil)
	_ Checker = (*CircuitChecker)(nil)
	_ Checker = (*CheckerFunc)(nil)
)
