// Package health reports whether the explain gate is working as intended.
//
// Checkers report Healthy, Degraded or Unhealthy. CapacityChecker reports a
// saturated admission cache (new statements are being refused), and
// CircuitChecker reports a circuit breaker that has stopped explain runs.
// An Aggregator runs several checkers in parallel and folds their results
// into one status:
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	for _, c := range gate.HealthCheckers() {
//	    agg.Register(c)
//	}
//	results := agg.CheckAll(ctx)
//	status := health.Overall(results)
package health
