// Package resilience guards explain plan execution against a slow or failing
// database.
//
// Capturing an explain plan is diagnostic work. It must never stall or pile
// up behind the application's own queries, so each run can be bounded by:
//
//   - Bulkhead: caps how many explains run at once.
//   - CircuitBreaker: stops explaining against a database that keeps failing.
//   - Timeout: abandons an explain that takes too long.
//
// An Executor composes them in that order:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 2})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    plan, err = explain(ctx, statement)
//	    return err
//	})
package resilience
