// Package explain is the entry point for instrumentation layers that capture
// explain plans.
//
// A Gate consults an admission.Cache before running an explain for a
// statement. Admitted statements run through an optional resilience.Executor
// and the observe middleware; successful runs are recorded so repeats are
// suppressed until their entry expires. Failed runs are not recorded, so the
// next occurrence of the statement tries again.
//
// Concurrent callers admitted for the same fingerprint share a single run.
//
//	cache := admission.New(admission.DefaultOptions())
//	gate, err := explain.NewGate(cache, explain.WithDatabase("postgresql", "orders"))
//	if err != nil {
//	    return err
//	}
//
//	runner := explain.NewSQLExplainer(db)
//	res, err := gate.Run(ctx, query, runner.Func())
//	if res.Decision.Admitted() && err == nil {
//	    attachPlan(span, res.Plan)
//	}
package explain
