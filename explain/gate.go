package explain

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/explaingate/admission"
	"github.com/jonwraymond/explaingate/health"
	"github.com/jonwraymond/explaingate/observe"
	"github.com/jonwraymond/explaingate/resilience"
)

// ExplainFunc produces an explain plan for a statement.
type ExplainFunc func(ctx context.Context, statement string) (any, error)

// Result is the outcome of Gate.Run.
type Result struct {
	// Decision is the admission decision taken for the statement.
	Decision admission.Decision

	// Fingerprint identifies the statement in the cache.
	Fingerprint admission.Fingerprint

	// Plan is the explain output. Nil unless the statement was admitted and
	// the explain succeeded.
	Plan any

	// Shared reports that the plan was produced by another concurrent caller
	// admitted for the same fingerprint.
	Shared bool
}

// Gate decides whether to capture an explain plan and runs it when admitted.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: ctx is passed to the explain function through the executor.
//     Callers that join a shared run wait on the first caller's context.
//   - Errors: a refused statement is not an error. Errors come only from the
//     explain function or the executor guarding it.
type Gate struct {
	cache    *admission.Cache
	executor *resilience.Executor

	observer   observe.Observer
	middleware *observe.Middleware
	metrics    observe.Metrics
	logger     observe.Logger

	system   string
	database string

	group singleflight.Group
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithObserver instruments the gate with the observer's tracer, meter and
// logger. Ignored when WithMiddleware is also given.
func WithObserver(obs observe.Observer) GateOption {
	return func(g *Gate) {
		g.observer = obs
	}
}

// WithMiddleware sets the middleware wrapping each explain run.
func WithMiddleware(mw *observe.Middleware) GateOption {
	return func(g *Gate) {
		g.middleware = mw
	}
}

// WithMetrics sets the recorder for admission decisions.
// Default: the middleware's recorder.
func WithMetrics(m observe.Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithLogger sets the logger for admission decisions.
// Default: the middleware's logger.
func WithLogger(l observe.Logger) GateOption {
	return func(g *Gate) {
		g.logger = l
	}
}

// WithExecutor guards each explain run. Default: unguarded.
func WithExecutor(e *resilience.Executor) GateOption {
	return func(g *Gate) {
		g.executor = e
	}
}

// WithDatabase sets the database system and name reported in telemetry.
func WithDatabase(system, name string) GateOption {
	return func(g *Gate) {
		g.system = system
		g.database = name
	}
}

// NewGate creates a Gate around cache.
func NewGate(cache *admission.Cache, opts ...GateOption) (*Gate, error) {
	if cache == nil {
		return nil, ErrNilCache
	}

	g := &Gate{cache: cache}
	for _, opt := range opts {
		opt(g)
	}

	if g.middleware == nil {
		if g.observer != nil {
			mw, err := observe.MiddlewareFromObserver(g.observer)
			if err != nil {
				return nil, fmt.Errorf("explain: build middleware: %w", err)
			}
			g.middleware = mw
		} else {
			g.middleware = observe.NewMiddleware(nil, nil, nil)
		}
	}
	if g.metrics == nil {
		g.metrics = g.middleware.Metrics()
	}
	if g.logger == nil {
		g.logger = g.middleware.Logger()
	}
	if g.executor == nil {
		g.executor = resilience.NewExecutor()
	}

	return g, nil
}

// Cache returns the gate's admission cache.
func (g *Gate) Cache() *admission.Cache {
	return g.cache
}

// Meta returns the telemetry metadata for a statement.
func (g *Gate) Meta(statement string) observe.StatementMeta {
	return observe.StatementMeta{
		System:      g.system,
		Database:    g.database,
		Operation:   observe.OperationOf(statement),
		Fingerprint: g.cache.Fingerprint(statement).String(),
	}
}

// Run decides whether statement should be explained and, if admitted, runs fn.
//
// A refused statement returns its decision and a nil error without calling
// fn. An admitted statement is recorded in the cache only when fn succeeds.
func (g *Gate) Run(ctx context.Context, statement string, fn ExplainFunc) (Result, error) {
	if fn == nil {
		return Result{}, ErrNilExplainFunc
	}

	fp := g.cache.Fingerprint(statement)
	meta := g.Meta(statement)

	decision := g.cache.Decide(statement)
	g.metrics.RecordDecision(ctx, meta, decision.String())
	g.logger.WithStatement(meta).Debug(ctx, "admission decision",
		observe.Field{Key: "decision", Value: decision.String()},
	)

	res := Result{Decision: decision, Fingerprint: fp}
	if !decision.Admitted() {
		return res, nil
	}

	leader := false
	plan, err, _ := g.group.Do(fp.String(), func() (any, error) {
		leader = true
		plan, err := g.middleware.Wrap(g.execute(fn))(ctx, meta, statement)
		if err != nil {
			return nil, err
		}
		g.cache.Record(statement)
		return plan, nil
	})
	res.Shared = !leader
	if err != nil {
		return res, fmt.Errorf("explain: %w", err)
	}

	res.Plan = plan
	return res, nil
}

// execute runs fn through the executor. The plan is handed over on a
// buffered channel so an abandoned run cannot race with the caller.
func (g *Gate) execute(fn ExplainFunc) observe.ExecuteFunc {
	return func(ctx context.Context, _ observe.StatementMeta, statement string) (any, error) {
		out := make(chan any, 1)
		err := g.executor.Execute(ctx, func(ctx context.Context) error {
			plan, err := fn(ctx, statement)
			if err != nil {
				return err
			}
			out <- plan
			return nil
		})
		if err != nil {
			return nil, err
		}
		return <-out, nil
	}
}

// HealthCheckers returns checkers for the gate's cache and, when the executor
// has one, its circuit breaker.
func (g *Gate) HealthCheckers() []health.Checker {
	checkers := []health.Checker{health.NewCapacityChecker("", g.cache)}
	if cb := g.executor.CircuitBreaker(); cb != nil {
		checkers = append(checkers, health.NewCircuitChecker("", cb))
	}
	return checkers
}
