package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricDecisions      = "explain.admission.decisions"
	MetricExecTotal      = "explain.exec.total"
	MetricExecErrors     = "explain.exec.errors"
	MetricExecDurationMs = "explain.exec.duration_ms"
)

// Metrics records admission decisions and explain runs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordDecision counts one admission decision ("admit", "present", "full").
	RecordDecision(ctx context.Context, meta StatementMeta, decision string)

	// RecordExecution records one explain run.
	RecordExecution(ctx context.Context, meta StatementMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	decisions    metric.Int64Counter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	decisions, err := meter.Int64Counter(MetricDecisions,
		metric.WithDescription("Admission decisions for explain plan capture"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	totalCount, err := meter.Int64Counter(MetricExecTotal,
		metric.WithDescription("Explain plans executed"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(MetricExecErrors,
		metric.WithDescription("Explain plans that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(MetricExecDurationMs,
		metric.WithDescription("Explain plan duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		decisions:    decisions,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordDecision(ctx context.Context, meta StatementMeta, decision string) {
	attrs := []attribute.KeyValue{attribute.String("decision", decision)}
	if meta.System != "" {
		attrs = append(attrs, attribute.String("db.system", meta.System))
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metricsImpl) RecordExecution(ctx context.Context, meta StatementMeta, duration time.Duration, err error) {
	// Fingerprints are unbounded, so they stay off metric attributes.
	attrs := make([]attribute.KeyValue, 0, 2)
	if meta.System != "" {
		attrs = append(attrs, attribute.String("db.system", meta.System))
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("db.operation", meta.Operation))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

type nopMetrics struct{}

func (nopMetrics) RecordDecision(context.Context, StatementMeta, string) {}
func (nopMetrics) RecordExecution(context.Context, StatementMeta, time.Duration, error) {
}
