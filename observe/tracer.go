package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer starts and ends spans around explain runs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta StatementMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// NopTracer returns a tracer whose spans are never recorded.
func NopTracer() Tracer {
	return NewTracer(tracenoop.NewTracerProvider().Tracer("noop"))
}

func statementAttrs(meta StatementMeta) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if meta.System != "" {
		attrs = append(attrs, attribute.String("db.system", meta.System))
	}
	if meta.Database != "" {
		attrs = append(attrs, attribute.String("db.name", meta.Database))
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("db.operation", meta.Operation))
	}
	if meta.Fingerprint != "" {
		attrs = append(attrs, attribute.String("explain.fingerprint", meta.Fingerprint))
	}
	return attrs
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta StatementMeta) (context.Context, trace.Span) {
	attrs := append(statementAttrs(meta), attribute.Bool("explain.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("explain.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
