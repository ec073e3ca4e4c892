package observe

import (
	"context"
	"io"
	"testing"
	"time"
)

// BenchmarkLogger_Info measures logging throughput.
func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "benchmark message", Field{Key: "iteration", Value: i})
	}
}

// BenchmarkLogger_WithStatement measures creating statement-scoped loggers.
func BenchmarkLogger_WithStatement(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	meta := StatementMeta{System: "postgresql", Database: "app", Operation: "SELECT", Fingerprint: "ef46db3751d8e999"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = logger.WithStatement(meta)
	}
}

// BenchmarkMiddleware_Wrap measures middleware overhead with no-op telemetry.
func BenchmarkMiddleware_Wrap(b *testing.B) {
	mw := NewMiddleware(NopTracer(), NopMetrics(), NopLogger())
	fn := mw.Wrap(func(ctx context.Context, meta StatementMeta, statement string) (any, error) {
		return nil, nil
	})
	ctx := context.Background()
	meta := StatementMeta{System: "postgresql"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = fn(ctx, meta, "SELECT 1")
	}
}

// BenchmarkMetrics_Noop measures the no-op recorder.
func BenchmarkMetrics_Noop(b *testing.B) {
	m := NopMetrics()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordExecution(ctx, StatementMeta{}, time.Millisecond, nil)
	}
}
