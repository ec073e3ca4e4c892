package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/explaingate/admission"
	"github.com/jonwraymond/explaingate/dsn"
	"github.com/jonwraymond/explaingate/explain"
	"github.com/jonwraymond/explaingate/health"
	"github.com/jonwraymond/explaingate/observe"
	"github.com/jonwraymond/explaingate/resilience"
)

var (
	flagDriver          string
	flagDSN             string
	flagPrefix          string
	flagExplainTimeout  time.Duration
	flagMaxConcurrent   int
	flagMaxFailures     int
	flagTraceExporter   string
	flagMetricsExporter string
	flagHealth          bool
)

func resetExplainFlags() {
	flagDriver = ""
	flagDSN = ""
	flagPrefix = ""
	flagExplainTimeout = resilience.DefaultTimeout
	flagMaxConcurrent = 1
	flagMaxFailures = 5
	flagTraceExporter = "none"
	flagMetricsExporter = "none"
	flagHealth = false
}

var explainCmd = &cobra.Command{
	Use:   "explain [file]",
	Short: "Capture explain plans for admitted statements",
	Long: `Reads SQL statements one per line like replay, and runs EXPLAIN against the
database for every admitted statement. Plan rows are printed indented below
the statement line.

The DSN may reference credentials with ${VAR} or secretref:<provider>:<ref>
(providers: env, file). It is never printed unredacted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDriver == "" || flagDSN == "" {
			return fmt.Errorf("--driver and --dsn are required (drivers: %v)", dsn.Drivers())
		}
		system, err := dsn.Lookup(flagDriver)
		if err != nil {
			return err
		}
		opts, err := buildOptions(cmd)
		if err != nil {
			return err
		}

		in, closeIn, err := openInput(cmd, args)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer closeIn()

		if err := runExplain(cmd.Context(), in, cmd.OutOrStdout(), cmd.ErrOrStderr(), system, opts); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	resetExplainFlags()
	f := explainCmd.Flags()
	f.StringVar(&flagDriver, "driver", "", "database/sql driver: postgres|mysql")
	f.StringVar(&flagDSN, "dsn", "", "data source name; supports ${VAR} and secretref:")
	f.StringVar(&flagPrefix, "prefix", "", "explain prefix (default depends on the driver)")
	f.DurationVar(&flagExplainTimeout, "explain-timeout", resilience.DefaultTimeout, "abandon an explain after this long")
	f.IntVar(&flagMaxConcurrent, "max-concurrent", 1, "explains allowed to run at once")
	f.IntVar(&flagMaxFailures, "max-failures", 5, "consecutive failures that stop explaining")
	f.StringVar(&flagTraceExporter, "trace-exporter", "none", "trace exporter: otlp|stdout|none")
	f.StringVar(&flagMetricsExporter, "metrics-exporter", "none", "metrics exporter: otlp|prometheus|stdout|none")
	f.BoolVar(&flagHealth, "health", false, "print health checks as JSON after the run")
}

func runExplain(ctx context.Context, in io.Reader, out, errOut io.Writer, system dsn.System, opts admission.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "explaingate",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   flagTraceExporter != "none",
			Exporter:  flagTraceExporter,
			SamplePct: 1.0,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  flagMetricsExporter != "none",
			Exporter: flagMetricsExporter,
		},
		Logging: observe.LoggingConfig{Enabled: true, Level: flagLogLevel},
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	db, err := dsn.Open(ctx, dsn.NewResolver(), flagDriver, flagDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	prefix := system.ExplainPrefix
	if flagPrefix != "" {
		prefix = flagPrefix
	}

	gate, err := newExplainGate(admission.New(opts), obs, system.Name)
	if err != nil {
		return err
	}

	summary, err := process(ctx, in, out, gate,
		explain.NewSQLExplainer(db, explain.WithPrefix(prefix)).Func(), obs.Logger())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, summary)

	if flagHealth {
		return writeHealth(ctx, errOut, gate)
	}
	return nil
}

// newExplainGate builds a Gate guarded by the resilience flags.
func newExplainGate(cache *admission.Cache, obs observe.Observer, system string) (*explain.Gate, error) {
	executor := resilience.NewExecutor(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: flagMaxConcurrent,
		})),
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures: flagMaxFailures,
		})),
		resilience.WithTimeout(flagExplainTimeout),
	)

	return explain.NewGate(cache,
		explain.WithObserver(obs),
		explain.WithExecutor(executor),
		explain.WithDatabase(system, ""),
	)
}

type healthReport struct {
	Status string                   `json:"status"`
	Checks map[string]healthOutcome `json:"checks"`
}

type healthOutcome struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// writeHealth runs the gate's checkers and writes a JSON report.
func writeHealth(ctx context.Context, w io.Writer, gate *explain.Gate) error {
	agg := health.NewAggregator(health.AggregatorConfig{})
	for _, c := range gate.HealthCheckers() {
		agg.Register(c)
	}

	results := agg.CheckAll(ctx)
	report := healthReport{
		Status: health.Overall(results).String(),
		Checks: make(map[string]healthOutcome, len(results)),
	}
	for name, r := range results {
		report.Checks[name] = healthOutcome{
			Status:  r.Status.String(),
			Message: r.Message,
			Details: r.Details,
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
