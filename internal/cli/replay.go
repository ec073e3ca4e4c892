package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/explaingate/admission"
	"github.com/jonwraymond/explaingate/explain"
	"github.com/jonwraymond/explaingate/observe"
)

// maxStatementBytes bounds a single input line.
const maxStatementBytes = 1 << 20

var (
	flagCacheSize int
	flagTimeout   int
	flagOptions   string
	flagLogLevel  string
	flagSystem    string
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Replay statements through the admission cache",
	Long: `Reads SQL statements one per line from a file, or stdin when the file is
omitted or "-", and prints the admission decision for each:

	<decision>\t<fingerprint>\t<statement>

followed by a summary line. Blank lines are skipped. No database is
contacted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		logger := observe.NewLoggerWithWriter(flagLogLevel, cmd.ErrOrStderr())
		summary, err := replay(cmd.Context(), in, cmd.OutOrStdout(), opts, logger)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.IntVar(&flagCacheSize, "cache-size", admission.DefaultCacheSize, "maximum live entries ("+admission.KeyCacheSize+")")
	f.IntVar(&flagTimeout, "timeout", int(admission.DefaultTimeout/time.Second), "entry lifetime in seconds ("+admission.KeyCacheTimeoutSeconds+")")
	f.StringVar(&flagOptions, "options", "", "JSON object of named options; explicit flags take precedence")
	f.StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	f.StringVar(&flagSystem, "db-system", "", "database system reported in telemetry")
}

// openInput returns the file named by args, or stdin.
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("opening input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// buildOptions applies --options first, then any flag set explicitly.
func buildOptions(cmd *cobra.Command) (admission.Options, error) {
	named := map[string]any{}
	if flagOptions != "" {
		dec := json.NewDecoder(strings.NewReader(flagOptions))
		dec.UseNumber()
		if err := dec.Decode(&named); err != nil {
			return admission.Options{}, fmt.Errorf("parsing --options: %w", err)
		}
	}

	if cmd.Flags().Changed("cache-size") {
		named[admission.KeyCacheSize] = flagCacheSize
	}
	if cmd.Flags().Changed("timeout") {
		named[admission.KeyCacheTimeoutSeconds] = flagTimeout
	}

	opts, err := admission.OptionsFromMap(named)
	if err != nil {
		return admission.Options{}, fmt.Errorf("parsing --options: %w", err)
	}
	return opts, nil
}

// replaySummary counts decisions over a run.
type replaySummary struct {
	Statements int
	Admitted   int
	Present    int
	Full       int
	Errors     int
}

func (s replaySummary) String() string {
	return fmt.Sprintf("statements=%d admitted=%d present=%d full=%d errors=%d",
		s.Statements, s.Admitted, s.Present, s.Full, s.Errors)
}

// replay runs every statement in r through a fresh Gate with a no-op explain.
func replay(ctx context.Context, r io.Reader, w io.Writer, opts admission.Options, logger observe.Logger) (replaySummary, error) {
	gate, err := explain.NewGate(admission.New(opts),
		explain.WithLogger(logger),
		explain.WithDatabase(flagSystem, ""),
	)
	if err != nil {
		return replaySummary{}, err
	}

	noop := func(context.Context, string) (any, error) { return nil, nil }
	return process(ctx, r, w, gate, noop, logger)
}

// process runs each non-blank line of r through gate and writes one line per
// statement. Explain failures are reported and counted; only read errors stop
// the run.
func process(ctx context.Context, r io.Reader, w io.Writer, gate *explain.Gate, fn explain.ExplainFunc, logger observe.Logger) (replaySummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var summary replaySummary
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStatementBytes)
	for scanner.Scan() {
		stmt := strings.TrimSpace(scanner.Text())
		if stmt == "" {
			continue
		}
		summary.Statements++

		res, err := gate.Run(ctx, stmt, fn)
		if err != nil {
			summary.Errors++
			fmt.Fprintf(w, "error\t%s\t%s\t%v\n", res.Fingerprint, stmt, err)
			continue
		}

		switch res.Decision {
		case admission.DecisionAdmit:
			summary.Admitted++
		case admission.DecisionPresent:
			summary.Present++
		case admission.DecisionFull:
			summary.Full++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Decision, res.Fingerprint, stmt)
		if plan, ok := res.Plan.(explain.Plan); ok {
			writePlan(w, plan)
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("reading statements: %w", err)
	}

	logger.Info(ctx, "run complete",
		observe.Field{Key: "statements", Value: summary.Statements},
		observe.Field{Key: "admitted", Value: summary.Admitted},
		observe.Field{Key: "errors", Value: summary.Errors},
	)
	return summary, nil
}

// writePlan writes plan rows indented under their statement.
func writePlan(w io.Writer, plan explain.Plan) {
	for _, row := range plan.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(w, "\t%s\n", strings.Join(cells, "\t"))
	}
}
