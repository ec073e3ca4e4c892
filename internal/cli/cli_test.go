package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/jonwraymond/explaingate/admission"
	"github.com/jonwraymond/explaingate/observe"
)

// resetFlags resets all package-level flag variables and their Changed state.
func resetFlags(t *testing.T) {
	t.Helper()
	flagCacheSize = admission.DefaultCacheSize
	flagTimeout = int(admission.DefaultTimeout / time.Second)
	flagOptions = ""
	flagLogLevel = "warn"
	flagSystem = ""
	resetExplainFlags()
	exitCode = ExitSuccess
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), replayCmd.Flags(), explainCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

// execute runs the root command with args and stdin, returning stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func outputLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// --- replay tests ---

func TestReplay_Decisions(t *testing.T) {
	resetFlags(t)
	input := "SELECT a\nSELECT b\n\nSELECT a\nSELECT c\n"

	var out bytes.Buffer
	summary, err := replay(context.Background(), strings.NewReader(input), &out,
		admission.Options{CacheSize: 2, Timeout: time.Hour}, observe.NopLogger())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	want := replaySummary{Statements: 4, Admitted: 2, Present: 1, Full: 1}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}

	lines := outputLines(out.String())
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), out.String())
	}
	wantPrefix := []string{"admit\t", "admit\t", "present\t", "full\t"}
	for i, p := range wantPrefix {
		if !strings.HasPrefix(lines[i], p) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], p)
		}
	}

	fp := admission.XXHashFingerprinter{}.Fingerprint("SELECT a").String()
	if lines[0] != "admit\t"+fp+"\tSELECT a" {
		t.Errorf("line 0 = %q", lines[0])
	}
}

func TestReplay_EmptyInput(t *testing.T) {
	resetFlags(t)
	var out bytes.Buffer
	summary, err := replay(context.Background(), strings.NewReader(""), &out,
		admission.DefaultOptions(), observe.NopLogger())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if summary != (replaySummary{}) || out.Len() != 0 {
		t.Fatalf("expected no output, got %+v %q", summary, out.String())
	}
}

func TestReplay_LineTooLong(t *testing.T) {
	resetFlags(t)
	input := strings.Repeat("x", maxStatementBytes+1)
	_, err := replay(context.Background(), strings.NewReader(input), &bytes.Buffer{},
		admission.DefaultOptions(), observe.NopLogger())
	if err == nil {
		t.Fatal("expected error for oversized line")
	}
}

func TestReplaySummary_String(t *testing.T) {
	s := replaySummary{Statements: 6, Admitted: 3, Present: 1, Full: 1, Errors: 1}
	if got := s.String(); got != "statements=6 admitted=3 present=1 full=1 errors=1" {
		t.Errorf("String() = %q", got)
	}
}

// --- buildOptions tests ---

func TestBuildOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    admission.Options
		wantErr error
	}{
		{
			name: "defaults",
			want: admission.DefaultOptions(),
		},
		{
			name: "flags",
			args: []string{"--cache-size", "3", "--timeout", "60"},
			want: admission.Options{CacheSize: 3, Timeout: time.Minute},
		},
		{
			name: "json options",
			args: []string{"--options", `{"explain_cache_size": 7, "explain_cache_timeout_seconds": 30}`},
			want: admission.Options{CacheSize: 7, Timeout: 30 * time.Second},
		},
		{
			name: "flags override json",
			args: []string{"--options", `{"explain_cache_size": 7}`, "--cache-size", "9"},
			want: admission.Options{CacheSize: 9, Timeout: admission.DefaultTimeout},
		},
		{
			name:    "bad option type",
			args:    []string{"--options", `{"explain_cache_size": true}`},
			wantErr: admission.ErrInvalidOption,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resetFlags(t)
			if err := replayCmd.ParseFlags(tc.args); err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}
			got, err := buildOptions(replayCmd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildOptions: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBuildOptions_MalformedJSON(t *testing.T) {
	resetFlags(t)
	if err := replayCmd.ParseFlags([]string{"--options", "{"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if _, err := buildOptions(replayCmd); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

// --- command tests ---

func TestReplayCmd_Stdin(t *testing.T) {
	resetFlags(t)
	out, _, err := execute(t, "SELECT 1\nSELECT 1\n", "replay", "--cache-size", "5")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := outputLines(out)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out)
	}
	if lines[2] != "statements=2 admitted=1 present=1 full=0 errors=0" {
		t.Errorf("summary line = %q", lines[2])
	}
}

func TestReplayCmd_File(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "queries.sql")
	if err := os.WriteFile(path, []byte("SELECT a\nSELECT b\nSELECT c\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "replay", "--cache-size", "1", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "statements=3 admitted=1 present=0 full=2 errors=0") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestReplayCmd_MissingFile(t *testing.T) {
	resetFlags(t)
	_, errOut, err := execute(t, "", "replay", filepath.Join(t.TempDir(), "nope.sql"))
	if err != nil {
		t.Fatalf("missing input is a runtime error, not a usage error: %v", err)
	}
	if exitCode != ExitRuntimeError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitRuntimeError)
	}
	if !strings.Contains(errOut, "opening input") {
		t.Errorf("expected error on stderr, got %q", errOut)
	}
}

func TestReplayCmd_TooManyArgs(t *testing.T) {
	resetFlags(t)
	if _, _, err := execute(t, "", "replay", "a", "b"); err == nil {
		t.Fatal("expected usage error")
	}
}

// --- version command tests ---

func TestVersionCmd_Execute(t *testing.T) {
	resetFlags(t)
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version command returned error: %v", err)
	}
	if out != "explaingate version "+version+"\n" {
		t.Errorf("unexpected output %q", out)
	}
}
