package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sigcheck/internal/harness"
	"github.com/roach88/sigcheck/internal/store"
	"github.com/roach88/sigcheck/internal/tracer"
)

// GradeOptions holds flags for the grade command.
type GradeOptions struct {
	*RootOptions
	Suite  string
	Record string
	Strict bool
	CI     bool

	// Tracer allows overriding how scenarios are invoked (for testing).
	// If nil, scenarios run as child processes in the suite's directory.
	Tracer tracer.Tracer
}

// GradeResult is the outcome of a grade command.
type GradeResult struct {
	*harness.Report
	Score string `json:"score"`
	RunID string `json:"run_id,omitempty"`

	// showScore is false when a single scenario was requested.
	showScore bool
}

// RenderText writes the result the way students are used to reading it.
func (r GradeResult) RenderText(w io.Writer) error {
	renderVerdicts(w, r.Verdicts)
	if r.showScore {
		fmt.Fprintf(w, "Score: %s\n", r.Score)
	}
	return nil
}

// renderVerdicts writes one block per verdict. A failing block carries the
// diagnostic between blank lines.
func renderVerdicts(w io.Writer, verdicts []harness.Verdict) {
	for _, v := range verdicts {
		if v.Passed {
			fmt.Fprintf(w, "Testing scenario %s:   PASSED\n", v.Scenario)
			continue
		}
		fmt.Fprintf(w, "Testing scenario %s:\n%s\n\n   FAILED\n", v.Scenario, v.Diagnostic)
	}
}

// NewGradeCommand creates the grade command.
func NewGradeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GradeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "grade [scenario-id]",
		Short: "Grade one scenario or the whole suite",
		Long: `Run scenarios under the tracer and grade them.

With no argument every scenario in the suite is graded in order and the
score is printed at the end. Without --suite the built-in signal exercise
suite is used: ./signals ./killer <id> under strace, scenarios 0-9.

Exit codes:
  0 - Grading completed (failing scenarios included, unless --ci)
  1 - One or more scenarios failed and --ci was given
  2 - Command error (unknown scenario, invalid suite, archive error, etc.)

Examples:
  sigcheck grade
  sigcheck grade 3
  sigcheck grade --suite ./suite.yaml --record ./captures.db
  sigcheck grade --ci --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrade(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Suite, "suite", "", "suite file (.yaml, .yml or .cue); default is the built-in suite")
	cmd.Flags().StringVar(&opts.Record, "record", "", "archive captures in this SQLite database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject malformed rule text instead of skipping it")
	cmd.Flags().BoolVar(&opts.CI, "ci", false, "exit non-zero when any scenario fails")

	return cmd
}

func runGrade(opts *GradeOptions, args []string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	suite, err := loadSuite(opts.Suite, opts.Strict)
	if err != nil {
		return formatter.Fail(ExitCommandError, suiteErrorCode(err), "failed to load suite", err)
	}
	formatter.VerboseLog("Loaded suite %s (%d scenarios)", suite.Name, len(suite.Scenarios))

	var ids []string
	if len(args) == 1 {
		if _, ok := suite.Lookup(args[0]); !ok {
			return formatter.Fail(ExitCommandError, ErrCodeUnknownScenario,
				fmt.Sprintf("unknown scenario %q (suite %s has %v)", args[0], suite.Name, suite.IDs()), nil)
		}
		ids = args
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	runnerOpts := []harness.Option{harness.WithLogger(logger)}

	var runID string
	if opts.Record != "" {
		st, err := store.Open(opts.Record, store.WithLogger(logger))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeArchive, "failed to open archive", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing archive", "error", closeErr)
			}
		}()

		rec, err := st.NewRunRecorder(ctx, suite.Name)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeArchive, "failed to start run", err)
		}
		runID = rec.RunID()
		logger.Info("recording captures", "db", opts.Record, "run", runID)
		runnerOpts = append(runnerOpts, harness.WithRecorder(rec))
	}

	t := opts.Tracer
	if t == nil {
		t = &tracer.Exec{Dir: suite.Dir, Logger: logger}
	}

	report, err := harness.NewRunner(t, runnerOpts...).RunAll(ctx, suite, ids...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownScenario, "failed to grade", err)
	}

	result := GradeResult{
		Report:    report,
		Score:     report.Score(),
		RunID:     runID,
		showScore: len(ids) == 0,
	}

	if opts.CI && !report.AllPassed() {
		failed := report.Total - report.Passed
		message := fmt.Sprintf("%d scenario(s) failed", failed)
		if err := formatter.Failure(result, ErrCodeGradeFailed, message); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	return formatter.Success(result)
}

// signalContext derives a context from the command's that is cancelled on
// Ctrl-C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
}
