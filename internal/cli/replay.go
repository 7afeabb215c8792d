package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sigcheck/internal/harness"
	"github.com/roach88/sigcheck/internal/report"
	"github.com/roach88/sigcheck/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Run      string // optional - defaults to the latest run
	Suite    string
	Strict   bool
}

// ReplayResult is the outcome of re-grading an archived run.
type ReplayResult struct {
	RunID         string            `json:"run_id"`
	Suite         string            `json:"suite"`
	Verdicts      []harness.Verdict `json:"verdicts"`
	Passed        int               `json:"passed"`
	Total         int               `json:"total"`
	Score         string            `json:"score"`
	Deterministic bool              `json:"deterministic"`
	Digest        string            `json:"digest"`
}

// RenderText writes the verdicts, the score, and the determinism check.
func (r ReplayResult) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Replaying run %s (suite %s)\n", r.RunID, r.Suite)
	renderVerdicts(w, r.Verdicts)
	fmt.Fprintf(w, "Score: %s\n", r.Score)
	if r.Deterministic {
		fmt.Fprintf(w, "Deterministic: yes (digest %s)\n", shortDigest(r.Digest))
	} else {
		fmt.Fprintln(w, "Deterministic: NO (two gradings of the same captures differ)")
	}
	return nil
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-grade archived captures and verify determinism",
		Long: `Re-grade a run recorded with "grade --record" without running anything.

The run's captures are graded twice against the suite and the two reports
are compared byte for byte in canonical JSON. Rule changes in the suite
apply to old captures, which makes replay useful for regrading.

Exit codes:
  0 - Both gradings were identical
  1 - Determinism verification failed (the gradings differ)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  sigcheck replay --db ./captures.db
  sigcheck replay --db ./captures.db --run 0190a6c1-...
  sigcheck replay --db ./captures.db --suite ./suite.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run id to replay (default: latest)")
	cmd.Flags().StringVar(&opts.Suite, "suite", "", "suite file to grade against; default is the built-in suite")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject malformed rule text instead of skipping it")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx, stop := signalContext(cmd)
	defer stop()

	// store.Open would create a missing file
	if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database, store.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeArchive, "failed to open archive", err)
	}
	defer st.Close()

	runID := opts.Run
	if runID == "" {
		latest, err := st.LatestRun(ctx)
		if errors.Is(err, store.ErrNoRuns) {
			if opts.Format == "json" {
				return formatter.Success(map[string]any{"runs": 0})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No runs found in archive.")
			return nil
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeArchive, "failed to find latest run", err)
		}
		runID = latest.ID
	}

	replay, err := st.LoadReplay(ctx, runID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeArchive, fmt.Sprintf("failed to load run %s", runID), err)
	}

	suite, err := loadSuite(opts.Suite, opts.Strict)
	if err != nil {
		return formatter.Fail(ExitCommandError, suiteErrorCode(err), "failed to load suite", err)
	}
	if suite.Name != replay.Run.Suite {
		logger.Warn("run was recorded against a different suite", "run_suite", replay.Run.Suite, "suite", suite.Name)
	}

	runner := harness.NewRunner(replay.Tracer, harness.WithLogger(logger))
	gradeOnce := func() (*harness.Report, string, error) {
		if len(replay.ScenarioIDs) == 0 {
			r := harness.NewReport(suite.Name)
			digest, err := report.Digest(r)
			return r, digest, err
		}
		r, err := runner.RunAll(ctx, suite, replay.ScenarioIDs...)
		if err != nil {
			return nil, "", err
		}
		digest, err := report.Digest(r)
		return r, digest, err
	}

	first, firstDigest, err := gradeOnce()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownScenario, "first replay failed", err)
	}
	_, secondDigest, err := gradeOnce()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownScenario, "second replay failed", err)
	}

	result := ReplayResult{
		RunID:         runID,
		Suite:         suite.Name,
		Verdicts:      first.Verdicts,
		Passed:        first.Passed,
		Total:         first.Total,
		Score:         first.Score(),
		Deterministic: firstDigest == secondDigest,
		Digest:        firstDigest,
	}
	logger.Info("replay complete", "run", runID, "score", result.Score, "deterministic", result.Deterministic)

	if !result.Deterministic {
		message := "replay is not deterministic"
		if err := formatter.Failure(result, ErrCodeNondeterministic, message); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	return formatter.Success(result)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
