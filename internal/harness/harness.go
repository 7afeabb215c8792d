package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/sigcheck/internal/rules"
	"github.com/roach88/sigcheck/internal/trace"
	"github.com/roach88/sigcheck/internal/tracer"
)

// Recorder archives captures as they are produced.
type Recorder interface {
	Record(ctx context.Context, scenarioID string, c tracer.Capture) error
}

// Runner grades scenarios one at a time.
type Runner struct {
	tracer   tracer.Tracer
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRecorder archives every capture the Runner produces.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// NewRunner creates a Runner that invokes scenarios through t.
func NewRunner(t tracer.Tracer, opts ...Option) *Runner {
	r := &Runner{
		tracer: t,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll grades the scenarios named by ids, or every scenario when ids is
// empty, in order. It returns an error only when an id is unknown, before
// anything runs.
func (r *Runner) RunAll(ctx context.Context, suite *Suite, ids ...string) (*Report, error) {
	selected := suite.Scenarios
	if len(ids) > 0 {
		selected = make([]Scenario, 0, len(ids))
		for _, id := range ids {
			sc, ok := suite.Lookup(id)
			if !ok {
				return nil, fmt.Errorf("unknown scenario %q (have %s)", id, strings.Join(suite.IDs(), ", "))
			}
			selected = append(selected, sc)
		}
	}

	report := NewReport(suite.Name)
	for _, sc := range selected {
		report.Add(r.grade(ctx, suite, sc, report))
	}

	r.logger.Info("run complete", "suite", suite.Name, "score", report.Score())
	return report, nil
}

// Grade runs one scenario and returns its verdict.
func (r *Runner) Grade(ctx context.Context, suite *Suite, sc Scenario) Verdict {
	return r.grade(ctx, suite, sc, nil)
}

func (r *Runner) grade(ctx context.Context, suite *Suite, sc Scenario, report *Report) Verdict {
	argv := suite.Command(sc)
	r.logger.Info("grading scenario", "suite", suite.Name, "scenario", sc.ID)

	c, err := r.tracer.Run(ctx, argv)
	if err != nil {
		r.logger.Error("invocation failed", "scenario", sc.ID, "error", err)
		return Fail(sc.ID, FailureInvocation, fmt.Sprintf("invocation failed: %v", err))
	}
	r.logger.Debug("captured",
		"scenario", sc.ID,
		"stdout_bytes", len(c.Stdout),
		"trace_bytes", len(c.Trace),
		"elapsed", c.Elapsed,
	)

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, sc.ID, c); err != nil {
			r.logger.Error("failed to archive capture", "scenario", sc.ID, "error", err)
			if report != nil {
				report.AddWarning("scenario %s: capture not archived: %v", sc.ID, err)
			}
		}
	}

	v := r.Evaluate(sc, c)
	r.logger.Info("scenario graded", "scenario", sc.ID, "passed", v.Passed, "failure", v.Failure)
	return v
}

// Evaluate grades an existing capture without invoking anything: output,
// then elapsed time, then rules, stopping at the first failure.
func (r *Runner) Evaluate(sc Scenario, c tracer.Capture) Verdict {
	if sc.ExpectedOutput != nil {
		expected := sc.ExpectedOutput.String()
		actual := strings.TrimSpace(c.Stdout)
		if expected != actual {
			return Fail(sc.ID, FailureOutputMismatch, fmt.Sprintf("Expected:\n%s\n\nGot:\n%s", expected, actual))
		}
	}

	if sc.MaxDuration != nil {
		elapsed := c.ElapsedSeconds()
		if elapsed > *sc.MaxDuration {
			return Fail(sc.ID, FailureTimeExceeded, fmt.Sprintf("Time elapsed: %ds\nMaximum allowed: %ds", elapsed, *sc.MaxDuration))
		}
	}

	events := trace.Events(strings.TrimSpace(c.Trace))
	if err := rules.Evaluate(sc.Rules, events); err != nil {
		return Fail(sc.ID, FailureRuleViolation, err.Error())
	}

	return Pass(sc.ID)
}
