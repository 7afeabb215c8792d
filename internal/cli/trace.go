package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sigcheck/internal/rules"
	"github.com/roach88/sigcheck/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Rules  string
	Strict bool
}

// TraceResult lists the signal events found in a trace and, when rules were
// given, the first violation.
type TraceResult struct {
	Events    []trace.SignalEvent `json:"events"`
	Count     int                 `json:"count"`
	Rules     []string            `json:"rules,omitempty"`
	Violation string              `json:"violation,omitempty"`
}

// RenderText writes one event per line, then the rule verdict if any.
func (r TraceResult) RenderText(w io.Writer) error {
	for _, ev := range r.Events {
		fmt.Fprintf(w, "  %ds  %s\n", ev.Timestamp, ev.Signal)
	}
	fmt.Fprintf(w, "%d signal event(s)\n", r.Count)
	if r.Rules == nil {
		return nil
	}
	if r.Violation != "" {
		fmt.Fprintf(w, "Rule violation: %s\n", r.Violation)
	} else {
		fmt.Fprintf(w, "All %d rule(s) satisfied\n", len(r.Rules))
	}
	return nil
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <file|->",
		Short: "Extract signal events from a saved trace",
		Long: `Read strace output and list the kill() calls it contains.

Only lines of the form "<secs>.<frac> kill(<pid>, <sig>)" count; everything
else is ignored. With --rules, the events are also checked against rule
text, which is handy when writing a new scenario.

Exit codes:
  0 - Events listed (and every rule satisfied, with --rules)
  1 - A rule was violated
  2 - Command error (file not found, malformed rule under --strict, etc.)

Examples:
  sigcheck trace strace.log
  strace -f -r -e trace=kill ./signals ./killer 3 2>&1 | sigcheck trace -
  sigcheck trace strace.log --rules rules.txt --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rule file to evaluate against the trace")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject malformed rule text instead of skipping it")

	return cmd
}

func runTrace(opts *TraceOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	text, err := readInput(name, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read trace", err)
	}

	events := trace.Collect(trace.Events(text))
	if events == nil {
		events = []trace.SignalEvent{}
	}
	result := TraceResult{
		Events: events,
		Count:  len(events),
	}

	if opts.Rules == "" {
		return formatter.Success(result)
	}

	ruleText, err := readInput(opts.Rules, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read rules", err)
	}
	mode := rules.Permissive
	if opts.Strict {
		mode = rules.Strict
	}
	rs, err := rules.Parse(ruleText, mode)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRuleSyntax, "invalid rule", err)
	}

	result.Rules = make([]string, len(rs))
	for i, r := range rs {
		result.Rules[i] = r.String()
	}

	if err := rules.Evaluate(rs, trace.FromSlice(events)); err != nil {
		var v *rules.Violation
		if !errors.As(err, &v) {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to evaluate rules", err)
		}
		result.Violation = v.Message
		if err := formatter.Failure(result, ErrCodeGradeFailed, v.Message); err != nil {
			return err
		}
		return NewExitError(ExitFailure, v.Message)
	}

	return formatter.Success(result)
}
