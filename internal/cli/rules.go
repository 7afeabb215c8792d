package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sigcheck/internal/rules"
)

// RulesCheckOptions holds flags for the rules check command.
type RulesCheckOptions struct {
	*RootOptions
	Permissive bool
}

// RuleInfo is one parsed rule in normalized form.
type RuleInfo struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// RuleList is the output of rules check.
type RuleList struct {
	Mode  string     `json:"mode"`
	Rules []RuleInfo `json:"rules"`
}

// RenderText writes one normalized rule per line.
func (l RuleList) RenderText(w io.Writer) error {
	for _, r := range l.Rules {
		fmt.Fprintln(w, r.Text)
	}
	fmt.Fprintf(w, "%d rule(s) OK (%s)\n", len(l.Rules), l.Mode)
	return nil
}

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with signal rule text",
	}
	cmd.AddCommand(newRulesCheckCommand(rootOpts))
	return cmd
}

func newRulesCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesCheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <file|->",
		Short: "Parse rule text and print it normalized",
		Long: `Parse one rule per line and print the rules in normalized form.

Rule text is parsed strictly: the first malformed line is reported with
its line number. With --permissive, malformed rules and pairs are skipped
the way suites load them by default.

Exit codes:
  0 - All rules parsed
  2 - Command error (file not found, malformed rule, etc.)

Examples:
  sigcheck rules check rules.txt
  echo "SIGTIMING SIGINT<3" | sigcheck rules check -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Permissive, "permissive", false, "skip malformed rules instead of rejecting them")

	return cmd
}

func runRulesCheck(opts *RulesCheckOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	text, err := readInput(name, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read rules", err)
	}

	mode := rules.Strict
	if opts.Permissive {
		mode = rules.Permissive
	}

	parsed, err := rules.Parse(text, mode)
	if err != nil {
		var pe *rules.ParseError
		if errors.As(err, &pe) {
			return formatter.Fail(ExitCommandError, ErrCodeRuleSyntax, "invalid rule", err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to parse rules", err)
	}

	return formatter.Success(describeRules(parsed, mode))
}

func describeRules(rs []rules.Rule, mode rules.ParseMode) RuleList {
	list := RuleList{
		Mode:  mode.String(),
		Rules: make([]RuleInfo, len(rs)),
	}
	for i, r := range rs {
		list.Rules[i] = RuleInfo{Kind: string(r.Kind()), Text: r.String()}
	}
	return list
}
