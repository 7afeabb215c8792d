package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sigcheck/internal/harness"
)

// ScenariosOptions holds flags for the scenarios command.
type ScenariosOptions struct {
	*RootOptions
	Suite  string
	Strict bool
}

// ScenarioInfo describes one scenario for listing.
type ScenarioInfo struct {
	ID             string   `json:"id"`
	Description    string   `json:"description,omitempty"`
	Command        []string `json:"command"`
	ExpectedOutput *[]int   `json:"expected_output,omitempty"`
	MaxDuration    *int64   `json:"max_duration,omitempty"`
	Rules          []string `json:"rules"`
}

// ScenarioList is the output of the scenarios command.
type ScenarioList struct {
	Suite     string         `json:"suite"`
	Scenarios []ScenarioInfo `json:"scenarios"`
}

// RenderText writes one block per scenario.
func (l ScenarioList) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Suite %s: %d scenario(s)\n", l.Suite, len(l.Scenarios))
	for _, s := range l.Scenarios {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Scenario %s\n", s.ID)
		if s.Description != "" {
			fmt.Fprintf(w, "  description: %s\n", s.Description)
		}
		fmt.Fprintf(w, "  command:     %s\n", strings.Join(s.Command, " "))
		fmt.Fprintf(w, "  expected:    %s\n", describeExpected(s.ExpectedOutput))
		if s.MaxDuration != nil {
			fmt.Fprintf(w, "  max time:    %ds\n", *s.MaxDuration)
		}
		for i, r := range s.Rules {
			label := "  rules:       "
			if i > 0 {
				label = "               "
			}
			fmt.Fprintf(w, "%s%s\n", label, r)
		}
	}
	return nil
}

func describeExpected(out *[]int) string {
	switch {
	case out == nil:
		return "(not checked)"
	case len(*out) == 0:
		return "(no output)"
	}
	parts := make([]string, len(*out))
	for i, n := range *out {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}

// NewScenariosCommand creates the scenarios command.
func NewScenariosCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenariosOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List scenarios with their expectations and rules",
		Long: `List every scenario in a suite: the command it runs, the expected
output, the time limit, and the signal rules that apply.

Examples:
  sigcheck scenarios
  sigcheck scenarios --suite ./suite.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Suite, "suite", "", "suite file (.yaml, .yml or .cue); default is the built-in suite")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject malformed rule text instead of skipping it")

	return cmd
}

func runScenarios(opts *ScenariosOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	suite, err := loadSuite(opts.Suite, opts.Strict)
	if err != nil {
		return formatter.Fail(ExitCommandError, suiteErrorCode(err), "failed to load suite", err)
	}

	return formatter.Success(listScenarios(suite))
}

func listScenarios(suite *harness.Suite) ScenarioList {
	list := ScenarioList{
		Suite:     suite.Name,
		Scenarios: make([]ScenarioInfo, 0, len(suite.Scenarios)),
	}
	for _, sc := range suite.Scenarios {
		info := ScenarioInfo{
			ID:          sc.ID,
			Description: sc.Description,
			Command:     suite.Command(sc),
			MaxDuration: sc.MaxDuration,
			Rules:       make([]string, len(sc.Rules)),
		}
		if sc.ExpectedOutput != nil {
			out := []int(*sc.ExpectedOutput)
			info.ExpectedOutput = &out
		}
		for i, r := range sc.Rules {
			info.Rules[i] = r.String()
		}
		list.Scenarios = append(list.Scenarios, info)
	}
	return list
}
