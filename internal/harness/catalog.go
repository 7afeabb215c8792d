package harness

import (
	"slices"

	"github.com/roach88/sigcheck/internal/rules"
	"github.com/roach88/sigcheck/internal/tracer"
)

// BuiltinName names the built-in suite in reports.
const BuiltinName = "signals"

// BuiltinTarget runs the student's signal handler program against the
// reference killer.
var BuiltinTarget = []string{"./signals", "./killer"}

// DefaultRuleText is the rule text every built-in scenario starts from:
// SIGKILL is never allowed, and only the signals the exercise covers may be
// sent, in either spelling.
var DefaultRuleText = []string{
	"NOSIG: SIGKILL,9",
	"WHTLST: SIGHUP,1,SIGINT,2,SIGQUIT,3,SIGTERM,15,SIGPWR,30,SIGUSR1,10,SIGSTKFLT,16,SIGSYS,31,SIGUSR2,12,SIGCHLD,17",
}

// DefaultRules is DefaultRuleText parsed.
var DefaultRules = rules.MustParse(DefaultRuleText...)

type builtinCase struct {
	id     string
	output Transcript
	extra  []string
}

var builtinCases = []builtinCase{
	{id: "0", output: Transcript{1, 2, 25}},
	{id: "1", output: Transcript{}},
	{id: "2", output: Transcript{1, 2}},
	{id: "3", output: Transcript{1, 2, 1, 2}, extra: []string{"SIGTIMING: SIGHUP<3,SIGINT<3,1<3,2<3"}},
	{id: "4", output: Transcript{1, 1, 2, 2}},
	{id: "5", output: Transcript{1}},
	{id: "6", output: Transcript{1, 2, 7, 10}},
	{id: "7", output: Transcript{1, 2, 7}},
	{id: "8", output: Transcript{1, 2, 6}},
	{id: "9", output: Transcript{8, 9, 1, 2}, extra: []string{"NOSIG: SIGHUP,SIGINT,1,2"}},
}

// Builtin returns the built-in suite. Each call returns a fresh copy.
func Builtin() *Suite {
	suite := &Suite{
		Name:      BuiltinName,
		Tracer:    slices.Clone(tracer.DefaultCommand),
		Target:    slices.Clone(BuiltinTarget),
		Scenarios: make([]Scenario, 0, len(builtinCases)),
	}

	for _, c := range builtinCases {
		output := slices.Clone(c.output)
		suite.Scenarios = append(suite.Scenarios, Scenario{
			ID:             c.id,
			ExpectedOutput: &output,
			Rules:          rules.Compose(DefaultRules, rules.MustParse(c.extra...)),
		})
	}
	return suite
}
