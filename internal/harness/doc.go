// Package harness grades a signal-exercise submission scenario by scenario.
//
// A Suite names the command that runs the submission (tracer prefix, target
// program) and the scenarios to grade. Each Scenario carries up to three
// expectations, checked in this order and stopping at the first failure:
//
//  1. ExpectedOutput: the program's trimmed standard output must equal the
//     transcript joined by newlines.
//  2. MaxDuration: elapsed wall time, truncated to whole seconds, must not
//     exceed the limit.
//  3. Rules: the signal rules must accept the kill() calls in the trace.
//
// # Suite Format
//
// Suites are YAML or CUE files:
//
//	name: signals-hw
//	target: ["./signals", "./killer"]
//	base_rules:
//	  - "NOSIG: SIGKILL,9"
//	  - "WHTLST: SIGHUP,1,SIGINT,2"
//	scenarios:
//	  - id: "3"
//	    expected_output: [1, 2, 1, 2]
//	    rules:
//	      - "SIGTIMING: SIGHUP<3,SIGINT<3,1<3,2<3"
//
// tracer defaults to `strace -r -e trace=%signal`; an explicit empty list
// runs the target untraced. A scenario's rules extend base_rules unless
// inherit_rules is false. arg defaults to the scenario id.
//
// Without a suite file the built-in catalog (Builtin) is used.
//
// # Execution
//
// Scenarios run one at a time. A Runner never aborts a run: every scenario
// gets a Verdict and the Report carries the score.
package harness
