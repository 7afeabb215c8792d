package harness

import "fmt"

// FailureKind classifies why a scenario failed.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureOutputMismatch FailureKind = "output_mismatch"
	FailureTimeExceeded   FailureKind = "time_exceeded"
	FailureRuleViolation  FailureKind = "rule_violation"
	FailureInvocation     FailureKind = "invocation_error"
)

// Verdict is the outcome of grading one scenario.
type Verdict struct {
	Scenario string `json:"scenario"`

	// Passed is true only if every check passed.
	Passed bool `json:"passed"`

	// Failure is empty when Passed is true.
	Failure FailureKind `json:"failure,omitempty"`

	// Diagnostic explains the failure. Empty when Passed is true.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Pass creates a passing verdict.
func Pass(scenario string) Verdict {
	return Verdict{Scenario: scenario, Passed: true}
}

// Fail creates a failing verdict.
func Fail(scenario string, kind FailureKind, diagnostic string) Verdict {
	return Verdict{
		Scenario:   scenario,
		Failure:    kind,
		Diagnostic: diagnostic,
	}
}

// Report aggregates verdicts across a run.
type Report struct {
	Suite    string    `json:"suite"`
	Verdicts []Verdict `json:"verdicts"`
	Passed   int       `json:"passed"`
	Total    int       `json:"total"`

	// Warnings are problems that did not affect grading, such as a capture
	// that could not be archived.
	Warnings []string `json:"warnings,omitempty"`
}

// NewReport creates an empty report for a suite.
func NewReport(suite string) *Report {
	return &Report{
		Suite:    suite,
		Verdicts: []Verdict{},
	}
}

// Add appends a verdict and updates the tallies.
func (r *Report) Add(v Verdict) {
	r.Verdicts = append(r.Verdicts, v)
	r.Total++
	if v.Passed {
		r.Passed++
	}
}

// AddWarning records a non-fatal problem.
func (r *Report) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Score renders "passed/total".
func (r *Report) Score() string {
	return fmt.Sprintf("%d/%d", r.Passed, r.Total)
}

// AllPassed reports whether every graded scenario passed.
func (r *Report) AllPassed() bool {
	return r.Passed == r.Total
}
