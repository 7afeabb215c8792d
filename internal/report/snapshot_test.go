package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigcheck/internal/harness"
)

func mixedReport() *harness.Report {
	r := harness.NewReport("signals")
	r.Add(harness.Pass("0"))
	r.Add(harness.Fail("3", harness.FailureRuleViolation, "1 can only be sent before 3 seconds have passed"))
	r.Add(harness.Fail("2", harness.FailureOutputMismatch, "Expected:\n1\n2\n\nGot:\n1"))
	return r
}

func TestCanonical_Golden(t *testing.T) {
	AssertReportGolden(t, "mixed_report", mixedReport())
	AssertReportGolden(t, "empty_report", harness.NewReport("empty"))
}

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	snap := Snapshot(mixedReport())

	verdicts := snap["verdicts"].([]any)
	require.Len(t, verdicts, 3)
	pass := verdicts[0].(map[string]any)
	assert.NotContains(t, pass, "failure")
	assert.NotContains(t, pass, "diagnostic")
	assert.NotContains(t, snap, "warnings")
}

func TestSnapshot_Warnings(t *testing.T) {
	r := mixedReport()
	r.AddWarning("scenario %s: capture not archived: %v", "0", "disk full")

	data, err := Canonical(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"warnings":["scenario 0: capture not archived: disk full"]`)
}

func TestCanonical_Deterministic(t *testing.T) {
	a, err := Canonical(mixedReport())
	require.NoError(t, err)
	b, err := Canonical(mixedReport())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDigest(t *testing.T) {
	a, err := Digest(mixedReport())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := Digest(mixedReport())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := mixedReport()
	other.Verdicts[0].Diagnostic = "changed"
	c, err := Digest(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
