package report

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sigcheck/internal/harness"
)

// GoldenDir is where golden files live, relative to the test's package.
const GoldenDir = "testdata/golden"

// AssertGolden compares data against testdata/golden/{name}.golden.
//
// To regenerate golden files, run the test with -update:
//
//	go test ./internal/report -update
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// AssertReportGolden compares r's canonical JSON against a golden file.
func AssertReportGolden(t *testing.T, name string, r *harness.Report) {
	t.Helper()

	data, err := Canonical(r)
	if err != nil {
		t.Fatalf("canonical report: %v", err)
	}
	AssertGolden(t, name, data)
}
