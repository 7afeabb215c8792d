package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sigcheck/internal/tracer"
)

const testSuiteYAML = `
name: cli-suite
tracer: ["strace", "-r"]
target: ["./prog"]
base_rules:
  - "NOSIG: SIGKILL,9"
scenarios:
  - id: "a"
    description: "prints two lines"
    expected_output: [1, 2]
  - id: "b"
    expected_output: []
    max_duration: 2
`

// writeSuite writes testSuiteYAML into a temp dir and returns its path.
func writeSuite(t *testing.T) string {
	t.Helper()
	return writeTemp(t, "suite.yaml", testSuiteYAML)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// suiteCaptures returns captures for testSuiteYAML: "a" passes, "b" sends
// SIGKILL.
func suiteCaptures() *tracer.Recorded {
	return tracer.NewRecorded(
		tracer.Capture{
			Argv:    []string{"strace", "-r", "./prog", "a"},
			Stdout:  "1\n2\n",
			Trace:   "     0.000000 kill(42, SIGHUP) = 0\n",
			Elapsed: 300 * time.Millisecond,
		},
		tracer.Capture{
			Argv:    []string{"strace", "-r", "./prog", "b"},
			Stdout:  "",
			Trace:   "     1.500000 kill(42, SIGKILL) = 0\n",
			Elapsed: time.Second,
		},
	)
}

// passingCaptures is suiteCaptures with "b" fixed.
func passingCaptures() *tracer.Recorded {
	return tracer.NewRecorded(
		tracer.Capture{
			Argv:   []string{"strace", "-r", "./prog", "a"},
			Stdout: "1\n2\n",
		},
		tracer.Capture{
			Argv:  []string{"strace", "-r", "./prog", "b"},
			Trace: "     0.100000 kill(42, SIGINT) = 0\n",
		},
	)
}

// runGradeWith runs the grade command with a canned tracer.
func runGradeWith(t *testing.T, format string, tr tracer.Tracer, configure func(*GradeOptions), args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	opts := &GradeOptions{
		RootOptions: &RootOptions{Format: format},
		Tracer:      tr,
	}
	if configure != nil {
		configure(opts)
	}

	cmd := NewGradeCommand(opts.RootOptions)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)

	err := runGrade(opts, args, cmd)
	return buf.String(), err
}
