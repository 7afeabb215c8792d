package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/sigcheck/internal/testutil"
	"github.com/roach88/sigcheck/internal/tracer"
)

// createTestStore creates a store in a temp directory with sequential ids and
// a clock that advances one second per read.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDs("id")),
		WithClock(testutil.NewStepClock(time.Second)),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCapture creates a capture for "./signals ./killer <id>".
func createTestCapture(id, stdout, trace string, elapsed time.Duration) tracer.Capture {
	return tracer.Capture{
		Argv:    []string{"./signals", "./killer", id},
		Stdout:  stdout,
		Trace:   trace,
		Elapsed: elapsed,
	}
}
