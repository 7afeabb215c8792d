package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/sigcheck/internal/tracer"
)

// BeginRun records a new run of suite and returns its id.
func (s *Store) BeginRun(ctx context.Context, suite string) (string, error) {
	id := s.ids.Generate()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, suite, started_at)
		VALUES (?, ?, ?)
	`, id, suite, formatTime(s.clock.Now()))
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}

	s.logger.Debug("run started", "run", id, "suite", suite)
	return id, nil
}

// SaveCapture archives one capture under runID at position seq and returns
// the capture's id. The run must exist, and seq must be unique within it.
func (s *Store) SaveCapture(ctx context.Context, runID, scenarioID string, seq int64, c tracer.Capture) (string, error) {
	argvJSON, err := marshalArgv(c.Argv)
	if err != nil {
		return "", fmt.Errorf("save capture: %w", err)
	}

	id := s.ids.Generate()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO captures
		(id, run_id, scenario_id, seq, argv, stdout, trace, elapsed_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		runID,
		scenarioID,
		seq,
		argvJSON,
		c.Stdout,
		c.Trace,
		c.Elapsed.Milliseconds(),
		formatTime(s.clock.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("save capture: %w", err)
	}

	s.logger.Debug("capture archived", "run", runID, "scenario", scenarioID, "seq", seq, "id", id)
	return id, nil
}

// RunRecorder archives every capture of one run in the order it receives
// them. It satisfies the grader's recorder interface.
//
// Thread-safety: Record is safe for concurrent use via internal mutex.
type RunRecorder struct {
	store *Store
	runID string

	mu  sync.Mutex
	seq int64
}

// NewRunRecorder begins a run of suite and returns a recorder for it.
func (s *Store) NewRunRecorder(ctx context.Context, suite string) (*RunRecorder, error) {
	runID, err := s.BeginRun(ctx, suite)
	if err != nil {
		return nil, err
	}
	return &RunRecorder{store: s, runID: runID}, nil
}

// RunID returns the id of the run being recorded.
func (r *RunRecorder) RunID() string {
	return r.runID
}

// Record archives c as the next capture of the run.
func (r *RunRecorder) Record(ctx context.Context, scenarioID string, c tracer.Capture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.SaveCapture(ctx, r.runID, scenarioID, r.seq+1, c); err != nil {
		return err
	}
	r.seq++
	return nil
}
