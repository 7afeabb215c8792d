package store

import (
	"context"
	"fmt"

	"github.com/roach88/sigcheck/internal/tracer"
)

// Replay is an archived run ready to be graded again.
type Replay struct {
	Run Run

	// ScenarioIDs in recorded order.
	ScenarioIDs []string

	// Tracer serves the run's captures instead of invoking anything.
	Tracer *tracer.Recorded
}

// LoadReplay loads runID for replaying.
func (s *Store) LoadReplay(ctx context.Context, runID string) (*Replay, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load replay: %w", err)
	}

	records, err := s.LoadRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load replay: %w", err)
	}

	ids := make([]string, len(records))
	captures := make([]tracer.Capture, len(records))
	for i, rec := range records {
		ids[i] = rec.ScenarioID
		captures[i] = rec.Capture
	}

	return &Replay{
		Run:         run,
		ScenarioIDs: ids,
		Tracer:      tracer.NewRecorded(captures...),
	}, nil
}
