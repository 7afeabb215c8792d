package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/sigcheck/internal/tracer"
)

var (
	// ErrRunNotFound is returned for a run id the archive does not hold.
	ErrRunNotFound = errors.New("run not found")

	// ErrNoRuns is returned by LatestRun on an empty archive.
	ErrNoRuns = errors.New("archive holds no runs")
)

// Run summarizes one archived grading session.
type Run struct {
	ID        string    `json:"id"`
	Suite     string    `json:"suite"`
	StartedAt time.Time `json:"started_at"`
	Captures  int       `json:"captures"`
}

// Record is one archived capture with its bookkeeping columns.
type Record struct {
	ID         string
	RunID      string
	ScenarioID string
	Seq        int64
	Capture    tracer.Capture
	RecordedAt time.Time
}

// ListRuns returns every run, oldest first.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.suite, r.started_at, COUNT(c.id)
		FROM runs r
		LEFT JOIN captures c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the summary of one run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.suite, r.started_at, COUNT(c.id)
		FROM runs r
		LEFT JOIN captures c ON c.run_id = r.id
		WHERE r.id = ?
		GROUP BY r.id
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("query latest run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// LoadRun returns the captures of runID in the order they were recorded.
// A run that exists but holds no captures yields an empty slice.
func (s *Store) LoadRun(ctx context.Context, runID string) ([]Record, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, scenario_id, seq, argv, stdout, trace, elapsed_ms, recorded_at
		FROM captures
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		startedAt string
	)
	if err := row.Scan(&run.ID, &run.Suite, &startedAt, &run.Captures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	t, err := parseTime(startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	run.StartedAt = t
	return run, nil
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec        Record
		argvJSON   string
		elapsedMS  int64
		recordedAt string
	)
	err := row.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.ScenarioID,
		&rec.Seq,
		&argvJSON,
		&rec.Capture.Stdout,
		&rec.Capture.Trace,
		&elapsedMS,
		&recordedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan capture: %w", err)
	}

	argv, err := unmarshalArgv(argvJSON)
	if err != nil {
		return Record{}, fmt.Errorf("scan capture %s: %w", rec.ID, err)
	}
	rec.Capture.Argv = argv
	rec.Capture.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	t, err := parseTime(recordedAt)
	if err != nil {
		return Record{}, fmt.Errorf("scan capture %s: %w", rec.ID, err)
	}
	rec.RecordedAt = t
	return rec, nil
}
