package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.db.QueryRow("SELECT COUNT(*) FROM captures").Scan(&count); err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Fatal("Open() with invalid path should fail")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db = %v, want nil", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_Tables(t *testing.T) {
	s := createTestStore(t)

	runs := getTableColumns(t, s.db, "runs")
	for _, col := range []string{"id", "suite", "started_at"} {
		if !slices.Contains(runs, col) {
			t.Errorf("runs table missing column %q, have %v", col, runs)
		}
	}

	captures := getTableColumns(t, s.db, "captures")
	for _, col := range []string{"id", "run_id", "scenario_id", "seq", "argv", "stdout", "trace", "elapsed_ms", "recorded_at"} {
		if !slices.Contains(captures, col) {
			t.Errorf("captures table missing column %q, have %v", col, captures)
		}
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	indexes := getTableIndexes(t, s.db, "captures")
	if !slices.Contains(indexes, "idx_captures_run_scenario") {
		t.Errorf("captures missing idx_captures_run_scenario, have %v", indexes)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// A version 0 database has the tables but not the index.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to create v0 schema: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() on v0 database failed: %v", err)
	}
	defer s.Close()

	indexes := getTableIndexes(t, s.db, "captures")
	if !slices.Contains(indexes, "idx_captures_run_scenario") {
		t.Errorf("migration did not add index, have %v", indexes)
	}
}

func TestConstraint_CaptureRequiresRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.SaveCapture(t.Context(), "no-such-run", "0", 1, createTestCapture("0", "", "", 0))
	if err == nil {
		t.Fatal("SaveCapture() for unknown run should fail")
	}
}

func TestConstraint_UniqueSeqWithinRun(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	runID, err := s.BeginRun(ctx, "signals")
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	if _, err := s.SaveCapture(ctx, runID, "0", 1, createTestCapture("0", "", "", 0)); err != nil {
		t.Fatalf("first SaveCapture() failed: %v", err)
	}
	if _, err := s.SaveCapture(ctx, runID, "1", 1, createTestCapture("1", "", "", 0)); err == nil {
		t.Fatal("SaveCapture() with duplicate seq should fail")
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("failed to get columns for %s: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan column: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_index_list(?)", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %s: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
