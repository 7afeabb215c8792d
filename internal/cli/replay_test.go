package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigcheck/internal/store"
)

// recordRun grades the test suite into dbPath and returns the run id.
func recordRun(t *testing.T, suitePath, dbPath string) string {
	t.Helper()

	out, err := runGradeWith(t, "json", suiteCaptures(), func(o *GradeOptions) {
		o.Suite = suitePath
		o.Record = dbPath
	})
	require.NoError(t, err)

	var resp struct {
		Data struct {
			RunID string `json:"run_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp.Data.RunID
}

func executeReplay(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	_, err := executeReplay(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayDatabaseNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	out, err := executeReplay(t, "json", "--db", dbPath)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeReplay(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestReplayLatestRun(t *testing.T) {
	suitePath := writeSuite(t)
	dbPath := filepath.Join(t.TempDir(), "captures.db")
	runID := recordRun(t, suitePath, dbPath)

	out, err := executeReplay(t, "text", "--db", dbPath, "--suite", suitePath)
	require.NoError(t, err)

	assert.Contains(t, out, "Replaying run "+runID+" (suite cli-suite)")
	assert.Contains(t, out, "Testing scenario a:   PASSED")
	assert.Contains(t, out, "SIGKILL not allowed")
	assert.Contains(t, out, "Score: 1/2")
	assert.Contains(t, out, "Deterministic: yes")
}

func TestReplayExplicitRunJSON(t *testing.T) {
	suitePath := writeSuite(t)
	dbPath := filepath.Join(t.TempDir(), "captures.db")
	first := recordRun(t, suitePath, dbPath)
	recordRun(t, suitePath, dbPath)

	out, err := executeReplay(t, "json", "--db", dbPath, "--suite", suitePath, "--run", first)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, first, resp.Data.RunID)
	assert.True(t, resp.Data.Deterministic)
	assert.Len(t, resp.Data.Digest, 64)
	assert.Equal(t, "1/2", resp.Data.Score)
	require.Len(t, resp.Data.Verdicts, 2)
}

func TestReplayRegradesWithChangedRules(t *testing.T) {
	suitePath := writeSuite(t)
	dbPath := filepath.Join(t.TempDir(), "captures.db")
	recordRun(t, suitePath, dbPath)

	// Same scenarios, but SIGKILL is no longer forbidden.
	relaxed := writeTemp(t, "relaxed.yaml", `
name: cli-suite
tracer: ["strace", "-r"]
target: ["./prog"]
scenarios:
  - id: "a"
    expected_output: [1, 2]
  - id: "b"
    expected_output: []
    max_duration: 2
`)

	out, err := executeReplay(t, "text", "--db", dbPath, "--suite", relaxed)
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 2/2")
}

func TestReplayUnknownRun(t *testing.T) {
	suitePath := writeSuite(t)
	dbPath := filepath.Join(t.TempDir(), "captures.db")
	recordRun(t, suitePath, dbPath)

	_, err := executeReplay(t, "text", "--db", dbPath, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestReplayScenarioMissingFromSuite(t *testing.T) {
	suitePath := writeSuite(t)
	dbPath := filepath.Join(t.TempDir(), "captures.db")
	recordRun(t, suitePath, dbPath)

	other := writeTemp(t, "other.yaml", `
name: other
target: ["./prog"]
scenarios:
  - id: "z"
`)

	_, err := executeReplay(t, "text", "--db", dbPath, "--suite", other)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown scenario")
}
