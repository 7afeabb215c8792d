package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// marshalArgv converts argv to JSON TEXT for storage. HTML escaping is
// disabled so shell metacharacters are stored as written.
func marshalArgv(argv []string) (string, error) {
	if argv == nil {
		argv = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(argv); err != nil {
		return "", fmt.Errorf("marshal argv: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalArgv parses JSON TEXT written by marshalArgv.
func unmarshalArgv(data string) ([]string, error) {
	var argv []string
	if err := json.Unmarshal([]byte(data), &argv); err != nil {
		return nil, fmt.Errorf("unmarshal argv: %w", err)
	}
	if argv == nil {
		argv = []string{}
	}
	return argv, nil
}

// formatTime renders t as UTC RFC 3339 with nanoseconds.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses TEXT written by formatTime.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
