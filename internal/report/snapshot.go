package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/sigcheck/internal/harness"
)

// digestDomain separates report digests from any other hash of the same
// bytes. Bump the version if the snapshot layout changes.
const digestDomain = "sigcheck/report/v1"

// Snapshot converts a report to the generic form MarshalCanonical accepts.
// Empty failure kinds, diagnostics and warnings are omitted.
func Snapshot(r *harness.Report) map[string]any {
	verdicts := make([]any, len(r.Verdicts))
	for i, v := range r.Verdicts {
		m := map[string]any{
			"scenario": v.Scenario,
			"passed":   v.Passed,
		}
		if v.Failure != harness.FailureNone {
			m["failure"] = string(v.Failure)
		}
		if v.Diagnostic != "" {
			m["diagnostic"] = v.Diagnostic
		}
		verdicts[i] = m
	}

	out := map[string]any{
		"suite":    r.Suite,
		"verdicts": verdicts,
		"passed":   r.Passed,
		"total":    r.Total,
		"score":    r.Score(),
	}
	if len(r.Warnings) > 0 {
		out["warnings"] = r.Warnings
	}
	return out
}

// Canonical renders r as canonical JSON.
func Canonical(r *harness.Report) ([]byte, error) {
	data, err := MarshalCanonical(Snapshot(r))
	if err != nil {
		return nil, fmt.Errorf("canonical report: %w", err)
	}
	return data, nil
}

// Digest is the hex SHA-256 of r's canonical JSON, domain separated:
// SHA256(domain + 0x00 + canonical).
func Digest(r *harness.Report) (string, error) {
	data, err := Canonical(r)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
