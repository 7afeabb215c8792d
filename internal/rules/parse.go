package rules

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ParseMode controls how malformed rule text is handled.
type ParseMode int

const (
	// Permissive drops malformed SIGTIMING pairs and ignores unrecognized
	// lines.
	Permissive ParseMode = iota
	// Strict fails on the first malformed fragment.
	Strict
)

// String returns "permissive" or "strict".
func (m ParseMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "permissive"
}

const (
	keywordForbidden = "NOSIG"
	keywordWhitelist = "WHTLST"
	keywordTiming    = "SIGTIMING"
)

var (
	ruleLine   = regexp.MustCompile(`^(NOSIG|WHTLST|SIGTIMING):(.*)$`)
	timingPair = regexp.MustCompile(`^([A-Z0-9_]+)([=<>])\s*([+-]?\d+)$`)
	signalName = regexp.MustCompile(`^[A-Z0-9_]+$`)
)

// Parse reads rule text, one rule per line. Blank lines and lines starting
// with '#' are skipped in both modes.
func Parse(text string, mode ParseMode) ([]Rule, error) {
	var lines []string
	for line := range strings.Lines(text) {
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return ParseLines(lines, mode)
}

// ParseLines parses each element of lines as one rule.
func ParseLines(lines []string, mode ParseMode) ([]Rule, error) {
	var out []Rule
	for i, line := range lines {
		r, err := ParseRule(line, mode)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = i + 1
			}
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// ParseRule parses a single rule line. It returns a nil Rule and nil error for
// lines that carry no rule: blanks, comments, and (in Permissive mode) lines
// with an unknown prefix or an empty body.
func ParseRule(line string, mode ParseMode) (Rule, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}

	m := ruleLine.FindStringSubmatch(line)
	if m == nil {
		if mode == Strict {
			return nil, &ParseError{Fragment: line, Reason: "unrecognized rule"}
		}
		return nil, nil
	}

	keyword, body := m[1], strings.TrimSpace(m[2])
	if body == "" {
		if mode == Strict {
			return nil, &ParseError{Fragment: line, Reason: "empty " + keyword + " list"}
		}
		return nil, nil
	}

	switch keyword {
	case keywordForbidden:
		set, err := parseSignalList(body, mode)
		if err != nil {
			return nil, err
		}
		return Forbidden{Signals: set}, nil
	case keywordWhitelist:
		set, err := parseSignalList(body, mode)
		if err != nil {
			return nil, err
		}
		return Whitelist{Signals: set}, nil
	default:
		bindings, err := parseTimingPairs(body, mode)
		if err != nil {
			return nil, err
		}
		return Timing{Bindings: bindings}, nil
	}
}

// MustParse is Parse in Permissive mode for rule text fixed at compile time.
// It panics if the text is rejected, which Permissive mode never does.
func MustParse(lines ...string) []Rule {
	rs, err := ParseLines(lines, Permissive)
	if err != nil {
		panic(err)
	}
	return rs
}

func parseSignalList(body string, mode ParseMode) (SignalSet, error) {
	set := make(SignalSet)
	for entry := range strings.SplitSeq(body, ",") {
		sig := strings.TrimSpace(entry)
		if sig == "" {
			if mode == Strict {
				return nil, &ParseError{Fragment: body, Reason: "empty signal entry"}
			}
			continue
		}
		if mode == Strict && !signalName.MatchString(sig) {
			return nil, &ParseError{Fragment: sig, Reason: "invalid signal identifier"}
		}
		set[sig] = struct{}{}
	}
	return set, nil
}

func parseTimingPairs(body string, mode ParseMode) (map[string]Bound, error) {
	bindings := make(map[string]Bound)
	for entry := range strings.SplitSeq(body, ",") {
		pair := strings.TrimSpace(entry)
		m := timingPair.FindStringSubmatch(pair)
		if m == nil {
			if mode == Strict {
				return nil, &ParseError{Fragment: pair, Reason: "malformed SIGTIMING pair"}
			}
			continue
		}

		threshold, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			if mode == Strict {
				return nil, &ParseError{Fragment: pair, Reason: "threshold out of range"}
			}
			continue
		}

		// A later binding for the same signal replaces the earlier one.
		bindings[m[1]] = Bound{Op: Operator(m[2][0]), Threshold: threshold}
	}
	return bindings, nil
}
