package trace

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// killLine matches one kill() call. Group 1 is the whole-second part of the
// relative timestamp, group 2 the signal argument.
var killLine = regexp.MustCompile(`^\s*(\d+)\.\d+\s+kill\(\d+, (SIG[A-Z0-9]+|\d+)\)`)

// SignalEvent is one observed kill() call.
type SignalEvent struct {
	// Timestamp is the whole-second part of the relative timestamp the
	// tracer printed. The fraction is truncated.
	Timestamp int64 `json:"timestamp"`

	// Signal is the raw argument: a symbolic name or a decimal number.
	Signal string `json:"signal"`
}

// String renders the event as "<signal>@<seconds>s".
func (e SignalEvent) String() string {
	return fmt.Sprintf("%s@%ds", e.Signal, e.Timestamp)
}

// ParseLine reports whether line is a kill() call and, if so, the event it
// describes.
func ParseLine(line string) (SignalEvent, bool) {
	m := killLine.FindStringSubmatch(line)
	if m == nil {
		return SignalEvent{}, false
	}

	secs, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Only reachable when the digits overflow int64.
		return SignalEvent{}, false
	}

	return SignalEvent{Timestamp: secs, Signal: m[2]}, true
}

// Parse yields an event for every line that is a kill() call, in input order.
func Parse(lines iter.Seq[string]) iter.Seq[SignalEvent] {
	return func(yield func(SignalEvent) bool) {
		for line := range lines {
			ev, ok := ParseLine(line)
			if !ok {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Lines splits text on newlines. A trailing carriage return is dropped from
// each line so traces captured on a pty parse the same way.
func Lines(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(text) {
			line = strings.TrimRight(line, "\r\n")
			if !yield(line) {
				return
			}
		}
	}
}

// Events parses the signal events in a block of tracer output.
func Events(text string) iter.Seq[SignalEvent] {
	return Parse(Lines(text))
}

// Collect drains seq into a slice. An empty sequence yields a nil slice.
func Collect(seq iter.Seq[SignalEvent]) []SignalEvent {
	return slices.Collect(seq)
}

// FromSlice adapts a fixed list of events to the sequence form the rule
// evaluator consumes.
func FromSlice(events []SignalEvent) iter.Seq[SignalEvent] {
	return slices.Values(events)
}
