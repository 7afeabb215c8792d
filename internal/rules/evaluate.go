package rules

import (
	"iter"

	"github.com/roach88/sigcheck/internal/trace"
)

// Evaluate applies rs to events in order and returns the first *Violation,
// or nil if every rule passes. events is ranged over once per rule, so it
// must be re-iterable (trace.Events and trace.FromSlice both are).
func Evaluate(rs []Rule, events iter.Seq[trace.SignalEvent]) error {
	for _, r := range rs {
		if v := r.check(events); v != nil {
			return v
		}
	}
	return nil
}

// Check applies a single rule. It is Evaluate for a one-element list.
func Check(r Rule, events iter.Seq[trace.SignalEvent]) error {
	if v := r.check(events); v != nil {
		return v
	}
	return nil
}
