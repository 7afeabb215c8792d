package rules

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/sigcheck/internal/trace"
)

// Kind names a rule variant.
type Kind string

// Rule kinds.
const (
	KindForbidden Kind = "forbidden"
	KindWhitelist Kind = "whitelist"
	KindTiming    Kind = "timing"
)

// Rule is one constraint over a signal trace. The set of implementations is
// closed: Forbidden, Whitelist and Timing.
type Rule interface {
	// Kind identifies the variant.
	Kind() Kind

	// String renders the rule back into the rule language.
	String() string

	// check scans events and returns the first violation, or nil.
	check(events iter.Seq[trace.SignalEvent]) *Violation
}

// SignalSet is a set of raw signal identifiers.
type SignalSet map[string]struct{}

// NewSignalSet builds a set from the given identifiers. Duplicates collapse.
func NewSignalSet(signals ...string) SignalSet {
	s := make(SignalSet, len(signals))
	for _, sig := range signals {
		s[sig] = struct{}{}
	}
	return s
}

// Contains reports whether sig is in the set. Comparison is exact.
func (s SignalSet) Contains(sig string) bool {
	_, ok := s[sig]
	return ok
}

// Sorted returns the members in lexical order.
func (s SignalSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Forbidden fails on the first event whose signal is in Signals.
type Forbidden struct {
	Signals SignalSet
}

// Kind implements Rule.
func (Forbidden) Kind() Kind { return KindForbidden }

// String implements Rule.
func (r Forbidden) String() string {
	return keywordForbidden + ": " + strings.Join(r.Signals.Sorted(), ",")
}

func (r Forbidden) check(events iter.Seq[trace.SignalEvent]) *Violation {
	return scanMembership(KindForbidden, r.Signals, events, false)
}

// Whitelist fails on the first event whose signal is not in Signals.
type Whitelist struct {
	Signals SignalSet
}

// Kind implements Rule.
func (Whitelist) Kind() Kind { return KindWhitelist }

// String implements Rule.
func (r Whitelist) String() string {
	return keywordWhitelist + ": " + strings.Join(r.Signals.Sorted(), ",")
}

func (r Whitelist) check(events iter.Seq[trace.SignalEvent]) *Violation {
	return scanMembership(KindWhitelist, r.Signals, events, true)
}

// Operator is the comparison in a timing binding.
type Operator byte

// Timing operators.
const (
	Before  Operator = '<'
	After   Operator = '>'
	Exactly Operator = '='
)

// String returns the operator's symbol.
func (o Operator) String() string {
	return string(rune(o))
}

// Bound is the window a timing rule allows for one signal.
type Bound struct {
	Op        Operator `json:"op"`
	Threshold int64    `json:"threshold"`
}

// Allows reports whether an event at ts seconds satisfies the bound.
// After is inclusive: an event at exactly Threshold passes.
func (b Bound) Allows(ts int64) bool {
	switch b.Op {
	case Before:
		return ts < b.Threshold
	case After:
		return ts >= b.Threshold
	case Exactly:
		return ts == b.Threshold
	default:
		return false
	}
}

// describe finishes the sentence "<sig> can only be sent ...".
func (b Bound) describe() string {
	switch b.Op {
	case Before:
		return fmt.Sprintf("before %d seconds have passed", b.Threshold)
	case After:
		return fmt.Sprintf("after %d seconds have passed", b.Threshold)
	default:
		return fmt.Sprintf("when exactly %d seconds have passed", b.Threshold)
	}
}

// Timing constrains when bound signals may be sent. Events for signals
// without a binding are ignored.
type Timing struct {
	Bindings map[string]Bound
}

// Kind implements Rule.
func (Timing) Kind() Kind { return KindTiming }

// String implements Rule.
func (r Timing) String() string {
	sigs := slices.Sorted(maps.Keys(r.Bindings))
	pairs := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		b := r.Bindings[sig]
		pairs = append(pairs, fmt.Sprintf("%s%s%d", sig, b.Op, b.Threshold))
	}
	return keywordTiming + ": " + strings.Join(pairs, ",")
}

func (r Timing) check(events iter.Seq[trace.SignalEvent]) *Violation {
	for ev := range events {
		b, ok := r.Bindings[ev.Signal]
		if !ok {
			continue
		}
		if !b.Allows(ev.Timestamp) {
			return &Violation{
				Kind:      KindTiming,
				Signal:    ev.Signal,
				Timestamp: ev.Timestamp,
				Message:   fmt.Sprintf("%s can only be sent %s", ev.Signal, b.describe()),
			}
		}
	}
	return nil
}

// scanMembership is the shared walk behind Forbidden and Whitelist: the first
// event whose membership in set differs from wantMember is a violation.
func scanMembership(kind Kind, set SignalSet, events iter.Seq[trace.SignalEvent], wantMember bool) *Violation {
	for ev := range events {
		if set.Contains(ev.Signal) != wantMember {
			return &Violation{
				Kind:      kind,
				Signal:    ev.Signal,
				Timestamp: ev.Timestamp,
				Message:   fmt.Sprintf("%s not allowed", ev.Signal),
			}
		}
	}
	return nil
}

// Compose concatenates rule lists into a new list. The inputs are never
// modified or aliased, so a shared base list can be extended per scenario.
func Compose(lists ...[]Rule) []Rule {
	return slices.Concat(lists...)
}
