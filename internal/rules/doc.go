// Package rules implements the signal constraint language and its evaluator.
//
// # Rule Language
//
// One rule per line:
//
//	NOSIG: SIGKILL,9
//	WHTLST: SIGHUP,1,SIGINT,2
//	SIGTIMING: SIGHUP<3,1<3,SIGUSR1>10,SIGTERM=5
//
// NOSIG forbids every listed signal. WHTLST permits only the listed signals.
// SIGTIMING binds a signal to a window: "<t" means strictly before t seconds,
// ">t" means at t seconds or later, "=t" means exactly t seconds.
//
// Signals are opaque strings. "SIGINT" and "2" are unrelated to the
// evaluator, so a rule that must cover both spellings lists both.
//
// # Malformed Input
//
// Parsing runs in one of two modes. Permissive mode keeps the historical
// behavior: a SIGTIMING pair that does not parse is dropped and an
// unrecognized line is ignored. Strict mode stops at the first such fragment
// and returns a *ParseError naming the line.
//
// # Evaluation
//
// Evaluate walks the rules in order and stops at the first violation. Each
// rule scans the whole event sequence in trace order and reports the first
// offending event.
package rules
