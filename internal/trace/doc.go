// Package trace turns syscall-tracer output into signal-delivery events.
//
// The tracer is run as `strace -r -e trace=%signal`, so every line carries a
// relative timestamp followed by the syscall. Only kill() calls matter:
//
//	     0.000000 rt_sigaction(SIGINT, {sa_handler=0x401136, ...}, NULL, 8) = 0
//	     1.001873 kill(4242, SIGHUP)           = 0
//	     2.000311 kill(4242, 2)                = 0
//
// The first kill line above becomes SignalEvent{Timestamp: 1, Signal: "SIGHUP"}
// and the second SignalEvent{Timestamp: 2, Signal: "2"}. Every other line is
// skipped. Signals are never canonicalized: "SIGINT" and "2" are different
// identifiers as far as this package is concerned.
//
// Parsing is lazy. Parse and Events return an iter.Seq that scans its input
// each time it is ranged over, so the same sequence can be walked once per
// rule without materializing a slice.
package trace
