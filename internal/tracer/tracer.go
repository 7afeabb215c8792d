// Package tracer runs a traced program and captures what it produced.
//
// The grader never interprets the program's exit status. A Capture holds the
// program's standard output, the tracer's log (standard error), and the wall
// time the invocation took. Only a failure to start the program is an error.
package tracer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommand is the tracer prefix used when a suite does not name one.
var DefaultCommand = []string{"strace", "-r", "-e", "trace=%signal"}

// Capture is the raw result of one invocation.
type Capture struct {
	Argv    []string      `json:"argv"`
	Stdout  string        `json:"stdout"`
	Trace   string        `json:"trace"`
	Elapsed time.Duration `json:"elapsed"`
}

// ElapsedSeconds is the elapsed wall time truncated to whole seconds.
func (c Capture) ElapsedSeconds() int64 {
	return int64(c.Elapsed / time.Second)
}

// Tracer invokes argv and returns its capture. Implementations must not
// impose their own timeout.
type Tracer interface {
	Run(ctx context.Context, argv []string) (Capture, error)
}

// Clock supplies wall time for measuring invocations.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Exec runs argv as a child process.
type Exec struct {
	// Dir is the working directory for the child. Empty means the current
	// directory.
	Dir string

	// Clock defaults to SystemClock.
	Clock Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Run starts argv, waits for it, and returns what it wrote. A non-zero exit
// status is not an error.
func (e *Exec) Run(ctx context.Context, argv []string) (Capture, error) {
	if len(argv) == 0 {
		return Capture{}, errors.New("empty command")
	}

	clock := e.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("invoking", "argv", strings.Join(argv, " "), "dir", e.Dir)

	start := clock.Now()
	err := cmd.Run()
	elapsed := clock.Now().Sub(start)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Capture{}, fmt.Errorf("run %s: %w", argv[0], err)
	}
	if exitErr != nil {
		logger.Debug("traced program exited non-zero", "code", exitErr.ExitCode())
	}

	return Capture{
		Argv:    append([]string(nil), argv...),
		Stdout:  stdout.String(),
		Trace:   stderr.String(),
		Elapsed: elapsed,
	}, nil
}

// ErrNotRecorded is returned by Recorded for a command it has no capture for.
var ErrNotRecorded = errors.New("no recorded capture for command")

// Recorded serves previously captured invocations instead of running
// anything. Captures are matched on their exact argv.
type Recorded struct {
	captures map[string]Capture
}

// NewRecorded indexes captures by argv. A later capture for the same argv
// replaces an earlier one.
func NewRecorded(captures ...Capture) *Recorded {
	r := &Recorded{captures: make(map[string]Capture, len(captures))}
	for _, c := range captures {
		r.captures[key(c.Argv)] = c
	}
	return r
}

// Run returns the capture recorded for argv.
func (r *Recorded) Run(_ context.Context, argv []string) (Capture, error) {
	c, ok := r.captures[key(argv)]
	if !ok {
		return Capture{}, fmt.Errorf("%w: %s", ErrNotRecorded, strings.Join(argv, " "))
	}
	return c, nil
}

func key(argv []string) string {
	return strings.Join(argv, "\x00")
}
