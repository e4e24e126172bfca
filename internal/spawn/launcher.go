// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// MaxBufferSize is the per-stream cap on captured output.
	MaxBufferSize = 8 * 1024 * 1024 // 8MB

	// DefaultKillGrace is the pause between a graceful terminate and a
	// forced kill when a process must be stopped.
	DefaultKillGrace = 5 * time.Second

	heartbeatInterval = 10 * time.Second
)

var (
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", MaxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrCouldNotKillProcess is returned when the process could not be killed.
	ErrCouldNotKillProcess = errors.New("could not kill process")
	// ErrFailedToReadBuffer is returned when the buffer from the operating system pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrTimeoutExceeded is returned when the process exceeds the context deadline.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrAborted is returned when the context is canceled before the process exits.
	ErrAborted = errors.New("process aborted")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
)

// Options describes a single process invocation.
type Options struct {
	// Path is the full path of the executable to run.
	Path string
	// Args are the arguments to the command, not including the executable name itself.
	Args []string
	// Cwd is the working directory for the process.
	Cwd string
	// Env is appended to the inherited environment as KEY=VALUE pairs.
	Env map[string]string
	// Stdin is written to the child's standard input, which is then closed.
	Stdin string
	// OnStdout, if set, is called with a copy of each chunk of standard output
	// as it is produced.
	OnStdout func([]byte)
	// OnStderr, if set, is called with a copy of each chunk of standard error
	// as it is produced.
	OnStderr func([]byte)
	// KillGrace is the pause between a graceful terminate and a forced kill.
	// DefaultKillGrace is used when zero.
	KillGrace time.Duration
}

// Result is the outcome of a completed process.
// Exit code 0 with a nil error is the sole success signal.
type Result struct {
	ExitCode  int
	Stdout    []byte
	Stderr    []byte
	LastLine  string // last complete line written to stdout
	StartedAt time.Time
	EndedAt   time.Time
	Err       error
}

// Duration returns the wall-clock run time of the process.
func (r *Result) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Handle is a live process started by a Launcher.
type Handle interface {
	// Wait blocks until the process has exited and its output has been
	// collected. It is safe to call from multiple goroutines.
	Wait() *Result

	// Terminate asks the process to stop gracefully.
	Terminate() error

	// Kill stops the process immediately.
	Kill() error

	// Pid returns the operating system process id.
	Pid() int
}

// Launcher starts external processes. Implementations must be safe for
// concurrent use; the orchestrator shares one Launcher across all workers.
type Launcher interface {
	// Start launches the process described by opts, which must not be nil.
	// Start fails only when the process cannot be created; anything that
	// happens after a successful start is reported on the Handle's Result.
	Start(ctx context.Context, opts *Options) (Handle, error)
}
