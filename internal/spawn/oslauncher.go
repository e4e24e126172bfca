// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/matt-FFFFFF/swarm/internal/teereader"
)

var _ Launcher = (*OSLauncher)(nil)

// OSLauncher starts real operating system processes.
type OSLauncher struct{}

// NewOSLauncher returns a Launcher backed by os.StartProcess.
func NewOSLauncher() *OSLauncher {
	return &OSLauncher{}
}

// Start implements the Launcher interface.
func (l *OSLauncher) Start(ctx context.Context, opts *Options) (Handle, error) {
	logger := ctxlog.Logger(ctx).With("path", opts.Path)

	logger.Debug("process info", "cwd", opts.Cwd, "args", opts.Args)

	rIn, wIn, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		closeAll(rIn, wIn)

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rIn, wIn, rOut, wOut)

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	env := os.Environ()

	for k, v := range opts.Env {
		logger.Debug("adding environment variable", "key", k, "value", v)
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	execName := filepath.Base(opts.Path)
	args := slices.Concat([]string{execName}, opts.Args)

	logger.Debug("starting process")

	ps, err := os.StartProcess(opts.Path, args, &os.ProcAttr{
		Dir:   opts.Cwd,
		Env:   env,
		Files: []*os.File{rIn, wOut, wErr},
	})
	if err != nil {
		closeAll(rIn, wIn, rOut, wOut, rErr, wErr)

		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	startTime := time.Now()

	logger.Debug("process started", "pid", ps.Pid)

	// The child holds its own descriptors now. Closing the parent's copies
	// means the readers see EOF as soon as the child exits.
	closeAll(rIn, wOut, wErr)

	killGrace := opts.KillGrace
	if killGrace <= 0 {
		killGrace = DefaultKillGrace
	}

	h := &osHandle{
		ps:   ps,
		done: make(chan struct{}),
	}

	// Feed the instruction payload and close stdin so the child is not left
	// waiting for more input.
	go func() {
		if opts.Stdin != "" {
			if _, err := io.WriteString(wIn, opts.Stdin); err != nil {
				logger.Warn("failed to write stdin payload", "pid", ps.Pid, "error", err)
			}
		}

		_ = wIn.Close()
	}()

	var outTeeOpts, errTeeOpts []teereader.Option

	if opts.OnStdout != nil {
		outTeeOpts = append(outTeeOpts, teereader.WithChunkFunc(opts.OnStdout))
	}

	if opts.OnStderr != nil {
		errTeeOpts = append(errTeeOpts, teereader.WithChunkFunc(opts.OnStderr))
	}

	outTee := teereader.NewLastLineTeeReader(rOut, outTeeOpts...)
	errTee := teereader.NewLastLineTeeReader(rErr, errTeeOpts...)

	var (
		readWg    sync.WaitGroup
		stdout    []byte
		stderr    []byte
		stdoutErr error
		stderrErr error
	)

	readWg.Add(2)

	go func() {
		defer readWg.Done()
		defer rOut.Close() //nolint:errcheck

		stdout, stdoutErr = readAllUpToMax(ctx, outTee, MaxBufferSize)
	}()

	go func() {
		defer readWg.Done()
		defer rErr.Close() //nolint:errcheck

		stderr, stderrErr = readAllUpToMax(ctx, errTee, MaxBufferSize)
	}()

	// This allows us to track why the process was stopped.
	wasKilled := make(chan error, 1)

	// Watchdog: escalate context expiry into terminate, grace, kill.
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logger.Debug("process running", "pid", ps.Pid, "elapsed", time.Since(startTime).Round(time.Second).String())

			case <-ctx.Done():
				werr := ErrAborted
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					werr = ErrTimeoutExceeded
				}

				// Record the reason before escalating, so the result is
				// correct even when the child exits inside the grace window.
				wasKilled <- werr

				logger.Info("context done, terminating process", "pid", ps.Pid, "reason", werr.Error())
				terminatePs(ctx, ps)

				select {
				case <-h.done:
					// Exited within the grace window.
				case <-time.After(killGrace):
					killPs(ctx, ps)
				}

				return

			case <-h.done:
				return
			}
		}
	}()

	// Supervisor: reap the process, join the readers, assemble the result.
	go func() {
		state, psErr := ps.Wait()
		endTime := time.Now()

		exitCode := -1
		if state != nil {
			exitCode = state.ExitCode()
		}

		logger.Debug("process finished", "pid", ps.Pid, "exitCode", exitCode)

		readWg.Wait()

		res := &Result{
			ExitCode:  exitCode,
			Stdout:    stdout,
			Stderr:    stderr,
			LastLine:  outTee.GetLastLine(0),
			StartedAt: startTime,
			EndedAt:   endTime,
			Err:       psErr,
		}

		select {
		case e := <-wasKilled:
			res.Err = errors.Join(res.Err, e)
			res.ExitCode = -1
		default:
			// No error from the watchdog, the process completed normally.
		}

		if stdoutErr != nil {
			res.Err = errors.Join(res.Err, stdoutErr)
		}

		if stderrErr != nil {
			res.Err = errors.Join(res.Err, stderrErr)
		}

		h.result = res
		close(h.done)
	}()

	return h, nil
}

// osHandle tracks a process started by OSLauncher.
type osHandle struct {
	ps     *os.Process
	done   chan struct{}
	result *Result
}

// Wait implements the Handle interface.
func (h *osHandle) Wait() *Result {
	<-h.done

	return h.result
}

// Terminate implements the Handle interface.
func (h *osHandle) Terminate() error {
	err := h.ps.Signal(syscall.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate pid %d: %w", h.ps.Pid, err)
	}

	return nil
}

// Kill implements the Handle interface.
func (h *osHandle) Kill() error {
	err := h.ps.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Join(ErrCouldNotKillProcess, err)
	}

	return nil
}

// Pid implements the Handle interface.
func (h *osHandle) Pid() int {
	return h.ps.Pid
}

func readAllUpToMax(ctx context.Context, r io.Reader, maxBufferSize int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, maxBufferSize+1)
	if err != nil && err != io.EOF {
		return nil, errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > maxBufferSize {
		ctxlog.Logger(ctx).Debug(
			"buffer overflow in readAllUpToMax",
			"bytesRead", n,
			"maxBytes", maxBufferSize,
		)

		// Keep draining so the writer is not blocked on a full pipe.
		_, _ = io.Copy(io.Discard, r)

		return buf.Bytes()[:maxBufferSize], ErrBufferOverflow
	}

	return buf.Bytes(), nil
}

// terminatePs asks the process to stop gracefully, tolerating one that has
// already exited.
func terminatePs(ctx context.Context, ps *os.Process) {
	if err := ps.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process terminate error", "pid", ps.Pid, "error", err)
	}
}

// killPs kills the process, tolerating one that has already exited.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", ps.Pid, "error", err)
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", ps.Pid)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
