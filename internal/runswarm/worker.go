// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/matt-FFFFFF/swarm/internal/spawn"
)

// canceledErrorMessage is recorded on every worker stopped by cancellation.
const canceledErrorMessage = "Worker canceled"

// cancelKillGrace is the pause between the cooperative terminate and the
// forced kill during cancellation. It is deliberately shorter than the
// timeout kill grace: the user is waiting.
const cancelKillGrace = 2 * time.Second

// worker drives one grouping to a terminal record: attempt, classify,
// back off, retry. The cancellation token is checked before each spawn,
// before each backoff sleep and after each exit, so no retry is ever
// scheduled once cancellation has begun.
func (r *run) worker(ctx context.Context, g plan.Grouping, index int) {
	logger := ctxlog.Logger(ctx).With("grouping", g.Name, "worker", index)
	maxAttempts := r.o.maxRetries + 1

	var last *spawn.Result

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if r.o.canceler.Canceled() {
			r.finishCanceled(g.Name, last)

			return
		}

		r.tracker.update(g.Name, func(rec *WorkerRecord) {
			rec.Status = StatusRunning
			rec.Attempt = attempt

			if rec.StartedAt.IsZero() {
				rec.StartedAt = time.Now()
			}
		})
		r.o.bus.Publish(eventbus.NewWorkerStartedEvent(index, g.Name, attempt))
		logger.Debug("starting attempt", "attempt", attempt, "maxAttempts", maxAttempts)

		res := r.attempt(ctx, g, index)
		last = res

		if r.o.canceler.Canceled() {
			r.finishCanceled(g.Name, last)

			return
		}

		if res.Err == nil && res.ExitCode == 0 {
			r.finishComplete(g.Name, index, res)
			logger.Debug("worker complete", "attempt", attempt)

			return
		}

		reason := failureReason(res, r.o.workerTimeout)
		willRetry := attempt < maxAttempts
		r.o.bus.Publish(eventbus.NewWorkerErrorEvent(index, g.Name, attempt, reason, willRetry))
		logger.Warn("attempt failed", "attempt", attempt, "reason", reason, "willRetry", willRetry)

		if !willRetry {
			r.finishError(g.Name, res, reason)

			return
		}

		delay := retryDelay(attempt)

		r.tracker.update(g.Name, func(rec *WorkerRecord) {
			rec.Status = StatusRetrying
		})
		r.o.bus.Publish(eventbus.NewWorkerRetryingEvent(
			index, g.Name, attempt+1, r.o.maxRetries, delay, reason))

		if !r.o.sleep(ctx, r.o.canceler.Done(), delay) {
			if r.o.canceler.Canceled() {
				r.finishCanceled(g.Name, last)

				return
			}

			// The run context itself is gone: record the last failure.
			r.finishError(g.Name, res, reason)

			return
		}
	}
}

// attempt runs one agent invocation under the per-attempt timeout. The
// cancellation token escalates independently of the timeout: terminate on
// trigger, then kill after the cancellation grace.
func (r *run) attempt(ctx context.Context, g plan.Grouping, index int) *spawn.Result {
	ctx, cancel := context.WithTimeout(ctx, r.o.workerTimeout)
	defer cancel()

	opts := &spawn.Options{
		Path:  r.o.agentPath,
		Args:  slices.Clone(r.o.agentArgs),
		Cwd:   r.o.root,
		Stdin: buildPayload(g, r.o.root, r.plan.Summary),
		OnStdout: func(chunk []byte) {
			r.o.bus.Publish(eventbus.NewWorkerOutputEvent(
				index, g.Name, eventbus.StreamStdout, string(chunk)))
		},
		OnStderr: func(chunk []byte) {
			r.o.bus.Publish(eventbus.NewWorkerOutputEvent(
				index, g.Name, eventbus.StreamStderr, string(chunk)))
		},
	}

	h, err := r.o.launcher.Start(ctx, opts)
	if err != nil {
		now := time.Now()

		return &spawn.Result{ExitCode: -1, StartedAt: now, EndedAt: now, Err: err}
	}

	done := make(chan struct{})

	go func() {
		select {
		case <-r.o.canceler.Done():
			_ = h.Terminate()

			select {
			case <-done:
			case <-time.After(cancelKillGrace):
				_ = h.Kill()
			}
		case <-done:
		}
	}()

	res := h.Wait()
	close(done)

	return res
}

func (r *run) finishComplete(name string, index int, res *spawn.Result) {
	var duration time.Duration

	r.tracker.update(name, func(rec *WorkerRecord) {
		rec.Status = StatusComplete
		rec.Success = true
		rec.ExitCode = res.ExitCode
		rec.Stdout = string(res.Stdout)
		rec.Stderr = string(res.Stderr)
		rec.CompletedAt = time.Now()
		rec.Duration = rec.CompletedAt.Sub(rec.StartedAt)
		duration = rec.Duration
	})

	r.o.bus.Publish(eventbus.NewWorkerCompleteEvent(index, name, res.ExitCode, duration))
}

func (r *run) finishError(name string, res *spawn.Result, reason string) {
	r.tracker.update(name, func(rec *WorkerRecord) {
		rec.Status = StatusError
		rec.Success = false
		rec.ExitCode = res.ExitCode
		rec.Stdout = string(res.Stdout)
		rec.Stderr = string(res.Stderr)
		rec.Error = reason
		rec.CompletedAt = time.Now()
		rec.Duration = rec.CompletedAt.Sub(rec.StartedAt)
	})
}

// finishCanceled marks the record terminal after cancellation. Output from
// the last attempt is kept so the backup artifact can include it.
func (r *run) finishCanceled(name string, last *spawn.Result) {
	r.tracker.update(name, func(rec *WorkerRecord) {
		rec.Status = StatusCanceled
		rec.Success = false
		rec.Error = canceledErrorMessage
		rec.CompletedAt = time.Now()

		if last != nil {
			rec.ExitCode = last.ExitCode
			rec.Stdout = string(last.Stdout)
			rec.Stderr = string(last.Stderr)
		}

		if !rec.StartedAt.IsZero() {
			rec.Duration = rec.CompletedAt.Sub(rec.StartedAt)
		}
	})
}

// buildPayload renders the instruction document written to the agent's
// stdin: which folders to analyze and the shape of the report to produce.
func buildPayload(g plan.Grouping, root, planSummary string) string {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "You are analyzing one part of the codebase rooted at %s.\n\n", root)
	fmt.Fprintf(sb, "Grouping: %s\n", g.Name)
	sb.WriteString("Folders:\n")

	for _, f := range g.Folders {
		fmt.Fprintf(sb, "  - %s\n", f)
	}

	if planSummary != "" {
		fmt.Fprintf(sb, "\nPlan summary: %s\n", planSummary)
	}

	sb.WriteString("\nAnalyze only the folders listed above. " +
		"Write a markdown report of your findings to stdout, starting with " +
		"a heading naming the grouping, followed by one section per " +
		"significant finding.\n")

	return sb.String()
}

// failureReason renders a human-readable explanation for a failed attempt.
func failureReason(res *spawn.Result, timeout time.Duration) string {
	switch {
	case errors.Is(res.Err, spawn.ErrTimeoutExceeded):
		return fmt.Sprintf("timed out after %s", timeout)
	case errors.Is(res.Err, spawn.ErrAborted):
		return "run aborted"
	case errors.Is(res.Err, spawn.ErrCouldNotStartProcess):
		return fmt.Sprintf("could not start agent: %v", res.Err)
	case res.Err != nil:
		return res.Err.Error()
	default:
		return fmt.Sprintf("exited with code %d", res.ExitCode)
	}
}
