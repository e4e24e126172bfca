// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/matt-FFFFFF/swarm/internal/runswarm"
	"github.com/matt-FFFFFF/swarm/internal/spawn"
	"github.com/spf13/afero"
)

// DefaultSynthesisTimeout bounds the synthesis process. It matches the
// per-worker timeout.
const DefaultSynthesisTimeout = 120 * time.Second

// Stage names carried by merge progress events.
const (
	StageBackup    = "backup"
	StageSynthesis = "synthesis"
	StageWrite     = "write"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

var (
	// ErrNoSuccessfulOutputs is returned when every worker failed or was
	// canceled. The text is shown to the user verbatim.
	ErrNoSuccessfulOutputs = errors.New("No successful worker outputs to merge")
	// ErrSynthesis is returned when the synthesis process could not start,
	// exited non-zero, or timed out.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrWriteOutput is returned when the merged document could not be
	// written.
	ErrWriteOutput = errors.New("could not write merged document")
)

// FS is the filesystem used for the backup and merged artifacts.
// Default is the OS filesystem, but can be replaced with a mock for testing.
var FS = afero.NewOsFs()

// timeNow returns the current time. Tests replace it to pin artifact
// names and headers.
var timeNow = time.Now

// Result is the outcome of one merge. It is created once, after the run
// has joined; there are no retries at this layer.
type Result struct {
	Success bool
	// MergedContent is the full merged document, header included. Empty
	// unless Success.
	MergedContent string
	OutputPath    string
	// BackupPath points at the raw per-worker artifact. Empty only when
	// the backup itself could not be written.
	BackupPath string
	Err        error
	Duration   time.Duration
}

// Options configures a Coordinator.
type Options struct {
	// SynthPath is the synthesis executable.
	SynthPath string
	// SynthArgs are passed to the synthesis process. The payload arrives
	// on stdin.
	SynthArgs []string
	// Timeout bounds the synthesis process. Zero or negative means
	// DefaultSynthesisTimeout.
	Timeout time.Duration
	// Launcher starts the synthesis process. Nil means the OS launcher.
	Launcher spawn.Launcher
	// Bus receives merge lifecycle events. Nil means a bus nobody
	// listens to.
	Bus *eventbus.Bus
	// Order lists grouping names in the order their reports should be
	// presented to synthesis. Workers not listed keep their run order
	// after the listed ones.
	Order []string
}

// Coordinator runs the merge pipeline for one finished run.
type Coordinator struct {
	synthPath string
	synthArgs []string
	timeout   time.Duration
	launcher  spawn.Launcher
	bus       *eventbus.Bus
	order     []string
}

// New creates a Coordinator, applying defaults for unset options.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		synthPath: opts.SynthPath,
		synthArgs: slices.Clone(opts.SynthArgs),
		timeout:   opts.Timeout,
		launcher:  opts.Launcher,
		bus:       opts.Bus,
		order:     slices.Clone(opts.Order),
	}

	if c.timeout <= 0 {
		c.timeout = DefaultSynthesisTimeout
	}

	if c.launcher == nil {
		c.launcher = spawn.NewOSLauncher()
	}

	if c.bus == nil {
		c.bus = eventbus.New()
	}

	return c
}

// Merge runs the pipeline: back up every worker's raw output under root,
// refuse when nothing succeeded, synthesize the successful outputs through
// the external process, and write the merged document to outputPath.
// Failures are reported in the Result, never panicked or retried.
func (c *Coordinator) Merge(ctx context.Context, summary *runswarm.Summary, root, outputPath string) Result {
	started := timeNow()

	c.bus.Publish(eventbus.NewMergeStartedEvent(summary.WorkerCount))
	c.bus.Publish(eventbus.NewMergeProgressEvent(StageBackup))

	backupPath := c.writeBackup(ctx, summary, root)

	if summary.SuccessCount == 0 {
		return c.fail(started, ErrNoSuccessfulOutputs, backupPath)
	}

	c.bus.Publish(eventbus.NewMergeProgressEvent(StageSynthesis))

	body, err := c.synthesize(ctx, summary, root)
	if err != nil {
		return c.fail(started, err, backupPath)
	}

	c.bus.Publish(eventbus.NewMergeProgressEvent(StageWrite))

	content := wrapDocument(body, summary.SuccessCount, summary.WorkerCount)

	if err := c.writeOutput(outputPath, content); err != nil {
		return c.fail(started, err, backupPath)
	}

	duration := timeNow().Sub(started)
	c.bus.Publish(eventbus.NewMergeCompleteEvent(outputPath, duration))

	return Result{
		Success:       true,
		MergedContent: content,
		OutputPath:    outputPath,
		BackupPath:    backupPath,
		Duration:      duration,
	}
}

func (c *Coordinator) fail(started time.Time, err error, backupPath string) Result {
	c.bus.Publish(eventbus.NewMergeErrorEvent(err.Error(), backupPath))

	return Result{
		Err:        err,
		BackupPath: backupPath,
		Duration:   timeNow().Sub(started),
	}
}

// synthesize runs the synthesis process over the successful outputs and
// returns its stdout. The process gets its own timeout and the usual
// graceful-terminate then kill escalation.
func (c *Coordinator) synthesize(ctx context.Context, summary *runswarm.Summary, root string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	workers := orderWorkers(summary.SuccessfulWorkers(), c.order)

	h, err := c.launcher.Start(ctx, &spawn.Options{
		Path:  c.synthPath,
		Args:  slices.Clone(c.synthArgs),
		Cwd:   root,
		Stdin: synthesisPayload(workers),
	})
	if err != nil {
		return "", errors.Join(ErrSynthesis, err)
	}

	res := h.Wait()

	switch {
	case errors.Is(res.Err, spawn.ErrTimeoutExceeded):
		return "", fmt.Errorf("%w: timed out after %s", ErrSynthesis, c.timeout)
	case res.Err != nil:
		return "", errors.Join(ErrSynthesis, res.Err)
	case res.ExitCode != 0:
		return "", fmt.Errorf("%w: exited with code %d", ErrSynthesis, res.ExitCode)
	}

	return string(res.Stdout), nil
}

func (c *Coordinator) writeOutput(outputPath, content string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := FS.MkdirAll(dir, dirMode); err != nil {
			return errors.Join(ErrWriteOutput, err)
		}
	}

	if err := afero.WriteFile(FS, outputPath, []byte(content), fileMode); err != nil {
		return errors.Join(ErrWriteOutput, err)
	}

	return nil
}

// orderWorkers returns workers with those named in order first, in that
// order, and the rest keeping their run order. Unknown and duplicate names
// are skipped.
func orderWorkers(workers []runswarm.WorkerRecord, order []string) []runswarm.WorkerRecord {
	if len(order) == 0 {
		return workers
	}

	index := make(map[string]int, len(workers))
	for i, w := range workers {
		index[w.GroupingName] = i
	}

	out := make([]runswarm.WorkerRecord, 0, len(workers))
	taken := make(map[string]struct{}, len(workers))

	for _, name := range order {
		i, ok := index[name]
		if !ok {
			continue
		}

		if _, dup := taken[name]; dup {
			continue
		}

		taken[name] = struct{}{}

		out = append(out, workers[i])
	}

	for _, w := range workers {
		if _, ok := taken[w.GroupingName]; !ok {
			out = append(out, w)
		}
	}

	return out
}

// synthesisPayload builds the instruction handed to the synthesis process
// on stdin: every successful report framed with its grouping name, folders
// and duration.
func synthesisPayload(workers []runswarm.WorkerRecord) string {
	var sb strings.Builder

	sb.WriteString("You are merging analysis reports produced by independent workers, " +
		"each covering a different part of one codebase.\n")
	sb.WriteString("Combine them into a single markdown document: deduplicate overlapping " +
		"findings, organize related material together, and keep every concrete detail.\n")
	sb.WriteString("Respond with only the merged markdown document.\n")

	for _, w := range workers {
		fmt.Fprintf(&sb, "\n--- Report: %s (folders: %s, completed in %s) ---\n\n",
			w.GroupingName, strings.Join(w.Folders, ", "), w.Duration.Round(time.Millisecond))
		sb.WriteString(strings.TrimRight(w.Stdout, "\n"))
		sb.WriteString("\n")
	}

	return sb.String()
}

// wrapDocument prefixes the synthesized body with a generation header.
func wrapDocument(body string, successCount, workerCount int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<!-- Generated by swarm on %s -->\n", timeNow().UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "<!-- Merged from %d of %d worker reports -->\n\n", successCount, workerCount)
	sb.WriteString(strings.TrimRight(body, "\n"))
	sb.WriteString("\n")

	return sb.String()
}
