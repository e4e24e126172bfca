// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/matt-FFFFFF/swarm/internal/resmon"
	"github.com/matt-FFFFFF/swarm/internal/spawn"
)

const (
	// DefaultWorkerTimeout bounds a single agent attempt.
	DefaultWorkerTimeout = 120 * time.Second
	// DefaultMaxRetries is the retry budget after the first attempt.
	DefaultMaxRetries = 2
)

// Options configures an Orchestrator.
type Options struct {
	// AgentPath is the executable run for every worker.
	AgentPath string
	// AgentArgs are passed to every agent invocation.
	AgentArgs []string
	// Root is the codebase root. It becomes the working directory of every
	// worker process.
	Root string
	// MaxRetries is the retry budget after the first attempt. Zero
	// disables retries; negative means DefaultMaxRetries.
	MaxRetries int
	// WorkerTimeout bounds each attempt. Zero means DefaultWorkerTimeout.
	WorkerTimeout time.Duration
	// Launcher starts worker processes. Nil means the operating system
	// launcher.
	Launcher spawn.Launcher
	// Bus receives lifecycle events. Nil means a private bus with no
	// subscribers.
	Bus *eventbus.Bus
	// Canceler is the run's cancellation token. Nil means a fresh token.
	Canceler *Canceler
	// SampleInterval is the resource sampling cadence. Non-positive means
	// resmon.DefaultInterval.
	SampleInterval time.Duration
}

// Orchestrator fans a plan out to one worker per grouping, joins on all of
// them, and aggregates the outcome. Create one per run.
type Orchestrator struct {
	agentPath      string
	agentArgs      []string
	root           string
	maxRetries     int
	workerTimeout  time.Duration
	launcher       spawn.Launcher
	bus            *eventbus.Bus
	canceler       *Canceler
	sampleInterval time.Duration
	sleep          sleepFunc
}

// run is the per-Execute state shared by the worker goroutines.
type run struct {
	o       *Orchestrator
	tracker *tracker
	plan    *plan.Plan
}

// New creates an Orchestrator, applying defaults for unset options.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		agentPath:      opts.AgentPath,
		agentArgs:      slices.Clone(opts.AgentArgs),
		root:           opts.Root,
		maxRetries:     opts.MaxRetries,
		workerTimeout:  opts.WorkerTimeout,
		launcher:       opts.Launcher,
		bus:            opts.Bus,
		canceler:       opts.Canceler,
		sampleInterval: opts.SampleInterval,
		sleep:          defaultSleep,
	}

	if o.maxRetries < 0 {
		o.maxRetries = DefaultMaxRetries
	}

	if o.workerTimeout <= 0 {
		o.workerTimeout = DefaultWorkerTimeout
	}

	if o.launcher == nil {
		o.launcher = spawn.NewOSLauncher()
	}

	if o.bus == nil {
		o.bus = eventbus.New()
	}

	if o.canceler == nil {
		o.canceler = NewCanceler()
	}

	return o
}

// Canceler returns the run's cancellation token, for wiring to signal
// handling or a UI.
func (o *Orchestrator) Canceler() *Canceler {
	return o.canceler
}

// Execute runs every grouping in the plan concurrently and blocks until
// all of them reach a terminal status. Worker failures never abort
// siblings and never surface as an error here: the summary carries the
// full account, including a canceled run.
func (o *Orchestrator) Execute(ctx context.Context, p *plan.Plan) *Summary {
	logger := ctxlog.Logger(ctx).With("workers", len(p.Groupings))
	logger.Info("starting parallel analysis", "maxRetries", o.maxRetries, "workerTimeout", o.workerTimeout)

	startedAt := time.Now()
	t := newTracker(p.Groupings, o.maxRetries)
	r := &run{o: o, tracker: t, plan: p}

	mon := resmon.New(o.bus, t.counts, resmon.WithInterval(o.sampleInterval))
	mon.Start(ctx)

	watchDone := make(chan struct{})
	watchStopped := make(chan struct{})

	go o.watchCancellation(ctx, t, len(p.Groupings), watchDone, watchStopped)

	wg := &sync.WaitGroup{}

	for i, g := range p.Groupings {
		wg.Add(1)

		go func(g plan.Grouping, index int) {
			defer wg.Done()

			r.worker(ctx, g, index)
		}(g, i+1)
	}

	wg.Wait()

	close(watchDone)
	<-watchStopped

	snapshots, peakCPU, peakMem := mon.Stop(ctx)

	s := o.summarize(t, startedAt, snapshots, peakCPU, peakMem)

	o.bus.Publish(eventbus.NewAllCompleteEvent(
		s.SuccessCount, s.FailedCount, s.TotalDuration, s.SpeedupFactor))
	logger.Info("all workers complete",
		"succeeded", s.SuccessCount,
		"failed", s.FailedCount,
		"duration", s.TotalDuration,
		"speedup", s.SpeedupFactor)

	return s
}

// watchCancellation emits the run-level cancellation events the moment the
// token fires. The per-worker terminal transitions happen in the worker
// goroutines themselves.
func (o *Orchestrator) watchCancellation(
	ctx context.Context, t *tracker, total int, done <-chan struct{}, stopped chan<- struct{},
) {
	defer close(stopped)

	select {
	case <-o.canceler.Done():
		affected := t.markCanceling()

		o.bus.Publish(eventbus.NewCancelingEvent(len(affected), total))

		for _, rec := range affected {
			o.bus.Publish(eventbus.NewWorkerCancelingEvent(rec.Index, rec.GroupingName))
		}

		ctxlog.Logger(ctx).Warn("cancellation requested", "running", len(affected), "total", total)
	case <-done:
	}
}
