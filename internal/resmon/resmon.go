// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package resmon

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// DefaultInterval is the pause between samples.
const DefaultInterval = time.Second

const bytesPerMB = 1024 * 1024

// ErrSample is returned when the host counters cannot be read.
var ErrSample = errors.New("failed to sample host resources")

// sampleHost reads the host counters. It is a variable so tests can stub
// it without touching the OS.
var sampleHost = func(ctx context.Context) (cpuPercent, memoryMB float64, err error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, errors.Join(ErrSample, err)
	}

	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, errors.Join(ErrSample, err)
	}

	return cpuPercent, float64(vm.Used) / bytesPerMB, nil
}

// Snapshot is one point-in-time reading of host resource usage.
type Snapshot struct {
	Timestamp     time.Time
	CPUPercent    float64
	MemoryMB      float64
	ActiveWorkers int
}

// CountsFunc reports the live worker totals of the run being monitored.
type CountsFunc func() (running, completed, failed, total int)

// Monitor samples host resources while a run is active. Start launches the
// sampling loop; Stop halts it, takes one final snapshot and returns the
// series. A Monitor is for a single run: Start then Stop, once each.
type Monitor struct {
	bus      *eventbus.Bus
	counts   CountsFunc
	interval time.Duration

	mu        sync.Mutex
	snapshots []Snapshot
	peakCPU   float64
	peakMem   float64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the sampling interval. Non-positive values keep
// the default.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// New creates a Monitor publishing progress events to bus, with counts
// supplying the per-sample worker totals.
func New(bus *eventbus.Bus, counts CountsFunc, opts ...Option) *Monitor {
	m := &Monitor{
		bus:      bus,
		counts:   counts,
		interval: DefaultInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// Start launches the sampling loop. The loop also exits when ctx is
// canceled, so a hard abort never strands it.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.sample(ctx)
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop halts the loop, takes the final snapshot and returns the series
// with the running peaks. The returned slice is a copy.
func (m *Monitor) Stop(ctx context.Context) (snapshots []Snapshot, peakCPU, peakMem float64) {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	<-m.done

	m.sample(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.snapshots), m.peakCPU, m.peakMem
}

func (m *Monitor) sample(ctx context.Context) {
	cpuPercent, memoryMB, err := sampleHost(ctx)
	if err != nil {
		ctxlog.Logger(ctx).Debug("resource sample failed", "err", err)

		return
	}

	running, completed, failed, total := m.counts()

	m.mu.Lock()
	m.snapshots = append(m.snapshots, Snapshot{
		Timestamp:     time.Now(),
		CPUPercent:    cpuPercent,
		MemoryMB:      memoryMB,
		ActiveWorkers: running,
	})
	m.peakCPU = max(m.peakCPU, cpuPercent)
	m.peakMem = max(m.peakMem, memoryMB)
	m.mu.Unlock()

	m.bus.Publish(eventbus.NewProgressEvent(running, completed, failed, total, cpuPercent, memoryMB))
}
