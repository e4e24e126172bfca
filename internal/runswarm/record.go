// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"slices"
	"sync"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/plan"
)

// Status represents the lifecycle state of a worker.
type Status int

const (
	// StatusQueued indicates the worker is scheduled but has not started.
	StatusQueued Status = iota
	// StatusRunning indicates an attempt is in flight.
	StatusRunning
	// StatusRetrying indicates a failed attempt is waiting out its backoff delay.
	StatusRetrying
	// StatusComplete indicates the worker exited successfully.
	StatusComplete
	// StatusError indicates the worker exhausted its attempts without success.
	StatusError
	// StatusCanceling indicates cancellation was requested while the worker was live.
	StatusCanceling
	// StatusCanceled indicates the worker was stopped by cancellation.
	StatusCanceled
)

// String implements the Stringer interface for Status.
func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusRetrying:
		return "retrying"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	case StatusCanceling:
		return "canceling"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen from s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusCanceled
}

// WorkerRecord is the full account of one worker's run. A record is
// mutated only through its tracker; once its status is terminal it never
// changes again.
type WorkerRecord struct {
	// Index is the 1-based ordinal of the worker, stable for display.
	Index int
	// GroupingName identifies the record. Unique within a run.
	GroupingName string
	Folders      []string
	Priority     int
	Status       Status
	// Attempt is the 1-based number of the current or final attempt.
	Attempt     int
	MaxRetries  int
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Stdout      string
	Stderr      string
	// Error is the human-readable failure reason. Empty on success.
	Error string
	// ExitCode is -1 when the process never ran or was killed.
	ExitCode int
	Success  bool
}

// tracker holds the mutable worker records for one run. All access goes
// through the mutex; snapshots are deep copies, so observers never share
// memory with running tasks.
type tracker struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*WorkerRecord
}

func newTracker(groupings []plan.Grouping, maxRetries int) *tracker {
	t := &tracker{
		order:   make([]string, 0, len(groupings)),
		records: make(map[string]*WorkerRecord, len(groupings)),
	}

	for i, g := range groupings {
		t.order = append(t.order, g.Name)
		t.records[g.Name] = &WorkerRecord{
			Index:        i + 1,
			GroupingName: g.Name,
			Folders:      slices.Clone(g.Folders),
			Priority:     g.Priority,
			Status:       StatusQueued,
			Attempt:      1,
			MaxRetries:   maxRetries,
			ExitCode:     -1,
		}
	}

	return t
}

// update applies fn to the named record under the lock. Updates to
// terminal records are ignored: this is what makes terminal records
// immutable without every caller re-checking.
func (t *tracker) update(name string, fn func(*WorkerRecord)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[name]
	if !ok || r.Status.Terminal() {
		return
	}

	fn(r)
}

// get returns a copy of the named record.
func (t *tracker) get(name string) (WorkerRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[name]
	if !ok {
		return WorkerRecord{}, false
	}

	return copyRecord(r), true
}

// snapshot returns deep copies of every record in plan order.
func (t *tracker) snapshot() []WorkerRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]WorkerRecord, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, copyRecord(t.records[name]))
	}

	return out
}

// counts returns the live totals for progress reporting. Canceling
// workers count as running: their processes may still be alive.
func (t *tracker) counts() (running, completed, failed, total int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.records {
		switch r.Status {
		case StatusRunning, StatusRetrying, StatusCanceling:
			running++
		case StatusComplete:
			completed++
		case StatusError, StatusCanceled:
			failed++
		case StatusQueued:
		}
	}

	return running, completed, failed, len(t.records)
}

// markCanceling flips every running or retrying record to canceling and
// returns copies of the affected records. Terminal records are untouched.
func (t *tracker) markCanceling() []WorkerRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	var affected []WorkerRecord

	for _, name := range t.order {
		r := t.records[name]
		if r.Status == StatusRunning || r.Status == StatusRetrying {
			r.Status = StatusCanceling
			affected = append(affected, copyRecord(r))
		}
	}

	return affected
}

func copyRecord(r *WorkerRecord) WorkerRecord {
	c := *r
	c.Folders = slices.Clone(r.Folders)

	return c
}
