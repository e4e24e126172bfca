// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"encoding/gob"
	"errors"
	"io"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/resmon"
)

var (
	// ErrWriteSummary is returned when encoding the summary to its binary
	// format fails.
	ErrWriteSummary = errors.New("failed to write binary summary")
	// ErrReadSummary is returned when decoding a saved summary fails.
	ErrReadSummary = errors.New("failed to read binary summary")
)

// Summary is the aggregate outcome of one run. Canceled workers count
// toward FailedCount while keeping their distinct canceled status in
// Workers.
type Summary struct {
	WorkerCount  int
	SuccessCount int
	FailedCount  int
	// Canceled is true when the run was canceled before the join.
	Canceled    bool
	StartedAt   time.Time
	CompletedAt time.Time
	// TotalDuration is the wall-clock duration of the whole run.
	TotalDuration time.Duration
	// SequentialDuration is the sum of every worker's duration: the time
	// the run would have taken one worker at a time.
	SequentialDuration time.Duration
	// SpeedupFactor is SequentialDuration over TotalDuration, 1 when the
	// total is zero.
	SpeedupFactor  float64
	Workers        []WorkerRecord
	Snapshots      []resmon.Snapshot
	PeakCPUPercent float64
	PeakMemoryMB   float64
}

// SuccessfulWorkers returns the workers that completed successfully, in
// summary order.
func (s *Summary) SuccessfulWorkers() []WorkerRecord {
	out := make([]WorkerRecord, 0, s.SuccessCount)

	for _, w := range s.Workers {
		if w.Success {
			out = append(out, w)
		}
	}

	return out
}

func (o *Orchestrator) summarize(
	t *tracker, startedAt time.Time, snapshots []resmon.Snapshot, peakCPU, peakMem float64,
) *Summary {
	completedAt := time.Now()
	workers := t.snapshot()

	s := &Summary{
		WorkerCount:    len(workers),
		Canceled:       o.canceler.Canceled(),
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		TotalDuration:  completedAt.Sub(startedAt),
		Workers:        workers,
		Snapshots:      snapshots,
		PeakCPUPercent: peakCPU,
		PeakMemoryMB:   peakMem,
	}

	for _, w := range workers {
		if w.Success {
			s.SuccessCount++
		} else {
			s.FailedCount++
		}

		s.SequentialDuration += w.Duration
	}

	s.SpeedupFactor = speedup(s.SequentialDuration, s.TotalDuration)

	return s
}

// speedup is the ratio of sequential to wall-clock duration, 1 when the
// wall-clock duration is not positive.
func speedup(sequential, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}

	return float64(sequential) / float64(total)
}

// WriteGob serializes the summary for later display by the show command.
func (s *Summary) WriteGob(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return errors.Join(ErrWriteSummary, err)
	}

	return nil
}

// ReadSummaryGob decodes a summary written by WriteGob.
func ReadSummaryGob(r io.Reader) (*Summary, error) {
	s := &Summary{}
	if err := gob.NewDecoder(r).Decode(s); err != nil {
		return nil, errors.Join(ErrReadSummary, err)
	}

	return s, nil
}
