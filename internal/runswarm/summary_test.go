// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"bytes"
	"testing"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/resmon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeedup(t *testing.T) {
	assert.InDelta(t, 3.0, speedup(300*time.Millisecond, 100*time.Millisecond), 0.001)
	assert.InDelta(t, 0.5, speedup(50*time.Millisecond, 100*time.Millisecond), 0.001)
	assert.InDelta(t, 1.0, speedup(100*time.Millisecond, 0), 0.001, "zero wall-clock duration guards to 1")
	assert.InDelta(t, 1.0, speedup(100*time.Millisecond, -time.Second), 0.001)
	assert.InDelta(t, 0.0, speedup(0, 100*time.Millisecond), 0.001)
}

func TestSuccessfulWorkers(t *testing.T) {
	s := &Summary{
		SuccessCount: 2,
		Workers: []WorkerRecord{
			{GroupingName: "api", Success: true},
			{GroupingName: "storage", Success: false},
			{GroupingName: "auth", Success: true},
		},
	}

	successful := s.SuccessfulWorkers()
	require.Len(t, successful, 2)
	assert.Equal(t, "api", successful[0].GroupingName)
	assert.Equal(t, "auth", successful[1].GroupingName)
}

func TestSummaryGobRoundTrip(t *testing.T) {
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(90 * time.Second)

	s := &Summary{
		WorkerCount:        2,
		SuccessCount:       1,
		FailedCount:        1,
		Canceled:           false,
		StartedAt:          started,
		CompletedAt:        completed,
		TotalDuration:      90 * time.Second,
		SequentialDuration: 150 * time.Second,
		SpeedupFactor:      1.67,
		Workers: []WorkerRecord{
			{
				Index:        1,
				GroupingName: "api",
				Folders:      []string{"cmd/api"},
				Priority:     1,
				Status:       StatusComplete,
				Attempt:      1,
				StartedAt:    started,
				CompletedAt:  completed,
				Duration:     90 * time.Second,
				Stdout:       "# api findings\n",
				Success:      true,
			},
			{
				Index:        2,
				GroupingName: "storage",
				Folders:      []string{"internal/db"},
				Priority:     3,
				Status:       StatusError,
				Attempt:      3,
				Error:        "exited with code 1",
				ExitCode:     1,
			},
		},
		Snapshots: []resmon.Snapshot{
			{Timestamp: started.Add(time.Second), CPUPercent: 42.5, MemoryMB: 1024, ActiveWorkers: 2},
		},
		PeakCPUPercent: 42.5,
		PeakMemoryMB:   1024,
	}

	buf := &bytes.Buffer{}
	require.NoError(t, s.WriteGob(buf))

	got, err := ReadSummaryGob(buf)
	require.NoError(t, err)

	assert.Equal(t, s, got)
}

func TestReadSummaryGob_Garbage(t *testing.T) {
	_, err := ReadSummaryGob(bytes.NewBufferString("not a gob stream"))
	assert.ErrorIs(t, err, ErrReadSummary)
}
