// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"testing"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroupings() []plan.Grouping {
	return []plan.Grouping{
		{Name: "api", Folders: []string{"cmd/api", "internal/handlers"}, Priority: 1},
		{Name: "storage", Folders: []string{"internal/db"}, Priority: 3},
		{Name: "auth", Folders: []string{"internal/auth"}, Priority: 3},
	}
}

func TestStatusString(t *testing.T) {
	testCases := []struct {
		status Status
		want   string
	}{
		{StatusQueued, "queued"},
		{StatusRunning, "running"},
		{StatusRetrying, "retrying"},
		{StatusComplete, "complete"},
		{StatusError, "error"},
		{StatusCanceling, "canceling"},
		{StatusCanceled, "canceled"},
		{Status(99), "unknown"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.status.String())
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.True(t, StatusCanceled.Terminal())

	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.False(t, StatusRetrying.Terminal())
	assert.False(t, StatusCanceling.Terminal())
}

func TestNewTracker(t *testing.T) {
	groupings := testGroupings()
	tr := newTracker(groupings, 2)

	records := tr.snapshot()
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, i+1, rec.Index)
		assert.Equal(t, groupings[i].Name, rec.GroupingName)
		assert.Equal(t, groupings[i].Folders, rec.Folders)
		assert.Equal(t, StatusQueued, rec.Status)
		assert.Equal(t, 1, rec.Attempt)
		assert.Equal(t, 2, rec.MaxRetries)
		assert.Equal(t, -1, rec.ExitCode)
	}

	// The tracker must not alias the plan's folder slices.
	groupings[0].Folders[0] = "mutated"

	rec, ok := tr.get("api")
	require.True(t, ok)
	assert.Equal(t, "cmd/api", rec.Folders[0])
}

func TestTracker_UpdateIgnoredAfterTerminal(t *testing.T) {
	tr := newTracker(testGroupings(), 0)

	tr.update("api", func(r *WorkerRecord) {
		r.Status = StatusComplete
		r.Success = true
		r.ExitCode = 0
	})

	tr.update("api", func(r *WorkerRecord) {
		r.Status = StatusError
		r.Error = "should never appear"
	})

	rec, ok := tr.get("api")
	require.True(t, ok)
	assert.Equal(t, StatusComplete, rec.Status)
	assert.True(t, rec.Success)
	assert.Empty(t, rec.Error)
}

func TestTracker_SnapshotIsDeepCopy(t *testing.T) {
	tr := newTracker(testGroupings(), 0)

	records := tr.snapshot()
	records[0].Status = StatusError
	records[0].Folders[0] = "mutated"

	rec, ok := tr.get("api")
	require.True(t, ok)
	assert.Equal(t, StatusQueued, rec.Status)
	assert.Equal(t, "cmd/api", rec.Folders[0])
}

func TestTracker_Counts(t *testing.T) {
	tr := newTracker(testGroupings(), 0)

	tr.update("api", func(r *WorkerRecord) { r.Status = StatusRunning })
	tr.update("storage", func(r *WorkerRecord) {
		r.Status = StatusComplete
		r.Success = true
	})
	tr.update("auth", func(r *WorkerRecord) { r.Status = StatusCanceled })

	running, completed, failed, total := tr.counts()
	assert.Equal(t, 1, running)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, total)
}

func TestTracker_MarkCanceling(t *testing.T) {
	tr := newTracker(testGroupings(), 0)

	tr.update("api", func(r *WorkerRecord) { r.Status = StatusRunning })
	tr.update("storage", func(r *WorkerRecord) { r.Status = StatusRetrying })
	tr.update("auth", func(r *WorkerRecord) {
		r.Status = StatusComplete
		r.Success = true
	})

	affected := tr.markCanceling()

	require.Len(t, affected, 2)
	assert.Equal(t, "api", affected[0].GroupingName)
	assert.Equal(t, "storage", affected[1].GroupingName)

	for _, name := range []string{"api", "storage"} {
		rec, ok := tr.get(name)
		require.True(t, ok)
		assert.Equal(t, StatusCanceling, rec.Status)
	}

	rec, ok := tr.get("auth")
	require.True(t, ok)
	assert.Equal(t, StatusComplete, rec.Status, "terminal records are untouched")
}

func TestTracker_GetUnknown(t *testing.T) {
	tr := newTracker(testGroupings(), 0)

	_, ok := tr.get("nope")
	assert.False(t, ok)
}

func TestTracker_UpdateSetsTimes(t *testing.T) {
	tr := newTracker(testGroupings(), 0)

	start := time.Now()

	tr.update("api", func(r *WorkerRecord) {
		r.Status = StatusRunning
		r.StartedAt = start
	})

	rec, ok := tr.get("api")
	require.True(t, ok)
	assert.Equal(t, start, rec.StartedAt)
}
