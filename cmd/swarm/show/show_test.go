// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package show

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/runswarm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedSummary(t *testing.T) string {
	t.Helper()

	summary := &runswarm.Summary{
		WorkerCount:        2,
		SuccessCount:       1,
		FailedCount:        1,
		TotalDuration:      time.Minute,
		SequentialDuration: 100 * time.Second,
		SpeedupFactor:      1.67,
		Workers: []runswarm.WorkerRecord{
			{
				Index:        1,
				GroupingName: "api",
				Folders:      []string{"internal/api"},
				Status:       runswarm.StatusComplete,
				Attempt:      1,
				Duration:     40 * time.Second,
				Stdout:       "## API findings\n",
				ExitCode:     0,
				Success:      true,
			},
			{
				Index:        2,
				GroupingName: "storage",
				Folders:      []string{"internal/db"},
				Status:       runswarm.StatusError,
				Attempt:      3,
				Duration:     time.Minute,
				Stderr:       "cannot open database\n",
				Error:        "exit code 1",
				ExitCode:     1,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "summary.bin")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, summary.WriteGob(f))
	require.NoError(t, f.Close())

	return path
}

func TestShowSummary(t *testing.T) {
	t.Parallel()

	path := savedSummary(t)

	buf := new(bytes.Buffer)
	require.NoError(t, showSummary(path, buf, runswarm.DefaultOutputOptions()))

	out := buf.String()
	assert.Contains(t, out, "1/2 workers succeeded in 1m0s (speedup 1.67x)")
	assert.Contains(t, out, "api")
	assert.Contains(t, out, "storage")
	assert.Contains(t, out, "(attempts: 3)")
	assert.Contains(t, out, "(exit code: 1)")
	assert.Contains(t, out, "cannot open database")
	assert.NotContains(t, out, "## API findings")
}

func TestShowSummary_SuccessDetails(t *testing.T) {
	t.Parallel()

	path := savedSummary(t)

	opts := runswarm.DefaultOutputOptions()
	opts.IncludeStdOut = true
	opts.ShowSuccessDetails = true

	buf := new(bytes.Buffer)
	require.NoError(t, showSummary(path, buf, opts))

	assert.Contains(t, buf.String(), "## API findings")
}

func TestShowSummary_FileErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		err := showSummary(filepath.Join(t.TempDir(), "missing.bin"), io.Discard, nil)
		require.ErrorIs(t, err, ErrReadFile)
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "garbage.bin")
		require.NoError(t, os.WriteFile(path, []byte("not a summary"), 0o644))

		err := showSummary(path, io.Discard, nil)
		require.ErrorIs(t, err, ErrDecodeSummary)
	})
}
