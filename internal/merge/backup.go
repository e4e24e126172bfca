// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/matt-FFFFFF/swarm/internal/runswarm"
	"github.com/spf13/afero"
)

// backupTimestampLayout is compact ISO 8601, safe in a file name.
const backupTimestampLayout = "20060102T150405Z"

func backupFileName(ts time.Time) string {
	return fmt.Sprintf(".partial-outputs-%s.md", ts.UTC().Format(backupTimestampLayout))
}

// writeBackup writes the raw per-worker artifact under root and returns
// its path. Every worker gets an entry, failed and canceled ones included.
// A write failure is logged and returns the empty string: the backup must
// never block the rest of the pipeline.
func (c *Coordinator) writeBackup(ctx context.Context, summary *runswarm.Summary, root string) string {
	now := timeNow()
	path := filepath.Join(root, backupFileName(now))

	var sb strings.Builder

	sb.WriteString("# Raw worker outputs\n\n")
	fmt.Fprintf(&sb, "Generated on %s. %d workers: %d succeeded, %d failed.\n",
		now.UTC().Format(time.RFC3339), summary.WorkerCount, summary.SuccessCount, summary.FailedCount)

	for _, rec := range summary.Workers {
		writeBackupEntry(&sb, rec)
	}

	if err := afero.WriteFile(FS, path, []byte(sb.String()), fileMode); err != nil {
		ctxlog.Warn(ctx, "could not write backup artifact", "path", path, "error", err)

		return ""
	}

	return path
}

func writeBackupEntry(sb *strings.Builder, rec runswarm.WorkerRecord) {
	fmt.Fprintf(sb, "\n## %s\n\n", rec.GroupingName)
	fmt.Fprintf(sb, "- Status: %s\n", rec.Status)
	fmt.Fprintf(sb, "- Duration: %s\n", rec.Duration.Round(time.Millisecond))
	fmt.Fprintf(sb, "- Folders: %s\n", strings.Join(rec.Folders, ", "))

	if rec.Error != "" {
		fmt.Fprintf(sb, "- Error: %s\n", rec.Error)
	}

	if rec.Stdout != "" {
		fmt.Fprintf(sb, "\n### Output\n\n%s\n", strings.TrimRight(rec.Stdout, "\n"))
	}

	if rec.Stderr != "" {
		fmt.Fprintf(sb, "\n### Error output\n\n```\n%s\n```\n", strings.TrimRight(rec.Stderr, "\n"))
	}
}
