// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package merge

import (
	"fmt"
	"strings"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/runswarm"
)

// FallbackDocument assembles the plain concatenation of the successful
// worker outputs, one section per grouping, with no deduplication. Callers
// use it when synthesis fails; the Coordinator never invokes it.
func FallbackDocument(summary *runswarm.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<!-- Generated by swarm on %s -->\n", timeNow().UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "<!-- Fallback assembly of %d of %d worker reports, not deduplicated -->\n",
		summary.SuccessCount, summary.WorkerCount)

	for _, w := range summary.SuccessfulWorkers() {
		fmt.Fprintf(&sb, "\n# %s\n\n", w.GroupingName)
		fmt.Fprintf(&sb, "<!-- folders: %s; completed in %s -->\n\n",
			strings.Join(w.Folders, ", "), w.Duration.Round(time.Millisecond))
		sb.WriteString(strings.TrimRight(w.Stdout, "\n"))
		sb.WriteString("\n")
	}

	return sb.String()
}
