// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/color"
)

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include worker stdout in the output
	IncludeStdErr      bool // Whether to include worker stderr in the output
	ShowSuccessDetails bool // Whether to show details for successful workers
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
	}
}

// WriteText renders the summary as human-readable text.
func (s *Summary) WriteText(w io.Writer, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	fmt.Fprintf( // nolint:errcheck
		w,
		"%d/%d workers succeeded in %s (speedup %.2fx)\n",
		s.SuccessCount,
		s.WorkerCount,
		s.TotalDuration.Round(time.Millisecond),
		s.SpeedupFactor,
	)

	if s.Canceled {
		fmt.Fprintln(w, color.Colorize("Run canceled before completion.", color.FgYellow)) // nolint:errcheck
	}

	for _, rec := range s.Workers {
		writeWorkerLine(w, rec, options)
	}

	if s.PeakCPUPercent > 0 || s.PeakMemoryMB > 0 {
		fmt.Fprintf( // nolint:errcheck
			w,
			"Peak CPU %.1f%%, peak memory %.0f MB\n",
			s.PeakCPUPercent,
			s.PeakMemoryMB,
		)
	}

	return nil
}

func writeWorkerLine(w io.Writer, rec WorkerRecord, options *OutputOptions) {
	var statusStr, labelPrefix string

	switch rec.Status {
	case StatusComplete:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	case StatusCanceled:
		statusStr = color.Colorize("~", color.FgYellow)
		labelPrefix = color.ControlString(color.Bold, color.FgYellow)
	case StatusError:
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	fmt.Fprintf( // nolint:errcheck
		w,
		"  %s %s%s%s %s",
		statusStr,
		labelPrefix,
		rec.GroupingName,
		color.ControlString(color.Reset),
		rec.Duration.Round(time.Millisecond),
	)

	if rec.Attempt > 1 {
		fmt.Fprintf(w, " (attempts: %d)", rec.Attempt) // nolint:errcheck
	}

	if rec.ExitCode != 0 {
		fmt.Fprintf(w, " (exit code: %d)", rec.ExitCode) // nolint:errcheck
	}

	fmt.Fprintln(w) // nolint:errcheck

	if rec.Error != "" {
		fmt.Fprintf( // nolint:errcheck
			w,
			"     %s %s%s\n",
			color.ColorizeNoReset("➜ Error:", color.FgRed),
			rec.Error,
			color.ControlString(color.Reset),
		)
	}

	showDetails := !rec.Success || options.ShowSuccessDetails

	if showDetails && options.IncludeStdOut && rec.Stdout != "" {
		fmt.Fprintln(w, "     ➜ Output:")                           // nolint:errcheck
		fmt.Fprint(w, formatOutput([]byte(rec.Stdout), "        ")) // nolint:errcheck
	}

	if showDetails && options.IncludeStdErr && rec.Stderr != "" {
		fmt.Fprintf(w, "     %s\n", color.Colorize("➜ Error Output:", color.FgHiRed)) // nolint:errcheck
		fmt.Fprint(w, formatOutput([]byte(rec.Stderr), "        "))                   // nolint:errcheck
	}
}

// formatOutput formats multi-line output with proper indentation.
func formatOutput(output []byte, indent string) string {
	sb := strings.Builder{}
	lines := strings.Split(string(output), "\n")
	sb.Grow(len(output) + len(lines)*len(indent))

	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}
