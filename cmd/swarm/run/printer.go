// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
)

// consoleStyles are the lipgloss styles for the non-TUI event stream.
type consoleStyles struct {
	success lipgloss.Style
	failure lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
}

func newConsoleStyles() consoleStyles {
	return consoleStyles{
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
}

// newConsolePrinter returns a bus handler that prints one line per
// lifecycle event. Output chunks and progress samples are omitted to keep
// the stream readable.
func newConsolePrinter(w io.Writer) eventbus.Handler {
	styles := newConsoleStyles()

	return func(event eventbus.Event) {
		switch e := event.(type) {
		case eventbus.WorkerStartedEvent:
			if e.Attempt > 1 {
				fmt.Fprintf(w, "%s %s started (attempt %d)\n",
					styles.info.Render("▶"), e.GroupingName, e.Attempt)
				return
			}

			fmt.Fprintf(w, "%s %s started\n", styles.info.Render("▶"), e.GroupingName)

		case eventbus.WorkerCompleteEvent:
			fmt.Fprintf(w, "%s %s completed in %s\n",
				styles.success.Render("✓"), e.GroupingName, e.Duration.Round(time.Millisecond))

		case eventbus.WorkerErrorEvent:
			if e.WillRetry {
				fmt.Fprintf(w, "%s %s attempt %d failed: %s\n",
					styles.warn.Render("✗"), e.GroupingName, e.Attempt, e.Error)
				return
			}

			fmt.Fprintf(w, "%s %s failed: %s\n",
				styles.failure.Render("✗"), e.GroupingName, e.Error)

		case eventbus.WorkerRetryingEvent:
			fmt.Fprintf(w, "%s %s retrying in %s (attempt %d of %d)\n",
				styles.warn.Render("↻"), e.GroupingName, e.Delay, e.Attempt, e.MaxRetries+1)

		case eventbus.CancelingEvent:
			fmt.Fprintf(w, "%s canceling %d running workers\n",
				styles.warn.Render("■"), e.RunningCount)

		case eventbus.AllCompleteEvent:
			fmt.Fprintf(w, "%s all workers done: %d succeeded, %d failed in %s (%.1fx speedup)\n",
				styles.info.Render("∑"), e.SuccessCount, e.FailedCount,
				e.TotalDuration.Round(time.Millisecond), e.SpeedupFactor)

		case eventbus.MergeStartedEvent:
			fmt.Fprintf(w, "%s merging outputs of %d workers\n",
				styles.info.Render("⇒"), e.WorkerCount)

		case eventbus.MergeProgressEvent:
			fmt.Fprintf(w, "%s merge stage: %s\n", styles.info.Render("⇒"), e.Stage)

		case eventbus.MergeCompleteEvent:
			fmt.Fprintf(w, "%s merged report written to %s in %s\n",
				styles.success.Render("⇒"), e.OutputPath, e.Duration.Round(time.Millisecond))

		case eventbus.MergeErrorEvent:
			fmt.Fprintf(w, "%s merge failed: %s\n", styles.failure.Render("⇒"), e.Error)
		}
	}
}
