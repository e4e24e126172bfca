// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/matt-FFFFFF/swarm/internal/runswarm"
)

// WorkerRow is the display state of one worker. Rows are created up front
// from the plan and updated as events arrive.
type WorkerRow struct {
	Index      int    // 1-based ordinal, stable for display
	Name       string // Grouping name
	Folders    []string
	Status     runswarm.Status
	Attempt    int
	StartTime  *time.Time
	EndTime    *time.Time
	Duration   time.Duration // Authoritative once reported by an event
	LastOutput string        // Last non-empty output line
	ErrorMsg   string
	mutex      sync.RWMutex
}

// NewWorkerRow creates a queued row for one grouping.
func NewWorkerRow(index int, g plan.Grouping) *WorkerRow {
	return &WorkerRow{
		Index:   index,
		Name:    g.Name,
		Folders: append([]string(nil), g.Folders...),
		Status:  runswarm.StatusQueued,
		Attempt: 1,
	}
}

// UpdateStatus safely updates the row status. The start time is pinned on
// the first transition to running and the end time on the first terminal
// status, so elapsed time spans retries the same way the run summary does.
func (wr *WorkerRow) UpdateStatus(status runswarm.Status) {
	wr.mutex.Lock()
	defer wr.mutex.Unlock()

	wr.Status = status
	now := time.Now()

	switch {
	case status == runswarm.StatusRunning && wr.StartTime == nil:
		wr.StartTime = &now
	case status.Terminal() && wr.EndTime == nil:
		wr.EndTime = &now
	}
}

// UpdateAttempt safely updates the attempt counter.
func (wr *WorkerRow) UpdateAttempt(attempt int) {
	wr.mutex.Lock()
	defer wr.mutex.Unlock()

	wr.Attempt = attempt
}

// UpdateOutput safely updates the last output line. Multi-line chunks keep
// only their final non-blank line.
func (wr *WorkerRow) UpdateOutput(chunk string) {
	wr.mutex.Lock()
	defer wr.mutex.Unlock()

	trimmed := strings.TrimSpace(chunk)
	if trimmed == "" {
		return
	}

	lines := strings.Split(trimmed, "\n")
	wr.LastOutput = strings.TrimSpace(lines[len(lines)-1])
}

// UpdateError safely updates the error message.
func (wr *WorkerRow) UpdateError(errMsg string) {
	wr.mutex.Lock()
	defer wr.mutex.Unlock()

	wr.ErrorMsg = errMsg
}

// SetDuration records the authoritative duration reported by an event or
// the final summary.
func (wr *WorkerRow) SetDuration(d time.Duration) {
	wr.mutex.Lock()
	defer wr.mutex.Unlock()

	wr.Duration = d
}

// RowInfo is a point-in-time copy of a row for rendering.
type RowInfo struct {
	Index      int
	Name       string
	Status     runswarm.Status
	Attempt    int
	Elapsed    time.Duration
	LastOutput string
	ErrorMsg   string
}

// Info safely retrieves display information. Elapsed time for a live row
// is measured from its start time, so it advances between renders.
func (wr *WorkerRow) Info() RowInfo {
	wr.mutex.RLock()
	defer wr.mutex.RUnlock()

	info := RowInfo{
		Index:      wr.Index,
		Name:       wr.Name,
		Status:     wr.Status,
		Attempt:    wr.Attempt,
		LastOutput: wr.LastOutput,
		ErrorMsg:   wr.ErrorMsg,
	}

	switch {
	case wr.Duration > 0:
		info.Elapsed = wr.Duration
	case wr.StartTime != nil && wr.EndTime != nil:
		info.Elapsed = wr.EndTime.Sub(*wr.StartTime)
	case wr.StartTime != nil:
		info.Elapsed = time.Since(*wr.StartTime)
	}

	return info
}

// Model represents the TUI application state.
type Model struct {
	rows       []*WorkerRow
	rowsByName map[string]*WorkerRow
	maxRetries int
	canceler   *runswarm.Canceler

	spinner  spinner.Model
	progress progress.Model

	width  int
	height int

	quitting        bool
	completed       bool
	cancelRequested bool
	summary         *runswarm.Summary

	// Live counts and host resource figures, fed by progress events.
	runningCount  int
	completeCount int
	failedCount   int
	totalCount    int
	cpuPercent    float64
	memoryMB      float64

	// Merge stage name while merging, final outcome line afterwards.
	mergeStage  string
	mergeLine   string
	mergeFailed bool

	mutex  sync.RWMutex
	styles *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title    lipgloss.Style
	Queued   lipgloss.Style
	Running  lipgloss.Style
	Success  lipgloss.Style
	Failed   lipgloss.Style
	Canceled lipgloss.Style
	Output   lipgloss.Style
	Error    lipgloss.Style
	Footer   lipgloss.Style
	Help     lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Queued: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Canceled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
	}
}

// NewModel creates a TUI model with one queued row per grouping.
// Cancellation requests from the keyboard are forwarded to canceler, which
// may be nil when the model is rendered outside a live run.
func NewModel(groupings []plan.Grouping, maxRetries int, canceler *runswarm.Canceler) *Model {
	styles := NewStyles()

	m := &Model{
		rows:       make([]*WorkerRow, 0, len(groupings)),
		rowsByName: make(map[string]*WorkerRow, len(groupings)),
		maxRetries: maxRetries,
		canceler:   canceler,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(styles.Running),
		),
		progress:   progress.New(progress.WithDefaultGradient()),
		width:      defaultWidth,
		totalCount: len(groupings),
		styles:     styles,
	}

	for i, g := range groupings {
		row := NewWorkerRow(i+1, g)
		m.rows = append(m.rows, row)
		m.rowsByName[g.Name] = row
	}

	return m
}

// row looks up a row by grouping name.
func (m *Model) row(name string) (*WorkerRow, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	row, ok := m.rowsByName[name]

	return row, ok
}

// applyEvent folds one bus event into the display state. It returns a
// command when the event drives the progress bar animation.
func (m *Model) applyEvent(event eventbus.Event) tea.Cmd {
	switch e := event.(type) {
	case eventbus.WorkerStartedEvent:
		if row, ok := m.row(e.GroupingName); ok {
			row.UpdateAttempt(e.Attempt)
			row.UpdateStatus(runswarm.StatusRunning)
		}

	case eventbus.WorkerOutputEvent:
		if row, ok := m.row(e.GroupingName); ok {
			row.UpdateOutput(e.Chunk)
		}

	case eventbus.WorkerCompleteEvent:
		if row, ok := m.row(e.GroupingName); ok {
			row.SetDuration(e.Duration)
			row.UpdateStatus(runswarm.StatusComplete)
		}

	case eventbus.WorkerErrorEvent:
		if row, ok := m.row(e.GroupingName); ok {
			row.UpdateError(e.Error)

			if e.WillRetry {
				row.UpdateStatus(runswarm.StatusRetrying)
			} else {
				row.UpdateStatus(runswarm.StatusError)
			}
		}

	case eventbus.WorkerRetryingEvent:
		if row, ok := m.row(e.GroupingName); ok {
			row.UpdateAttempt(e.Attempt)
			row.UpdateStatus(runswarm.StatusRetrying)
		}

	case eventbus.WorkerCancelingEvent:
		if row, ok := m.row(e.GroupingName); ok {
			row.UpdateStatus(runswarm.StatusCanceling)
		}

	case eventbus.ProgressEvent:
		m.mutex.Lock()
		m.runningCount = e.Running
		m.completeCount = e.Completed
		m.failedCount = e.Failed
		m.totalCount = e.Total
		m.cpuPercent = e.CPUPercent
		m.memoryMB = e.MemoryMB
		m.mutex.Unlock()

		return m.progress.SetPercent(completionFraction(e.Completed, e.Failed, e.Total))

	case eventbus.CancelingEvent:
		m.mutex.Lock()
		m.cancelRequested = true
		m.mutex.Unlock()

	case eventbus.AllCompleteEvent:
		m.mutex.Lock()
		m.runningCount = 0
		m.completeCount = e.SuccessCount
		m.failedCount = e.FailedCount
		m.mutex.Unlock()

		return m.progress.SetPercent(1)

	case eventbus.MergeStartedEvent:
		m.setMergeState("starting", "", false)

	case eventbus.MergeProgressEvent:
		m.setMergeState(e.Stage, "", false)

	case eventbus.MergeCompleteEvent:
		m.setMergeState("", "merged report written to "+e.OutputPath, false)

	case eventbus.MergeErrorEvent:
		line := "merge failed: " + e.Error
		if e.BackupPath != "" {
			line += " (raw outputs saved to " + e.BackupPath + ")"
		}

		m.setMergeState("", line, true)
	}

	return nil
}

func (m *Model) setMergeState(stage, line string, failed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.mergeStage = stage
	m.mergeLine = line
	m.mergeFailed = failed
}

// syncFromSummary reconciles every row with its final record. Cancellation
// outcomes only become visible here: canceled workers publish no terminal
// event of their own.
func (m *Model) syncFromSummary(s *runswarm.Summary) {
	if s == nil {
		return
	}

	for _, rec := range s.Workers {
		row, ok := m.row(rec.GroupingName)
		if !ok {
			continue
		}

		row.UpdateAttempt(rec.Attempt)
		row.SetDuration(rec.Duration)

		if rec.Error != "" {
			row.UpdateError(rec.Error)
		}

		row.UpdateStatus(rec.Status)
	}

	m.mutex.Lock()
	m.runningCount = 0
	m.completeCount = s.SuccessCount
	m.failedCount = s.FailedCount
	m.totalCount = s.WorkerCount
	m.mutex.Unlock()
}

// completionFraction is the share of workers in a terminal state.
func completionFraction(completed, failed, total int) float64 {
	if total <= 0 {
		return 0
	}

	return float64(completed+failed) / float64(total)
}

// statusGlyph returns the icon shown next to a worker row.
func statusGlyph(s runswarm.Status) string {
	switch s {
	case runswarm.StatusQueued:
		return "⏳"
	case runswarm.StatusRunning:
		return "⚡"
	case runswarm.StatusRetrying:
		return "🔁"
	case runswarm.StatusComplete:
		return "✅"
	case runswarm.StatusError:
		return "❌"
	case runswarm.StatusCanceling, runswarm.StatusCanceled:
		return "🛑"
	default:
		return "❓"
	}
}

// statusStyle returns the lipgloss style for a worker status.
func (m *Model) statusStyle(s runswarm.Status) lipgloss.Style {
	switch s {
	case runswarm.StatusQueued:
		return m.styles.Queued
	case runswarm.StatusRunning, runswarm.StatusRetrying:
		return m.styles.Running
	case runswarm.StatusComplete:
		return m.styles.Success
	case runswarm.StatusError:
		return m.styles.Failed
	case runswarm.StatusCanceling, runswarm.StatusCanceled:
		return m.styles.Canceled
	default:
		return m.styles.Queued
	}
}

// truncate shortens s to max runes, ending with an ellipsis when anything
// was cut.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	if max > 1 {
		return string(runes[:max-1]) + ellipsis
	}

	return string(runes[:max])
}
