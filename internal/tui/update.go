// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/matt-FFFFFF/swarm/internal/runswarm"
)

const (
	titleText        = "🐝  Swarm Parallel Analysis"
	defaultWidth     = 80
	minContentWidth  = 40
	minProgressWidth = 10
	maxProgressWidth = 60
	progressMargin   = 4
	ellipsis         = "…"
	durationRounding = 100 * time.Millisecond // Round displayed durations to 100ms
)

// EventMsg wraps a bus event for the tea framework.
type EventMsg struct {
	Event eventbus.Event
}

// RunCompletedMsg indicates the run has finished and carries its summary.
type RunCompletedMsg struct {
	Summary *runswarm.Summary
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spinner.Tick,
	)
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mutex.Unlock()

		width := msg.Width - progressMargin
		if width > maxProgressWidth {
			width = maxProgressWidth
		}

		if width < minProgressWidth {
			width = minProgressWidth
		}

		m.progress.Width = width

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)

		return m, cmd

	case EventMsg:
		return m, m.applyEvent(msg.Event)

	case RunCompletedMsg:
		m.syncFromSummary(msg.Summary)

		m.mutex.Lock()
		m.completed = true
		m.summary = msg.Summary
		m.mutex.Unlock()

		return m, m.progress.SetPercent(1)

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress processes keyboard input. The first ctrl+c requests a
// cooperative stop through the canceler; the second quits immediately.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch msg.String() {
	case "ctrl+c":
		if m.completed || m.cancelRequested {
			m.quitting = true
			return m, tea.Quit
		}

		m.cancelRequested = true

		if m.canceler != nil {
			m.canceler.Cancel()
		}

		return m, nil

	case "q", "esc":
		if m.completed {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var view strings.Builder

	title := m.styles.Title.Render(titleText)
	if !m.completed {
		title += " " + m.spinner.View()
	}

	view.WriteString(title)
	view.WriteString("\n\n")

	for _, row := range m.rows {
		m.renderWorkerRow(&view, row.Info())
	}

	view.WriteString("\n")
	view.WriteString(m.progress.View())
	view.WriteString("\n")
	view.WriteString(m.renderStatusBar())
	view.WriteString("\n")

	if m.cancelRequested && !m.completed {
		view.WriteString(m.styles.Canceled.Render("🛑 canceling, waiting for workers to stop"))
		view.WriteString("\n")
	}

	if m.mergeStage != "" {
		view.WriteString(m.styles.Running.Render("merge: " + m.mergeStage))
		view.WriteString("\n")
	}

	if m.mergeLine != "" {
		style := m.styles.Success
		if m.mergeFailed {
			style = m.styles.Error
		}

		view.WriteString(style.Render(m.mergeLine))
		view.WriteString("\n")
	}

	if m.completed {
		view.WriteString("\n")
		view.WriteString(m.renderCompletion())
		view.WriteString("\n")
	}

	view.WriteString(m.styles.Help.Render(m.helpText()))

	return view.String()
}

// renderWorkerRow renders one worker line: glyph, index, name and timing on
// the left, the last output line or error on the right. The caller holds
// the model lock.
func (m *Model) renderWorkerRow(b *strings.Builder, info RowInfo) {
	style := m.statusStyle(info.Status)
	left := fmt.Sprintf("%s %2d %s", statusGlyph(info.Status), info.Index, style.Render(info.Name))

	meta := ""
	if info.Attempt > 1 {
		meta = fmt.Sprintf(" attempt %d/%d", info.Attempt, m.maxRetries+1)
	}

	if info.Elapsed > 0 {
		meta += fmt.Sprintf(" (%v)", info.Elapsed.Round(durationRounding))
	}

	if meta != "" {
		left += m.styles.Output.Render(meta)
	}

	width := m.width
	if width < minContentWidth {
		width = minContentWidth
	}

	leftWidth := width / 2
	rightWidth := width - leftWidth - 1

	// A row that is running again after a retry shows fresh output, not
	// the error from the failed attempt.
	showError := info.ErrorMsg != "" &&
		info.Status != runswarm.StatusRunning &&
		info.Status != runswarm.StatusComplete

	var right string

	switch {
	case showError:
		right = m.styles.Error.Render(truncate("error: "+info.ErrorMsg, rightWidth))
	case info.LastOutput != "" && !info.Status.Terminal():
		right = m.styles.Output.Render(truncate(info.LastOutput, rightWidth))
	}

	b.WriteString(left)

	if right != "" {
		pad := leftWidth - lipgloss.Width(left)
		if pad < 1 {
			pad = 1
		}

		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(right)
	}

	b.WriteString("\n")
}

// renderStatusBar renders worker counts and host resource usage. The
// caller holds the model lock.
func (m *Model) renderStatusBar() string {
	parts := []string{
		fmt.Sprintf("%d/%d complete", m.completeCount, m.totalCount),
		fmt.Sprintf("%d running", m.runningCount),
		fmt.Sprintf("%d failed", m.failedCount),
	}

	if m.cpuPercent > 0 || m.memoryMB > 0 {
		parts = append(parts,
			fmt.Sprintf("cpu %.1f%%", m.cpuPercent),
			fmt.Sprintf("mem %.0f MB", m.memoryMB),
		)
	}

	return m.styles.Footer.Render(strings.Join(parts, " | "))
}

// renderCompletion renders the final outcome line. The caller holds the
// model lock.
func (m *Model) renderCompletion() string {
	s := m.summary

	switch {
	case s == nil:
		return m.styles.Success.Render("✅ run complete")
	case s.Canceled:
		return m.styles.Canceled.Render(fmt.Sprintf(
			"🛑 Run canceled: %d of %d workers completed", s.SuccessCount, s.WorkerCount))
	case s.FailedCount > 0:
		return m.styles.Failed.Render(fmt.Sprintf(
			"⚠️  %d of %d workers succeeded", s.SuccessCount, s.WorkerCount))
	default:
		return m.styles.Success.Render(fmt.Sprintf(
			"✅ All %d workers succeeded in %v (%.1fx speedup)",
			s.WorkerCount, s.TotalDuration.Round(durationRounding), s.SpeedupFactor))
	}
}

// helpText returns the key hints for the current state. The caller holds
// the model lock.
func (m *Model) helpText() string {
	switch {
	case m.completed:
		return "'q' to quit and return to terminal"
	case m.cancelRequested:
		return "ctrl+c again to force quit"
	default:
		return "ctrl+c to cancel"
	}
}
