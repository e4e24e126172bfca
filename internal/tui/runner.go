// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/matt-FFFFFF/swarm/internal/runswarm"
)

// Runner owns the TUI program for one run and bridges the event bus into
// it. Events published by the orchestrator and the merge coordinator are
// forwarded to the program as messages, so the TUI sees the same stream as
// any other subscriber.
type Runner struct {
	model    *Model
	program  *tea.Program
	bus      *eventbus.Bus
	canceler *runswarm.Canceler
	mutex    sync.Mutex
}

// NewRunner creates a TUI runner for the given plan. The bus must be the
// one the run publishes to and the canceler the run's cancellation token.
func NewRunner(p *plan.Plan, maxRetries int, bus *eventbus.Bus, canceler *runswarm.Canceler) *Runner {
	model := NewModel(p.Groupings, maxRetries, canceler)
	program := tea.NewProgram(model, tea.WithAltScreen())

	return &Runner{
		model:    model,
		program:  program,
		bus:      bus,
		canceler: canceler,
	}
}

// Run starts the TUI and invokes execute, which performs the run and
// returns its summary. The TUI stays up after completion until the user
// quits, so the final state remains readable. If the TUI exits first the
// run is canceled and Run waits for its summary.
func (r *Runner) Run(ctx context.Context, execute func(context.Context) *runswarm.Summary) (*runswarm.Summary, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	subID := r.bus.SubscribeAll(func(event eventbus.Event) {
		r.program.Send(EventMsg{Event: event})
	})
	defer r.bus.Unsubscribe(subID)

	// execCtx lets a force-quit stop the run, including a merge synthesis
	// already in flight.
	execCtx, execCancel := context.WithCancel(ctx)
	defer execCancel()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	summaryChan := make(chan *runswarm.Summary, 1)

	go func() {
		defer close(summaryChan)
		summaryChan <- execute(execCtx)
	}()

	select {
	case summary := <-summaryChan:
		// Run finished, let the user read the final state before quitting.
		r.program.Send(RunCompletedMsg{Summary: summary})

		err := <-tuiDone

		return summary, err

	case err := <-tuiDone:
		// TUI exited first: force-quit or a render error. Stop the run and
		// wait for its summary so partial results are still reported.
		if r.canceler != nil {
			r.canceler.Cancel()
		}

		execCancel()

		return <-summaryChan, err

	case <-ctx.Done():
		if r.canceler != nil {
			r.canceler.Cancel()
		}

		r.program.Quit()
		<-tuiDone

		return <-summaryChan, ctx.Err()
	}
}
