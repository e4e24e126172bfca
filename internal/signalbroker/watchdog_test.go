// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
)

func TestWatch_FirstSignalInvokesGraceful(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	sigCh := make(chan os.Signal, 1)

	var gracefulCalls atomic.Int32

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, func() { gracefulCalls.Add(1) }, cancel)
	}()
	sigCh <- os.Interrupt

	time.Sleep(50 * time.Millisecond)
	select {
	case <-ctx.Done():
		t.Fatal("context should not be cancelled after first signal")
	default:
		// ok
	}

	if got := gracefulCalls.Load(); got != 1 {
		t.Fatalf("graceful should be invoked once after first signal, got %d", got)
	}

	close(sigCh)
	wg.Wait()
}

func TestWatch_SecondSignalCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	sigCh := make(chan os.Signal, 2)

	var gracefulCalls atomic.Int32

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, func() { gracefulCalls.Add(1) }, cancel)
	}()
	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	time.Sleep(50 * time.Millisecond)
	select {
	case <-ctx.Done():
		// ok
	default:
		t.Fatal("context should be cancelled after second signal")
	}

	if got := gracefulCalls.Load(); got != 1 {
		t.Fatalf("graceful should only be invoked for the first signal, got %d calls", got)
	}

	// Channel should be closed by Watch
	_, ok := <-sigCh
	if ok {
		t.Fatal("signal channel should be closed after second signal")
	}

	wg.Wait()
}

func TestWatch_DifferentSignalsNoCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	sigCh := make(chan os.Signal, 2)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, nil, cancel)
	}()
	sigCh <- os.Interrupt
	sigCh <- os.Kill

	time.Sleep(50 * time.Millisecond)
	select {
	case <-ctx.Done():
		t.Fatal("context should not be cancelled for different signals")
	default:
		// ok
	}
	close(sigCh)
	wg.Wait()
}
