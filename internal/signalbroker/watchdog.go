// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
)

// Watch monitors the signal channel and handles signals.
// The first signal of a given type invokes graceful, if supplied.
// The second signal of the same type closes the channel and cancels the context.
func Watch(ctx context.Context, sigCh chan os.Signal, graceful func(), cancel context.CancelFunc) {
	sigMap := make(map[os.Signal]struct{})
	for sig := range sigCh {
		if _, ok := sigMap[sig]; ok {
			ctxlog.Logger(ctx).Info("watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
			close(sigCh)
			cancel()

			return
		}

		ctxlog.Logger(ctx).Info("watchdog", "detail", "received first signal of type, requesting graceful cancellation", "signal", sig.String())

		sigMap[sig] = struct{}{}

		if graceful != nil {
			graceful()
		}
	}
}
