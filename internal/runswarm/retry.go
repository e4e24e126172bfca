// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import (
	"context"
	"time"
)

// retrySchedule is the fixed backoff table: the first retry is immediate,
// later ones back off. Retries past the end reuse the final entry.
var retrySchedule = []time.Duration{0, 5 * time.Second, 10 * time.Second}

// retryDelay returns the delay before the k-th retry, k 1-based. It is a
// pure function so the schedule is testable without real sleeps.
func retryDelay(retry int) time.Duration {
	if retry < 1 {
		return retrySchedule[0]
	}

	return retrySchedule[min(retry-1, len(retrySchedule)-1)]
}

// sleepFunc waits out a backoff delay, reporting whether the full delay
// elapsed. It returns early when the context or the cancellation token
// fires. The orchestrator carries it as a field so tests can observe the
// schedule without sleeping.
type sleepFunc func(ctx context.Context, cancel <-chan struct{}, d time.Duration) bool

func defaultSleep(ctx context.Context, cancel <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-cancel:
		return false
	}
}
