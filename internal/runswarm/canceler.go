// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runswarm

import "sync"

// Canceler is the run-wide cancellation token. Tasks check it at defined
// checkpoints instead of sharing a map of live processes. The zero value
// is not usable; create one with NewCanceler.
type Canceler struct {
	once sync.Once
	done chan struct{}
}

// NewCanceler returns an untriggered token.
func NewCanceler() *Canceler {
	return &Canceler{done: make(chan struct{})}
}

// Cancel triggers the token. It is idempotent and safe to call from any
// goroutine, including signal handlers.
func (c *Canceler) Cancel() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Done returns a channel that is closed once cancellation is requested.
func (c *Canceler) Done() <-chan struct{} {
	return c.done
}

// Canceled reports whether Cancel has been called.
func (c *Canceler) Canceled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
