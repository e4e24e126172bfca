// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package eventbus provides a synchronous in-process pub/sub bus that
// decouples the orchestration pipeline from its presentation layers.
// Events are delivered to subscribers synchronously and in subscription
// order, with no buffering and no backpressure: a slow subscriber blocks
// emission. Subscribers added after an event was published do not receive
// it.
package eventbus
