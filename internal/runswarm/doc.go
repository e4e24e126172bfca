// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runswarm fans a plan out to one external agent process per
// grouping, tracks every worker through its lifecycle, retries failures on
// a fixed backoff schedule, and joins all of them into an execution
// summary.
//
// The fan-out has no concurrency cap: every grouping starts at once, and
// one worker's failure never aborts a sibling. Cancellation is cooperative
// first (terminate, two second grace) and forceful after, driven by a
// single run-wide token checked before each spawn, before each backoff
// sleep and after each exit.
package runswarm
