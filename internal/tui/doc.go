// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time Terminal User Interface (TUI) for
// monitoring a swarm run. It displays one row per worker with a status
// glyph, attempt counter, elapsed time and the last output line, plus a
// completion bar, host resource usage and the merge stage.
//
// The TUI is a pure consumer of the event bus: it subscribes to the run's
// events and renders them, but never drives the run itself. The only
// control it exposes is cancellation, where the first ctrl+c requests a
// cooperative stop and the second forces the program to exit.
package tui
