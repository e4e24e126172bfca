// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package spawn starts and supervises external processes.
//
// A Launcher turns an Options value into a running process and returns a
// Handle for it. The instruction payload is written to the child's stdin,
// stdout and stderr are captured up to a fixed cap while streaming chunks
// to optional callbacks, and a watchdog escalates context cancellation
// into a graceful terminate followed by a forced kill.
package spawn
