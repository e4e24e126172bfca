// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader provides a TeeReader implementation that captures the last line
// of output while preserving all data for complete reading. This is useful for
// displaying progress information from long-running commands while maintaining
// access to the full output.
//
// A chunk callback can be registered to observe data as it streams through,
// for example to publish output events while a process is still running.
package teereader
