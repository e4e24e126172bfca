// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color provides ANSI color codes and helpers for terminal output.
// It respects the NO_COLOR and FORCE_COLOR environment variables and falls
// back to terminal detection on stdout.
package color
