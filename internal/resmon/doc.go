// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package resmon samples host-wide CPU and memory usage on a fixed
// interval while workers run, publishing progress events and keeping the
// series with its running peaks for the final summary.
//
// Samples are host-wide: external worker processes are independent OS
// processes, so per-worker attribution is not possible from here.
package resmon
