// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package merge reconciles the outputs of a finished run into one merged
// document. It always writes a raw per-worker backup artifact before
// anything else, so a synthesis failure never loses successful work. The
// coordinator itself never falls back: callers decide whether to assemble
// the simple concatenation when synthesis fails.
package merge
