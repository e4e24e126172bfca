// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Code represents an ANSI control code for text formatting.
type Code int

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	prefix = "\033["
	suffix = "m"
	reset  = "\033[0m"

	sequencePadding = 16 // growth headroom for the escape sequence builder
)

// Control codes for text formatting.
const (
	Reset Code = iota
	Bold
	Faint
	Italic
	Underline
)

// Foreground text colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground Hi-Intensity text colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled bool

func init() {
	enabled = isColorEnabled()
}

// sequence builds the ANSI escape sequence for the given codes.
func sequence(codes ...Code) string {
	sb := strings.Builder{}
	sb.Grow(len(prefix) + len(suffix) + sequencePadding)
	sb.WriteString(prefix)

	for i, code := range codes {
		if i > 0 {
			sb.WriteString(";")
		}

		sb.WriteString(strconv.Itoa(int(code)))
	}

	sb.WriteString(suffix)

	return sb.String()
}

// ControlString returns the bare ANSI escape sequence for the given codes,
// or the empty string when color output is disabled.
func ControlString(codes ...Code) string {
	if !enabled {
		return ""
	}

	return sequence(codes...)
}

// ColorizeNoReset returns a string prefixed with the ANSI escape sequences
// for the given codes, without a trailing reset. If color output is
// disabled the string is returned unchanged.
func ColorizeNoReset(str string, codes ...Code) string {
	if !enabled {
		return str
	}

	return sequence(codes...) + str
}

// Colorize returns a string wrapped in the ANSI escape sequences for the
// given codes, followed by a reset. If color output is disabled the string
// is returned unchanged.
func Colorize(str string, codes ...Code) string {
	if !enabled {
		return str
	}

	sb := strings.Builder{}
	sb.Grow(len(str) + len(reset) + len(prefix) + len(suffix) + sequencePadding)
	sb.WriteString(sequence(codes...))
	sb.WriteString(str)
	sb.WriteString(reset)

	return sb.String()
}

// Enabled reports whether color output is enabled.
// It is initialized in package init().
//
// Color is disabled when the NO_COLOR environment variable is set, forced on
// when FORCE_COLOR is set, and otherwise follows terminal detection on
// stdout using the golang.org/x/term package.
func Enabled() bool {
	return enabled
}

func isColorEnabled() bool {
	if nc := os.Getenv(NoColor); nc != "" {
		return false
	}

	if fc := os.Getenv(ForceColor); fc != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
