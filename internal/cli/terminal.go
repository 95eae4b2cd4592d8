// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/paperchat/internal/ui/styles"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is used when the width cannot be detected.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest layout we render.
	MinTerminalWidth = 20

	// MaxTerminalWidth caps word wrapping on very wide terminals.
	MaxTerminalWidth = 120
)

type fileDescriptor interface {
	Fd() uintptr
}

// isTerminal reports whether s is attached to a terminal.
func isTerminal(s any) bool {
	f, ok := s.(fileDescriptor)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the column count of w, clamped to a usable range.
func terminalWidth(w io.Writer) int {
	f, ok := w.(fileDescriptor)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return min(max(width, MinTerminalWidth), MaxTerminalWidth)
}

// =============================================================================
// COLOR DETECTION
// =============================================================================

// colorsEnabled reports whether w should receive colour.
// NO_COLOR (https://no-color.org/) wins over FORCE_COLOR, which wins over
// TTY detection.
func colorsEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return isTerminal(w)
}

// colorProfile returns the termenv profile for w.
func colorProfile(w io.Writer) termenv.Profile {
	if !colorsEnabled(w) {
		return termenv.Ascii
	}
	if isTerminal(w) {
		return termenv.NewOutput(w).EnvColorProfile()
	}
	return termenv.ANSI256
}

// newTheme builds the styles for w.
func newTheme(w io.Writer) *styles.Theme {
	profile := colorProfile(w)
	isDark := true
	if profile != termenv.Ascii && isTerminal(w) {
		isDark = termenv.NewOutput(w).HasDarkBackground()
	}
	return styles.NewThemeWithProfile(w, profile, isDark)
}
