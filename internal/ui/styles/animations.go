// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"
)

// =============================================================================
// STREAMING SPINNER
// =============================================================================

// SpinnerConfig cycles through Frames at FPS frames per second.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// LineSpinner draws with ASCII only.
var LineSpinner = SpinnerConfig{
	Frames: strings.Split(`|/-\`, ""),
	FPS:    10,
}

// Duration is how long one frame is shown. FPS <= 0 means one second.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS > 0 {
		return time.Second / time.Duration(s.FPS)
	}
	return time.Second
}

// Frame is the frame showing after elapsed. It is "" without frames.
func (s SpinnerConfig) Frame(elapsed time.Duration) string {
	n := len(s.Frames)
	if n == 0 {
		return ""
	}
	tick := int(elapsed / s.Duration())
	return s.Frames[tick%n]
}

// =============================================================================
// USAGE BAR
// =============================================================================

// Bar glyphs. A partially filled cell uses ProgressPartial, lightest first.
var (
	ProgressFull    = "#"
	ProgressEmpty   = "-"
	ProgressPartial = []string{".", ":", "+"}
)

// barCells splits width cells for percent into full cells, at most one
// partial glyph and empty cells. percent is clamped to 0-100.
func barCells(width int, percent float64) (full int, partial string, empty int) {
	if width <= 0 {
		return 0, "", 0
	}
	percent = min(max(percent, 0), 100)

	filled := float64(width) * percent / 100
	full = int(filled)
	if full < width {
		step := int((filled - float64(full)) * float64(len(ProgressPartial)+1))
		if step > 0 {
			partial = ProgressPartial[step-1]
		}
	}
	empty = width - full
	if partial != "" {
		empty--
	}
	return full, partial, empty
}

// RenderProgressBar draws width cells filled to percent (0-100).
func RenderProgressBar(width int, percent float64) string {
	full, partial, empty := barCells(width, percent)
	return strings.Repeat(ProgressFull, full) + partial + strings.Repeat(ProgressEmpty, empty)
}
