// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"time"
)

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options describes the page a transcript is written to.
type Options struct {
	// Title heads the page, usually the paper title.
	Title string

	// Metadata is shown under the title as preformatted text.
	Metadata string

	// Model is the model name shown in the header.
	Model string

	// Theme is "dark" or "light". Default: "dark"
	Theme string

	// RefreshSeconds makes a browser reload the page while a response is
	// streaming. 0 disables reloading.
	RefreshSeconds int

	// MinInterval is the shortest time between two writes of a streaming
	// response. Default: 250ms
	MinInterval time.Duration
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		Title:          "Paper chat",
		Theme:          "dark",
		RefreshSeconds: 2,
		MinInterval:    250 * time.Millisecond,
	}
}

func (o *Options) withDefaults() *Options {
	d := DefaultOptions()
	if o == nil {
		return d
	}
	out := *o
	if out.Title == "" {
		out.Title = d.Title
	}
	if out.Theme != "light" {
		out.Theme = "dark"
	}
	if out.MinInterval <= 0 {
		out.MinInterval = d.MinInterval
	}
	return &out
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
