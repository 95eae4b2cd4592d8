// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// RUNE TRUNCATION
// =============================================================================

// TruncateRunes cuts s to at most maxRunes characters, ending in "..." when
// something was removed.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// =============================================================================
// DISPLAY WIDTH
// =============================================================================

// StringWidth returns the number of terminal columns s occupies.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateWidth cuts s to at most maxWidth columns, ending in "..." when
// something was removed. Wide characters are never split.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// TailWidth keeps the last maxWidth columns of the last line of s, prefixed
// with "..." when something was removed. It is used for one-line previews of
// text that is still growing.
func TailWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	prefix := "..."
	if maxWidth <= len(prefix) {
		prefix = ""
	}
	budget := maxWidth - len(prefix)

	runes := []rune(s)
	width := 0
	start := len(runes)
	for start > 0 {
		w := runewidth.RuneWidth(runes[start-1])
		if width+w > budget {
			break
		}
		width += w
		start--
	}
	return prefix + string(runes[start:])
}
