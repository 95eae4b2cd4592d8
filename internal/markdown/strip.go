// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"
)

// =============================================================================
// MARKUP STRIPPING
// =============================================================================

var (
	lineBreakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	commentTag   = regexp.MustCompile(`<!--.*?-->`)
	markupTag    = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9:-]*(?:\s[^<>]*)?/?>`)

	fenceOpen  = regexp.MustCompile("^\\s*```([\\w+#.-]*)\\s*$")
	fenceClose = regexp.MustCompile("^\\s*```\\s*$")

	entityEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// normalize unifies line endings and drops NUL, which the inline
// formatter reserves for placeholders.
func normalize(text string) string {
	if strings.ContainsRune(text, '\r') {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	if strings.ContainsRune(text, 0) {
		text = strings.ReplaceAll(text, "\x00", "")
	}
	return text
}

// stripMarkup removes HTML the model emitted despite being asked not to.
// On lines with a table separator, <br> becomes a space so the row stays on
// one line; elsewhere it becomes a newline. Lines inside fenced code are
// kept verbatim because tags there are part of the code.
func stripMarkup(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}

	lines := strings.Split(text, "\n")
	inFence := false
	for i, line := range lines {
		if inFence {
			if fenceClose.MatchString(line) {
				inFence = false
			}
			continue
		}
		if fenceOpen.MatchString(line) {
			inFence = true
			continue
		}
		if !strings.ContainsRune(line, '<') {
			continue
		}

		line = commentTag.ReplaceAllString(line, "")
		if strings.ContainsRune(line, '|') {
			line = lineBreakTag.ReplaceAllString(line, " ")
		} else {
			line = lineBreakTag.ReplaceAllString(line, "\n")
		}
		lines[i] = markupTag.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}

// escapeEntities escapes the three characters that can start markup.
func escapeEntities(text string) string {
	return entityEscaper.Replace(text)
}
