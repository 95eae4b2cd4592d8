// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// INLINE PATTERNS
// =============================================================================

var (
	inlineCode      = regexp.MustCompile("`([^`]+)`")
	boldItalicStar  = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	boldItalicUnder = regexp.MustCompile(`___(.+?)___`)
	boldStar        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnder       = regexp.MustCompile(`__(.+?)__`)
	italicStar      = regexp.MustCompile(`\*(.+?)\*`)
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	placeholder     = regexp.MustCompile("\x00([0-9]+)\x00")
)

// renderInline formats one line of already-escaped text.
//
// Code spans are swapped for NUL-delimited placeholders first so later
// steps cannot reach into them, then restored at the end.
func renderInline(text string) string {
	var spans []string
	if strings.IndexByte(text, '`') >= 0 {
		text = inlineCode.ReplaceAllStringFunc(text, func(m string) string {
			spans = append(spans, m[1:len(m)-1])
			return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
		})
	}

	if strings.IndexByte(text, '*') >= 0 {
		text = boldItalicStar.ReplaceAllString(text, "<strong><em>$1</em></strong>")
	}
	if strings.IndexByte(text, '_') >= 0 {
		text = boldItalicUnder.ReplaceAllString(text, "<strong><em>$1</em></strong>")
	}
	if strings.IndexByte(text, '*') >= 0 {
		text = boldStar.ReplaceAllString(text, "<strong>$1</strong>")
	}
	if strings.IndexByte(text, '_') >= 0 {
		text = boldUnder.ReplaceAllString(text, "<strong>$1</strong>")
	}
	if strings.IndexByte(text, '*') >= 0 {
		text = italicStar.ReplaceAllString(text, "<em>$1</em>")
	}
	if strings.IndexByte(text, '_') >= 0 {
		text = underscoreItalic(text)
	}
	if strings.IndexByte(text, '[') >= 0 {
		text = replaceLinks(text, spans)
	}

	if len(spans) > 0 {
		text = restoreSpans(text, spans, true)
	}
	return text
}

// restoreSpans puts code spans back in place of their placeholders, as
// <code> elements when wrap is set and as bare text otherwise.
func restoreSpans(text string, spans []string, wrap bool) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		i, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || i >= len(spans) {
			return ""
		}
		if !wrap {
			return spans[i]
		}
		return `<code class="md-inline-code">` + spans[i] + "</code>"
	})
}

// underscoreItalic converts _text_ to <em>text</em>, but only where neither
// underscore touches a word character on its outer side, so snake_case
// identifiers stay intact. Matches are leftmost and shortest.
func underscoreItalic(text string) string {
	var b strings.Builder
	last := 0
	i := 0
	for i < len(text) {
		if text[i] != '_' || wordBefore(text, i) {
			i++
			continue
		}
		end := -1
		for j := i + 2; j < len(text); j++ {
			if text[j] == '_' && !wordAfter(text, j+1) {
				end = j
				break
			}
		}
		if end < 0 {
			i++
			continue
		}
		b.WriteString(text[last:i])
		b.WriteString("<em>")
		b.WriteString(text[i+1 : end])
		b.WriteString("</em>")
		last = end + 1
		i = end + 1
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBefore reports whether the rune ending at byte offset i is a word rune.
func wordBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

// wordAfter reports whether the rune starting at byte offset i is a word rune.
func wordAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

// replaceLinks converts [text](url). Markup added by earlier steps is
// removed from the href, code spans in it become plain text, and quotes are
// escaped so the attribute stays closed.
func replaceLinks(text string, spans []string) string {
	return linkPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		href := markupTag.ReplaceAllString(sub[2], "")
		if len(spans) > 0 {
			href = restoreSpans(href, spans, false)
		}
		href = strings.ReplaceAll(href, `"`, "&quot;")
		return `<a href="` + href + `" class="md-link">` + sub[1] + "</a>"
	})
}
