// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"
)

// =============================================================================
// BLOCK PATTERNS
// =============================================================================

var (
	headingLine    = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	ruleLine       = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
	unorderedItem  = regexp.MustCompile(`^\s*[-*+]\s+(.+)$`)
	orderedItem    = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)
	blockquoteLine = regexp.MustCompile(`^&gt;\s?(.*)$`)
)

// blockKind is the container block currently open. Only one can be open.
type blockKind int

const (
	blockNone blockKind = iota
	blockUnordered
	blockOrdered
	blockQuote
)

var blockTags = [...]struct{ open, close string }{
	blockNone:      {"", ""},
	blockUnordered: {"<ul>", "</ul>"},
	blockOrdered:   {"<ol>", "</ol>"},
	blockQuote:     {"<blockquote>", "</blockquote>"},
}

// =============================================================================
// RENDER
// =============================================================================

// Render converts markdown to HTML. Output lines are joined with "\n".
func Render(text string) string {
	text = normalize(text)
	if text == "" {
		return ""
	}
	text = escapeEntities(stripMarkup(text))

	st := renderState{lines: strings.Split(text, "\n")}
	st.out.Grow(len(text) + len(text)/4)
	st.run()
	return st.out.String()
}

// renderState is the scan position for one Render call.
type renderState struct {
	lines   []string
	pos     int
	open    blockKind
	out     strings.Builder
	started bool
}

func (st *renderState) emit(line string) {
	if st.started {
		st.out.WriteByte('\n')
	}
	st.started = true
	st.out.WriteString(line)
}

// enter opens kind, closing whatever other block is open.
func (st *renderState) enter(kind blockKind) {
	if st.open == kind {
		return
	}
	st.closeOpen()
	st.open = kind
	st.emit(blockTags[kind].open)
}

func (st *renderState) closeOpen() {
	if st.open == blockNone {
		return
	}
	st.emit(blockTags[st.open].close)
	st.open = blockNone
}

func (st *renderState) run() {
	for st.pos < len(st.lines) {
		line := st.lines[st.pos]

		if m := fenceOpen.FindStringSubmatch(line); m != nil {
			st.codeBlock(m[1])
			continue
		}
		st.pos++

		if m := headingLine.FindStringSubmatch(line); m != nil {
			st.closeOpen()
			level := string(rune('0' + len(m[1])))
			st.emit("<h" + level + ` class="md-heading">` + renderInline(m[2]) + "</h" + level + ">")
			continue
		}

		if ruleLine.MatchString(strings.TrimSpace(line)) {
			st.closeOpen()
			st.emit("<hr>")
			continue
		}

		if isTableRow(line) {
			st.closeOpen()
			group := []string{line}
			for st.pos < len(st.lines) && isTableRow(st.lines[st.pos]) {
				group = append(group, st.lines[st.pos])
				st.pos++
			}
			st.emit(renderTable(group))
			continue
		}

		if m := unorderedItem.FindStringSubmatch(line); m != nil {
			st.enter(blockUnordered)
			st.emit("<li>" + renderInline(m[1]) + "</li>")
			continue
		}

		if m := orderedItem.FindStringSubmatch(line); m != nil {
			st.enter(blockOrdered)
			st.emit("<li>" + renderInline(m[1]) + "</li>")
			continue
		}

		if m := blockquoteLine.FindStringSubmatch(line); m != nil {
			st.enter(blockQuote)
			if strings.TrimSpace(m[1]) == "" {
				st.emit("")
			} else {
				st.emit("<p>" + renderInline(m[1]) + "</p>")
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			st.closeOpen()
			st.emit("")
			continue
		}

		st.closeOpen()
		st.emit("<p>" + renderInline(line) + "</p>")
	}

	// Streaming text often ends inside a list or quote.
	st.closeOpen()
}

// codeBlock consumes a fenced block starting at st.pos. An unclosed fence
// runs to the end of input so partial code is shown while streaming.
// Code stays inside an open list so numbering continues after it.
func (st *renderState) codeBlock(lang string) {
	st.pos++
	start := st.pos
	end := len(st.lines)
	for i := start; i < len(st.lines); i++ {
		if fenceClose.MatchString(st.lines[i]) {
			end = i
			break
		}
	}

	var b strings.Builder
	b.WriteString(`<pre class="md-code-block"><code`)
	if lang != "" {
		b.WriteString(` class="language-`)
		b.WriteString(lang)
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(strings.Join(st.lines[start:end], "\n"))
	b.WriteString("</code></pre>")
	st.emit(b.String())

	st.pos = end + 1
}
