// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/paperchat/internal/session"
	"github.com/jeranaias/paperchat/internal/ui/styles"
	"github.com/jeranaias/paperchat/internal/util"
)

// =============================================================================
// TERMINAL DISPLAY
// =============================================================================

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\x1b[K"

var (
	blockEndRegex = regexp.MustCompile(`(?i)</(p|li|h[1-6]|pre|blockquote|tr)>|<br\s*/?>`)
	tagRegex      = regexp.MustCompile(`<[^>]*>`)
)

// terminalDisplay shows a session on a terminal. While a response streams
// it keeps a single preview line updated in place; the finished answer is
// printed once through glamour by finish.
type terminalDisplay struct {
	out      io.Writer
	theme    *styles.Theme
	width    int
	live     bool
	echoUser bool
	renderer *glamour.TermRenderer

	labelShown   bool
	previewShown bool
	finalHTML    string
	started      time.Time
}

// displayOptions configures a terminalDisplay.
type displayOptions struct {
	Width int
	// Live enables the in-place preview line. Only useful on a terminal.
	Live bool
	// EchoUser prints each sent message, for input that is not typed.
	EchoUser bool
}

func newTerminalDisplay(out io.Writer, theme *styles.Theme, opts displayOptions) *terminalDisplay {
	if opts.Width <= 0 {
		opts.Width = DefaultTerminalWidth
	}
	d := &terminalDisplay{
		out:      out,
		theme:    theme,
		width:    opts.Width,
		live:     opts.Live,
		echoUser: opts.EchoUser,
	}

	style := "notty"
	if theme.ColorProfile != termenv.Ascii {
		style = "light"
		if theme.IsDark {
			style = "dark"
		}
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(opts.Width-4),
	)
	if err == nil {
		d.renderer = r
	}
	return d
}

func (d *terminalDisplay) ShowUser(text string) {
	d.started = time.Now()
	if d.echoUser {
		fmt.Fprintf(d.out, "%s %s\n", d.theme.UserLabel.Render("You:"), text)
	}
}

func (d *terminalDisplay) ShowPartial(fragment string) {
	d.showLabel()
	if !d.live {
		return
	}
	frame := styles.LineSpinner.Frame(time.Since(d.started))
	line := util.TailWidth(strings.TrimRight(plainText(fragment), "\n"), d.width-3)
	fmt.Fprint(d.out, clearLine+d.theme.Muted.Render(frame)+" "+d.theme.Preview.Render(line))
	d.previewShown = true
}

func (d *terminalDisplay) ShowFinal(fragment string) {
	d.clearPreview()
	d.finalHTML = fragment
}

func (d *terminalDisplay) DiscardPartial() {
	d.clearPreview()
	d.finalHTML = ""
}

func (d *terminalDisplay) ShowStatus(level session.StatusLevel, text string) {
	d.clearPreview()
	fmt.Fprintln(d.out, d.theme.Status(themeLevel(level), text))
}

// finish prints the answer of a finished turn. text is the recorded
// markdown; when it is empty the last final rendering is shown instead.
func (d *terminalDisplay) finish(text string) {
	d.clearPreview()
	switch {
	case text != "":
		d.showLabel()
		fmt.Fprint(d.out, d.renderMarkdown(text))
	case d.finalHTML != "":
		d.showLabel()
		fmt.Fprintln(d.out, d.theme.Muted.Render(strings.TrimSpace(plainText(d.finalHTML))))
	}
	if d.labelShown && !d.started.IsZero() {
		fmt.Fprintln(d.out, d.theme.Muted.Render(fmt.Sprintf("(%.1fs)", time.Since(d.started).Seconds())))
	}

	d.labelShown = false
	d.finalHTML = ""
	d.started = time.Time{}
}

func (d *terminalDisplay) showLabel() {
	if d.labelShown {
		return
	}
	fmt.Fprintln(d.out, d.theme.AssistantLabel.Render("Assistant"))
	d.labelShown = true
}

func (d *terminalDisplay) clearPreview() {
	if !d.previewShown {
		return
	}
	fmt.Fprint(d.out, clearLine)
	d.previewShown = false
}

// renderMarkdown renders text for the terminal. Returns the text unchanged
// if the renderer is unavailable or fails.
func (d *terminalDisplay) renderMarkdown(text string) string {
	if d.renderer == nil {
		return ensureNewline(text)
	}
	out, err := d.renderer.Render(text)
	if err != nil {
		return ensureNewline(text)
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func themeLevel(level session.StatusLevel) styles.Level {
	switch level {
	case session.StatusWarning:
		return styles.LevelWarning
	case session.StatusError:
		return styles.LevelError
	default:
		return styles.LevelInfo
	}
}

// plainText reduces rendered HTML to text, one line per block.
func plainText(fragment string) string {
	s := blockEndRegex.ReplaceAllString(fragment, "\n")
	s = tagRegex.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
