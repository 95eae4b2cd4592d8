// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/paperchat/internal/session"
)

// =============================================================================
// PAGE MODEL
// =============================================================================

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryStatus
)

// entry is one block of the transcript. html is already safe markup.
type entry struct {
	kind    entryKind
	level   session.StatusLevel
	html    string
	at      time.Time
	elapsed time.Duration
}

// page is everything rendered into one HTML file.
type page struct {
	opts      *Options
	entries   []entry
	partial   string
	streaming bool
	updated   time.Time
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

// renderPage renders a complete HTML document.
func renderPage(p *page) []byte {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	if p.streaming && p.opts.RefreshSeconds > 0 {
		sb.WriteString(fmt.Sprintf("    <meta http-equiv=\"refresh\" content=\"%d\">\n", p.opts.RefreshSeconds))
	}
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(p.opts.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"paperchat\">\n")
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", p.opts.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	renderHeader(&sb, p)

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, e := range p.entries {
		renderEntry(&sb, e)
	}
	if p.streaming {
		sb.WriteString("            <div class=\"message assistant-message streaming\">\n")
		sb.WriteString("                <div class=\"message-header\"><span class=\"role-label\">Assistant</span><span class=\"timestamp\">typing...</span></div>\n")
		sb.WriteString("                <div class=\"message-content\">\n")
		sb.WriteString(p.partial)
		sb.WriteString("\n                </div>\n")
		sb.WriteString("            </div>\n")
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Written by <strong>paperchat</strong> at %s</p>\n", formatTimestamp(p.updated)))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String())
}

func renderHeader(sb *strings.Builder, p *page) {
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(p.opts.Title)))
	if p.opts.Metadata != "" {
		sb.WriteString(fmt.Sprintf("            <pre class=\"paper-meta\">%s</pre>\n", html.EscapeString(p.opts.Metadata)))
	}
	sb.WriteString("            <div class=\"metadata\">\n")
	if p.opts.Model != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(p.opts.Model)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", countMessages(p.entries)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
}

func renderEntry(sb *strings.Builder, e entry) {
	switch e.kind {
	case entryStatus:
		sb.WriteString(fmt.Sprintf("            <div class=\"status status-%s\">%s</div>\n", e.level, e.html))
		return
	case entryUser:
		sb.WriteString("            <div class=\"message user-message\">\n")
		sb.WriteString(fmt.Sprintf("                <div class=\"message-header\"><span class=\"role-label\">You</span><span class=\"timestamp\">%s</span></div>\n", formatShortTimestamp(e.at)))
	default:
		sb.WriteString("            <div class=\"message assistant-message\">\n")
		sb.WriteString(fmt.Sprintf("                <div class=\"message-header\"><span class=\"role-label\">Assistant</span><span class=\"timestamp\">%s</span></div>\n", formatShortTimestamp(e.at)))
	}
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.html)
	sb.WriteString("\n                </div>\n")
	if e.kind == entryAssistant && e.elapsed > 0 {
		sb.WriteString(fmt.Sprintf("                <div class=\"message-stats\"><span class=\"stat\">Time: %s</span></div>\n", formatDuration(e.elapsed)))
	}
	sb.WriteString("            </div>\n")
}

// userHTML escapes user input; line breaks are kept by CSS.
func userHTML(text string) string {
	return "<p class=\"user-text\">" + html.EscapeString(text) + "</p>"
}

func countMessages(entries []entry) int {
	n := 0
	for _, e := range entries {
		if e.kind != entryStatus {
			n++
		}
	}
	return n
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #1f2335;
            --code-bg: #1a1b26;
            --accent-blue: #7aa2f7;
            --accent-green: #9ece6a;
            --accent-yellow: #e0af68;
            --accent-red: #f7768e;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --user-bg: #f6f8fa;
            --code-bg: #f6f8fa;
            --accent-blue: #0366d6;
            --accent-green: #22863a;
            --accent-yellow: #b08800;
            --accent-red: #d73a49;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 32px; background: var(--bg-tertiary); border-bottom: 2px solid var(--border-color); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .paper-meta { font-family: var(--font-sans); white-space: pre-wrap; color: var(--text-secondary); margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-secondary); }

        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 24px; padding: 20px; border-radius: 8px; border-left: 4px solid transparent; }
        .user-message { background: var(--user-bg); border-left-color: var(--accent-blue); }
        .assistant-message { background: var(--bg-secondary); border-left-color: var(--accent-green); }
        .streaming { opacity: 0.85; }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 12px; font-size: 14px; }
        .role-label { font-weight: 600; }
        .timestamp { color: var(--text-muted); font-size: 13px; font-family: var(--font-mono); }
        .user-text { white-space: pre-wrap; }
        .message-content p { margin-bottom: 12px; }
        .message-content ul, .message-content ol { margin: 0 0 12px 24px; }
        .message-content blockquote { border-left: 3px solid var(--border-color); padding-left: 12px; color: var(--text-secondary); }
        .message-stats { margin-top: 12px; padding-top: 12px; border-top: 1px solid var(--border-color); font-size: 13px; color: var(--text-muted); }

        .md-heading { margin: 16px 0 8px; }
        .md-code-block { margin: 16px 0; padding: 16px; overflow-x: auto; background: var(--code-bg); border: 1px solid var(--border-color); border-radius: 8px; }
        .md-code-block code, .md-inline-code { font-family: var(--font-mono); font-size: 14px; }
        .md-inline-code { padding: 2px 6px; background: var(--code-bg); border: 1px solid var(--border-color); border-radius: 4px; }
        .md-table { border-collapse: collapse; margin: 12px 0; }
        .md-table th, .md-table td { border: 1px solid var(--border-color); padding: 6px 10px; }
        .md-link { color: var(--accent-blue); }

        .status { margin-bottom: 16px; font-size: 14px; color: var(--text-secondary); }
        .status-warning { color: var(--accent-yellow); }
        .status-error { color: var(--accent-red); }

        .footer { padding: 20px 32px; text-align: center; font-size: 14px; color: var(--text-muted); border-top: 1px solid var(--border-color); }

        @media print {
            body { padding: 0; }
            .container { border-radius: 0; }
            .message { page-break-inside: avoid; }
        }
    </style>
`
