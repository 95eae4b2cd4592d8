// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/paperchat/internal/model"
	"github.com/jeranaias/paperchat/internal/util"
)

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

// Markdown formats a finished conversation as a Markdown document with a
// YAML front matter block.
func Markdown(opts *Options, messages []model.Message, exported time.Time) string {
	opts = opts.withDefaults()
	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(opts.Title)))
	if opts.Model != "" {
		sb.WriteString(fmt.Sprintf("model: %s\n", escapeYAML(opts.Model)))
	}
	sb.WriteString(fmt.Sprintf("messages: %d\n", len(messages)))
	sb.WriteString(fmt.Sprintf("exported: %s\n", exported.Format(time.RFC3339)))
	sb.WriteString("generator: paperchat\n")
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(opts.Title)))
	if opts.Metadata != "" {
		for _, line := range strings.Split(opts.Metadata, "\n") {
			sb.WriteString("> " + line + "\n")
		}
		sb.WriteString("\n")
	}

	for i, msg := range messages {
		sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", msg.Role.DisplayName(), formatShortTimestamp(msg.Timestamp)))
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")
		if i < len(messages)-1 {
			sb.WriteString("---\n\n")
		}
	}
	return sb.String()
}

// SaveMarkdown writes Markdown(opts, messages, now) to path.
func SaveMarkdown(path string, opts *Options, messages []model.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("conversation has no messages")
	}
	data := Markdown(opts, messages, time.Now())
	if err := util.AtomicWriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would change a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", "\\#", "*", "\\*", "_", "\\_", "[", "\\[", "]", "\\]")
	return r.Replace(s)
}

// escapeYAML quotes a value when YAML would read it differently.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n", "\r", "\\r")
		return "\"" + r.Replace(s) + "\""
	}
	return s
}
