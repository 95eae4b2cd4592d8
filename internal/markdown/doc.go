// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown renders model output to HTML for the chat transcript.
//
// Render is called on every streamed delta with the whole accumulated
// response, so it is a pure function of its input and keeps no state
// between calls. Blocks that are already closed in a prefix render to the
// same bytes when more text is appended; only the trailing open block may
// change shape.
//
// # Pipeline
//
//  1. Strip raw HTML tags the model may emit (<br> becomes a space in table
//     rows and a newline elsewhere). Fenced code is left alone.
//  2. Escape &, < and > so that text can never inject markup.
//  3. Scan lines: fenced code, headings, rules, tables, lists, quotes,
//     blank lines and paragraphs. At most one list or quote is open.
//  4. Apply inline formatting outside code: `code`, ***bold italic***,
//     **bold**, *italic*, _italic_ and [links](url).
//
// # CSS Classes
//
// Headings carry md-heading, fenced code md-code-block, inline code
// md-inline-code, tables md-table and links md-link.
package markdown
