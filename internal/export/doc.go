// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// Transcript is a session.Display that keeps a self-contained HTML page of
// the chat current while responses stream, so the rendered markdown can be
// followed in a browser. Markdown formats a finished conversation.
//
// # Key Types
//
//   - Transcript: Live HTML transcript, rate limited while streaming
//   - Options: Page title, metadata, model and theme
//
// # Usage
//
//	t, err := export.NewTranscript("chat.html", &export.Options{Title: "Paper"}, logger)
//	display := session.Tee(terminal, t)
//
//	err = export.SaveMarkdown("chat.md", opts, s.History())
package export
