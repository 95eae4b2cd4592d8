// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs a chat about one document against an Ollama server.
//
// A Session owns the message history and the context plan for its document.
// Each Send streams one response, re-rendering the accumulated markdown on
// every token, and records the assistant message when the stream ends with
// text. Stop cancels the turn in flight and keeps any partial answer.
//
// # Key Types
//
//   - Session: History, plan and the single in-flight turn
//   - Display: Surface the session renders user, partial and final turns to
//   - Transport: Streaming chat backend, implemented by *ollama.Client
//   - Recorder: Optional per-turn measurements (see package metrics)
//
// # Usage
//
//	s := session.New(cfg, client, display, session.Document{Text: text, Metadata: meta})
//	if err := s.Probe(ctx); err != nil {
//	    return err
//	}
//	result, err := s.Send(ctx, "What is the main contribution?")
package session
