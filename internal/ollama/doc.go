// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// The client covers the three calls the chat needs: the liveness probe
// and model listing (both GET /api/tags) and streaming chat
// (POST /api/chat). Streaming responses are newline-delimited JSON; the
// decoder carries partial lines across network reads, skips lines that do
// not parse, and stops at the first object with done set.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - StreamEvent: Token, Done, Error or Aborted item of a chat stream
//   - ClientError: Typed error with ErrorType for handling
//   - ModelInfo: Installed model as listed by /api/tags
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	if err := client.CheckRunning(ctx); err != nil {
//	    return err
//	}
//	for ev := range client.ChatStream(ctx, model, messages, numCtx) {
//	    if ev.Kind == ollama.EventToken {
//	        fmt.Print(ev.Text)
//	    }
//	}
//
// # Cancellation
//
// Cancelling the context passed to ChatStream closes the connection. The
// stream then ends with EventAborted carrying the partial text, never
// with EventError.
package ollama
