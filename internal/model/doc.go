// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: Single message with role, content and timestamp
//   - History: Append-only message list owned by one session
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
//	var h model.History
//	h.Append(model.NewUserMessage("What is the main result?"))
//	msgs := h.ToOllamaMessages(systemPrompt)
package model
