// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/jeranaias/paperchat/internal/ollama"
)

// History is the ordered, append-only list of user and assistant messages
// of one session. The system message is not stored here; it is rebuilt
// from the current document plan for every request.
//
// History is not safe for concurrent use; the session serializes access.
type History struct {
	messages []Message
}

// Append adds a message to the end of the history.
func (h *History) Append(msg Message) {
	h.messages = append(h.messages, msg)
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent message, or false when empty.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Messages returns a copy of the messages in order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Clear removes all messages.
func (h *History) Clear() {
	h.messages = nil
}

// ToOllamaMessages builds the outbound message list: the system message
// first, then the history in order.
func (h *History) ToOllamaMessages(system string) []ollama.Message {
	out := make([]ollama.Message, 0, len(h.messages)+1)
	out = append(out, ollama.NewSystemMessage(system))
	for _, m := range h.messages {
		out = append(out, m.ToOllama())
	}
	return out
}
