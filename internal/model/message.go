// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/paperchat/internal/ollama"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is the author of a message, using the Ollama role names.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

var roleLabels = map[Role]string{
	RoleUser:      "You",
	RoleAssistant: "Assistant",
	RoleSystem:    "System",
}

// DisplayName is the label shown for r in a transcript. Unknown roles are
// shown as-is.
func (r Role) DisplayName() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

// =============================================================================
// MESSAGES
// =============================================================================

// Message is one entry of a conversation. It is never modified once it is
// in a History.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage stamps a question the user sent.
func NewUserMessage(content string) Message {
	return stamp(RoleUser, content)
}

// NewAssistantMessage stamps a recorded answer.
func NewAssistantMessage(content string) Message {
	return stamp(RoleAssistant, content)
}

func stamp(role Role, content string) Message {
	return Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// ToOllama drops the local fields and keeps role and content.
func (m Message) ToOllama() ollama.Message {
	return ollama.Message{Role: string(m.Role), Content: m.Content}
}
