// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want 'Hello'", msg.Content)
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
	if other := NewUserMessage("Hello"); other.ID == msg.ID {
		t.Error("two messages share an ID")
	}
}

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("other"), "other"},
	}
	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestHistory_AppendAndCopy(t *testing.T) {
	var h History
	if _, ok := h.Last(); ok {
		t.Error("Last() on empty history returned ok")
	}

	h.Append(NewUserMessage("q"))
	h.Append(NewAssistantMessage("a"))

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	last, ok := h.Last()
	if !ok || last.Content != "a" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}

	msgs := h.Messages()
	msgs[0].Content = "changed"
	if h.Messages()[0].Content != "q" {
		t.Error("Messages() returned shared storage")
	}

	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", h.Len())
	}
}

func TestHistory_ToOllamaMessages(t *testing.T) {
	var h History
	h.Append(NewUserMessage("q"))
	h.Append(NewAssistantMessage("a"))

	msgs := h.ToOllamaMessages("sys")
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	want := [][2]string{{"system", "sys"}, {"user", "q"}, {"assistant", "a"}}
	for i, w := range want {
		if msgs[i].Role != w[0] || msgs[i].Content != w[1] {
			t.Errorf("msgs[%d] = %+v, want role %q content %q", i, msgs[i], w[0], w[1])
		}
	}
}
