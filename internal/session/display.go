// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"iter"
	"time"

	ctxbudget "github.com/jeranaias/paperchat/internal/context"
	"github.com/jeranaias/paperchat/internal/ollama"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Transport streams chat responses and probes the server.
// *ollama.Client implements it.
type Transport interface {
	ChatStream(ctx context.Context, model string, messages []ollama.Message, numCtx int) iter.Seq[ollama.StreamEvent]
	CheckRunning(ctx context.Context) error
}

// StatusLevel classifies a status line for display.
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusWarning StatusLevel = "warning"
	StatusError   StatusLevel = "error"
)

func statusForAdvisory(level ctxbudget.AdvisoryLevel) StatusLevel {
	if level == ctxbudget.AdvisoryWarning {
		return StatusWarning
	}
	return StatusInfo
}

// Display is the surface a session writes to. Calls for one session are
// never concurrent.
type Display interface {
	// ShowUser shows a message the user sent.
	ShowUser(text string)

	// ShowPartial replaces the in-progress assistant turn with html.
	ShowPartial(html string)

	// ShowFinal replaces the in-progress assistant turn with its final html.
	ShowFinal(html string)

	// DiscardPartial removes the in-progress assistant turn.
	DiscardPartial()

	// ShowStatus shows a plain-text status or advisory line.
	ShowStatus(level StatusLevel, text string)
}

// Tee returns a Display that forwards every call to each display in order.
// Nil displays are skipped.
func Tee(displays ...Display) Display {
	var t teeDisplay
	for _, d := range displays {
		if d != nil {
			t = append(t, d)
		}
	}
	return t
}

type teeDisplay []Display

func (t teeDisplay) ShowUser(text string) {
	for _, d := range t {
		d.ShowUser(text)
	}
}

func (t teeDisplay) ShowPartial(html string) {
	for _, d := range t {
		d.ShowPartial(html)
	}
}

func (t teeDisplay) ShowFinal(html string) {
	for _, d := range t {
		d.ShowFinal(html)
	}
}

func (t teeDisplay) DiscardPartial() {
	for _, d := range t {
		d.DiscardPartial()
	}
}

func (t teeDisplay) ShowStatus(level StatusLevel, text string) {
	for _, d := range t {
		d.ShowStatus(level, text)
	}
}

// Recorder receives per-turn measurements. A nil Recorder is allowed.
type Recorder interface {
	TurnFinished(outcome Outcome, elapsed time.Duration)
	TokenStreamed()
	RenderObserved(elapsed time.Duration)
	DocumentTruncated()
}

type nopRecorder struct{}

func (nopRecorder) TurnFinished(Outcome, time.Duration) {}
func (nopRecorder) TokenStreamed()                      {}
func (nopRecorder) RenderObserved(time.Duration)        {}
func (nopRecorder) DocumentTruncated()                  {}
