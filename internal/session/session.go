// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ctxbudget "github.com/jeranaias/paperchat/internal/context"
	"github.com/jeranaias/paperchat/internal/markdown"
	"github.com/jeranaias/paperchat/internal/model"
	"github.com/jeranaias/paperchat/internal/ollama"
)

// =============================================================================
// ERRORS AND MESSAGES
// =============================================================================

var (
	// ErrGenerating is returned when an operation needs the session idle.
	ErrGenerating = errors.New("a response is still being generated")

	// ErrBusy is returned while a document reload or clear is in progress.
	ErrBusy = errors.New("session is busy")

	// ErrEmptyInput is returned for blank user input.
	ErrEmptyInput = errors.New("message is empty")
)

const (
	// NoResponseText is shown when the model finished without any text.
	NoResponseText = "(No response generated)"

	clearedText = "Chat cleared. PDF context is still loaded. Ask a new question."

	metadataHeader = "\n\n--- PAPER METADATA ---\n"
	documentHeader = "\n\n--- FULL PDF TEXT ---\n"
)

// =============================================================================
// STATE
// =============================================================================

// State is the session generation state.
type State int

const (
	StateIdle State = iota
	StateGenerating
)

func (s State) String() string {
	if s == StateGenerating {
		return "generating"
	}
	return "idle"
}

// Outcome is how a turn ended.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeEmpty   Outcome = "empty"
	OutcomeError   Outcome = "error"
	OutcomeAborted Outcome = "aborted"
)

// TurnResult describes a finished turn.
type TurnResult struct {
	Outcome Outcome

	// Text is the recorded assistant text, empty if nothing was recorded.
	Text string

	// Err is set for OutcomeError.
	Err error
}

// =============================================================================
// SESSION
// =============================================================================

// Document is the source text and its metadata.
type Document struct {
	Text     string
	Metadata string

	// OriginalChars is the length before any upstream cap, 0 if uncapped.
	OriginalChars int
}

// Config holds the plain values a session is built from.
type Config struct {
	Model        string
	BaseURL      string
	WindowTokens int
	SystemPrompt string

	// Planner defaults to ctxbudget.NewPlanner(nil).
	Planner *ctxbudget.Planner

	Logger   *zerolog.Logger
	Recorder Recorder
}

// Session is one conversation about one document. It holds the history
// and the context plan and runs at most one turn at a time.
type Session struct {
	id        string
	cfg       Config
	planner   *ctxbudget.Planner
	transport Transport
	display   Display
	rec       Recorder
	log       zerolog.Logger

	mu       sync.Mutex
	state    State
	busy     bool
	cancel   context.CancelFunc
	history  model.History
	plan     ctxbudget.ContextPlan
	metadata string
}

// New creates a session, plans the document and announces it on display.
func New(cfg Config, transport Transport, display Display, doc Document) *Session {
	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		planner:   cfg.Planner,
		transport: transport,
		display:   display,
		rec:       cfg.Recorder,
	}
	if s.planner == nil {
		s.planner = ctxbudget.NewPlanner(nil)
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	s.log = logger.With().Str("session", s.id).Logger()

	s.applyDocument(doc)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Plan returns the current context plan.
func (s *Session) Plan() ctxbudget.ContextPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// History returns a copy of the recorded messages.
func (s *Session) History() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Messages()
}

// SetDocument replaces the document and plans it again. No turn can start
// until the new plan is in place and announced.
func (s *Session) SetDocument(doc Document) error {
	if err := s.reserve(); err != nil {
		return err
	}
	defer s.release()

	s.applyDocument(doc)
	return nil
}

// reserve claims an idle session for an operation that replaces state and
// talks to the display outside mu. Send refuses to start until release.
func (s *Session) reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateGenerating:
		return ErrGenerating
	case s.busy:
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) applyDocument(doc Document) {
	plan := s.planner.Plan(ctxbudget.PlanInput{
		SystemPrompt:  s.cfg.SystemPrompt,
		Metadata:      doc.Metadata,
		Document:      doc.Text,
		WindowTokens:  s.cfg.WindowTokens,
		OriginalChars: doc.OriginalChars,
	})

	s.mu.Lock()
	s.plan = plan
	s.metadata = doc.Metadata
	s.mu.Unlock()

	s.log.Debug().
		Int("window", plan.EffectiveWindowTokens).
		Int("document_tokens", plan.DocumentTokens).
		Bool("truncated", plan.Truncated).
		Bool("adjusted", plan.Adjusted).
		Msg("document planned")
	if plan.Truncated {
		s.rec.DocumentTruncated()
	}

	chars := utf8.RuneCountInString(plan.DocumentText)
	s.display.ShowStatus(StatusInfo, fmt.Sprintf("PDF loaded (%d chars). Ask a question about this paper.", chars))
	for _, adv := range plan.Advisories {
		s.display.ShowStatus(statusForAdvisory(adv.Level), adv.Text)
	}
}

// systemContent builds the system message from the prompt, metadata and
// planned document text. Callers hold mu.
func (s *Session) systemContent() string {
	var b strings.Builder
	b.Grow(len(s.cfg.SystemPrompt) + len(s.metadata) + len(s.plan.DocumentText) + len(metadataHeader) + len(documentHeader))
	b.WriteString(s.cfg.SystemPrompt)
	b.WriteString(metadataHeader)
	b.WriteString(s.metadata)
	b.WriteString(documentHeader)
	b.WriteString(s.plan.DocumentText)
	return b.String()
}

// =============================================================================
// TURNS
// =============================================================================

// Send runs one turn: it records the user message, streams the response
// and records the assistant message. It blocks until the turn ends.
//
// A send while a turn is in flight changes nothing and returns
// ErrGenerating; during a reload or clear it returns ErrBusy. Transport failures end the turn with OutcomeError; they
// are not returned as errors.
func (s *Session) Send(ctx context.Context, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.state == StateGenerating {
		s.mu.Unlock()
		return TurnResult{}, ErrGenerating
	}
	if s.busy {
		s.mu.Unlock()
		return TurnResult{}, ErrBusy
	}
	s.history.Append(model.NewUserMessage(text))
	messages := s.history.ToOllamaMessages(s.systemContent())
	numCtx := s.plan.EffectiveWindowTokens
	turnCtx, cancel := context.WithCancel(ctx)
	s.state = StateGenerating
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	s.display.ShowUser(text)

	start := time.Now()
	result := s.stream(turnCtx, messages, numCtx)
	elapsed := time.Since(start)

	s.rec.TurnFinished(result.Outcome, elapsed)
	level := zerolog.DebugLevel
	if result.Outcome == OutcomeError {
		level = zerolog.WarnLevel
	}
	s.log.WithLevel(level).
		Err(result.Err).
		Str("outcome", string(result.Outcome)).
		Int("chars", len(result.Text)).
		Dur("elapsed", elapsed).
		Msg("turn finished")

	return result, nil
}

// stream consumes the transport and updates display and history.
func (s *Session) stream(ctx context.Context, messages []ollama.Message, numCtx int) TurnResult {
	var acc strings.Builder
	terminal := ollama.StreamEvent{Kind: ollama.EventAborted}

	for ev := range s.transport.ChatStream(ctx, s.cfg.Model, messages, numCtx) {
		if ev.Kind != ollama.EventToken {
			terminal = ev
			break
		}
		acc.WriteString(ev.Text)
		s.rec.TokenStreamed()

		renderStart := time.Now()
		html := markdown.Render(acc.String())
		s.rec.RenderObserved(time.Since(renderStart))
		s.display.ShowPartial(html)
	}

	// A transport that ends without a terminal event is treated as aborted
	// with whatever arrived.
	if terminal.Kind == ollama.EventAborted && terminal.Text == "" {
		terminal.Text = acc.String()
	}

	switch terminal.Kind {
	case ollama.EventDone:
		if terminal.Text == "" {
			s.display.ShowFinal(markdown.Render(NoResponseText))
			return TurnResult{Outcome: OutcomeEmpty}
		}
		s.record(terminal.Text)
		return TurnResult{Outcome: OutcomeDone, Text: terminal.Text}

	case ollama.EventError:
		s.display.DiscardPartial()
		s.display.ShowStatus(StatusError, "Error: "+terminal.Text)
		err := terminal.Err
		if err == nil {
			err = errors.New(terminal.Text)
		}
		return TurnResult{Outcome: OutcomeError, Err: err}

	default:
		if terminal.Text == "" {
			s.display.DiscardPartial()
			return TurnResult{Outcome: OutcomeAborted}
		}
		s.record(terminal.Text)
		return TurnResult{Outcome: OutcomeAborted, Text: terminal.Text}
	}
}

// record appends the assistant message and shows its final rendering.
func (s *Session) record(text string) {
	s.mu.Lock()
	s.history.Append(model.NewAssistantMessage(text))
	s.mu.Unlock()
	s.display.ShowFinal(markdown.Render(text))
}

// Stop cancels the in-flight turn. It reports whether a turn was running.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateGenerating || s.cancel == nil {
		return false
	}
	s.cancel()
	s.log.Debug().Msg("stop requested")
	return true
}

// Clear empties the history. The document plan is kept.
func (s *Session) Clear() error {
	if err := s.reserve(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	s.history.Clear()
	s.mu.Unlock()

	s.display.ShowStatus(StatusInfo, clearedText)
	return nil
}

// Probe checks that the server is reachable and reports failure on the
// display. It does not affect a turn in flight.
func (s *Session) Probe(ctx context.Context) error {
	if err := s.transport.CheckRunning(ctx); err != nil {
		s.log.Warn().Err(err).Str("url", s.cfg.BaseURL).Msg("probe failed")
		s.display.ShowStatus(StatusError,
			fmt.Sprintf("Cannot connect to Ollama at %s. Make sure Ollama is running.", s.cfg.BaseURL))
		return err
	}
	return nil
}
