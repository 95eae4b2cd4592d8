// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"html"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/paperchat/internal/session"
	"github.com/jeranaias/paperchat/internal/util"
)

// =============================================================================
// LIVE TRANSCRIPT
// =============================================================================

// Transcript is a session.Display that keeps an HTML file of the chat up
// to date. Streaming updates are rate limited; every other change is
// written immediately.
type Transcript struct {
	path    string
	opts    *Options
	limiter *rate.Limiter
	log     zerolog.Logger
	now     func() time.Time

	mu        sync.Mutex
	entries   []entry
	partial   string
	streaming bool
	sentAt    time.Time
	lastErr   error
}

var _ session.Display = (*Transcript)(nil)

// NewTranscript creates a transcript writing to path and writes the empty
// page once.
func NewTranscript(path string, opts *Options, logger zerolog.Logger) (*Transcript, error) {
	opts = opts.withDefaults()
	t := &Transcript{
		path:    path,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		log:     logger.With().Str("component", "transcript").Str("path", path).Logger(),
		now:     time.Now,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.writeLocked(); err != nil {
		return nil, err
	}
	return t, nil
}

// Path returns the file the transcript writes.
func (t *Transcript) Path() string {
	return t.path
}

func (t *Transcript) ShowUser(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.entries = append(t.entries, entry{kind: entryUser, html: userHTML(text), at: now})
	t.sentAt = now
	t.streaming = true
	t.partial = ""
	t.flushLocked()
}

func (t *Transcript) ShowPartial(fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partial = fragment
	t.streaming = true
	if t.limiter.Allow() {
		t.flushLocked()
	}
}

func (t *Transcript) ShowFinal(fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	e := entry{kind: entryAssistant, html: fragment, at: now}
	if !t.sentAt.IsZero() {
		e.elapsed = now.Sub(t.sentAt)
	}
	t.entries = append(t.entries, e)
	t.partial = ""
	t.streaming = false
	t.flushLocked()
}

func (t *Transcript) DiscardPartial() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partial = ""
	t.streaming = false
	t.flushLocked()
}

func (t *Transcript) ShowStatus(level session.StatusLevel, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry{kind: entryStatus, level: level, html: html.EscapeString(text), at: t.now()})
	t.flushLocked()
}

// Flush writes the current state regardless of the rate limit.
func (t *Transcript) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeLocked()
}

// Err returns the last write error, nil after a successful write.
func (t *Transcript) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// flushLocked writes and logs failures. Display methods cannot return
// errors, so a failed write leaves the chat running.
func (t *Transcript) flushLocked() {
	if err := t.writeLocked(); err != nil {
		t.log.Warn().Err(err).Msg("transcript write failed")
	}
}

func (t *Transcript) writeLocked() error {
	data := renderPage(&page{
		opts:      t.opts,
		entries:   t.entries,
		partial:   t.partial,
		streaming: t.streaming,
		updated:   t.now(),
	})
	t.lastErr = util.AtomicWriteFile(t.path, data, 0644)
	return t.lastErr
}
