// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// =============================================================================
// STREAM DECODER
// =============================================================================

// streamDecoder frames a newline-delimited JSON body into events.
//
// Network reads do not respect line boundaries, so bytes after the last
// newline are carried into the next read. Lines that fail to parse are
// skipped.
type streamDecoder struct {
	r       io.Reader
	log     zerolog.Logger
	pending []byte
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	full    strings.Builder
	skipped int
}

func newStreamDecoder(r io.Reader, log zerolog.Logger) *streamDecoder {
	return &streamDecoder{r: r, log: log}
}

// lineResult is what handling one line decided.
type lineResult int

const (
	lineContinue lineResult = iota
	lineDone
	lineFailed
	lineStopped
)

// run reads until done, EOF, error or cancellation and yields events.
// Exactly one terminal event is yielded unless the consumer stops first.
func (d *streamDecoder) run(ctx context.Context, yield func(StreamEvent) bool) {
	chunk := make([]byte, readChunkSize)
	for {
		if ctx.Err() != nil {
			yield(abortedEvent(d.full.String()))
			return
		}

		n, err := d.r.Read(chunk)
		if n > 0 {
			d.pending = append(d.pending, chunk[:n]...)
			if stop := d.drainLines(yield); stop {
				return
			}
		}

		if err != nil {
			// A cancelled request surfaces as a read error; report it as an abort.
			if ctx.Err() != nil {
				yield(abortedEvent(d.full.String()))
				return
			}
			if errors.Is(err, io.EOF) {
				break
			}
			yield(errorEvent(&ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: err}))
			return
		}
	}

	// The server closed without a done marker; the tail may still hold
	// one last object without a trailing newline.
	switch d.handleLine(d.pending, yield) {
	case lineStopped, lineFailed:
		return
	}
	if d.skipped > 0 {
		d.log.Debug().Int("skipped", d.skipped).Msg("stream had unparseable lines")
	}
	yield(doneEvent(d.full.String()))
}

// drainLines handles every complete line in pending and keeps the partial
// remainder. It reports true when the stream has ended or the consumer
// stopped.
func (d *streamDecoder) drainLines(yield func(StreamEvent) bool) bool {
	start := 0
	for {
		i := bytes.IndexByte(d.pending[start:], '\n')
		if i < 0 {
			break
		}
		line := d.pending[start : start+i]
		start += i + 1

		switch d.handleLine(line, yield) {
		case lineDone:
			yield(doneEvent(d.full.String()))
			return true
		case lineFailed, lineStopped:
			return true
		}
	}
	d.pending = d.pending[:copy(d.pending, d.pending[start:])]
	return false
}

// handleLine parses one line and yields its delta.
func (d *streamDecoder) handleLine(line []byte, yield func(StreamEvent) bool) lineResult {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return lineContinue
	}

	var c chatChunk
	if err := json.Unmarshal(line, &c); err != nil {
		d.skipped++
		return lineContinue
	}

	if c.Error != "" {
		yield(errorEvent(&ClientError{Type: ErrTypeInvalidResponse, Message: "Ollama error: " + c.Error}))
		return lineFailed
	}

	if delta := c.Message.Content; delta != "" {
		d.full.WriteString(delta)
		if !yield(tokenEvent(delta)) {
			return lineStopped
		}
	}

	if c.Done {
		d.log.Debug().Str("reason", c.DoneReason).Int("eval_count", c.EvalCount).Msg("stream done")
		return lineDone
	}
	return lineContinue
}
