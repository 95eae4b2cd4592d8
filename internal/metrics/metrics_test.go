// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/paperchat/internal/session"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.TurnFinished(session.OutcomeDone, 2*time.Second)
	r.TurnFinished(session.OutcomeDone, time.Second)
	r.TurnFinished(session.OutcomeAborted, time.Second)
	r.TokenStreamed()
	r.TokenStreamed()
	r.RenderObserved(time.Millisecond)
	r.DocumentTruncated()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.turns.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.turns.WithLabelValues("aborted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.tokensStreamed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.truncationTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(r.turnDuration))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.TurnFinished(session.OutcomeError, time.Second)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `paperchat_turns_total{outcome="error"} 1`)
	assert.Contains(t, text, "paperchat_turn_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}

func TestServer_ServeAndShutdown(t *testing.T) {
	r := New()
	srv, err := Listen("127.0.0.1:0", r, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "paperchat_tokens_streamed_total"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
