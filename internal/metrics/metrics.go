// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jeranaias/paperchat/internal/session"
)

// Recorder implements session.Recorder on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	turns           *prometheus.CounterVec
	tokensStreamed  prometheus.Counter
	turnDuration    prometheus.Histogram
	renderDuration  prometheus.Histogram
	truncationTotal prometheus.Counter
}

var _ session.Recorder = (*Recorder)(nil)

// New creates a Recorder with every paperchat collector registered, plus
// the Go runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paperchat_turns_total",
				Help: "Chat turns by outcome (done, empty, error, aborted).",
			},
			[]string{"outcome"},
		),

		tokensStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperchat_tokens_streamed_total",
			Help: "Token deltas received from the model.",
		}),

		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paperchat_turn_duration_seconds",
			Help:    "Wall time from send to the terminal stream event.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		}),

		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paperchat_render_duration_seconds",
			Help:    "Markdown to HTML render time per token delta.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),

		truncationTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperchat_document_truncations_total",
			Help: "Context plans that had to truncate the document.",
		}),
	}

	r.registry.MustRegister(
		r.turns,
		r.tokensStreamed,
		r.turnDuration,
		r.renderDuration,
		r.truncationTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the registry the collectors live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) TurnFinished(outcome session.Outcome, elapsed time.Duration) {
	r.turns.WithLabelValues(string(outcome)).Inc()
	r.turnDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) TokenStreamed() {
	r.tokensStreamed.Inc()
}

func (r *Recorder) RenderObserved(elapsed time.Duration) {
	r.renderDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) DocumentTruncated() {
	r.truncationTotal.Inc()
}
