// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"fmt"
	"unicode/utf8"
)

// =============================================================================
// PLANNER DEFAULTS
// =============================================================================

const (
	// DefaultWindowTokens is used when the caller supplies no window.
	DefaultWindowTokens = 32768

	// DefaultMaxWindowTokens is the hard ceiling for the effective window.
	DefaultMaxWindowTokens = 131072

	// DefaultResponseReserveTokens is headroom for conversation and generation.
	DefaultResponseReserveTokens = 4096

	// DefaultLargeWindowTokens is the soft threshold above which an
	// expanded window gets a performance advisory.
	DefaultLargeWindowTokens = 65536
)

// =============================================================================
// PLAN TYPES
// =============================================================================

// AdvisoryLevel classifies an advisory for display.
type AdvisoryLevel string

const (
	AdvisoryInfo    AdvisoryLevel = "info"
	AdvisoryWarning AdvisoryLevel = "warning"
)

// Advisory is a non-fatal, user-facing message produced by planning.
type Advisory struct {
	Level AdvisoryLevel
	Text  string
}

// String returns the advisory text.
func (a Advisory) String() string {
	return a.Text
}

// ContextPlan is the outcome of budgeting one document against a window.
// It is computed once per session and whenever the document changes.
type ContextPlan struct {
	// EffectiveWindowTokens is sent to the server as num_ctx.
	EffectiveWindowTokens int

	// DocumentText is the (possibly truncated) text placed in the system message.
	DocumentText string

	// Truncated is set when the planner cut DocumentText.
	Truncated bool

	// Adjusted is set when the effective window differs from the requested one.
	Adjusted bool

	// Advisories holds at most one message, see Planner.Plan.
	Advisories []Advisory

	// RequestedWindowTokens is the window the caller asked for.
	RequestedWindowTokens int

	// FixedTokens estimates the system prompt plus metadata.
	FixedTokens int

	// DocumentTokens estimates DocumentText after truncation.
	DocumentTokens int

	// OriginalDocumentTokens estimates the document before truncation.
	OriginalDocumentTokens int

	// ReserveTokens is the response reserve that was applied.
	ReserveTokens int

	// RetainedPercent is the share of the original document kept, 0-100.
	RetainedPercent float64
}

// UsedTokens is the estimated prompt size including the reserve.
func (p *ContextPlan) UsedTokens() int {
	return p.FixedTokens + p.DocumentTokens + p.ReserveTokens
}

// Summary returns a one-line human-readable description of the plan.
func (p *ContextPlan) Summary() string {
	s := fmt.Sprintf("window %d tokens (requested %d), document ~%d tokens, fixed ~%d, reserve %d",
		p.EffectiveWindowTokens, p.RequestedWindowTokens, p.DocumentTokens, p.FixedTokens, p.ReserveTokens)
	if p.Truncated {
		s += fmt.Sprintf(", truncated to %.0f%%", p.RetainedPercent)
	}
	return s
}

// PlanInput carries the texts and window to plan for.
type PlanInput struct {
	SystemPrompt string
	Metadata     string
	Document     string

	// WindowTokens is the user-configured window; <= 0 means DefaultWindowTokens.
	WindowTokens int

	// OriginalChars is the document length before any upstream cap.
	// Zero means Document is the original.
	OriginalChars int
}

// =============================================================================
// PLANNER
// =============================================================================

// PlannerConfig holds the planner constants.
type PlannerConfig struct {
	MaxWindowTokens       int
	ResponseReserveTokens int
	LargeWindowTokens     int
}

// DefaultPlannerConfig returns the default planner constants.
func DefaultPlannerConfig() *PlannerConfig {
	return &PlannerConfig{
		MaxWindowTokens:       DefaultMaxWindowTokens,
		ResponseReserveTokens: DefaultResponseReserveTokens,
		LargeWindowTokens:     DefaultLargeWindowTokens,
	}
}

// Planner decides the effective context window and document truncation.
// It is a pure computation and safe for concurrent use.
type Planner struct {
	maxWindow   int
	reserve     int
	largeWindow int
}

// NewPlanner creates a planner. Zero or negative fields take defaults.
func NewPlanner(config *PlannerConfig) *Planner {
	if config == nil {
		config = DefaultPlannerConfig()
	}

	p := &Planner{
		maxWindow:   config.MaxWindowTokens,
		reserve:     config.ResponseReserveTokens,
		largeWindow: config.LargeWindowTokens,
	}
	if p.maxWindow <= 0 {
		p.maxWindow = DefaultMaxWindowTokens
	}
	if p.reserve < 0 {
		p.reserve = DefaultResponseReserveTokens
	}
	if p.largeWindow <= 0 {
		p.largeWindow = DefaultLargeWindowTokens
	}
	return p
}

// MaxWindowTokens returns the hard ceiling.
func (p *Planner) MaxWindowTokens() int { return p.maxWindow }

// Plan budgets the document against the requested window.
//
// The document fits when fixed + document + reserve <= requested (inclusive).
// Otherwise the window grows to exactly the needed size, up to the ceiling.
// Past the ceiling the document is cut to its leading characters so that
// fixed + document + reserve <= ceiling. At most one advisory is produced,
// in priority order: truncation, large window, window adjusted.
func (p *Planner) Plan(in PlanInput) ContextPlan {
	requested := in.WindowTokens
	if requested <= 0 {
		requested = DefaultWindowTokens
	}

	plan := ContextPlan{
		RequestedWindowTokens: requested,
		DocumentText:          in.Document,
		ReserveTokens:         p.reserve,
		RetainedPercent:       100,
	}

	window := requested
	if window > p.maxWindow {
		window = p.maxWindow
		plan.Adjusted = true
	}

	plan.FixedTokens = EstimateTokens(in.SystemPrompt + in.Metadata)
	plan.OriginalDocumentTokens = EstimateTokens(in.Document)
	needed := plan.FixedTokens + plan.OriginalDocumentTokens + p.reserve

	switch {
	case needed <= window:
		plan.EffectiveWindowTokens = window
	case needed <= p.maxWindow:
		plan.EffectiveWindowTokens = needed
		plan.Adjusted = true
	default:
		plan.EffectiveWindowTokens = p.maxWindow
		plan.Adjusted = true
		plan.Truncated = true

		fittable := p.maxWindow - plan.FixedTokens - p.reserve
		plan.DocumentText = leadingRunes(in.Document, CharsForTokens(fittable))
	}

	plan.DocumentTokens = EstimateTokens(plan.DocumentText)

	// Retention is measured against the text as the user supplied it,
	// which may be longer than Document if it was capped upstream.
	original := utf8.RuneCountInString(in.Document)
	if in.OriginalChars > original {
		original = in.OriginalChars
	}
	kept := utf8.RuneCountInString(plan.DocumentText)
	if original > 0 {
		plan.RetainedPercent = float64(kept) * 100 / float64(original)
	}

	if adv, ok := p.advisory(&plan, kept < original); ok {
		plan.Advisories = append(plan.Advisories, adv)
	}
	return plan
}

// advisory selects the single highest-priority advisory for the plan.
func (p *Planner) advisory(plan *ContextPlan, lostText bool) (Advisory, bool) {
	switch {
	case lostText:
		text := fmt.Sprintf("Document is too long for the context window and was truncated: %.0f%% of the text is included (%d tokens window).",
			plan.RetainedPercent, plan.EffectiveWindowTokens)
		return Advisory{Level: AdvisoryWarning, Text: text}, true
	case plan.Adjusted && plan.EffectiveWindowTokens > p.largeWindow && plan.EffectiveWindowTokens > plan.RequestedWindowTokens:
		text := fmt.Sprintf("Context window increased to %d tokens to fit the document. Large windows need more memory and responses may be slower.",
			plan.EffectiveWindowTokens)
		return Advisory{Level: AdvisoryWarning, Text: text}, true
	case plan.Adjusted:
		text := fmt.Sprintf("Context window adjusted from %d to %d tokens to fit the document.",
			plan.RequestedWindowTokens, plan.EffectiveWindowTokens)
		return Advisory{Level: AdvisoryInfo, Text: text}, true
	}
	return Advisory{}, false
}

// leadingRunes returns the first n runes of s.
func leadingRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
