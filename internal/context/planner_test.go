// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// =============================================================================
// ESTIMATOR TESTS
// =============================================================================

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one char", "a", 1},
		{"exact ratio", "abc", 1},
		{"rounds up", "abcd", 2},
		{"hundred tokens", strings.Repeat("x", 300), 100},
		{"multibyte counts runes", "ééé", 1},
		{"cjk", "日本語の", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateTokens_Ceiling(t *testing.T) {
	for n := 0; n < 50; n++ {
		text := strings.Repeat("z", n)
		want := (n + CharsPerToken - 1) / CharsPerToken
		if got := EstimateTokens(text); got != want {
			t.Errorf("EstimateTokens(len %d) = %d, want %d", n, got, want)
		}
	}
}

func TestCharsForTokens(t *testing.T) {
	if got := CharsForTokens(0); got != 0 {
		t.Errorf("CharsForTokens(0) = %d, want 0", got)
	}
	if got := CharsForTokens(-5); got != 0 {
		t.Errorf("CharsForTokens(-5) = %d, want 0", got)
	}
	for tokens := 1; tokens < 20; tokens++ {
		chars := CharsForTokens(tokens)
		if got := EstimateTokens(strings.Repeat("a", chars)); got != tokens {
			t.Errorf("EstimateTokens(CharsForTokens(%d)) = %d, want %d", tokens, got, tokens)
		}
	}
}

// =============================================================================
// PLANNER TESTS
// =============================================================================

// testPlanner uses small constants so the arithmetic stays readable.
func testPlanner() *Planner {
	return NewPlanner(&PlannerConfig{
		MaxWindowTokens:       1000,
		ResponseReserveTokens: 100,
		LargeWindowTokens:     500,
	})
}

// prompt30 estimates to 10 tokens.
var prompt30 = strings.Repeat("p", 30)

func TestPlan_Fits(t *testing.T) {
	doc := strings.Repeat("d", 300) // 100 tokens
	plan := testPlanner().Plan(PlanInput{SystemPrompt: prompt30, Document: doc, WindowTokens: 400})

	if plan.EffectiveWindowTokens != 400 {
		t.Errorf("EffectiveWindowTokens = %d, want 400", plan.EffectiveWindowTokens)
	}
	if plan.DocumentText != doc {
		t.Error("DocumentText changed for a fitting document")
	}
	if plan.Truncated || plan.Adjusted {
		t.Errorf("Truncated = %v, Adjusted = %v, want false/false", plan.Truncated, plan.Adjusted)
	}
	if len(plan.Advisories) != 0 {
		t.Errorf("Advisories = %v, want none", plan.Advisories)
	}
}

func TestPlan_ExactBoundaryFits(t *testing.T) {
	// 10 fixed + 100 document + 100 reserve = 210
	doc := strings.Repeat("d", 300)
	plan := testPlanner().Plan(PlanInput{SystemPrompt: prompt30, Document: doc, WindowTokens: 210})

	if plan.EffectiveWindowTokens != 210 {
		t.Errorf("EffectiveWindowTokens = %d, want 210", plan.EffectiveWindowTokens)
	}
	if plan.Adjusted {
		t.Error("boundary case took the expand branch")
	}
	if len(plan.Advisories) != 0 {
		t.Errorf("Advisories = %v, want none", plan.Advisories)
	}
}

func TestPlan_Expands(t *testing.T) {
	doc := strings.Repeat("d", 300)
	plan := testPlanner().Plan(PlanInput{SystemPrompt: prompt30, Document: doc, WindowTokens: 209})

	if plan.EffectiveWindowTokens != 210 {
		t.Errorf("EffectiveWindowTokens = %d, want 210", plan.EffectiveWindowTokens)
	}
	if !plan.Adjusted {
		t.Error("Adjusted = false, want true")
	}
	if plan.Truncated {
		t.Error("Truncated = true, want false")
	}
	if plan.DocumentText != doc {
		t.Error("DocumentText changed on expand")
	}
	if len(plan.Advisories) != 1 {
		t.Fatalf("len(Advisories) = %d, want 1", len(plan.Advisories))
	}
	adv := plan.Advisories[0]
	if adv.Level != AdvisoryInfo {
		t.Errorf("Advisory.Level = %q, want %q", adv.Level, AdvisoryInfo)
	}
	if !strings.Contains(adv.Text, "209") || !strings.Contains(adv.Text, "210") {
		t.Errorf("Advisory.Text = %q, want both windows mentioned", adv.Text)
	}
}

func TestPlan_LargeWindowAdvisory(t *testing.T) {
	doc := strings.Repeat("d", 1500) // 500 tokens, needed = 610 > large 500
	plan := testPlanner().Plan(PlanInput{SystemPrompt: prompt30, Document: doc, WindowTokens: 300})

	if plan.EffectiveWindowTokens != 610 {
		t.Errorf("EffectiveWindowTokens = %d, want 610", plan.EffectiveWindowTokens)
	}
	if len(plan.Advisories) != 1 {
		t.Fatalf("len(Advisories) = %d, want 1", len(plan.Advisories))
	}
	if plan.Advisories[0].Level != AdvisoryWarning {
		t.Errorf("Advisory.Level = %q, want warning", plan.Advisories[0].Level)
	}
	if !strings.Contains(plan.Advisories[0].Text, "610") {
		t.Errorf("Advisory.Text = %q, want window size", plan.Advisories[0].Text)
	}
}

func TestPlan_Truncates(t *testing.T) {
	doc := strings.Repeat("d", 9000) // 3000 tokens
	plan := testPlanner().Plan(PlanInput{SystemPrompt: prompt30, Document: doc, WindowTokens: 400})

	if !plan.Truncated || !plan.Adjusted {
		t.Fatalf("Truncated = %v, Adjusted = %v, want true/true", plan.Truncated, plan.Adjusted)
	}
	if plan.EffectiveWindowTokens != 1000 {
		t.Errorf("EffectiveWindowTokens = %d, want 1000", plan.EffectiveWindowTokens)
	}
	// fittable = 1000 - 10 - 100 = 890 tokens = 2670 chars
	if got := len(plan.DocumentText); got != 2670 {
		t.Errorf("len(DocumentText) = %d, want 2670", got)
	}
	if !strings.HasPrefix(doc, plan.DocumentText) {
		t.Error("DocumentText is not a leading slice of the document")
	}
	if used := EstimateTokens(plan.DocumentText) + plan.FixedTokens + plan.ReserveTokens; used > 1000 {
		t.Errorf("used tokens = %d, exceeds maximum 1000", used)
	}
	if plan.OriginalDocumentTokens != 3000 {
		t.Errorf("OriginalDocumentTokens = %d, want 3000", plan.OriginalDocumentTokens)
	}

	if len(plan.Advisories) != 1 {
		t.Fatalf("len(Advisories) = %d, want 1", len(plan.Advisories))
	}
	adv := plan.Advisories[0]
	if adv.Level != AdvisoryWarning {
		t.Errorf("Advisory.Level = %q, want warning", adv.Level)
	}
	if !strings.Contains(adv.Text, "30%") {
		t.Errorf("Advisory.Text = %q, want retained percentage 30%%", adv.Text)
	}
}

func TestPlan_TruncationInvariant(t *testing.T) {
	planner := testPlanner()
	for _, n := range []int{2700, 2701, 3000, 5000, 12345, 99999} {
		doc := strings.Repeat("é", n)
		plan := planner.Plan(PlanInput{SystemPrompt: prompt30, Metadata: "Title: X", Document: doc, WindowTokens: 100})

		if plan.EffectiveWindowTokens > planner.MaxWindowTokens() {
			t.Errorf("n=%d: EffectiveWindowTokens = %d exceeds maximum", n, plan.EffectiveWindowTokens)
		}
		used := EstimateTokens(plan.DocumentText) + plan.FixedTokens + plan.ReserveTokens
		if used > plan.EffectiveWindowTokens {
			t.Errorf("n=%d: used = %d exceeds window %d", n, used, plan.EffectiveWindowTokens)
		}
		if !utf8.ValidString(plan.DocumentText) {
			t.Errorf("n=%d: truncation split a rune", n)
		}
	}
}

func TestPlan_EmptyDocument(t *testing.T) {
	plan := testPlanner().Plan(PlanInput{SystemPrompt: prompt30, WindowTokens: 400})

	if plan.EffectiveWindowTokens != 400 {
		t.Errorf("EffectiveWindowTokens = %d, want 400", plan.EffectiveWindowTokens)
	}
	if plan.Adjusted || plan.Truncated || len(plan.Advisories) != 0 {
		t.Errorf("empty document produced changes: %+v", plan)
	}
	if plan.RetainedPercent != 100 {
		t.Errorf("RetainedPercent = %v, want 100", plan.RetainedPercent)
	}
}

func TestPlan_ClampsRequestedWindow(t *testing.T) {
	plan := testPlanner().Plan(PlanInput{SystemPrompt: prompt30, Document: "short", WindowTokens: 5000})

	if plan.EffectiveWindowTokens != 1000 {
		t.Errorf("EffectiveWindowTokens = %d, want 1000", plan.EffectiveWindowTokens)
	}
	if !plan.Adjusted {
		t.Error("Adjusted = false, want true")
	}
	if len(plan.Advisories) != 1 || plan.Advisories[0].Level != AdvisoryInfo {
		t.Fatalf("Advisories = %v, want one info advisory", plan.Advisories)
	}
	if !strings.Contains(plan.Advisories[0].Text, "5000") {
		t.Errorf("Advisory.Text = %q, want requested window", plan.Advisories[0].Text)
	}
}

func TestPlan_DefaultWindow(t *testing.T) {
	plan := NewPlanner(nil).Plan(PlanInput{Document: "hello"})
	if plan.EffectiveWindowTokens != DefaultWindowTokens {
		t.Errorf("EffectiveWindowTokens = %d, want %d", plan.EffectiveWindowTokens, DefaultWindowTokens)
	}
}

func TestPlan_UpstreamCapReported(t *testing.T) {
	doc := strings.Repeat("d", 300)
	plan := testPlanner().Plan(PlanInput{Document: doc, WindowTokens: 400, OriginalChars: 600})

	if plan.Truncated {
		t.Error("Truncated = true, planner did not cut the document")
	}
	if plan.RetainedPercent != 50 {
		t.Errorf("RetainedPercent = %v, want 50", plan.RetainedPercent)
	}
	if len(plan.Advisories) != 1 || !strings.Contains(plan.Advisories[0].Text, "50%") {
		t.Errorf("Advisories = %v, want truncation advisory with 50%%", plan.Advisories)
	}
}

func TestPlan_Summary(t *testing.T) {
	plan := testPlanner().Plan(PlanInput{Document: strings.Repeat("d", 9000), WindowTokens: 400})
	s := plan.Summary()
	if !strings.Contains(s, "window 1000 tokens") || !strings.Contains(s, "truncated") {
		t.Errorf("Summary() = %q", s)
	}
	if plan.UsedTokens() > plan.EffectiveWindowTokens {
		t.Errorf("UsedTokens() = %d exceeds window", plan.UsedTokens())
	}
}

func TestLeadingRunes(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 0, ""},
		{"hello", 3, "hel"},
		{"hello", 10, "hello"},
		{"héllo", 2, "hé"},
		{"", 4, ""},
	}
	for _, tt := range tests {
		if got := leadingRunes(tt.s, tt.n); got != tt.want {
			t.Errorf("leadingRunes(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}
