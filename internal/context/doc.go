// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package context budgets a document against the model context window.
//
// Token counts are estimates from a fixed characters-per-token ratio that
// deliberately overcounts. The planner uses them to keep the requested
// window, grow it to fit the document, or cut the document when even the
// maximum window is too small.
//
// # Key Types
//
//   - Planner: Decides the effective window and document truncation
//   - ContextPlan: Result of planning, consumed by every chat turn
//   - Advisory: User-facing note about an adjustment or truncation
//
// # Usage
//
//	planner := context.NewPlanner(nil)
//	plan := planner.Plan(context.PlanInput{
//	    SystemPrompt: prompt,
//	    Metadata:     meta,
//	    Document:     text,
//	    WindowTokens: 32768,
//	})
//	for _, a := range plan.Advisories {
//	    fmt.Println(a.Text)
//	}
//
// The package name shadows the standard library; importers alias it
// (conventionally ctxbudget).
package context
