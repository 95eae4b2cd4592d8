// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the terminal styling for paperchat.
//
// All colors use Lip Gloss AdaptiveColor so they follow the terminal
// background. Status lines always carry an ASCII marker as well as a
// colour.
//
// # Key Types
//
//   - Theme: Styles bound to one output's colour profile
//   - Level: Status severity used by Theme.Status
//   - SpinnerConfig: Frames shown while a response streams
//
// # Usage
//
//	theme := styles.NewTheme(os.Stdout)
//	fmt.Println(theme.Status(styles.LevelWarning, "Context window increased"))
//	fmt.Println(theme.ContextBar(30, plan.UsedTokens(), plan.EffectiveWindowTokens))
package styles
