// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import "unicode/utf8"

// CharsPerToken is the characters-per-token ratio used for budgeting.
// Real tokenizers average closer to 4 characters per token on English prose,
// so dividing by 3 overestimates and leaves headroom in the model window.
const CharsPerToken = 3

// EstimateTokens returns ceil(runes(text) / CharsPerToken).
// Empty text yields 0.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + CharsPerToken - 1) / CharsPerToken
}

// CharsForTokens is the inverse of EstimateTokens: the largest number of
// characters whose estimate does not exceed tokens.
func CharsForTokens(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return tokens * CharsPerToken
}
