// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document loads the text a chat is about and watches it for changes.
//
// Text is normalized to NFC with NUL characters removed, then capped to a
// maximum number of characters. The original length is kept so the context
// planner can report how much of the document the model sees.
//
// # Key Types
//
//   - Document: Cleaned text, formatted metadata and cap information
//   - Metadata: Title, authors, year and DOI read from a TOML file
//   - Watcher: Debounced change notifications for one file
//
// # Usage
//
//	doc, err := document.Load("paper.txt", document.LoadOptions{
//	    MetaPath: "paper.toml",
//	    MaxChars: 100000,
//	})
package document
