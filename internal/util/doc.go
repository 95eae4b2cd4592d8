// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the paperchat packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, TailWidth: Column-aware truncation for terminal previews
//   - StringWidth: Terminal column width (CJK and emoji aware)
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	preview := util.TailWidth(partial, termWidth-4)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
