// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger the other packages receive.
//
// Loggers are passed in explicitly; nothing here sets a global logger.
//
//	w, closeLog, err := logging.Open(cfg.Log)
//	logger := logging.New(cfg.Log, w)
package logging
