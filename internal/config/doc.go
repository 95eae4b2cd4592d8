// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the paperchat configuration.
//
// # Key Types
//
//   - Config: Complete configuration, one section per concern
//   - OllamaConfig: Server URL, model and requested context window
//   - BudgetConfig: Context planner limits
//   - ValidationErrors: Every invalid setting found by Validate
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (applied by the cli package)
//   - Environment variables (PAPERCHAT_*)
//   - ~/.paperchat/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: cfg.Ollama.URL})
package config
