// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the paperchat command line.
//
// Commands:
//
//	paperchat chat --doc FILE [--meta FILE] [--model M] [--url U] [--ctx N] [--html-out F]
//	paperchat models
//	paperchat status
//	paperchat render [FILE]
//	paperchat version
//
// Flags are parsed with pflag and override the config file and the
// PAPERCHAT_* environment.
//
// # Key Types
//
//   - Command: Top-level command enumeration
//   - IO: Streams a command reads and writes
//   - UsageError, ConfigError: Errors mapped to exit codes by ExitCode
//
// # Chat
//
// The chat command loads the document, builds a session and runs a liner
// REPL. Answers stream into a one-line preview and are printed through
// glamour when the turn ends. Slash commands: /clear, /stop, /plan,
// /reload, /save FILE, /help and /quit. Ctrl-C stops a running turn.
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Run(os.Args[1:]))
//	}
package cli
