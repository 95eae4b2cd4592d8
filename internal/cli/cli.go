// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jeranaias/paperchat/internal/config"
	"github.com/jeranaias/paperchat/internal/ollama"
	"github.com/jeranaias/paperchat/internal/ui/styles"
)

// Version information (set at build time via -ldflags).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates Ollama could not be reached
	ExitNetworkError = 5
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command is a top-level paperchat command.
type Command int

const (
	CmdUnknown Command = iota
	CmdChat
	CmdModels
	CmdStatus
	CmdRender
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"chat":      CmdChat,
	"models":    CmdModels,
	"status":    CmdStatus,
	"render":    CmdRender,
	"version":   CmdVersion,
	"--version": CmdVersion,
	"help":      CmdHelp,
	"--help":    CmdHelp,
	"-h":        CmdHelp,
}

// ParseCommand maps a command name to its Command.
func ParseCommand(name string) Command {
	if cmd, ok := commandNames[strings.ToLower(name)]; ok {
		return cmd
	}
	return CmdUnknown
}

func (c Command) String() string {
	switch c {
	case CmdChat:
		return "chat"
	case CmdModels:
		return "models"
	case CmdStatus:
		return "status"
	case CmdRender:
		return "render"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

const usageText = `paperchat - chat with a local Ollama model about a paper

Usage:
  paperchat <command> [flags]

Commands:
  chat     Start an interactive session about a document
  models   List installed Ollama models
  status   Check that Ollama is reachable
  render   Render markdown from FILE or stdin to HTML
  version  Print version information
  help     Show this help

Examples:
  paperchat chat --doc paper.txt --meta paper.toml
  paperchat chat --doc paper.txt --model llama3.1:8b --ctx 65536 --html-out chat.html
  paperchat models
  echo "**bold**" | paperchat render

Run 'paperchat <command> --help' for the flags of a command.
`

// =============================================================================
// ENTRY POINT
// =============================================================================

// IO is the set of streams a command reads and writes.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes the command line with the process streams and returns the
// exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	return Execute(ctx, args, IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// Execute runs one command and returns its exit code.
func Execute(ctx context.Context, args []string, stdio IO) int {
	if len(args) == 0 {
		fmt.Fprint(stdio.Err, usageText)
		return ExitUsageError
	}

	var err error
	rest := args[1:]
	switch ParseCommand(args[0]) {
	case CmdChat:
		err = runChat(ctx, rest, stdio)
	case CmdModels:
		err = runModels(ctx, rest, stdio)
	case CmdStatus:
		err = runStatus(ctx, rest, stdio)
	case CmdRender:
		err = runRender(rest, stdio)
	case CmdVersion:
		err = runVersion(stdio)
	case CmdHelp:
		fmt.Fprint(stdio.Out, usageText)
	default:
		fmt.Fprintf(stdio.Err, "unknown command %q\n\n%s", args[0], usageText)
		return ExitUsageError
	}

	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return ExitSuccess
	}
	theme := newTheme(stdio.Err)
	fmt.Fprintln(stdio.Err, theme.Status(styles.LevelError, err.Error()))
	return ExitCode(err)
}

// =============================================================================
// ERRORS
// =============================================================================

// UsageError reports invalid flags or arguments.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// ConfigError reports a configuration that could not be loaded or is invalid.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfigError
	}
	if ollama.IsNotRunning(err) || ollama.IsTimeout(err) {
		return ExitNetworkError
	}
	return ExitGeneralError
}

// =============================================================================
// FLAG HELPERS
// =============================================================================

// newFlagSet creates a flag set that reports to stdio.Err instead of exiting.
func newFlagSet(name, synopsis string, stdio IO) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stdio.Err)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(stdio.Err, "Usage: paperchat %s %s\n\nFlags:\n%s", name, synopsis, fs.FlagUsages())
	}
	return fs
}

// parseFlags parses args, returning pflag.ErrHelp for -h and a UsageError
// for anything else that fails.
func parseFlags(fs *pflag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return &UsageError{Err: err}
}

// commonFlags are shared by every command that talks to Ollama.
type commonFlags struct {
	configPath string
	url        string
	logLevel   string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "config file (default ~/.paperchat/config.toml)")
	fs.StringVar(&c.url, "url", "", "Ollama base URL")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// load reads the configuration and applies the flags the user set. Flags
// win over the file and the environment.
func (c *commonFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	if fs.Changed("url") {
		cfg.Ollama.URL = c.url
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	return cfg, nil
}

// validate re-checks cfg after flag overrides.
func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}
