// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/paperchat/internal/config"
	"github.com/jeranaias/paperchat/internal/logging"
	"github.com/jeranaias/paperchat/internal/markdown"
	"github.com/jeranaias/paperchat/internal/ollama"
	"github.com/jeranaias/paperchat/internal/ui/styles"
	"github.com/jeranaias/paperchat/internal/util"
)

// =============================================================================
// SHARED SETUP
// =============================================================================

// openLogger builds the logger for cfg. Logs go to cfg.Log.File when set
// and to stdio.Err otherwise.
func openLogger(cfg *config.Config, stdio IO) (zerolog.Logger, func() error, error) {
	if cfg.Log.File == "" {
		return logging.New(cfg.Log, stdio.Err), func() error { return nil }, nil
	}
	w, closeFn, err := logging.Open(cfg.Log)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return logging.New(cfg.Log, w), closeFn, nil
}

func newClient(cfg *config.Config, logger *zerolog.Logger) *ollama.Client {
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: cfg.Ollama.URL,
		Logger:  logger,
	})
}

// =============================================================================
// MODELS
// =============================================================================

func runModels(ctx context.Context, args []string, stdio IO) error {
	var common commonFlags
	fs := newFlagSet("models", "[flags]", stdio)
	common.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if err := validate(cfg); err != nil {
		return err
	}
	logger, closeLog, err := openLogger(cfg, stdio)
	if err != nil {
		return err
	}
	defer closeLog()

	client := newClient(cfg, &logger)
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models at %s: %w", client.BaseURL(), err)
	}

	theme := newTheme(stdio.Out)
	if len(models) == 0 {
		fmt.Fprintln(stdio.Out, theme.Status(styles.LevelWarning, "No models installed. Pull one with: ollama pull <model>"))
		return nil
	}

	nameWidth := 0
	for i := range models {
		nameWidth = max(nameWidth, util.StringWidth(models[i].Name))
	}
	for i := range models {
		m := &models[i]
		marker := "  "
		if m.Name == cfg.Ollama.Model {
			marker = "* "
		}
		pad := strings.Repeat(" ", nameWidth-util.StringWidth(m.Name))
		fmt.Fprintf(stdio.Out, "%s%s%s  %s\n", marker, m.Name, pad, theme.Muted.Render(m.FormatSize()))
	}
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

func runStatus(ctx context.Context, args []string, stdio IO) error {
	var common commonFlags
	fs := newFlagSet("status", "[flags]", stdio)
	common.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if err := validate(cfg); err != nil {
		return err
	}
	logger, closeLog, err := openLogger(cfg, stdio)
	if err != nil {
		return err
	}
	defer closeLog()

	client := newClient(cfg, &logger)
	theme := newTheme(stdio.Out)
	if err := client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("cannot connect to Ollama at %s. Make sure Ollama is running: %w", client.BaseURL(), err)
	}
	fmt.Fprintln(stdio.Out, theme.Status(styles.LevelSuccess, "Ollama is running at "+client.BaseURL()))

	models, err := client.ListModels(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("model listing failed")
		return nil
	}
	for i := range models {
		if models[i].Name == cfg.Ollama.Model {
			fmt.Fprintln(stdio.Out, theme.Status(styles.LevelInfo, "Model "+cfg.Ollama.Model+" is installed"))
			return nil
		}
	}
	fmt.Fprintln(stdio.Out, theme.Status(styles.LevelWarning,
		fmt.Sprintf("Model %s is not installed. Pull it with: ollama pull %s", cfg.Ollama.Model, cfg.Ollama.Model)))
	return nil
}

// =============================================================================
// RENDER
// =============================================================================

func runRender(args []string, stdio IO) error {
	fs := newFlagSet("render", "[FILE]", stdio)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return &UsageError{Err: fmt.Errorf("render takes at most one file, got %d", fs.NArg())}
	}

	var (
		data []byte
		err  error
	)
	if fs.NArg() == 1 && fs.Arg(0) != "-" {
		data, err = os.ReadFile(fs.Arg(0))
	} else {
		data, err = io.ReadAll(stdio.In)
	}
	if err != nil {
		return fmt.Errorf("failed to read markdown: %w", err)
	}

	out := markdown.Render(string(data))
	if out == "" {
		return nil
	}
	_, err = fmt.Fprintln(stdio.Out, out)
	return err
}

// =============================================================================
// VERSION
// =============================================================================

func runVersion(stdio IO) error {
	_, err := fmt.Fprintf(stdio.Out, "paperchat %s (commit %s, built %s, %s %s/%s)\n",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return err
}
