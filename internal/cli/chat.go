// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/jeranaias/paperchat/internal/config"
	ctxbudget "github.com/jeranaias/paperchat/internal/context"
	"github.com/jeranaias/paperchat/internal/document"
	"github.com/jeranaias/paperchat/internal/export"
	"github.com/jeranaias/paperchat/internal/metrics"
	"github.com/jeranaias/paperchat/internal/session"
)

// =============================================================================
// FLAGS
// =============================================================================

type chatFlags struct {
	common      commonFlags
	docPath     string
	metaPath    string
	model       string
	window      int
	htmlOut     string
	metricsAddr string
	noWatch     bool
}

// parseChatFlags parses args and returns the configuration with flag
// overrides applied and validated.
func parseChatFlags(args []string, stdio IO) (*chatFlags, *config.Config, error) {
	f := &chatFlags{}
	fs := newFlagSet("chat", "--doc FILE [flags]", stdio)
	fs.StringVarP(&f.docPath, "doc", "d", "", "document text file (required)")
	fs.StringVarP(&f.metaPath, "meta", "m", "", "metadata file, TOML or plain text")
	fs.StringVar(&f.model, "model", "", "Ollama model name")
	fs.IntVar(&f.window, "ctx", 0, "requested context window in tokens")
	fs.StringVarP(&f.htmlOut, "html-out", "o", "", "write a live HTML transcript to this file")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&f.noWatch, "no-watch", false, "do not reload the document when it changes")
	f.common.register(fs)

	if err := parseFlags(fs, args); err != nil {
		return nil, nil, err
	}
	if f.docPath == "" && fs.NArg() == 1 {
		f.docPath = fs.Arg(0)
	}
	if f.docPath == "" {
		return nil, nil, &UsageError{Err: errors.New("chat needs a document: --doc FILE")}
	}
	if fs.NArg() > 1 || (fs.NArg() == 1 && fs.Changed("doc")) {
		return nil, nil, &UsageError{Err: fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}

	cfg, err := f.common.load(fs)
	if err != nil {
		return nil, nil, err
	}
	if fs.Changed("model") {
		cfg.Ollama.Model = f.model
	}
	if fs.Changed("ctx") {
		cfg.Ollama.ContextWindow = f.window
	}
	if fs.Changed("html-out") {
		cfg.Output.HTMLPath = f.htmlOut
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if err := validate(cfg); err != nil {
		return nil, nil, err
	}
	return f, cfg, nil
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func runChat(ctx context.Context, args []string, stdio IO) error {
	flags, cfg, err := parseChatFlags(args, stdio)
	if err != nil {
		return err
	}

	app, err := newChatApp(ctx, cfg, flags, stdio)
	if err != nil {
		return err
	}
	defer app.Close()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	historyPath := ""
	if dir, err := config.ConfigDir(); err == nil {
		if err := os.MkdirAll(dir, 0700); err == nil {
			historyPath = filepath.Join(dir, "chat_history")
			loadHistory(line, historyPath)
		}
	}
	defer func() {
		if historyPath != "" {
			if err := saveHistory(line, historyPath); err != nil {
				app.log.Warn().Err(err).Msg("failed to save input history")
			}
		}
		line.Close()
	}()

	// Ctrl-C during a turn stops the turn. At the prompt liner reports it
	// as an aborted prompt instead.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	r := app.repl(line)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sigCh:
				if !ok {
					return
				}
				r.interrupted()
			}
		}
	}()

	return r.run(ctx)
}

// =============================================================================
// CHAT APP
// =============================================================================

// chatApp owns everything a chat session needs besides the input reader.
type chatApp struct {
	cfg   *config.Config
	flags *chatFlags
	stdio IO
	log   zerolog.Logger

	sess       *session.Session
	display    *terminalDisplay
	transcript *export.Transcript
	recorder   *metrics.Recorder
	exportOpts *export.Options
	watcher    *document.Watcher
	changed    atomic.Bool

	cancel   context.CancelFunc
	closeLog func() error
}

func newChatApp(ctx context.Context, cfg *config.Config, flags *chatFlags, stdio IO) (*chatApp, error) {
	logger, closeLog, err := openLogger(cfg, stdio)
	if err != nil {
		return nil, err
	}
	app := &chatApp{
		cfg:      cfg,
		flags:    flags,
		stdio:    stdio,
		log:      logger,
		closeLog: closeLog,
		recorder: metrics.New(),
	}
	bgCtx, cancel := context.WithCancel(ctx)
	app.cancel = cancel

	doc, err := app.loadDocument()
	if err != nil {
		app.Close()
		return nil, err
	}

	theme := newTheme(stdio.Out)
	app.display = newTerminalDisplay(stdio.Out, theme, displayOptions{
		Width:    terminalWidth(stdio.Out),
		Live:     isTerminal(stdio.Out),
		EchoUser: !isTerminal(stdio.In),
	})
	app.exportOpts = &export.Options{
		Title:          metadataTitle(doc.Metadata),
		Metadata:       doc.Metadata,
		Model:          cfg.Ollama.Model,
		RefreshSeconds: 2,
	}

	displays := []session.Display{app.display}
	if cfg.Output.HTMLPath != "" {
		app.transcript, err = export.NewTranscript(cfg.Output.HTMLPath, app.exportOpts, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create transcript: %w", err)
		}
		displays = append(displays, app.transcript)
	}

	if cfg.Metrics.Addr != "" {
		srv, err := metrics.Listen(cfg.Metrics.Addr, app.recorder, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		go func() {
			if err := srv.Serve(bgCtx); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	client := newClient(cfg, &logger)
	planner := ctxbudget.NewPlanner(&ctxbudget.PlannerConfig{
		MaxWindowTokens:       cfg.Budget.MaxWindowTokens,
		ResponseReserveTokens: cfg.Budget.ResponseReserveTokens,
		LargeWindowTokens:     cfg.Budget.LargeWindowTokens,
	})

	fmt.Fprintf(stdio.Out, "%s %s\n", theme.AssistantLabel.Render("paperchat"),
		theme.Muted.Render(fmt.Sprintf("%s via %s", cfg.Ollama.Model, client.BaseURL())))

	app.sess = session.New(session.Config{
		Model:        cfg.Ollama.Model,
		BaseURL:      client.BaseURL(),
		WindowTokens: cfg.Ollama.ContextWindow,
		SystemPrompt: cfg.Chat.SystemPrompt,
		Planner:      planner,
		Logger:       &logger,
		Recorder:     app.recorder,
	}, client, session.Tee(displays...), sessionDocument(doc))

	// An unreachable server is reported but not fatal; it may be started
	// while the prompt waits.
	_ = app.sess.Probe(ctx)

	if !flags.noWatch {
		w, err := document.NewWatcher(flags.docPath, document.DefaultDebounce, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("document watching disabled")
		} else {
			app.watcher = w
			go w.Run(bgCtx, func() { app.changed.Store(true) })
		}
	}

	fmt.Fprintln(stdio.Out, theme.Muted.Render("Type /help for commands."))
	return app, nil
}

func (a *chatApp) loadDocument() (*document.Document, error) {
	return document.Load(a.flags.docPath, document.LoadOptions{
		MetaPath: a.flags.metaPath,
		MaxChars: a.cfg.Chat.MaxDocumentChars,
	})
}

// reload reads the document from disk and applies it to the session.
func (a *chatApp) reload() error {
	doc, err := a.loadDocument()
	if err != nil {
		return fmt.Errorf("document not reloaded: %w", err)
	}
	if err := a.sess.SetDocument(sessionDocument(doc)); err != nil {
		return fmt.Errorf("document not reloaded: %w", err)
	}
	a.log.Info().Str("path", doc.Path).Int("chars", doc.Chars()).Msg("document reloaded")
	return nil
}

func (a *chatApp) repl(in lineReader) *repl {
	return &repl{
		sess:    a.sess,
		in:      in,
		out:     a.stdio.Out,
		display: a.display,
		theme:   a.display.theme,
		export:  a.exportOpts,
		log:     a.log,
		prompt:  "paperchat> ",
		reload:  a.reload,
		changed: &a.changed,
	}
}

// Close stops background work and flushes the transcript.
func (a *chatApp) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Debug().Err(err).Msg("watcher close")
		}
	}
	if a.transcript != nil {
		if err := a.transcript.Flush(); err != nil {
			a.log.Warn().Err(err).Str("path", a.transcript.Path()).Msg("transcript not written")
		}
	}
	if a.closeLog != nil {
		return a.closeLog()
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func sessionDocument(doc *document.Document) session.Document {
	return session.Document{
		Text:          doc.Text,
		Metadata:      doc.Metadata,
		OriginalChars: doc.OriginalChars,
	}
}

// metadataTitle returns the "Title:" line of a metadata string.
func metadataTitle(meta string) string {
	for _, line := range strings.Split(meta, "\n") {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "Title:"); ok {
			return strings.TrimSpace(title)
		}
	}
	return ""
}
