// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	ctxbudget "github.com/jeranaias/paperchat/internal/context"
	"github.com/jeranaias/paperchat/internal/export"
	"github.com/jeranaias/paperchat/internal/session"
	"github.com/jeranaias/paperchat/internal/ui/styles"
)

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of input. *liner.State implements it.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// loadHistory reads saved input history into line. A missing file is fine.
func loadHistory(line *liner.State, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.ReadHistory(f)
}

// saveHistory writes the input history with owner-only permissions.
func saveHistory(line *liner.State, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := line.WriteHistory(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// REPL
// =============================================================================

const helpText = `Commands:
  /clear        Forget the conversation, keep the document
  /stop         Stop the response being generated (or press Ctrl-C)
  /plan         Show how the document fits the context window
  /reload       Read the document again
  /save FILE    Save the conversation as markdown
  /help         Show this help
  /quit         Leave paperchat`

// repl reads questions and slash commands and runs them against a session.
// Turns run on the reading goroutine; Stop arrives from the interrupt
// handler.
type repl struct {
	sess    *session.Session
	in      lineReader
	out     io.Writer
	display *terminalDisplay
	theme   *styles.Theme
	export  *export.Options
	log     zerolog.Logger
	prompt  string

	// reload reads the document again and applies it to the session.
	reload func() error

	// changed is set when the document changed on disk. It is applied
	// before the next question.
	changed *atomic.Bool
}

// run reads until EOF, an aborted prompt, /quit or ctx ends.
func (r *repl) run(ctx context.Context) error {
	for ctx.Err() == nil {
		input, err := r.in.Prompt(r.prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := r.command(input); quit {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		r.applyPendingReload()
		r.send(ctx, input)
	}
	return nil
}

// send runs one turn and prints its answer.
func (r *repl) send(ctx context.Context, text string) {
	result, err := r.sess.Send(ctx, text)
	if err != nil {
		r.status(styles.LevelWarning, err.Error())
		return
	}
	r.display.finish(result.Text)
	if result.Outcome == session.OutcomeAborted {
		r.status(styles.LevelWarning, "Stopped.")
	}
}

// interrupted handles Ctrl-C while a turn is running.
func (r *repl) interrupted() {
	if r.sess.Stop() {
		r.log.Debug().Msg("interrupt stopped the response")
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// command runs a slash command and reports whether the REPL should exit.
func (r *repl) command(input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?":
		fmt.Fprintln(r.out, r.theme.Muted.Render(helpText))

	case "/clear":
		if err := r.sess.Clear(); err != nil {
			r.status(styles.LevelWarning, err.Error())
		}

	case "/stop":
		if !r.sess.Stop() {
			r.status(styles.LevelInfo, "No response is being generated.")
		}

	case "/plan":
		r.printPlan()

	case "/reload":
		if r.changed != nil {
			r.changed.Store(false)
		}
		if r.reload == nil {
			r.status(styles.LevelInfo, "No document to reload.")
			return false
		}
		if err := r.reload(); err != nil {
			r.status(styles.LevelError, err.Error())
		}

	case "/save":
		if arg == "" {
			r.status(styles.LevelWarning, "Usage: /save FILE")
			return false
		}
		messages := r.sess.History()
		if err := export.SaveMarkdown(arg, r.export, messages); err != nil {
			r.status(styles.LevelError, err.Error())
			return false
		}
		r.status(styles.LevelSuccess, fmt.Sprintf("Saved %d messages to %s", len(messages), arg))

	default:
		r.status(styles.LevelWarning, fmt.Sprintf("Unknown command %s. Type /help for commands.", name))
	}
	return false
}

func (r *repl) printPlan() {
	plan := r.sess.Plan()
	used := plan.UsedTokens()
	fmt.Fprintln(r.out, r.theme.Muted.Render(plan.Summary()))
	fmt.Fprintf(r.out, "%s %d / %d tokens\n",
		r.theme.ContextBar(30, used, plan.EffectiveWindowTokens), used, plan.EffectiveWindowTokens)
	for _, adv := range plan.Advisories {
		level := styles.LevelInfo
		if adv.Level == ctxbudget.AdvisoryWarning {
			level = styles.LevelWarning
		}
		r.status(level, adv.Text)
	}
}

func (r *repl) applyPendingReload() {
	if r.changed == nil || r.reload == nil || !r.changed.Swap(false) {
		return
	}
	if err := r.reload(); err != nil {
		r.status(styles.LevelError, err.Error())
	}
}

func (r *repl) status(level styles.Level, msg string) {
	fmt.Fprintln(r.out, r.theme.Status(level, msg))
}
