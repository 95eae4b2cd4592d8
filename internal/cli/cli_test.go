// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/paperchat/internal/config"
	"github.com/jeranaias/paperchat/internal/session"
	"github.com/jeranaias/paperchat/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// isolate points the config directory at a temp dir and clears the
// environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("NO_COLOR", "1")
	for _, k := range []string{"PAPERCHAT_URL", "PAPERCHAT_MODEL", "PAPERCHAT_CONTEXT_WINDOW", "PAPERCHAT_LOG_LEVEL", "FORCE_COLOR"} {
		t.Setenv(k, "")
	}
	return home
}

func testIO(in string) (IO, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return IO{In: strings.NewReader(in), Out: &out, Err: &errOut}, &out, &errOut
}

// fakeOllama serves /api/tags and streams answer from /api/chat.
func fakeOllama(t *testing.T, answer ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"llama3:8b","size":4700000000},{"name":"gpt-oss:20b","size":13800000000}]}`)
		case "/api/chat":
			w.Header().Set("Content-Type", "application/x-ndjson")
			for _, part := range answer {
				fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", part)
			}
			fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`+"\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type scriptedReader struct {
	lines   []string
	history []string
}

func (s *scriptedReader) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedReader) AppendHistory(item string) {
	s.history = append(s.history, item)
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		want Command
	}{
		{"chat", CmdChat},
		{"CHAT", CmdChat},
		{"models", CmdModels},
		{"status", CmdStatus},
		{"render", CmdRender},
		{"version", CmdVersion},
		{"--version", CmdVersion},
		{"help", CmdHelp},
		{"-h", CmdHelp},
		{"ask", CmdUnknown},
		{"", CmdUnknown},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.name); got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExecute_Usage(t *testing.T) {
	stdio, out, errOut := testIO("")

	if code := Execute(context.Background(), nil, stdio); code != ExitUsageError {
		t.Errorf("no args exit = %d, want %d", code, ExitUsageError)
	}
	assert.Contains(t, errOut.String(), "Commands:")

	errOut.Reset()
	if code := Execute(context.Background(), []string{"frobnicate"}, stdio); code != ExitUsageError {
		t.Errorf("unknown command exit = %d, want %d", code, ExitUsageError)
	}
	assert.Contains(t, errOut.String(), `unknown command "frobnicate"`)

	if code := Execute(context.Background(), []string{"help"}, stdio); code != ExitSuccess {
		t.Errorf("help exit = %d, want 0", code)
	}
	assert.Contains(t, out.String(), "paperchat <command>")
}

func TestExecute_Version(t *testing.T) {
	stdio, out, _ := testIO("")
	require.Equal(t, ExitSuccess, Execute(context.Background(), []string{"version"}, stdio))
	assert.True(t, strings.HasPrefix(out.String(), "paperchat "+Version), "got %q", out.String())
}

func TestExecute_FlagHelp(t *testing.T) {
	stdio, _, errOut := testIO("")
	require.Equal(t, ExitSuccess, Execute(context.Background(), []string{"chat", "--help"}, stdio))
	assert.Contains(t, errOut.String(), "--doc")
}

func TestExecute_BadFlag(t *testing.T) {
	stdio, _, _ := testIO("")
	if code := Execute(context.Background(), []string{"models", "--nope"}, stdio); code != ExitUsageError {
		t.Errorf("exit = %d, want %d", code, ExitUsageError)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", &UsageError{Err: errors.New("x")}, ExitUsageError},
		{"wrapped usage", fmt.Errorf("chat: %w", &UsageError{Err: errors.New("x")}), ExitUsageError},
		{"config", &ConfigError{Err: errors.New("x")}, ExitConfigError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

// =============================================================================
// RENDER
// =============================================================================

func TestRender_Stdin(t *testing.T) {
	stdio, out, _ := testIO("**bold**")
	require.Equal(t, ExitSuccess, Execute(context.Background(), []string{"render"}, stdio))
	assert.Equal(t, "<p><strong>bold</strong></p>\n", out.String())
}

func TestRender_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title"), 0600))

	stdio, out, _ := testIO("")
	require.Equal(t, ExitSuccess, Execute(context.Background(), []string{"render", path}, stdio))
	assert.Contains(t, out.String(), "Title</h1>")
}

func TestRender_MissingFile(t *testing.T) {
	stdio, _, errOut := testIO("")
	code := Execute(context.Background(), []string{"render", filepath.Join(t.TempDir(), "missing.md")}, stdio)
	assert.Equal(t, ExitGeneralError, code)
	assert.Contains(t, errOut.String(), "failed to read markdown")
}

// =============================================================================
// MODELS AND STATUS
// =============================================================================

func TestModels(t *testing.T) {
	isolate(t)
	srv := fakeOllama(t)

	stdio, out, errOut := testIO("")
	code := Execute(context.Background(), []string{"models", "--url", srv.URL}, stdio)
	require.Equal(t, ExitSuccess, code, errOut.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "* gpt-oss:20b"), "default model is marked first: %q", lines[0])
	assert.Contains(t, lines[0], "13.8 GB")
	assert.True(t, strings.HasPrefix(lines[1], "  llama3:8b"), "got %q", lines[1])
	assert.Contains(t, lines[1], "4.7 GB")
}

func TestStatus(t *testing.T) {
	isolate(t)
	srv := fakeOllama(t)

	stdio, out, _ := testIO("")
	require.Equal(t, ExitSuccess, Execute(context.Background(), []string{"status", "--url", srv.URL}, stdio))
	assert.Contains(t, out.String(), "Ollama is running at "+srv.URL)
	assert.Contains(t, out.String(), "Model gpt-oss:20b is installed")

	out.Reset()
	require.Equal(t, ExitSuccess, Execute(context.Background(),
		[]string{"status", "--url", srv.URL, "--config", writeConfig(t, `[ollama]
model = "missing:1b"
`)}, stdio))
	assert.Contains(t, out.String(), "ollama pull missing:1b")
}

func TestStatus_NotRunning(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	stdio, _, errOut := testIO("")
	code := Execute(context.Background(), []string{"status", "--url", url}, stdio)
	assert.Equal(t, ExitNetworkError, code)
	assert.Contains(t, errOut.String(), "cannot connect to Ollama at "+url)
}

func TestConfigErrors(t *testing.T) {
	isolate(t)
	stdio, _, _ := testIO("")

	bad := writeConfig(t, "[ollama]\nnot_a_key = 1\n")
	assert.Equal(t, ExitConfigError, Execute(context.Background(), []string{"models", "--config", bad}, stdio))

	assert.Equal(t, ExitConfigError, Execute(context.Background(), []string{"models", "--url", "ftp://host"}, stdio))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// =============================================================================
// CHAT FLAGS
// =============================================================================

func TestParseChatFlags(t *testing.T) {
	isolate(t)
	stdio, _, _ := testIO("")

	_, _, err := parseChatFlags(nil, stdio)
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)

	flags, cfg, err := parseChatFlags([]string{"paper.txt", "--model", "llama3:8b", "--ctx", "65536", "-o", "chat.html"}, stdio)
	require.NoError(t, err)
	assert.Equal(t, "paper.txt", flags.docPath)
	assert.Equal(t, "llama3:8b", cfg.Ollama.Model)
	assert.Equal(t, 65536, cfg.Ollama.ContextWindow)
	assert.Equal(t, "chat.html", cfg.Output.HTMLPath)

	_, cfg, err = parseChatFlags([]string{"--doc", "paper.txt"}, stdio)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultContextWindow, cfg.Ollama.ContextWindow)

	_, _, err = parseChatFlags([]string{"--doc", "paper.txt", "extra"}, stdio)
	require.ErrorAs(t, err, &usageErr)

	_, _, err = parseChatFlags([]string{"--doc", "paper.txt", "--ctx", "0"}, stdio)
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestParseChatFlags_EnvThenFlag(t *testing.T) {
	isolate(t)
	t.Setenv("PAPERCHAT_MODEL", "env-model")
	stdio, _, _ := testIO("")

	_, cfg, err := parseChatFlags([]string{"--doc", "p.txt"}, stdio)
	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Ollama.Model)

	_, cfg, err = parseChatFlags([]string{"--doc", "p.txt", "--model", "flag-model"}, stdio)
	require.NoError(t, err)
	assert.Equal(t, "flag-model", cfg.Ollama.Model)
}

// =============================================================================
// CHAT SESSION
// =============================================================================

func newTestChat(t *testing.T, srv *httptest.Server, htmlOut string) (*chatApp, string, *bytes.Buffer) {
	t.Helper()
	isolate(t)
	dir := t.TempDir()
	docPath := filepath.Join(dir, "paper.txt")
	require.NoError(t, os.WriteFile(docPath, []byte("We prove that the sky is blue."), 0600))

	args := []string{"--doc", docPath, "--url", srv.URL, "--no-watch"}
	if htmlOut != "" {
		args = append(args, "--html-out", htmlOut)
	}
	stdio, out, errOut := testIO("")
	flags, cfg, err := parseChatFlags(args, stdio)
	require.NoError(t, err)

	app, err := newChatApp(context.Background(), cfg, flags, stdio)
	require.NoError(t, err, errOut.String())
	t.Cleanup(func() { app.Close() })
	return app, docPath, out
}

func TestChat_Conversation(t *testing.T) {
	srv := fakeOllama(t, "The sky ", "is **blue**.")
	htmlOut := filepath.Join(t.TempDir(), "chat.html")
	app, _, out := newTestChat(t, srv, htmlOut)
	mdOut := filepath.Join(t.TempDir(), "chat.md")

	in := &scriptedReader{lines: []string{
		"What color is the sky?",
		"/plan",
		"/save " + mdOut,
		"/stop",
		"/clear",
		"/bogus",
		"",
		"/quit",
		"never read",
	}}
	require.NoError(t, app.repl(in).run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "PDF loaded (30 chars). Ask a question about this paper.")
	assert.Contains(t, text, "Assistant")
	assert.Contains(t, text, "blue")
	assert.Contains(t, text, "window 32768 tokens")
	assert.Contains(t, text, "Saved 2 messages to "+mdOut)
	assert.Contains(t, text, "No response is being generated.")
	assert.Contains(t, text, "Chat cleared. PDF context is still loaded.")
	assert.Contains(t, text, "Unknown command /bogus")
	assert.Equal(t, []string{"never read"}, in.lines)
	assert.NotContains(t, in.history, "")

	md, err := os.ReadFile(mdOut)
	require.NoError(t, err)
	assert.Contains(t, string(md), "What color is the sky?")
	assert.Contains(t, string(md), "The sky is **blue**.")

	require.NoError(t, app.Close())
	page, err := os.ReadFile(htmlOut)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<strong>blue</strong>")
	assert.Contains(t, string(page), "What color is the sky?")

	assert.Empty(t, app.sess.History(), "history cleared")
}

func TestChat_EchoesPipedInput(t *testing.T) {
	srv := fakeOllama(t, "Yes.")
	app, _, out := newTestChat(t, srv, "")

	require.NoError(t, app.repl(&scriptedReader{lines: []string{"Is it blue?"}}).run(context.Background()))
	assert.Contains(t, out.String(), "You: Is it blue?")
	assert.Len(t, app.sess.History(), 2)
}

func TestChat_Reload(t *testing.T) {
	srv := fakeOllama(t, "ok")
	app, docPath, out := newTestChat(t, srv, "")

	require.NoError(t, os.WriteFile(docPath, []byte("A longer revised text."), 0600))
	app.changed.Store(true)

	require.NoError(t, app.repl(&scriptedReader{lines: []string{"Question?"}}).run(context.Background()))
	assert.Contains(t, out.String(), "PDF loaded (22 chars)")
	assert.False(t, app.changed.Load())

	require.NoError(t, os.WriteFile(docPath, []byte("   "), 0600))
	out.Reset()
	require.NoError(t, app.repl(&scriptedReader{lines: []string{"/reload"}}).run(context.Background()))
	assert.Contains(t, out.String(), "document not reloaded")
}

func TestChat_MissingDocument(t *testing.T) {
	isolate(t)
	stdio, _, _ := testIO("")
	code := Execute(context.Background(), []string{"chat", "--doc", filepath.Join(t.TempDir(), "none.txt"), "--no-watch"}, stdio)
	assert.Equal(t, ExitGeneralError, code)
}

// =============================================================================
// TERMINAL DISPLAY
// =============================================================================

func TestTerminalDisplay_Preview(t *testing.T) {
	var buf bytes.Buffer
	theme := styles.NewThemeWithProfile(&buf, termenv.Ascii, true)
	d := newTerminalDisplay(&buf, theme, displayOptions{Width: 20, Live: true})

	d.ShowUser("q")
	d.ShowPartial("<p>first</p>\n<p>second &amp; third</p>")
	preview := buf.String()[strings.LastIndex(buf.String(), clearLine):]
	assert.Regexp(t, `^\r\x1b\[K[|/\\-] second & third$`, preview)

	buf.Reset()
	d.DiscardPartial()
	assert.Equal(t, clearLine, buf.String())

	buf.Reset()
	d.ShowStatus(session.StatusError, "Error: boom")
	assert.Equal(t, "[X] Error: boom\n", buf.String())
}

func TestTerminalDisplay_FinishEmpty(t *testing.T) {
	var buf bytes.Buffer
	theme := styles.NewThemeWithProfile(&buf, termenv.Ascii, true)
	d := newTerminalDisplay(&buf, theme, displayOptions{Width: 40})

	d.ShowUser("q")
	d.ShowFinal("<p>(No response generated)</p>")
	d.finish("")
	assert.Contains(t, buf.String(), "Assistant\n(No response generated)\n")
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hi</p>", "Hi\n"},
		{"<ul>\n<li>a</li>\n</ul>", "\na\n\n"},
		{"<p>x &lt; y</p>", "x < y\n"},
		{"<p>a<br>b</p>", "a\nb\n"},
	}
	for _, tt := range tests {
		if got := plainText(tt.in); got != tt.want {
			t.Errorf("plainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetadataTitle(t *testing.T) {
	tests := []struct {
		meta string
		want string
	}{
		{"Title: Deep Sky\nAuthors: A\nYear: 2020\nDOI: ", "Deep Sky"},
		{"Authors: A\nTitle:  Spaced  ", "Spaced"},
		{"no title here", ""},
	}
	for _, tt := range tests {
		if got := metadataTitle(tt.meta); got != tt.want {
			t.Errorf("metadataTitle(%q) = %q, want %q", tt.meta, got, tt.want)
		}
	}
}
