// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// =============================================================================
// CLEAN / CAP TESTS
// =============================================================================

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"nul removed", "a\x00b\x00", "ab"},
		{"nfc", "e\u0301te\u0301", "\u00e9t\u00e9"},
		{"invalid utf8 dropped", "ok\xff\xfeok", "okok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCap(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		want     string
		original int
	}{
		{"disabled", "abcdef", 0, "abcdef", 0},
		{"fits", "abc", 3, "abc", 0},
		{"cut", "abcdef", 4, "abcd", 6},
		{"runes", "日本語テキスト", 3, "日本語", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, original := Cap(tt.in, tt.max)
			if got != tt.want || original != tt.original {
				t.Errorf("Cap(%q, %d) = %q, %d; want %q, %d", tt.in, tt.max, got, original, tt.want, tt.original)
			}
		})
	}
}

func TestMetadataString(t *testing.T) {
	m := Metadata{Title: "Attention Is All You Need", Authors: []string{"A. Vaswani", "N. Shazeer"}, Year: "2017", DOI: "10.48550/arXiv.1706.03762"}
	want := "Title: Attention Is All You Need\nAuthors: A. Vaswani, N. Shazeer\nYear: 2017\nDOI: 10.48550/arXiv.1706.03762"
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (Metadata{}).String(); got != "Title: Untitled" {
		t.Errorf("empty String() = %q", got)
	}
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_DerivedTitle(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "transformers.txt", "Body\x00 text")

	doc, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Body text", doc.Text)
	assert.Equal(t, "Title: transformers", doc.Metadata)
	assert.False(t, doc.Truncated())
	assert.Equal(t, 9, doc.Chars())
}

func TestLoad_TOMLMetadata(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "paper.txt", "text")
	meta := write(t, dir, "paper.toml", "title = \"Paper\"\nauthors = [\"Ada\", \"Grace\"]\nyear = \"1843\"\n")

	doc, err := Load(path, LoadOptions{MetaPath: meta})
	require.NoError(t, err)
	assert.Equal(t, "Title: Paper\nAuthors: Ada, Grace\nYear: 1843", doc.Metadata)
}

func TestLoad_PlainMetadata(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "paper.txt", "text")
	meta := write(t, dir, "paper.meta", "Title: Custom\nVenue: Somewhere\n\n")

	doc, err := Load(path, LoadOptions{MetaPath: meta})
	require.NoError(t, err)
	assert.Equal(t, "Title: Custom\nVenue: Somewhere", doc.Metadata)
}

func TestLoad_Capped(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "long.txt", strings.Repeat("x", 250))

	doc, err := Load(path, LoadOptions{MaxChars: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, doc.Chars())
	assert.Equal(t, 250, doc.OriginalChars)
	assert.True(t, doc.Truncated())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.txt"), LoadOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := write(t, dir, "empty.txt", " \n\x00\t")
	_, err = Load(empty, LoadOptions{})
	assert.True(t, errors.Is(err, ErrEmptyDocument), "err = %v", err)

	ok := write(t, dir, "ok.txt", "text")
	_, err = Load(ok, LoadOptions{MetaPath: filepath.Join(dir, "gone.toml")})
	assert.Error(t, err)
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "paper.txt", "v1")
	write(t, dir, "other.txt", "x")

	w, err := NewWatcher(path, 50*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func() { calls.Add(1) })

	// Unrelated files in the same directory are ignored.
	write(t, dir, "other.txt", "y")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	// A burst of writes settles into one notification.
	for i := 0; i < 3; i++ {
		write(t, dir, "paper.txt", strings.Repeat("v", i+2))
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "paper.txt", "v1")

	w, err := NewWatcher(path, 0, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, func() {})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
