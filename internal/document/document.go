// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyDocument is returned when a document has no text after cleanup.
var ErrEmptyDocument = errors.New("document has no text")

// =============================================================================
// TYPES
// =============================================================================

// Document is the text a chat is about.
type Document struct {
	Path     string
	Text     string
	Metadata string

	// OriginalChars is the length before the MaxChars cap, 0 if not capped.
	OriginalChars int
}

// Truncated reports whether the cap removed text.
func (d *Document) Truncated() bool {
	return d.OriginalChars > 0
}

// Chars returns the length of Text in characters.
func (d *Document) Chars() int {
	return utf8.RuneCountInString(d.Text)
}

// Metadata describes a paper. It is read from a TOML file.
type Metadata struct {
	Title   string   `toml:"title"`
	Authors []string `toml:"authors"`
	Year    string   `toml:"year"`
	DOI     string   `toml:"doi"`
}

// String formats the metadata as "Key: value" lines, skipping empty fields.
func (m Metadata) String() string {
	title := m.Title
	if title == "" {
		title = "Untitled"
	}
	var b strings.Builder
	b.WriteString("Title: " + title)
	if len(m.Authors) > 0 {
		b.WriteString("\nAuthors: " + strings.Join(m.Authors, ", "))
	}
	if m.Year != "" {
		b.WriteString("\nYear: " + m.Year)
	}
	if m.DOI != "" {
		b.WriteString("\nDOI: " + m.DOI)
	}
	return b.String()
}

// LoadOptions controls Load.
type LoadOptions struct {
	// MetaPath names a metadata file. A .toml file is decoded as Metadata;
	// any other file is used verbatim. Empty derives a title from the
	// document file name.
	MetaPath string

	// MaxChars caps the text in characters. 0 disables the cap.
	MaxChars int
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the text file at path and its metadata.
func Load(path string, opts LoadOptions) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	text := Clean(string(raw))
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}

	meta, err := loadMetadata(path, opts.MetaPath)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path, Metadata: meta}
	doc.Text, doc.OriginalChars = Cap(text, opts.MaxChars)
	return doc, nil
}

// Clean converts text to NFC, drops invalid UTF-8 and NUL characters.
func Clean(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\x00", "")
	return norm.NFC.String(text)
}

// Cap keeps the first maxChars characters of text. It returns the original
// length when text was cut and 0 otherwise.
func Cap(text string, maxChars int) (string, int) {
	if maxChars <= 0 {
		return text, 0
	}
	n := utf8.RuneCountInString(text)
	if n <= maxChars {
		return text, 0
	}
	i, count := 0, 0
	for i < len(text) && count < maxChars {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
		count++
	}
	return text[:i], n
}

func loadMetadata(docPath, metaPath string) (string, error) {
	if metaPath == "" {
		base := filepath.Base(docPath)
		return Metadata{Title: strings.TrimSuffix(base, filepath.Ext(base))}.String(), nil
	}

	if strings.EqualFold(filepath.Ext(metaPath), ".toml") {
		var m Metadata
		if _, err := toml.DecodeFile(metaPath, &m); err != nil {
			return "", fmt.Errorf("failed to read metadata: %w", err)
		}
		return Clean(m.String()), nil
	}

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return "", fmt.Errorf("failed to read metadata: %w", err)
	}
	return strings.TrimSpace(Clean(string(raw))), nil
}
