// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/paperchat/internal/util"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultOllamaURL        = "http://localhost:11434"
	DefaultModel            = "gpt-oss:20b"
	DefaultContextWindow    = 32768
	DefaultMaxDocumentChars = 100000

	DefaultMaxWindowTokens       = 131072
	DefaultResponseReserveTokens = 4096
	DefaultLargeWindowTokens     = 65536

	// DefaultSystemPrompt asks for markdown only; the renderer strips HTML.
	DefaultSystemPrompt = "You are a helpful research assistant. You have been given the full text of a PDF document. " +
		"Answer questions about it accurately and concisely, citing relevant passages when possible. " +
		"Format your answers using Markdown: **bold**, *italic*, headings (##), bulleted lists (- item), " +
		"numbered lists (1. item), and `inline code`. Never use HTML tags such as <br>, <b>, <i>, <p>, or any other HTML."
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete paperchat configuration.
type Config struct {
	Ollama  OllamaConfig  `toml:"ollama"`
	Chat    ChatConfig    `toml:"chat"`
	Budget  BudgetConfig  `toml:"budget"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	Output  OutputConfig  `toml:"output"`
}

// OllamaConfig selects the server and model.
type OllamaConfig struct {
	URL   string `toml:"url"`
	Model string `toml:"model"`
	// ContextWindow is the requested window in tokens.
	ContextWindow int `toml:"context_window"`
}

// ChatConfig holds the prompt and document limits.
type ChatConfig struct {
	SystemPrompt string `toml:"system_prompt"`
	// MaxDocumentChars caps the document before planning. 0 disables the cap.
	MaxDocumentChars int `toml:"max_document_chars"`
}

// BudgetConfig tunes the context planner.
type BudgetConfig struct {
	MaxWindowTokens       int `toml:"max_window_tokens"`
	ResponseReserveTokens int `toml:"response_reserve_tokens"`
	LargeWindowTokens     int `toml:"large_window_tokens"`
}

// LogConfig selects the log level, format and destination.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File receives logs instead of stderr when set.
	File string `toml:"file"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9464". Empty disables the endpoint.
	Addr string `toml:"addr"`
}

// OutputConfig enables the live HTML transcript.
type OutputConfig struct {
	HTMLPath string `toml:"html_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:           DefaultOllamaURL,
			Model:         DefaultModel,
			ContextWindow: DefaultContextWindow,
		},
		Chat: ChatConfig{
			SystemPrompt:     DefaultSystemPrompt,
			MaxDocumentChars: DefaultMaxDocumentChars,
		},
		Budget: BudgetConfig{
			MaxWindowTokens:       DefaultMaxWindowTokens,
			ResponseReserveTokens: DefaultResponseReserveTokens,
			LargeWindowTokens:     DefaultLargeWindowTokens,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the paperchat configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".paperchat"), nil
}

// ConfigPath returns the path of the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.paperchat/config.toml. A missing file yields the defaults.
// Environment overrides are applied before validation.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFromPath(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return cfg, err
}

// LoadFromPath reads the TOML file at path over the defaults, applies
// environment overrides and validates the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("failed to load config from %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.SetDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills values an explicit empty entry in the file cleared.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Ollama.URL == "" {
		c.Ollama.URL = d.Ollama.URL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = d.Ollama.Model
	}
	if c.Ollama.ContextWindow == 0 {
		c.Ollama.ContextWindow = d.Ollama.ContextWindow
	}
	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = d.Chat.SystemPrompt
	}
	if c.Budget.MaxWindowTokens == 0 {
		c.Budget.MaxWindowTokens = d.Budget.MaxWindowTokens
	}
	if c.Budget.LargeWindowTokens == 0 {
		c.Budget.LargeWindowTokens = d.Budget.LargeWindowTokens
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const fileHeader = "# paperchat configuration file\n" +
	"# Generated by paperchat - edit with care\n\n"

// Save writes the configuration to ~/.paperchat/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to path with a header comment.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate reports every invalid setting as ValidationErrors.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.Ollama.URL); err != nil {
		add("ollama.url", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("ollama.url", "scheme must be http or https, got %q", u.Scheme)
	} else if u.Host == "" {
		add("ollama.url", "missing host")
	}
	if strings.TrimSpace(c.Ollama.Model) == "" {
		add("ollama.model", "must not be empty")
	}
	if c.Ollama.ContextWindow <= 0 {
		add("ollama.context_window", "must be positive, got %d", c.Ollama.ContextWindow)
	}

	if c.Chat.MaxDocumentChars < 0 {
		add("chat.max_document_chars", "cannot be negative")
	}

	b := c.Budget
	if b.MaxWindowTokens <= 0 {
		add("budget.max_window_tokens", "must be positive, got %d", b.MaxWindowTokens)
	}
	if b.ResponseReserveTokens < 0 {
		add("budget.response_reserve_tokens", "cannot be negative")
	} else if b.MaxWindowTokens > 0 && b.ResponseReserveTokens >= b.MaxWindowTokens {
		add("budget.response_reserve_tokens", "must be smaller than max_window_tokens (%d)", b.MaxWindowTokens)
	}
	if b.LargeWindowTokens <= 0 {
		add("budget.large_window_tokens", "must be positive, got %d", b.LargeWindowTokens)
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		add("log.level", "invalid level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		add("log.format", "invalid format '%s', must be one of: console, json", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies PAPERCHAT_* environment variables:
//   - PAPERCHAT_URL: ollama.url
//   - PAPERCHAT_MODEL: ollama.model
//   - PAPERCHAT_CONTEXT_WINDOW: ollama.context_window (ignored unless an integer)
//   - PAPERCHAT_LOG_LEVEL: log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PAPERCHAT_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("PAPERCHAT_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("PAPERCHAT_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ollama.ContextWindow = n
		}
	}
	if v := os.Getenv("PAPERCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
