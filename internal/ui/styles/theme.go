// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Level selects a status style.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelSuccess
)

// Theme holds the styles of the terminal front end. Styles are bound to
// their own renderer, so the colour profile of one output never leaks
// into another.
type Theme struct {
	ColorProfile termenv.Profile
	IsDark       bool

	renderer *lipgloss.Renderer

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Prompt         lipgloss.Style
	Preview        lipgloss.Style
	Muted          lipgloss.Style
	Command        lipgloss.Style
	BarFilled      lipgloss.Style
	BarEmpty       lipgloss.Style

	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// NewTheme detects the colour profile and background of w.
func NewTheme(w io.Writer) *Theme {
	r := lipgloss.NewRenderer(w)
	return newTheme(r, r.ColorProfile(), r.HasDarkBackground())
}

// NewThemeWithProfile builds a theme for a fixed profile. termenv.Ascii
// produces plain text.
func NewThemeWithProfile(w io.Writer, profile termenv.Profile, isDark bool) *Theme {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	r.SetHasDarkBackground(isDark)
	return newTheme(r, profile, isDark)
}

func newTheme(r *lipgloss.Renderer, profile termenv.Profile, isDark bool) *Theme {
	t := &Theme{
		ColorProfile: profile,
		IsDark:       isDark,
		renderer:     r,
	}

	t.UserLabel = r.NewStyle().Foreground(Cyan).Bold(true)
	t.AssistantLabel = r.NewStyle().Foreground(Purple).Bold(true)
	t.Prompt = r.NewStyle().Foreground(Cyan)
	t.Preview = r.NewStyle().Foreground(TextMuted).Italic(true)
	t.Muted = r.NewStyle().Foreground(TextMuted)
	t.Command = r.NewStyle().Foreground(Cyan).Bold(true)
	t.BarFilled = r.NewStyle().Foreground(Emerald)
	t.BarEmpty = r.NewStyle().Foreground(TextMuted)

	t.Info = r.NewStyle().Foreground(InfoHighContrast)
	t.Warning = r.NewStyle().Foreground(WarningHighContrast).Bold(true)
	t.Error = r.NewStyle().Foreground(ErrorHighContrast).Bold(true)
	t.Success = r.NewStyle().Foreground(SuccessHighContrast).Bold(true)
	return t
}

// Status renders message with the marker and colour of level.
func (t *Theme) Status(level Level, message string) string {
	switch level {
	case LevelWarning:
		return t.Warning.Render(StatusIndicators.Warning + " " + message)
	case LevelError:
		return t.Error.Render(StatusIndicators.Error + " " + message)
	case LevelSuccess:
		return t.Success.Render(StatusIndicators.Success + " " + message)
	default:
		return t.Info.Render(StatusIndicators.Info + " " + message)
	}
}

// ContextBar renders a usage bar of width cells for used out of total.
func (t *Theme) ContextBar(width, used, total int) string {
	percent := 0.0
	if total > 0 {
		percent = float64(used) * 100 / float64(total)
	}
	full, partial, empty := barCells(width, percent)
	return t.BarFilled.Render(strings.Repeat(ProgressFull, full)+partial) +
		t.BarEmpty.Render(strings.Repeat(ProgressEmpty, empty))
}
