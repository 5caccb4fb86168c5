// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the terminal's interactive surface: the Bubble Tea
// model that renders the scrollback and input line, the completion popup,
// and the color themes.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the styles used across the surface.
type Theme struct {
	Output lipgloss.Style
	Error  lipgloss.Style
	System lipgloss.Style
	Input  lipgloss.Style
	Prompt lipgloss.Style

	Dir  lipgloss.Style
	File lipgloss.Style
	Dim  lipgloss.Style
	Bold lipgloss.Style

	PopupItem     lipgloss.Style
	PopupSelected lipgloss.Style
	PopupCounter  lipgloss.Style
}

// DarkTheme is the default palette.
func DarkTheme() *Theme {
	return &Theme{
		Output: lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		System: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Input:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),

		Dir:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		File: lipgloss.NewStyle(),
		Dim:  lipgloss.NewStyle().Faint(true),
		Bold: lipgloss.NewStyle().Bold(true),

		PopupItem:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		PopupSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")),
		PopupCounter:  lipgloss.NewStyle().Faint(true),
	}
}

// LightTheme adjusts the palette for light backgrounds.
func LightTheme() *Theme {
	t := DarkTheme()
	t.Error = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	t.System = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	t.Input = lipgloss.NewStyle().Foreground(lipgloss.Color("0"))
	t.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	t.Dir = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	return t
}

// ThemeByName maps a config theme name to a palette. An unset name follows
// the terminal's background color.
func ThemeByName(name string) *Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	}
	if !termenv.HasDarkBackground() {
		return LightTheme()
	}
	return DarkTheme()
}

// styleForLine picks the style for one scrollback line. A per-line style
// tag wins over the line type.
func (t *Theme) styleForLine(line session.OutputLine) lipgloss.Style {
	if s, ok := t.styleByTag(line.Style); ok {
		return s
	}
	switch line.Type {
	case session.LineError:
		return t.Error
	case session.LineSystem:
		return t.System
	case session.LineInput:
		return t.Input
	default:
		return t.Output
	}
}

func (t *Theme) styleByTag(tag string) (lipgloss.Style, bool) {
	switch tag {
	case "dir":
		return t.Dir, true
	case "file":
		return t.File, true
	case "dim":
		return t.Dim, true
	case "bold":
		return t.Bold, true
	case "error":
		return t.Error, true
	default:
		return lipgloss.Style{}, false
	}
}

// renderLine renders one scrollback line, honoring spans when present.
func (t *Theme) renderLine(line session.OutputLine) string {
	if len(line.Spans) == 0 {
		return t.styleForLine(line).Render(line.Content)
	}
	out := ""
	for _, span := range line.Spans {
		if s, ok := t.styleByTag(span.Style); ok {
			out += s.Render(span.Text)
		} else {
			out += span.Text
		}
	}
	return out
}
