// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/util"
)

// =============================================================================
// COMPLETION POPUP COMPONENT
// =============================================================================

// CompletionPopup displays candidate completions below the input line.
type CompletionPopup struct {
	candidates []string
	selected   int
	maxVisible int
	width      int
	theme      *Theme
}

// NewCompletionPopup creates an empty popup.
func NewCompletionPopup(theme *Theme, maxVisible int) *CompletionPopup {
	if maxVisible < 1 {
		maxVisible = 8
	}
	return &CompletionPopup{
		maxVisible: maxVisible,
		width:      40,
		theme:      theme,
	}
}

// SetCandidates replaces the displayed candidates and resets the selection.
func (c *CompletionPopup) SetCandidates(candidates []string) {
	c.candidates = candidates
	c.selected = 0
}

// Clear hides the popup.
func (c *CompletionPopup) Clear() {
	c.candidates = nil
	c.selected = 0
}

// Visible reports whether there is anything to show.
func (c *CompletionPopup) Visible() bool {
	return len(c.candidates) > 0
}

// Selected returns the currently highlighted candidate.
func (c *CompletionPopup) Selected() (string, bool) {
	if !c.Visible() {
		return "", false
	}
	return c.candidates[c.selected], true
}

// Next advances the highlight, wrapping at the end.
func (c *CompletionPopup) Next() {
	if c.Visible() {
		c.selected = (c.selected + 1) % len(c.candidates)
	}
}

// Prev moves the highlight back, wrapping at the start.
func (c *CompletionPopup) Prev() {
	if c.Visible() {
		c.selected = (c.selected + len(c.candidates) - 1) % len(c.candidates)
	}
}

// SetWidth caps the rendered row width.
func (c *CompletionPopup) SetWidth(w int) {
	if w > 0 {
		c.width = w
	}
}

// View renders the visible window of candidates, keeping the highlighted
// entry in view.
func (c *CompletionPopup) View() string {
	if !c.Visible() {
		return ""
	}

	start := 0
	if c.selected >= c.maxVisible {
		start = c.selected - c.maxVisible + 1
	}
	end := start + c.maxVisible
	if end > len(c.candidates) {
		end = len(c.candidates)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		row := util.TruncateWidth(c.candidates[i], c.width)
		if i == c.selected {
			b.WriteString(c.theme.PopupSelected.Render(" " + util.PadRight(row, c.width) + " "))
		} else {
			b.WriteString(c.theme.PopupItem.Render(" " + util.PadRight(row, c.width) + " "))
		}
		b.WriteByte('\n')
	}
	if len(c.candidates) > c.maxVisible {
		b.WriteString(c.theme.PopupCounter.Render(
			fmt.Sprintf(" %d/%d ", c.selected+1, len(c.candidates))))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
