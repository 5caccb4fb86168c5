// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package apps

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
)

// =============================================================================
// PAGER
// =============================================================================

var (
	pagerTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Reverse(true).
			Padding(0, 1)

	pagerFooterStyle = lipgloss.NewStyle().
			Faint(true).
			Padding(0, 1)
)

// Pager is a read-only full-screen file viewer. Markdown renders through
// glamour; everything else gets syntax highlighting when a lexer matches
// the file name or MIME type.
type Pager struct {
	name    string
	lines   []string
	offset  int
	width   int
	height  int
	session *session.Session
}

// NewPager builds a pager for one file. Rendering happens up front; scroll
// state starts at the top.
func NewPager(name, content, mimeType string) *Pager {
	return &Pager{
		name:   name,
		lines:  renderContent(name, content, mimeType),
		width:  80,
		height: 24,
	}
}

// OnMount implements session.App.
func (p *Pager) OnMount(s *session.Session) {
	p.session = s
}

// OnUnmount implements session.App.
func (p *Pager) OnUnmount() {
	p.session = nil
}

// OnResize implements session.Resizable.
func (p *Pager) OnResize(width, height int) {
	p.width = width
	p.height = height
	p.clampOffset()
}

// OnKeyPress implements session.App. Returning false closes the pager.
func (p *Pager) OnKeyPress(key string, mods session.Modifiers) bool {
	page := p.viewHeight()
	switch key {
	case "q", "esc":
		return false
	case "up", "k":
		p.offset--
	case "down", "j":
		p.offset++
	case "pgup", "b":
		p.offset -= page
	case "pgdown", "f", " ":
		p.offset += page
	case "g", "home":
		p.offset = 0
	case "G", "end":
		p.offset = len(p.lines)
	}
	p.clampOffset()
	return true
}

// Render implements session.App.
func (p *Pager) Render() string {
	view := p.viewHeight()
	end := p.offset + view
	if end > len(p.lines) {
		end = len(p.lines)
	}

	var b strings.Builder
	b.WriteString(pagerTitleStyle.Render(p.name))
	b.WriteByte('\n')
	for _, line := range p.lines[p.offset:end] {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for i := end - p.offset; i < view; i++ {
		b.WriteByte('\n')
	}
	b.WriteString(pagerFooterStyle.Render(fmt.Sprintf("%s  q to close, j/k to scroll", p.position())))
	return b.String()
}

// Offset reports the current scroll position.
func (p *Pager) Offset() int {
	return p.offset
}

// viewHeight is the number of content rows between header and footer.
func (p *Pager) viewHeight() int {
	h := p.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (p *Pager) clampOffset() {
	max := len(p.lines) - p.viewHeight()
	if max < 0 {
		max = 0
	}
	if p.offset > max {
		p.offset = max
	}
	if p.offset < 0 {
		p.offset = 0
	}
}

func (p *Pager) position() string {
	if len(p.lines) <= p.viewHeight() {
		return "all"
	}
	if p.offset == 0 {
		return "top"
	}
	if p.offset+p.viewHeight() >= len(p.lines) {
		return "end"
	}
	return fmt.Sprintf("%d%%", p.offset*100/len(p.lines))
}

// =============================================================================
// RENDERING
// =============================================================================

// renderContent turns raw file content into display lines. Failures fall
// back to the unstyled text.
func renderContent(name, content, mimeType string) []string {
	if isMarkdown(name, mimeType) {
		if out, err := glamour.Render(content, "dark"); err == nil {
			return splitLines(out)
		}
		log.Debug("markdown rendering failed, falling back to plain text", "file", name)
	}
	if out, ok := highlight(name, mimeType, content); ok {
		return splitLines(out)
	}
	return splitLines(content)
}

func isMarkdown(name, mimeType string) bool {
	return mimeType == "text/markdown" || strings.HasSuffix(name, ".md")
}

// highlight runs chroma over the content when a lexer matches. Plain text
// gets no lexer and reports ok=false.
func highlight(name, mimeType, content string) (string, bool) {
	lexer := lexers.Match(name)
	if lexer == nil && mimeType != "" {
		lexer = lexers.MatchMimeType(mimeType)
	}
	if lexer == nil {
		return "", false
	}

	it, err := lexer.Tokenise(nil, content)
	if err != nil {
		return "", false
	}
	var buf bytes.Buffer
	formatter := formatters.Get("terminal256")
	if err := formatter.Format(&buf, styles.Get("monokai"), it); err != nil {
		return "", false
	}
	return buf.String(), true
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
