// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/commands"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/config"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// =============================================================================
// MESSAGES
// =============================================================================

// refreshMsg signals that the session mutated and the view is stale.
type refreshMsg struct{}

// commandDoneMsg carries the outcome of one dispatched command line.
type commandDoneMsg struct {
	err error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the terminal surface.
type Model struct {
	session   *session.Session
	registry  *commands.Registry
	completer *commands.Completer
	ctx       *commands.Context
	theme     *Theme

	viewport viewport.Model
	input    textinput.Model
	popup    *CompletionPopup

	width  int
	height int

	// Completion session: the byte range in the input currently holding
	// the inserted candidate.
	completeStart int
	completeLen   int

	running bool
	refresh chan struct{}
	quit    atomic.Bool
}

// New assembles the terminal surface.
func New(sess *session.Session, fs *vfs.Adapter, registry *commands.Registry, cfg *config.Config) *Model {
	theme := ThemeByName(cfg.UI.Theme)

	input := textinput.New()
	input.Prompt = ""
	input.Focus()

	m := &Model{
		session:   sess,
		registry:  registry,
		completer: commands.NewCompleter(registry, fs),
		theme:     theme,
		viewport:  viewport.New(80, 24),
		input:     input,
		popup:     NewCompletionPopup(theme, cfg.UI.CompletionRows),
		refresh:   make(chan struct{}, 1),
	}
	m.ctx = &commands.Context{
		Session:  sess,
		FS:       fs,
		Registry: registry,
		Config:   cfg,
		Quit:     func() { m.quit.Store(true) },
	}

	sess.Subscribe(func() {
		select {
		case m.refresh <- struct{}{}:
		default:
		}
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenRefresh())
}

// listenRefresh waits for the next session mutation.
func (m *Model) listenRefresh() tea.Cmd {
	return func() tea.Msg {
		<-m.refresh
		return refreshMsg{}
	}
}

// executeCmd dispatches one command line off the UI goroutine.
func (m *Model) executeCmd(line string) tea.Cmd {
	return func() tea.Msg {
		parsed := commands.ParseCommandLine(line)
		if parsed.Command == "" {
			return commandDoneMsg{}
		}
		return commandDoneMsg{err: m.registry.Execute(m.ctx, parsed.Command, parsed.Args)}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 1
		m.popup.SetWidth(msg.Width - 4)
		m.session.Resize(msg.Width, msg.Height)
		m.syncViewport()
		return m, nil

	case refreshMsg:
		m.syncViewport()
		return m, m.listenRefresh()

	case commandDoneMsg:
		m.running = false
		if msg.err != nil {
			m.session.WriteLine(msg.err.Error(), session.LineError, "")
		}
		if m.quit.Load() {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.session.State() {
	case session.StateApp:
		mods := session.Modifiers{Alt: msg.Alt}
		if strings.HasPrefix(key, "ctrl+") {
			mods.Ctrl = true
			key = strings.TrimPrefix(key, "ctrl+")
		}
		m.session.HandleKeyPress(key, mods)
		return m, nil

	case session.StateAwaitingKey:
		m.session.ResolveWaitForKey(key)
		return m, nil

	case session.StateAwaitingLine:
		if key == "enter" {
			value := m.input.Value()
			m.input.Reset()
			m.session.ResolveReadLine(value)
			return m, nil
		}

	default:
		switch key {
		case "enter":
			return m.submit()
		case "tab":
			return m.completeForward()
		case "shift+tab":
			return m.completeBackward()
		case "up":
			if line, ok := m.session.NavigateHistory("up"); ok {
				m.setInput(line)
			}
			m.popup.Clear()
			return m, nil
		case "down":
			if line, ok := m.session.NavigateHistory("down"); ok {
				m.setInput(line)
			}
			m.popup.Clear()
			return m, nil
		case "esc":
			m.popup.Clear()
			return m, nil
		case "ctrl+l":
			m.session.ClearScrollback()
			return m, nil
		case "pgup":
			m.viewport.ViewUp()
			return m, nil
		case "pgdown":
			m.viewport.ViewDown()
			return m, nil
		}
	}

	// Ordinary editing ends any completion session.
	m.popup.Clear()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs the current input line as a command.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	m.popup.Clear()
	if m.running {
		return m, nil
	}

	line := m.input.Value()
	m.input.Reset()

	m.session.WriteLine(m.session.GetPrompt()+line, session.LineInput, "")
	m.session.AddToHistory(line)

	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	m.running = true
	return m, m.executeCmd(line)
}

// =============================================================================
// COMPLETION
// =============================================================================

func (m *Model) completeForward() (tea.Model, tea.Cmd) {
	if m.popup.Visible() {
		m.popup.Next()
		m.applySelected()
		return m, nil
	}
	return m.startCompletion()
}

func (m *Model) completeBackward() (tea.Model, tea.Cmd) {
	if m.popup.Visible() {
		m.popup.Prev()
		m.applySelected()
	}
	return m, nil
}

func (m *Model) startCompletion() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	res := m.completer.Complete(m.session, line, m.input.Position())
	if len(res.Completions) == 0 {
		return m, nil
	}

	if len(res.Completions) == 1 {
		m.replaceRange(res.ReplaceStart, res.ReplaceEnd, res.Completions[0])
		m.popup.Clear()
		return m, nil
	}

	// Insert the shared prefix and open the popup for cycling.
	m.replaceRange(res.ReplaceStart, res.ReplaceEnd, res.CommonPrefix)
	m.completeStart = res.ReplaceStart
	m.completeLen = len(res.CommonPrefix)
	m.popup.SetCandidates(res.Completions)
	return m, nil
}

// applySelected swaps the highlighted candidate into the completion range.
func (m *Model) applySelected() {
	cand, ok := m.popup.Selected()
	if !ok {
		return
	}
	m.replaceRange(m.completeStart, m.completeStart+m.completeLen, cand)
	m.completeLen = len(cand)
}

// replaceRange splices text into the input line and parks the cursor after
// it.
func (m *Model) replaceRange(start, end int, text string) {
	line := m.input.Value()
	if start < 0 || end > len(line) || start > end {
		return
	}
	m.setInput(line[:start] + text + line[end:])
	m.input.SetCursor(start + len(text))
}

func (m *Model) setInput(line string) {
	m.input.SetValue(line)
	m.input.CursorEnd()
}

// =============================================================================
// VIEW
// =============================================================================

// syncViewport re-renders the scrollback into the viewport, pinned to the
// bottom.
func (m *Model) syncViewport() {
	lines := m.session.Lines()
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = m.theme.renderLine(line)
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))
	m.viewport.GotoBottom()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.session.State() == session.StateApp {
		if app := m.session.ActiveApp(); app != nil {
			return app.Render()
		}
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')

	switch m.session.State() {
	case session.StateAwaitingLine:
		b.WriteString(m.theme.Prompt.Render(m.session.GetReadLinePrompt()))
	case session.StateAwaitingKey:
		b.WriteString(m.theme.Dim.Render("press any key..."))
	default:
		b.WriteString(m.theme.Prompt.Render(m.session.GetPrompt()))
	}
	b.WriteString(m.input.View())

	if m.popup.Visible() {
		b.WriteByte('\n')
		b.WriteString(m.popup.View())
	}
	return b.String()
}

// Run starts the program on the alternate screen.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	if err != nil {
		log.Error("terminal surface failed", "error", err)
	}
	return err
}
