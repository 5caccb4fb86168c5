// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// OUTPUT MODEL
// =============================================================================

// LineType classifies a scrollback entry.
type LineType string

const (
	LineOutput LineType = "output"
	LineError  LineType = "error"
	LineInput  LineType = "input"
	LineSystem LineType = "system"
)

// Span is a styled sub-run within a line.
type Span struct {
	Text  string
	Style string
}

// OutputLine is one scrollback entry. Lines are immutable after append
// except through UpdateLastLine, which is used for progress redraws.
type OutputLine struct {
	ID        string
	Content   string
	Style     string
	Timestamp time.Time
	Type      LineType
	Spans     []Span
}

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the session's input-routing mode.
type State int

const (
	// StateNormal accepts command-line input.
	StateNormal State = iota

	// StateApp routes every keystroke to the active sub-application.
	StateApp

	// StateAwaitingLine is set while a command is blocked in ReadLine.
	StateAwaitingLine

	// StateAwaitingKey is set while a command is blocked in WaitForKey.
	StateAwaitingKey
)

// Modifiers carries the modifier keys of a keystroke.
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Shift bool
}

// App is a full-screen sub-application that temporarily owns all keystroke
// routing within a session. Returning false from OnKeyPress is the stop
// signal: the session unmounts the app and returns to normal mode.
type App interface {
	OnMount(s *Session)
	OnUnmount()
	OnKeyPress(key string, mods Modifiers) bool
	Render() string
}

// Resizable is implemented by sub-applications that care about terminal
// size changes.
type Resizable interface {
	OnResize(width, height int)
}

type listener struct {
	id int
	fn func()
}

// Session is the stateful container behind one terminal surface.
type Session struct {
	mu sync.Mutex

	// Scrollback
	lines    []OutputLine
	maxLines int

	// History
	history       []string
	maxHistory    int
	historyCursor int

	// Environment and prompt
	env            map[string]string
	cwd            string
	promptTemplate string

	// Input routing
	state       State
	app         App
	pendingLine chan string
	readPrompt  string
	pendingKey  chan string

	// Output-change observers
	listeners  []listener
	nextListID int
}

// Option configures a new Session.
type Option func(*Session)

// WithScrollbackLimit caps the scrollback buffer.
func WithScrollbackLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxLines = n
		}
	}
}

// WithHistoryLimit caps the command history.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithPrompt sets the prompt template. A literal "~" is substituted with
// the working directory when the prompt is rendered.
func WithPrompt(tmpl string) Option {
	return func(s *Session) { s.promptTemplate = tmpl }
}

// New creates a session rooted at "/".
func New(opts ...Option) *Session {
	s := &Session{
		maxLines:       1000,
		maxHistory:     100,
		env:            make(map[string]string),
		cwd:            "/",
		promptTemplate: "user@neon:~$",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.historyCursor = 0
	return s
}

// =============================================================================
// SCROLLBACK
// =============================================================================

// WriteLine appends a new scrollback entry.
func (s *Session) WriteLine(content string, typ LineType, style string) {
	s.mu.Lock()
	s.appendLocked(OutputLine{
		ID:        uuid.NewString(),
		Content:   content,
		Style:     style,
		Timestamp: time.Now(),
		Type:      typ,
	})
	s.mu.Unlock()
	s.notify()
}

// WriteSpans appends a new scrollback entry made of styled sub-runs. The
// plain content is the concatenation of the span texts.
func (s *Session) WriteSpans(typ LineType, spans ...Span) {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	s.mu.Lock()
	s.appendLocked(OutputLine{
		ID:        uuid.NewString(),
		Content:   b.String(),
		Timestamp: time.Now(),
		Type:      typ,
		Spans:     spans,
	})
	s.mu.Unlock()
	s.notify()
}

// Write appends text to the most recent entry, creating one if the buffer
// is empty. A non-empty style is merged onto the existing style.
func (s *Session) Write(content string, style string) {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.appendLocked(OutputLine{
			ID:        uuid.NewString(),
			Content:   content,
			Style:     style,
			Timestamp: time.Now(),
			Type:      LineOutput,
		})
	} else {
		last := &s.lines[len(s.lines)-1]
		last.Content += content
		if style != "" {
			last.Style = style
		}
	}
	s.mu.Unlock()
	s.notify()
}

// UpdateLastLine replaces the most recent entry's content and style in
// place, creating the entry if the buffer is empty.
func (s *Session) UpdateLastLine(content string, style string) {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.appendLocked(OutputLine{
			ID:        uuid.NewString(),
			Content:   content,
			Style:     style,
			Timestamp: time.Now(),
			Type:      LineOutput,
		})
	} else {
		last := &s.lines[len(s.lines)-1]
		last.Content = content
		if style != "" {
			last.Style = style
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Lines returns a snapshot of the scrollback buffer.
func (s *Session) Lines() []OutputLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutputLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// ClearScrollback drops all scrollback entries.
func (s *Session) ClearScrollback() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
	s.notify()
}

// appendLocked appends a line, dropping the oldest entries beyond the cap.
func (s *Session) appendLocked(line OutputLine) {
	s.lines = append(s.lines, line)
	if len(s.lines) > s.maxLines {
		overflow := len(s.lines) - s.maxLines
		s.lines = append(s.lines[:0:0], s.lines[overflow:]...)
	}
}

// =============================================================================
// HISTORY
// =============================================================================

// AddToHistory records a submitted line. Blank input and immediate
// consecutive duplicates are ignored. The navigation cursor resets past the
// newest entry.
func (s *Session) AddToHistory(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() { s.historyCursor = len(s.history) }()

	if strings.TrimSpace(line) == "" {
		return
	}
	if len(s.history) > 0 && s.history[len(s.history)-1] == line {
		return
	}
	s.history = append(s.history, line)
	if len(s.history) > s.maxHistory {
		overflow := len(s.history) - s.maxHistory
		s.history = append(s.history[:0:0], s.history[overflow:]...)
	}
}

// NavigateHistory steps the navigation cursor. Direction is "up" or
// "down". The second return value is false when there is no entry to
// return (start of history reached on "up", or empty history).
// Navigating "down" past the newest entry yields an empty string with
// ok=true, restoring the empty input line.
func (s *Session) NavigateHistory(direction string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return "", false
	}

	switch direction {
	case "up":
		if s.historyCursor == 0 {
			return "", false
		}
		s.historyCursor--
		return s.history[s.historyCursor], true
	case "down":
		if s.historyCursor >= len(s.history) {
			return "", true
		}
		s.historyCursor++
		if s.historyCursor == len(s.history) {
			return "", true
		}
		return s.history[s.historyCursor], true
	}
	return "", false
}

// History returns a snapshot of the command history, oldest first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory drops all history entries and resets the cursor.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.historyCursor = 0
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// GetEnv returns the value for key, or "" when absent.
func (s *Session) GetEnv(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env[key]
}

// SetEnv sets an environment variable.
func (s *Session) SetEnv(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env[key] = value
}

// DeleteEnv removes an environment variable.
func (s *Session) DeleteEnv(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.env, key)
}

// Environ returns a snapshot copy of the whole environment map.
func (s *Session) Environ() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.env))
	for k, v := range s.env {
		out[k] = v
	}
	return out
}

// =============================================================================
// PROMPT AND WORKING DIRECTORY
// =============================================================================

// WorkingDirectory returns the current working path.
func (s *Session) WorkingDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// SetWorkingDirectory updates the current working path.
func (s *Session) SetWorkingDirectory(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cwd = p
}

// SetPromptTemplate replaces the prompt template.
func (s *Session) SetPromptTemplate(tmpl string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptTemplate = tmpl
}

// GetPrompt renders the prompt: the template with a literal "~"
// substituted by the working directory, plus a single trailing space.
func (s *Session) GetPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.ReplaceAll(s.promptTemplate, "~", s.cwd) + " "
}

// =============================================================================
// MODE / SUB-APPLICATION HOSTING
// =============================================================================

// State returns the session's current input-routing mode.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.app != nil {
		return StateApp
	}
	return s.state
}

// ActiveApp returns the mounted sub-application, or nil.
func (s *Session) ActiveApp() App {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app
}

// LaunchApp mounts a sub-application and routes subsequent keystrokes to
// it.
func (s *Session) LaunchApp(app App) {
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()
	app.OnMount(s)
	s.notify()
}

// HandleKeyPress forwards a keystroke to the active sub-application. When
// the app signals stop (returns false) it is unmounted and the session
// returns to normal mode. With no active app this is a no-op returning
// false.
func (s *Session) HandleKeyPress(key string, mods Modifiers) bool {
	s.mu.Lock()
	app := s.app
	s.mu.Unlock()
	if app == nil {
		return false
	}

	cont := app.OnKeyPress(key, mods)
	if !cont {
		s.mu.Lock()
		s.app = nil
		s.mu.Unlock()
		app.OnUnmount()
	}
	s.notify()
	return cont
}

// Resize informs the active sub-application of a size change, when it
// cares.
func (s *Session) Resize(width, height int) {
	s.mu.Lock()
	app := s.app
	s.mu.Unlock()
	if r, ok := app.(Resizable); ok {
		r.OnResize(width, height)
		s.notify()
	}
}

// =============================================================================
// INTERACTIVE READ PROTOCOL
// =============================================================================

// ReadLine writes the optional prompt and suspends until the UI layer
// calls ResolveReadLine. The returned channel yields the submitted value
// exactly once. The caller owns cancellation; there is no timeout.
func (s *Session) ReadLine(prompt string) <-chan string {
	if prompt != "" {
		s.Write(prompt, "")
	}
	s.mu.Lock()
	ch := make(chan string, 1)
	s.pendingLine = ch
	s.readPrompt = prompt
	s.state = StateAwaitingLine
	s.mu.Unlock()
	s.notify()
	return ch
}

// ResolveReadLine fulfills a pending ReadLine with the given value, echoing
// it to scrollback. A resolve with no pending read is a no-op.
func (s *Session) ResolveReadLine(value string) {
	s.mu.Lock()
	ch := s.pendingLine
	s.pendingLine = nil
	s.readPrompt = ""
	if ch != nil {
		s.state = StateNormal
	}
	s.mu.Unlock()
	if ch == nil {
		return
	}
	s.Write(value, "")
	ch <- value
}

// IsWaitingForReadLine reports whether a ReadLine is pending.
func (s *Session) IsWaitingForReadLine() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLine != nil
}

// GetReadLinePrompt returns the prompt of the pending ReadLine, if any.
func (s *Session) GetReadLinePrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readPrompt
}

// WaitForKey suspends until the UI layer calls ResolveWaitForKey. The
// returned channel yields the key exactly once.
func (s *Session) WaitForKey() <-chan string {
	s.mu.Lock()
	ch := make(chan string, 1)
	s.pendingKey = ch
	s.state = StateAwaitingKey
	s.mu.Unlock()
	s.notify()
	return ch
}

// ResolveWaitForKey fulfills a pending WaitForKey. A resolve with no
// pending wait is a no-op.
func (s *Session) ResolveWaitForKey(key string) {
	s.mu.Lock()
	ch := s.pendingKey
	s.pendingKey = nil
	if ch != nil {
		s.state = StateNormal
	}
	s.mu.Unlock()
	if ch == nil {
		return
	}
	ch <- key
}

// IsWaitingForKey reports whether a WaitForKey is pending.
func (s *Session) IsWaitingForKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingKey != nil
}

// =============================================================================
// OUTPUT-CHANGE NOTIFICATION
// =============================================================================

// Subscribe registers a listener invoked on every scrollback mutation.
// The returned handle deterministically unsubscribes via Unsubscribe.
func (s *Session) Subscribe(fn func()) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListID++
	id := s.nextListID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return id
}

// Unsubscribe removes a listener by handle.
func (s *Session) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// notify invokes all registered listeners outside the lock.
func (s *Session) notify() {
	s.mu.Lock()
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()
	for _, l := range ls {
		l.fn()
	}
}
