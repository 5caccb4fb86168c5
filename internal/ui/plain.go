// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/commands"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/config"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// =============================================================================
// PLAIN REPL
// =============================================================================

// PlainREPL is the line-oriented fallback surface for terminals where the
// full-screen interface is unwanted or unavailable.
type PlainREPL struct {
	session   *session.Session
	registry  *commands.Registry
	completer *commands.Completer
	ctx       *commands.Context

	line    *liner.State
	printed int
	quit    bool
}

// NewPlainREPL assembles the fallback surface.
func NewPlainREPL(sess *session.Session, fs *vfs.Adapter, registry *commands.Registry, cfg *config.Config) *PlainREPL {
	r := &PlainREPL{
		session:   sess,
		registry:  registry,
		completer: commands.NewCompleter(registry, fs),
	}
	r.ctx = &commands.Context{
		Session:  sess,
		FS:       fs,
		Registry: registry,
		Config:   cfg,
		Quit:     func() { r.quit = true },
	}
	return r
}

// Run drives the read-eval-print loop until exit or EOF.
func (r *PlainREPL) Run() error {
	r.line = liner.NewLiner()
	defer r.line.Close()
	r.line.SetCtrlCAborts(true)
	r.line.SetTabCompletionStyle(liner.TabCircular)
	r.line.SetCompleter(r.complete)

	for !r.quit {
		input, err := r.line.Prompt(r.session.GetPrompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		r.session.AddToHistory(input)
		if strings.TrimSpace(input) != "" {
			r.line.AppendHistory(input)
		}
		r.dispatch(input)
		r.flush()
	}
	return nil
}

// complete adapts the completion engine to liner's whole-line completer:
// each candidate is returned spliced into the full line.
func (r *PlainREPL) complete(line string) []string {
	res := r.completer.Complete(r.session, line, len(line))
	if len(res.Completions) == 0 {
		return nil
	}
	out := make([]string, len(res.Completions))
	for i, cand := range res.Completions {
		out[i] = line[:res.ReplaceStart] + cand + line[res.ReplaceEnd:]
	}
	return out
}

// dispatch runs one command line, answering readline and waitkey requests
// inline while the command is blocked.
func (r *PlainREPL) dispatch(input string) {
	parsed := commands.ParseCommandLine(input)
	if parsed.Command == "" {
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- r.registry.Execute(r.ctx, parsed.Command, parsed.Args)
	}()

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				r.session.WriteLine(err.Error(), session.LineError, "")
			}
			r.drainApp()
			return

		case <-tick.C:
			r.flush()
			switch r.session.State() {
			case session.StateAwaitingLine:
				value, err := r.line.Prompt(r.session.GetReadLinePrompt())
				if err != nil {
					value = ""
				}
				r.session.ResolveReadLine(value)
			case session.StateAwaitingKey:
				value, err := r.line.Prompt("press enter to continue...")
				if err != nil || value == "" {
					value = "enter"
				}
				r.session.ResolveWaitForKey(value)
			}
		}
	}
}

// drainApp gives a launched sub-application a line-oriented life: render,
// read a key per line, until it closes.
func (r *PlainREPL) drainApp() {
	for r.session.State() == session.StateApp {
		app := r.session.ActiveApp()
		if app == nil {
			return
		}
		fmt.Println(app.Render())
		input, err := r.line.Prompt("key> ")
		if err != nil {
			input = "q"
		}
		key := "q"
		if input != "" {
			key = string([]rune(input)[0])
		}
		r.session.HandleKeyPress(key, session.Modifiers{})
	}
}

// flush prints scrollback lines added since the last call.
func (r *PlainREPL) flush() {
	lines := r.session.Lines()
	if r.printed > len(lines) {
		// Scrollback was cleared or trimmed; start over.
		r.printed = 0
	}
	for _, line := range lines[r.printed:] {
		fmt.Println(line.Content)
	}
	r.printed = len(lines)
}
