// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// =============================================================================
// COMPLETION ENGINE
// =============================================================================

// Completer produces tab-completion candidates for a command line. It is
// stateless; every call re-tokenizes the line up to the cursor.
type Completer struct {
	registry *Registry
	fs       *vfs.Adapter
}

// NewCompleter creates a completion engine over a registry and filesystem.
func NewCompleter(registry *Registry, fs *vfs.Adapter) *Completer {
	return &Completer{registry: registry, fs: fs}
}

// Result is the outcome of one completion request. Completions hold the
// insertable candidate strings (already quoted where needed); ReplaceStart
// and ReplaceEnd are the byte range of the line a chosen candidate replaces,
// covering the partial token including any opening quote. When there are no
// candidates both offsets are -1.
type Result struct {
	Completions  []string
	Prefix       string
	CommonPrefix string
	ReplaceStart int
	ReplaceEnd   int
}

// empty is the no-candidates result.
func empty() Result {
	return Result{ReplaceStart: -1, ReplaceEnd: -1}
}

// Complete generates candidates for the argument under the cursor. Failures
// along the way (unknown command, unreadable directory, panicking custom
// completer) degrade to an empty result; completion never reports errors to
// the user.
func (c *Completer) Complete(sess *session.Session, line string, cursor int) Result {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(line) {
		cursor = len(line)
	}

	_, tokens := ParseArguments(line[:cursor])

	// Command-name position: nothing typed yet, or still inside the first
	// token.
	if len(tokens) == 0 {
		return c.completeCommandName("", cursor, cursor)
	}
	if len(tokens) == 1 && tokens[0].EndIndex == cursor {
		return c.completeCommandName(tokens[0].Value, tokens[0].StartIndex, cursor)
	}

	cmd := c.registry.Get(tokens[0].Value)
	if cmd == nil {
		return empty()
	}

	// The partial argument is the last token only when the cursor sits at
	// its end; otherwise the cursor follows whitespace and the argument is
	// empty.
	partial := Token{StartIndex: cursor, EndIndex: cursor}
	if last := tokens[len(tokens)-1]; last.EndIndex == cursor {
		partial = last
	}

	if strings.HasPrefix(partial.Value, "-") && !partial.Quoted && len(cmd.Options) > 0 {
		return c.completeFlags(cmd, partial, cursor)
	}

	if cmd.Complete != nil {
		return c.completeCustom(cmd, line, cursor, partial)
	}

	cwd := "/"
	if sess != nil {
		cwd = sess.WorkingDirectory()
	}
	return c.completePath(cwd, partial, cursor)
}

// completeCommandName matches registered commands and aliases. An alias
// sharing a command's name contributes a single candidate.
func (c *Completer) completeCommandName(prefix string, start, cursor int) Result {
	names := c.registry.Names()
	names = append(names, c.registry.AliasNames()...)
	sort.Strings(names)

	var out []string
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == name {
			continue
		}
		out = append(out, name)
	}
	return finish(out, prefix, start, cursor)
}

// completeFlags matches a command's declared options. Flags are inserted
// bare; they never need quoting.
func (c *Completer) completeFlags(cmd *Command, partial Token, cursor int) Result {
	var out []string
	for _, o := range cmd.Options {
		flag := renderFlag(o.Flag)
		if strings.HasPrefix(flag, partial.Value) {
			out = append(out, flag)
		}
	}
	sort.Strings(out)
	return finish(out, partial.Value, partial.StartIndex, cursor)
}

// completeCustom delegates to the command's own completer and re-quotes its
// candidates. A panicking completer yields no candidates.
func (c *Completer) completeCustom(cmd *Command, line string, cursor int, partial Token) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("command completer panicked", "command", cmd.Name, "panic", r)
			res = empty()
		}
	}()

	candidates, err := cmd.Complete(CompletionRequest{
		CommandLine:    line,
		CursorPosition: cursor,
		PartialArg:     partial.Value,
	})
	if err != nil {
		log.Debug("command completer failed", "command", cmd.Name, "error", err)
		return empty()
	}

	var raw []string
	for _, cand := range candidates {
		if strings.HasPrefix(cand, partial.Value) {
			raw = append(raw, cand)
		}
	}
	out := quoteUniform(raw)
	sort.Strings(out)
	return finish(out, partial.Value, partial.StartIndex, cursor)
}

// completePath matches entries of the directory named by the partial
// argument. The directory portion of the partial is carried into every
// candidate so a candidate always replaces the whole token.
func (c *Completer) completePath(cwd string, partial Token, cursor int) Result {
	if c.fs == nil {
		return empty()
	}

	dirPart := ""
	base := partial.Value
	if i := strings.LastIndex(partial.Value, "/"); i >= 0 {
		dirPart = partial.Value[:i+1]
		base = partial.Value[i+1:]
	}

	dirPath := vfs.ResolvePath(dirPart, cwd)
	entries, err := c.fs.ListDirectory(dirPath)
	if err != nil {
		return empty()
	}

	var raw []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name, base) {
			continue
		}
		full := dirPart + entry.Name
		if entry.IsDir() {
			full += "/"
		}
		raw = append(raw, full)
	}
	out := quoteUniform(raw)
	sort.Strings(out)
	return finish(out, partial.Value, partial.StartIndex, cursor)
}

// quoteUniform prepares candidates for insertion. When any candidate needs
// quoting, every candidate is quoted, all in the same style, so they share
// the opening quote; a mixed set would have no common prefix and a shared
// directory portion would be lost.
func quoteUniform(values []string) []string {
	force := false
	double := false
	for _, v := range values {
		if NeedsQuoting(v) {
			force = true
		}
		if strings.Contains(v, "'") {
			double = true
		}
	}
	out := make([]string, len(values))
	for i, v := range values {
		switch {
		case !force:
			out[i] = v
		case double:
			out[i] = quoteDouble(v)
		default:
			out[i] = Quote(v)
		}
	}
	return out
}

// finish assembles a Result, computing the shared prefix of all candidates.
func finish(candidates []string, prefix string, start, end int) Result {
	if len(candidates) == 0 {
		return empty()
	}
	return Result{
		Completions:  candidates,
		Prefix:       prefix,
		CommonPrefix: commonPrefix(candidates),
		ReplaceStart: start,
		ReplaceEnd:   end,
	}
}

// commonPrefix returns the longest prefix shared by all candidates.
func commonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	prefix := candidates[0]
	for _, cand := range candidates[1:] {
		for !strings.HasPrefix(cand, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
