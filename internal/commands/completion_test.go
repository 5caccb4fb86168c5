// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
)

func newTestCompleter(t *testing.T) (*Completer, *session.Session) {
	t.Helper()
	ctx := newTestContext(t)
	ctx.Registry.RegisterAlias("ll", "ls -l")
	return NewCompleter(ctx.Registry, ctx.FS), ctx.Session
}

// =============================================================================
// COMMAND NAME COMPLETION
// =============================================================================

func TestCompleteCommandNames(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "c", 1)
	assert.Equal(t, []string{"cat", "cd", "clear", "cp"}, res.Completions)
	assert.Equal(t, "c", res.CommonPrefix)
	assert.Equal(t, 0, res.ReplaceStart)
	assert.Equal(t, 1, res.ReplaceEnd)
}

func TestCompleteEmptyLineListsEverything(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "", 0)
	assert.Contains(t, res.Completions, "ls")
	assert.Contains(t, res.Completions, "ll", "aliases complete like commands")
	assert.Equal(t, 0, res.ReplaceStart)
	assert.Equal(t, 0, res.ReplaceEnd)
}

func TestCompleteCommonPrefixNarrows(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "un", 2)
	assert.Equal(t, []string{"unalias", "unset"}, res.Completions)
	assert.Equal(t, "un", res.CommonPrefix)
}

func TestCompleteCommandNameShadowedByAlias(t *testing.T) {
	c, sess := newTestCompleter(t)
	c.registry.RegisterAlias("ls", "ls -a")

	res := c.Complete(sess, "ls", 2)
	assert.Equal(t, []string{"ls"}, res.Completions,
		"an alias sharing a command's name contributes one candidate")
}

// =============================================================================
// FLAG COMPLETION
// =============================================================================

func TestCompleteFlags(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "ls -", 4)
	assert.Equal(t, []string{"-a", "-l"}, res.Completions)
	assert.Equal(t, 3, res.ReplaceStart)
	assert.Equal(t, 4, res.ReplaceEnd)
}

func TestCompleteFlagsLongForm(t *testing.T) {
	c, sess := newTestCompleter(t)
	c.registry.Register(&Command{
		Name:    "fetch",
		Options: []Option{{Flag: "output", TakesValue: true}, {Flag: "o"}},
		Run:     func(ctx *Context, inv *Invocation) error { return nil },
	})

	res := c.Complete(sess, "fetch --o", 9)
	assert.Equal(t, []string{"--output"}, res.Completions)
}

// =============================================================================
// PATH COMPLETION
// =============================================================================

func TestCompletePathSimple(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "cat REA", 7)
	assert.Equal(t, []string{"README.md"}, res.Completions)
	assert.Equal(t, 4, res.ReplaceStart)
	assert.Equal(t, 7, res.ReplaceEnd)
}

func TestCompletePathDirectoriesGetSlash(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "cd D", 4)
	assert.Equal(t, []string{"Documents/"}, res.Completions)
}

func TestCompletePathAfterSpaceListsDirectory(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "ls ", 3)
	assert.Equal(t, []string{"Documents/", "Pictures/", "README.md"}, res.Completions)
	assert.Equal(t, 3, res.ReplaceStart)
	assert.Equal(t, 3, res.ReplaceEnd)
}

func TestCompletePathRelativeToCwd(t *testing.T) {
	c, sess := newTestCompleter(t)
	sess.SetWorkingDirectory("/Documents")

	res := c.Complete(sess, "cd My", 5)
	assert.Equal(t, []string{"'My Folder/'"}, res.Completions, "names with spaces come back quoted")
}

func TestCompleteQuotedNestedPath(t *testing.T) {
	c, sess := newTestCompleter(t)

	line := "cd 'Documents/My Folder/A"
	res := c.Complete(sess, line, len(line))

	require.Equal(t, []string{"'Documents/My Folder/Another Folder/'"}, res.Completions)
	assert.Equal(t, 3, res.ReplaceStart, "the opening quote is part of the replaced range")
	assert.Equal(t, len(line), res.ReplaceEnd)

	// Applying the candidate yields a line that parses back to the full path.
	applied := line[:res.ReplaceStart] + res.Completions[0] + line[res.ReplaceEnd:]
	parsed := ParseCommandLine(applied)
	assert.Equal(t, []string{"Documents/My Folder/Another Folder/"}, parsed.Args)
}

func TestCompletePathInsideSubdirectory(t *testing.T) {
	c, sess := newTestCompleter(t)

	// One entry needs quoting, so all candidates come back quoted in the
	// same style and keep sharing the directory portion.
	line := "ls Documents/"
	res := c.Complete(sess, line, len(line))
	assert.Equal(t, []string{"'Documents/My Folder/'", "'Documents/notes.txt'"}, res.Completions)
	assert.Equal(t, "'Documents/", res.CommonPrefix,
		"the shared prefix must retain what the user already typed")

	// Splicing the shared prefix over the replace range must not lose the
	// typed directory portion.
	applied := line[:res.ReplaceStart] + res.CommonPrefix + line[res.ReplaceEnd:]
	assert.Equal(t, "ls 'Documents/", applied)
}

func TestCompletePathMissingDirectoryDegrades(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "cat missing/fi", 14)
	assert.Empty(t, res.Completions)
	assert.Equal(t, -1, res.ReplaceStart)
	assert.Equal(t, -1, res.ReplaceEnd)
}

func TestCompleteUnknownCommandDegrades(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "nosuch arg", 10)
	assert.Empty(t, res.Completions)
	assert.Equal(t, -1, res.ReplaceStart)
}

// =============================================================================
// CUSTOM COMPLETION
// =============================================================================

func TestCompleteCustomDelegates(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "help cl", 7)
	assert.Equal(t, []string{"clear"}, res.Completions)
	assert.Equal(t, 5, res.ReplaceStart)
	assert.Equal(t, 7, res.ReplaceEnd)
}

func TestCompleteCustomQuotesCandidates(t *testing.T) {
	c, sess := newTestCompleter(t)
	c.registry.Register(&Command{
		Name: "open",
		Run:  func(ctx *Context, inv *Invocation) error { return nil },
		Complete: func(req CompletionRequest) ([]string, error) {
			return []string{"My Document", "Mundane"}, nil
		},
	})

	res := c.Complete(sess, "open M", 6)
	assert.Equal(t, []string{"'Mundane'", "'My Document'"}, res.Completions,
		"once one candidate needs quoting, all are quoted alike")
	assert.Equal(t, "'M", res.CommonPrefix)
}

func TestCompleteCustomErrorDegrades(t *testing.T) {
	c, sess := newTestCompleter(t)
	c.registry.Register(&Command{
		Name: "broken",
		Run:  func(ctx *Context, inv *Invocation) error { return nil },
		Complete: func(req CompletionRequest) ([]string, error) {
			return nil, errors.New("backend down")
		},
	})

	res := c.Complete(sess, "broken x", 8)
	assert.Empty(t, res.Completions)
	assert.Equal(t, -1, res.ReplaceStart)
}

func TestCompleteCustomPanicDegrades(t *testing.T) {
	c, sess := newTestCompleter(t)
	c.registry.Register(&Command{
		Name: "explode",
		Run:  func(ctx *Context, inv *Invocation) error { return nil },
		Complete: func(req CompletionRequest) ([]string, error) {
			panic("boom")
		},
	})

	res := c.Complete(sess, "explode x", 9)
	assert.Empty(t, res.Completions)
	assert.Equal(t, -1, res.ReplaceStart)
}

// =============================================================================
// CURSOR HANDLING
// =============================================================================

func TestCompleteCursorMidLineIgnoresTail(t *testing.T) {
	c, sess := newTestCompleter(t)

	// Cursor right after "REA"; the trailing junk is ignored.
	line := "cat REA garbage"
	res := c.Complete(sess, line, 7)
	assert.Equal(t, []string{"README.md"}, res.Completions)
	assert.Equal(t, 4, res.ReplaceStart)
	assert.Equal(t, 7, res.ReplaceEnd)
}

func TestCompleteCursorClamped(t *testing.T) {
	c, sess := newTestCompleter(t)

	res := c.Complete(sess, "c", 99)
	assert.NotEmpty(t, res.Completions)

	res = c.Complete(sess, "c", -5)
	assert.True(t, res.ReplaceStart == 0 || res.ReplaceStart == -1)
}

func TestCompleteCommonPrefixOfPaths(t *testing.T) {
	c, sess := newTestCompleter(t)
	_, err := c.fs.CreateFile("/notes-a.txt", "", "text/plain")
	require.NoError(t, err)
	_, err = c.fs.CreateFile("/notes-b.txt", "", "text/plain")
	require.NoError(t, err)

	res := c.Complete(sess, "cat notes", 9)
	require.Len(t, res.Completions, 2)
	assert.True(t, strings.HasPrefix(res.CommonPrefix, "notes-"))
}
