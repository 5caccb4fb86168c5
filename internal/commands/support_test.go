// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// =============================================================================
// TEST SUPPORT
// =============================================================================

// memService is a small in-memory vfs.Service for exercising commands and
// completion against a real adapter.
type memService struct {
	nodes  map[string]*vfs.Node
	nextID int
}

func newMemService() *memService {
	return &memService{nodes: make(map[string]*vfs.Node)}
}

func (m *memService) id() string {
	m.nextID++
	return fmt.Sprintf("n%03d", m.nextID)
}

func (m *memService) Init() (*vfs.Node, error) {
	for _, n := range m.nodes {
		if n.ParentID == "" {
			return n, nil
		}
	}
	root := &vfs.Node{ID: m.id(), Name: "/", Type: vfs.TypeDirectory}
	m.nodes[root.ID] = root
	return root, nil
}

func (m *memService) List(dirID string) ([]*vfs.Node, error) {
	if _, ok := m.nodes[dirID]; !ok {
		return nil, vfs.ErrNotFound
	}
	var out []*vfs.Node
	for _, n := range m.nodes {
		if n.ParentID == dirID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memService) Get(id string) (*vfs.Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, vfs.ErrNotFound
	}
	return n, nil
}

func (m *memService) CreateDirectory(name, parentID string) (*vfs.Node, error) {
	n := &vfs.Node{ID: m.id(), Name: name, Type: vfs.TypeDirectory, ParentID: parentID}
	m.nodes[n.ID] = n
	return n, nil
}

func (m *memService) CreateFile(name, parentID, content, mimeType string) (*vfs.Node, error) {
	n := &vfs.Node{ID: m.id(), Name: name, Type: vfs.TypeFile, ParentID: parentID, Content: content, MimeType: mimeType}
	m.nodes[n.ID] = n
	return n, nil
}

func (m *memService) Update(id string, upd vfs.Update) (*vfs.Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, vfs.ErrNotFound
	}
	if upd.Name != nil {
		n.Name = *upd.Name
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.MimeType != nil {
		n.MimeType = *upd.MimeType
	}
	return n, nil
}

func (m *memService) Delete(id string) error {
	if _, ok := m.nodes[id]; !ok {
		return vfs.ErrNotFound
	}
	var kill func(string)
	kill = func(target string) {
		for _, n := range m.nodes {
			if n.ParentID == target {
				kill(n.ID)
			}
		}
		delete(m.nodes, target)
	}
	kill(id)
	return nil
}

func (m *memService) Copy(id, targetParentID, newName string) (*vfs.Node, error) {
	src, ok := m.nodes[id]
	if !ok {
		return nil, vfs.ErrNotFound
	}
	name := src.Name
	if newName != "" {
		name = newName
	}
	dup := &vfs.Node{ID: m.id(), Name: name, Type: src.Type, ParentID: targetParentID, Content: src.Content, MimeType: src.MimeType}
	m.nodes[dup.ID] = dup
	if src.IsDir() {
		for _, n := range m.nodes {
			if n.ParentID == src.ID {
				if _, err := m.Copy(n.ID, dup.ID, ""); err != nil {
					return nil, err
				}
			}
		}
	}
	return dup, nil
}

func (m *memService) Move(id, targetParentID string) (*vfs.Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, vfs.ErrNotFound
	}
	n.ParentID = targetParentID
	return n, nil
}

// newTestFS builds an adapter seeded with the default desktop tree.
func newTestFS(t *testing.T) *vfs.Adapter {
	t.Helper()
	a := vfs.NewAdapter(newMemService())
	require.NoError(t, a.Init())

	mustDir := func(p string) {
		_, err := a.CreateDirectory(p)
		require.NoError(t, err)
	}
	mustFile := func(p, content, mime string) {
		_, err := a.CreateFile(p, content, mime)
		require.NoError(t, err)
	}

	mustDir("/Documents")
	mustFile("/Documents/notes.txt", "top-level notes", "text/plain")
	mustDir("/Documents/My Folder")
	mustDir("/Documents/My Folder/Another Folder")
	mustFile("/Documents/My Folder/notes.txt", "hello from notes", "text/plain")
	mustDir("/Pictures")
	mustFile("/README.md", "# Welcome\n", "text/markdown")
	return a
}

// newTestContext wires a full context: seeded filesystem, fresh session,
// registry with all builtins.
func newTestContext(t *testing.T) *Context {
	t.Helper()
	r := NewRegistry()
	RegisterBuiltins(r)
	return &Context{
		Session:  session.New(),
		FS:       newTestFS(t),
		Registry: r,
	}
}

// run dispatches one raw command line through the registry.
func run(ctx *Context, line string) error {
	parsed := ParseCommandLine(line)
	return ctx.Registry.Execute(ctx, parsed.Command, parsed.Args)
}

// lastLine returns the content of the newest scrollback line.
func lastLine(t *testing.T, ctx *Context) string {
	t.Helper()
	lines := ctx.Session.Lines()
	require.NotEmpty(t, lines)
	return lines[len(lines)-1].Content
}

// allContent returns every scrollback line's content.
func allContent(ctx *Context) []string {
	var out []string
	for _, l := range ctx.Session.Lines() {
		out = append(out, l.Content)
	}
	return out
}
