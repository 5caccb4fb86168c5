// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vfs

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// =============================================================================
// FILESYSTEM ADAPTER
// =============================================================================

// Adapter resolves hierarchical paths against the flat node store exposed
// by a Service. It maintains two caches, path->node and node-id->path,
// populated lazily as paths are traversed and invalidated whenever a
// mutation touches a path.
type Adapter struct {
	svc Service

	mu       sync.Mutex
	root     *Node
	byPath   map[string]*Node
	pathByID map[string]string
}

// NewAdapter creates an adapter over the given collaborator.
func NewAdapter(svc Service) *Adapter {
	return &Adapter{
		svc:      svc,
		byPath:   make(map[string]*Node),
		pathByID: make(map[string]string),
	}
}

// Init fetches (or creates) the root node and primes the caches.
func (a *Adapter) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	root, err := a.svc.Init()
	if err != nil {
		return fmt.Errorf("init filesystem: %w", err)
	}
	a.root = root
	a.cache("/", root)
	return nil
}

// Root returns the root node. Init must have been called.
func (a *Adapter) Root() *Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.root
}

// =============================================================================
// LOOKUP
// =============================================================================

// FindByPath walks from the root one segment at a time, issuing one
// directory listing per segment not already cached. Returns ErrNotFound for
// the first segment missing from its parent's listing.
func (a *Adapter) FindByPath(p string) (*Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.findLocked(normalize(p))
}

func (a *Adapter) findLocked(p string) (*Node, error) {
	if a.root == nil {
		return nil, fmt.Errorf("filesystem not initialized")
	}
	if p == "/" {
		return a.root, nil
	}
	if n, ok := a.byPath[p]; ok {
		return n, nil
	}

	cur := a.root
	curPath := "/"
	for _, seg := range SplitPath(p) {
		childPath := JoinPath(curPath, seg)
		child, ok := a.byPath[childPath]
		if !ok {
			if !cur.IsDir() {
				return nil, fmt.Errorf("%s: %w", curPath, ErrNotADirectory)
			}
			nodes, err := a.svc.List(cur.ID)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", curPath, err)
			}
			for _, n := range nodes {
				a.cache(JoinPath(curPath, n.Name), n)
			}
			child, ok = a.byPath[childPath]
			if !ok {
				return nil, fmt.Errorf("%s: %w", childPath, ErrNotFound)
			}
		}
		cur = child
		curPath = childPath
	}
	return cur, nil
}

// ListDirectory returns the children of the directory at the given path,
// sorted by name (directories and files interleaved).
func (a *Adapter) ListDirectory(p string) ([]*Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p = normalize(p)
	dir, err := a.findLocked(p)
	if err != nil {
		return nil, err
	}
	if !dir.IsDir() {
		return nil, fmt.Errorf("%s: %w", p, ErrNotADirectory)
	}

	nodes, err := a.svc.List(dir.ID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p, err)
	}
	for _, n := range nodes {
		a.cache(JoinPath(p, n.Name), n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes, nil
}

// Exists reports whether a node exists at the given path.
func (a *Adapter) Exists(p string) bool {
	_, err := a.FindByPath(p)
	return err == nil
}

// PathOf returns the cached path for a node ID, if known.
func (a *Adapter) PathOf(id string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pathByID[id]
	return p, ok
}

// ReadFile returns the file node at the given path with fresh content.
func (a *Adapter) ReadFile(p string) (*Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p = normalize(p)
	n, err := a.findLocked(p)
	if err != nil {
		return nil, err
	}
	if n.IsDir() {
		return nil, fmt.Errorf("%s: %w", p, ErrIsADirectory)
	}
	// Content may be stale in cache; fetch the node by ID.
	fresh, err := a.svc.Get(n.ID)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", p, err)
	}
	a.cache(p, fresh)
	return fresh, nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateFile creates a file at the given path. The parent directory must
// exist; the name must be free.
func (a *Adapter) CreateFile(p, content, mimeType string) (*Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p = normalize(p)
	parent, name, err := a.splitForCreateLocked(p)
	if err != nil {
		return nil, err
	}
	n, err := a.svc.CreateFile(name, parent.ID, content, mimeType)
	if err != nil {
		return nil, fmt.Errorf("create file %s: %w", p, err)
	}
	a.invalidateLocked(ParentPath(p))
	log.Debug("vfs: created file", "path", p, "id", n.ID)
	return n, nil
}

// CreateDirectory creates a directory at the given path.
func (a *Adapter) CreateDirectory(p string) (*Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p = normalize(p)
	parent, name, err := a.splitForCreateLocked(p)
	if err != nil {
		return nil, err
	}
	n, err := a.svc.CreateDirectory(name, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("create directory %s: %w", p, err)
	}
	a.invalidateLocked(ParentPath(p))
	log.Debug("vfs: created directory", "path", p, "id", n.ID)
	return n, nil
}

// WriteFile replaces the content of the file at the given path, creating it
// when absent.
func (a *Adapter) WriteFile(p, content string) (*Node, error) {
	a.mu.Lock()

	p = normalize(p)
	n, err := a.findLocked(p)
	if err == nil {
		if n.IsDir() {
			a.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", p, ErrIsADirectory)
		}
		updated, uerr := a.svc.Update(n.ID, Update{Content: &content})
		if uerr != nil {
			a.mu.Unlock()
			return nil, fmt.Errorf("update %s: %w", p, uerr)
		}
		a.invalidateLocked(p)
		a.mu.Unlock()
		return updated, nil
	}
	a.mu.Unlock()
	return a.CreateFile(p, content, "text/plain")
}

// Delete removes the node at the given path. Directories are removed with
// their whole subtree.
func (a *Adapter) Delete(p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p = normalize(p)
	if p == "/" {
		return fmt.Errorf("cannot delete root")
	}
	n, err := a.findLocked(p)
	if err != nil {
		return err
	}
	if err := a.svc.Delete(n.ID); err != nil {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	a.invalidateLocked(ParentPath(p))
	log.Debug("vfs: deleted", "path", p)
	return nil
}

// Move relocates src to dst. When dst names an existing directory, src is
// moved into it keeping its name; otherwise src is moved next to dst's
// parent and renamed to dst's base name.
func (a *Adapter) Move(src, dst string) (*Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	src, dst = normalize(src), normalize(dst)
	n, err := a.findLocked(src)
	if err != nil {
		return nil, err
	}

	targetParent, newName, err := a.resolveTargetLocked(dst, n.Name)
	if err != nil {
		return nil, err
	}

	moved, err := a.svc.Move(n.ID, targetParent.ID)
	if err != nil {
		return nil, fmt.Errorf("move %s: %w", src, err)
	}
	if newName != moved.Name {
		moved, err = a.svc.Update(moved.ID, Update{Name: &newName})
		if err != nil {
			return nil, fmt.Errorf("rename %s: %w", src, err)
		}
	}
	a.invalidateLocked(ParentPath(src))
	a.invalidateLocked(src)
	a.invalidateLocked(dst)
	return moved, nil
}

// Copy duplicates src at dst, following the same target rules as Move.
func (a *Adapter) Copy(src, dst string) (*Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	src, dst = normalize(src), normalize(dst)
	n, err := a.findLocked(src)
	if err != nil {
		return nil, err
	}

	targetParent, newName, err := a.resolveTargetLocked(dst, n.Name)
	if err != nil {
		return nil, err
	}

	if newName == n.Name {
		newName = "" // collaborator keeps the original name
	}
	copied, err := a.svc.Copy(n.ID, targetParent.ID, newName)
	if err != nil {
		return nil, fmt.Errorf("copy %s: %w", src, err)
	}
	a.invalidateLocked(dst)
	return copied, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// splitForCreateLocked validates that p's parent exists and is a directory
// and that p itself is free.
func (a *Adapter) splitForCreateLocked(p string) (*Node, string, error) {
	if p == "/" {
		return nil, "", fmt.Errorf("/: %w", ErrExists)
	}
	if _, err := a.findLocked(p); err == nil {
		return nil, "", fmt.Errorf("%s: %w", p, ErrExists)
	}
	parent, err := a.findLocked(ParentPath(p))
	if err != nil {
		return nil, "", err
	}
	if !parent.IsDir() {
		return nil, "", fmt.Errorf("%s: %w", ParentPath(p), ErrNotADirectory)
	}
	return parent, BaseName(p), nil
}

// resolveTargetLocked interprets a move/copy destination: an existing
// directory means "into it, same name", anything else means "under dst's
// parent, renamed to dst's base".
func (a *Adapter) resolveTargetLocked(dst, defaultName string) (*Node, string, error) {
	if n, err := a.findLocked(dst); err == nil && n.IsDir() {
		return n, defaultName, nil
	}
	parent, err := a.findLocked(ParentPath(dst))
	if err != nil {
		return nil, "", err
	}
	if !parent.IsDir() {
		return nil, "", fmt.Errorf("%s: %w", ParentPath(dst), ErrNotADirectory)
	}
	return parent, BaseName(dst), nil
}

func (a *Adapter) cache(p string, n *Node) {
	a.byPath[p] = n
	a.pathByID[n.ID] = p
}

// invalidateLocked drops p and all of its descendants from both caches.
// The root node itself is re-cached immediately; its listing is not.
func (a *Adapter) invalidateLocked(p string) {
	prefix := p
	if prefix != "/" {
		prefix += "/"
	}
	for cached, n := range a.byPath {
		if cached == p || strings.HasPrefix(cached, prefix) {
			delete(a.byPath, cached)
			delete(a.pathByID, n.ID)
		}
	}
	if a.root != nil {
		a.cache("/", a.root)
	}
}
