// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vfs

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound indicates the named path or node does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrNotADirectory indicates a directory operation hit a file node.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIsADirectory indicates a file operation hit a directory node.
	ErrIsADirectory = errors.New("is a directory")

	// ErrExists indicates a create would collide with an existing name.
	ErrExists = errors.New("file exists")
)

// =============================================================================
// NODE MODEL
// =============================================================================

// NodeType distinguishes files from directories.
type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
)

// Node is one entry in the virtual filesystem. Nodes are addressed by ID;
// the hierarchy is expressed through ParentID links. The root node has an
// empty ParentID.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	ParentID string   `json:"parent_id"`
	MimeType string   `json:"mime_type,omitempty"`
	Content  string   `json:"content,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Type == TypeDirectory
}

// Update describes a partial update to a node. Nil fields are left
// untouched.
type Update struct {
	Name     *string
	Content  *string
	MimeType *string
}

// =============================================================================
// COLLABORATOR CONTRACT
// =============================================================================

// Service is the externally-hosted filesystem collaborator. Implementations
// must serialize concurrent calls from one session (at most one in-flight
// request) and must return an error rather than malformed data on failure.
type Service interface {
	// Init returns the root node, creating it if the store is empty.
	Init() (*Node, error)

	// List returns the direct children of the directory with the given ID.
	List(dirID string) ([]*Node, error)

	// Get returns the node with the given ID.
	Get(id string) (*Node, error)

	// CreateDirectory creates a directory under the given parent.
	CreateDirectory(name, parentID string) (*Node, error)

	// CreateFile creates a file under the given parent.
	CreateFile(name, parentID, content, mimeType string) (*Node, error)

	// Update applies a partial update to a node.
	Update(id string, upd Update) (*Node, error)

	// Delete removes a node. Deleting a directory removes its whole
	// subtree.
	Delete(id string) error

	// Copy duplicates a node (recursively for directories) under the
	// target parent. newName overrides the copied node's name when
	// non-empty.
	Copy(id, targetParentID, newName string) (*Node, error)

	// Move re-parents a node under the target parent.
	Move(id, targetParentID string) (*Node, error)
}
