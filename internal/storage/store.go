// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage hosts the virtual filesystem in an embedded SQLite
// database. Store implements the vfs.Service contract: nodes are addressed
// by ID, the hierarchy lives in parent_id links, and every call is
// serialized so at most one request is in flight at a time.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// Schema is the node table layout.
const Schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	type       TEXT NOT NULL,
	mime_type  TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id);
`

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed filesystem collaborator.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes all calls: at most one in-flight request
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debug("filesystem store opened", "path", path)
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// =============================================================================
// SERVICE CONTRACT
// =============================================================================

// Init returns the root node, creating it on first use.
func (s *Store) Init() (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.rootLocked()
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, vfs.ErrNotFound) {
		return nil, err
	}

	root = &vfs.Node{ID: uuid.NewString(), Name: "/", Type: vfs.TypeDirectory}
	if err := s.insertLocked(root); err != nil {
		return nil, err
	}
	log.Info("filesystem root created", "id", root.ID)
	return root, nil
}

// List returns the direct children of a directory, unordered.
func (s *Store) List(dirID string) ([]*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getLocked(dirID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, parent_id, name, type, mime_type, content FROM nodes WHERE parent_id = ?`, dirID)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	defer rows.Close()

	var out []*vfs.Node
	for rows.Next() {
		n := &vfs.Node{}
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Name, &n.Type, &n.MimeType, &n.Content); err != nil {
			return nil, fmt.Errorf("list scan failed: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Get returns one node by ID.
func (s *Store) Get(id string) (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

// CreateDirectory creates a directory node under parentID.
func (s *Store) CreateDirectory(name, parentID string) (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &vfs.Node{ID: uuid.NewString(), Name: name, Type: vfs.TypeDirectory, ParentID: parentID}
	if err := s.insertLocked(n); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateFile creates a file node under parentID.
func (s *Store) CreateFile(name, parentID, content, mimeType string) (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &vfs.Node{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     vfs.TypeFile,
		ParentID: parentID,
		Content:  content,
		MimeType: mimeType,
	}
	if err := s.insertLocked(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Update applies a partial update; nil fields are untouched.
func (s *Store) Update(id string, upd vfs.Update) (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.getLocked(id)
	if err != nil {
		return nil, err
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

	_, err = s.db.Exec(
		`UPDATE nodes SET name = ?, content = ?, mime_type = ?, updated_at = ? WHERE id = ?`,
		n.Name, n.Content, n.MimeType, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	return n, nil
}

// Delete removes a node and, for directories, its whole subtree.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getLocked(id); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM nodes WHERE id = ?
			UNION ALL
			SELECT n.id FROM nodes n JOIN subtree s ON n.parent_id = s.id
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM subtree)`, id)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// Copy duplicates a node under targetParentID, recursively for directories.
// newName overrides the copied node's name when non-empty.
func (s *Store) Copy(id, targetParentID, newName string) (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked(id, targetParentID, newName)
}

// Move re-parents a node under targetParentID.
func (s *Store) Move(id, targetParentID string) (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.getLocked(targetParentID); err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`UPDATE nodes SET parent_id = ?, updated_at = ? WHERE id = ?`,
		targetParentID, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("move failed: %w", err)
	}
	n.ParentID = targetParentID
	return n, nil
}

// =============================================================================
// SEEDING
// =============================================================================

const welcomeContent = `# Welcome

This is your home folder. Try:

    ls
    cd Documents
    cat /README.md
    help
`

// Seed populates a fresh store with the default desktop tree. A store that
// already has entries under the root is left alone.
func (s *Store) Seed() error {
	root, err := s.Init()
	if err != nil {
		return err
	}

	children, err := s.List(root.ID)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return nil
	}

	docs, err := s.CreateDirectory("Documents", root.ID)
	if err != nil {
		return err
	}
	if _, err := s.CreateDirectory("My Folder", docs.ID); err != nil {
		return err
	}
	if _, err := s.CreateDirectory("Pictures", root.ID); err != nil {
		return err
	}
	if _, err := s.CreateFile("README.md", root.ID, welcomeContent, "text/markdown"); err != nil {
		return err
	}
	log.Info("filesystem seeded with default tree")
	return nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Store) rootLocked() (*vfs.Node, error) {
	row := s.db.QueryRow(
		`SELECT id, parent_id, name, type, mime_type, content FROM nodes WHERE parent_id = '' LIMIT 1`)
	return scanNode(row)
}

func (s *Store) getLocked(id string) (*vfs.Node, error) {
	row := s.db.QueryRow(
		`SELECT id, parent_id, name, type, mime_type, content FROM nodes WHERE id = ?`, id)
	return scanNode(row)
}

func (s *Store) insertLocked(n *vfs.Node) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO nodes (id, parent_id, name, type, mime_type, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ParentID, n.Name, string(n.Type), n.MimeType, n.Content, now, now)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

func (s *Store) copyLocked(id, targetParentID, newName string) (*vfs.Node, error) {
	src, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.getLocked(targetParentID); err != nil {
		return nil, err
	}

	name := src.Name
	if newName != "" {
		name = newName
	}
	dup := &vfs.Node{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     src.Type,
		ParentID: targetParentID,
		MimeType: src.MimeType,
		Content:  src.Content,
	}
	if err := s.insertLocked(dup); err != nil {
		return nil, err
	}

	if src.IsDir() {
		rows, err := s.db.Query(`SELECT id FROM nodes WHERE parent_id = ?`, src.ID)
		if err != nil {
			return nil, fmt.Errorf("copy listing failed: %w", err)
		}
		var childIDs []string
		for rows.Next() {
			var childID string
			if err := rows.Scan(&childID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("copy scan failed: %w", err)
			}
			childIDs = append(childIDs, childID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		for _, childID := range childIDs {
			if _, err := s.copyLocked(childID, dup.ID, ""); err != nil {
				return nil, err
			}
		}
	}
	return dup, nil
}

func scanNode(row *sql.Row) (*vfs.Node, error) {
	n := &vfs.Node{}
	err := row.Scan(&n.ID, &n.ParentID, &n.Name, &n.Type, &n.MimeType, &n.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vfs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return n, nil
}
