// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vfs defines the virtual filesystem contract consumed by the
// terminal and the path-resolving adapter built on top of it.
//
// The Service interface mirrors the external collaborator: a flat store of
// nodes addressed by ID, where directories are nodes whose children point
// back at them via ParentID. The collaborator must serialize concurrent
// calls from one session and surface failures as distinguishable errors.
//
// The Adapter layers hierarchical path semantics over the flat store:
// relative/absolute path resolution, per-segment lookup with path<->ID
// caches, and the create/delete/move/copy operations the built-in commands
// use. Caches are invalidated for a path and all of its descendants on any
// mutation touching that path.
package vfs
