// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the terminal core.
//
// It contains an atomic file writer used by configuration persistence and
// rune-aware string helpers used by the UI layer. Nothing in this package
// knows about sessions, commands, or the virtual filesystem.
package util
