// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command-line core of the terminal: the
// tokenizer, the command registry with alias expansion and option parsing,
// the tab-completion engine, and the built-in command set.
//
// # Key Types
//
//   - Token: one parsed argument with quoting metadata and source offsets
//   - Registry: named commands plus one-hop alias resolution and dispatch
//   - Completer: candidate generation with cursor-relative replace ranges
//   - Context: dependencies handed to command executors
//
// # Grammar
//
// The tokenizer implements a constrained shell grammar: a single command
// with a flat argument list, single- and double-quoting, and backslash
// escaping. Escapes behave identically inside and outside quotes. Closing
// a quote does not end the token; adjacent quoted regions glue onto the
// same token. This glue rule is a deliberate non-POSIX choice the
// completion engine depends on.
package commands
