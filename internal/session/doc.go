// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the stateful container behind one terminal
// surface.
//
// A Session owns the scrollback buffer, command history with a navigation
// cursor, the environment variable map, the prompt template, and the
// working directory. It also hosts at most one full-screen sub-application
// at a time and implements the suspend/resume protocol used by interactive
// reads: ReadLine and WaitForKey park the calling goroutine on a one-slot
// channel until the UI layer calls the matching resolve entry point.
//
// Scrollback mutations notify registered listeners so the UI can redraw.
// All methods are safe for use from the UI goroutine and command executor
// goroutines concurrently.
package session
