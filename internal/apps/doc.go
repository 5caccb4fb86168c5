// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apps contains full-screen sub-applications that take over the
// terminal surface while active. While a sub-application runs, the session
// routes every keystroke to it and renders whatever it returns instead of
// the scrollback.
package apps
