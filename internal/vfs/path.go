// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vfs

import (
	"path"
	"strings"
)

// ResolvePath turns a user-supplied path into a normalized absolute path.
//
//   - absolute paths ("/...") are normalized segment-wise, with ".."
//     clamped at the root rather than erroring
//   - "~" and "~/..." map to the root
//   - anything else is joined onto cwd
func ResolvePath(p, cwd string) string {
	if cwd == "" {
		cwd = "/"
	}
	switch {
	case p == "":
		return normalize(cwd)
	case p == "~":
		return "/"
	case strings.HasPrefix(p, "~/"):
		return normalize("/" + p[2:])
	case strings.HasPrefix(p, "/"):
		return normalize(p)
	default:
		return normalize(path.Join(cwd, p))
	}
}

// normalize cleans an absolute path. path.Clean already clamps ".." at the
// root for rooted paths ("/a/../../b" -> "/b").
func normalize(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// SplitPath returns the segments of a normalized absolute path. The root
// path yields no segments.
func SplitPath(p string) []string {
	p = strings.Trim(normalize(p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// JoinPath joins a parent path and a child name.
func JoinPath(parent, name string) string {
	if parent == "/" || parent == "" {
		return "/" + name
	}
	return parent + "/" + name
}

// ParentPath returns the parent of a normalized absolute path. The root is
// its own parent.
func ParentPath(p string) string {
	return normalize(path.Dir(normalize(p)))
}

// BaseName returns the last segment of a path, or "/" for the root.
func BaseName(p string) string {
	return path.Base(normalize(p))
}
