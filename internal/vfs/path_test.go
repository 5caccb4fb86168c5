// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vfs

import (
	"reflect"
	"testing"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		path string
		cwd  string
		want string
	}{
		{"/", "/", "/"},
		{"", "/Documents", "/Documents"},
		{"~", "/Documents", "/"},
		{"~/Pictures", "/Documents", "/Pictures"},
		{"/a/b/c", "/", "/a/b/c"},
		{"/a/./b", "/", "/a/b"},
		{"/a/../b", "/", "/b"},
		{"/../..", "/", "/"},           // ".." clamps at root
		{"/a/../../b", "/", "/b"},      // ditto
		{"b", "/a", "/a/b"},
		{"..", "/a/b", "/a"},
		{".", "/a/b", "/a/b"},
		{"../c", "/a/b", "/a/c"},
		{"x/y/", "/a", "/a/x/y"},
		{"My Folder", "/Documents", "/Documents/My Folder"},
	}

	for _, tc := range tests {
		got := ResolvePath(tc.path, tc.cwd)
		if got != tc.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", tc.path, tc.cwd, got, tc.want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", nil},
		{"/a", []string{"a"}},
		{"/a/b/c", []string{"a", "b", "c"}},
		{"/Documents/My Folder", []string{"Documents", "My Folder"}},
	}

	for _, tc := range tests {
		got := SplitPath(tc.path)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestJoinParentBase(t *testing.T) {
	if got := JoinPath("/", "a"); got != "/a" {
		t.Errorf("JoinPath(/, a) = %q", got)
	}
	if got := JoinPath("/a", "b"); got != "/a/b" {
		t.Errorf("JoinPath(/a, b) = %q", got)
	}
	if got := ParentPath("/a/b"); got != "/a" {
		t.Errorf("ParentPath(/a/b) = %q", got)
	}
	if got := ParentPath("/"); got != "/" {
		t.Errorf("ParentPath(/) = %q", got)
	}
	if got := BaseName("/a/b"); got != "b" {
		t.Errorf("BaseName(/a/b) = %q", got)
	}
	if got := BaseName("/"); got != "/" {
		t.Errorf("BaseName(/) = %q", got)
	}
}
