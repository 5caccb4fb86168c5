// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"reflect"
	"testing"
)

// =============================================================================
// TOKENIZER TESTS
// =============================================================================

func TestParseArgumentsValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t  ", nil},
		{"simple split", "ls -l /Documents", []string{"ls", "-l", "/Documents"}},
		{"collapsed whitespace", "  echo \t hello  ", []string{"echo", "hello"}},
		{"single quotes", "cd 'My Folder'", []string{"cd", "My Folder"}},
		{"double quotes", `echo "hello world"`, []string{"echo", "hello world"}},
		{"escaped quote outside", `echo \"hello\" world`, []string{"echo", `"hello"`, "world"}},
		{"escaped space", `cd My\ Folder`, []string{"cd", "My Folder"}},
		{"escape inside single quotes", `echo 'it\'s'`, []string{"echo", "it's"}},
		{"escaped backslash", `echo a\\b`, []string{"echo", `a\b`}},
		{"opposite quote is literal", `echo "it's fine"`, []string{"echo", "it's fine"}},
		{"quote glue", `echo pre'mid'post`, []string{"echo", "premidpost"}},
		{"adjacent quoted regions", `echo 'a b'"c d"`, []string{"echo", "a bc d"}},
		{"unterminated quote", "echo 'abc", []string{"echo", "abc"}},
		{"unterminated quote with space", "cd 'Documents/My Fol", []string{"cd", "Documents/My Fol"}},
		{"trailing backslash stays literal", `echo abc\`, []string{"echo", `abc\`}},
		{"lone backslash", `\`, []string{`\`}},
		{"empty quotes make a token", "echo ''", []string{"echo", ""}},
		{"newline splits", "echo a\nb", []string{"echo", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ParseArguments(tt.input)
			if tt.want == nil {
				if len(got) != 0 {
					t.Fatalf("ParseArguments(%q) = %v, want none", tt.input, got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseArguments(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseArgumentsOffsets(t *testing.T) {
	//       0123456789012345678901
	input := `cd 'My Folder' extra`
	_, tokens := ParseArguments(input)
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3", len(tokens))
	}

	checks := []struct {
		value      string
		start, end int
		quoted     bool
		quoteChar  byte
	}{
		{"cd", 0, 2, false, 0},
		{"My Folder", 3, 14, true, '\''},
		{"extra", 15, 20, false, 0},
	}
	for i, want := range checks {
		tok := tokens[i]
		if tok.Value != want.value || tok.StartIndex != want.start || tok.EndIndex != want.end {
			t.Errorf("token %d = %q [%d,%d), want %q [%d,%d)",
				i, tok.Value, tok.StartIndex, tok.EndIndex, want.value, want.start, want.end)
		}
		if tok.Quoted != want.quoted || tok.QuoteChar != want.quoteChar {
			t.Errorf("token %d quoting = (%v, %q), want (%v, %q)",
				i, tok.Quoted, tok.QuoteChar, want.quoted, want.quoteChar)
		}
	}

	// The range covers the source text exactly, opening quote included.
	if got := input[tokens[1].StartIndex:tokens[1].EndIndex]; got != "'My Folder'" {
		t.Errorf("source slice = %q, want %q", got, "'My Folder'")
	}
}

func TestParseArgumentsEscapedTokenStart(t *testing.T) {
	// The escaped space is literal and the following text glues onto the
	// same token.
	_, tokens := ParseArguments(`\ leading`)
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens, want 1", len(tokens))
	}
	if tokens[0].Value != " leading" || tokens[0].StartIndex != 0 || tokens[0].EndIndex != 9 {
		t.Errorf("token = %q at [%d,%d), want %q at [0,9)",
			tokens[0].Value, tokens[0].StartIndex, tokens[0].EndIndex, " leading")
	}

	// An unescaped space after the escaped one is a real separator.
	args, _ := ParseArguments(`\  leading`)
	if !reflect.DeepEqual(args, []string{" ", "leading"}) {
		t.Errorf("args = %q, want [%q %q]", args, " ", "leading")
	}
}

func TestParseArgumentsQuoteCharIsFirstSeen(t *testing.T) {
	_, tokens := ParseArguments(`echo 'a'"b"`)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(tokens))
	}
	if tokens[1].QuoteChar != '\'' {
		t.Errorf("QuoteChar = %q, want the first quote seen", tokens[1].QuoteChar)
	}
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		input   string
		command string
		args    []string
	}{
		{"", "", nil},
		{"   ", "", nil},
		{"pwd", "pwd", []string{}},
		{"mv 'a b' c", "mv", []string{"a b", "c"}},
	}
	for _, tt := range tests {
		got := ParseCommandLine(tt.input)
		if got.Command != tt.command {
			t.Errorf("ParseCommandLine(%q).Command = %q, want %q", tt.input, got.Command, tt.command)
		}
		if tt.args == nil {
			if len(got.Args) != 0 {
				t.Errorf("ParseCommandLine(%q).Args = %v, want none", tt.input, got.Args)
			}
		} else if !reflect.DeepEqual(got.Args, tt.args) {
			t.Errorf("ParseCommandLine(%q).Args = %v, want %v", tt.input, got.Args, tt.args)
		}
	}
}

// =============================================================================
// QUOTING TESTS
// =============================================================================

func TestQuoteIfNeeded(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"path/with/slashes", "path/with/slashes"},
		{"My Folder", "'My Folder'"},
		{`tab	here`, "'tab\there'"},
		{`has"double`, `'has"double'`},
		{"it's", `"it's"`},
		{`mixed 'and" both`, `"mixed 'and\" both"`},
		{`back\slash`, `'back\\slash'`},
		{"glob*", "'glob*'"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := QuoteIfNeeded(tt.in); got != tt.want {
			t.Errorf("QuoteIfNeeded(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Every quoted value must survive a round trip through the tokenizer as a
// single token with the original value.
func TestQuoteRoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"My Folder",
		"it's",
		`quote " and space`,
		`back\slash`,
		`tricky \' mix`,
		`'already quoted'`,
		"Documents/My Folder/Another Folder/",
	}
	for _, v := range values {
		quoted := QuoteIfNeeded(v)
		args, _ := ParseArguments(quoted)
		if len(args) != 1 {
			t.Errorf("round trip of %q: got %d tokens from %q", v, len(args), quoted)
			continue
		}
		if args[0] != v {
			t.Errorf("round trip of %q: got %q back from %q", v, args[0], quoted)
		}
	}
}
