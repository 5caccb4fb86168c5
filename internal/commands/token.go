// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
)

// =============================================================================
// TOKEN MODEL
// =============================================================================

// Token is one parsed command-name or argument unit. StartIndex and
// EndIndex are byte offsets into the source string, half-open
// [StartIndex, EndIndex), covering the token from its first character
// (which may be a quote or backslash) through its last consumed character.
type Token struct {
	Value      string
	StartIndex int
	EndIndex   int
	Quoted     bool
	QuoteChar  byte // first quote character seen, when Quoted
}

// ParsedLine is a command line split into command and arguments.
type ParsedLine struct {
	Command string
	Args    []string
}

// =============================================================================
// TOKENIZER
// =============================================================================

// ParseArguments tokenizes a raw command line. Parse leniency: unterminated
// quotes and a trailing backslash never fail; the partial content collected
// so far becomes the token value.
func ParseArguments(input string) ([]string, []Token) {
	var tokens []Token
	var value strings.Builder

	inToken := false
	start := 0
	quoted := false
	var quoteChar byte
	var openQuote byte // current unmatched quote, 0 when outside quotes
	escaped := false

	open := func(i int) {
		if !inToken {
			inToken = true
			start = i
		}
	}

	flush := func(end int) {
		if !inToken {
			return
		}
		tokens = append(tokens, Token{
			Value:      value.String(),
			StartIndex: start,
			EndIndex:   end,
			Quoted:     quoted,
			QuoteChar:  quoteChar,
		})
		value.Reset()
		inToken = false
		quoted = false
		quoteChar = 0
	}

	for i := 0; i < len(input); i++ {
		c := input[i]

		if escaped {
			// The escaped character is appended literally, whether it is
			// a backslash, a quote, or whitespace.
			value.WriteByte(c)
			escaped = false
			continue
		}

		switch {
		case c == '\\':
			open(i)
			escaped = true

		case openQuote != 0:
			if c == openQuote {
				// Closing a quote does not end the token; text may
				// continue and concatenate onto the same token.
				openQuote = 0
			} else {
				value.WriteByte(c)
			}

		case c == '\'' || c == '"':
			open(i)
			quoted = true
			if quoteChar == 0 {
				quoteChar = c
			}
			openQuote = c

		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			flush(i)

		default:
			open(i)
			value.WriteByte(c)
		}
	}

	// A trailing unescaped backslash escapes nothing and stays literal.
	if escaped {
		value.WriteByte('\\')
	}
	flush(len(input))

	args := make([]string, len(tokens))
	for i, t := range tokens {
		args[i] = t.Value
	}
	return args, tokens
}

// ParseCommandLine splits input into a command name and its arguments.
// Empty or whitespace-only input yields an empty command and no args.
func ParseCommandLine(input string) ParsedLine {
	args, _ := ParseArguments(input)
	if len(args) == 0 {
		return ParsedLine{}
	}
	return ParsedLine{Command: args[0], Args: args[1:]}
}

// =============================================================================
// QUOTING
// =============================================================================

// quoteTriggers are the characters that force a completion candidate (or
// any argument) to be quoted before insertion into a command line.
const quoteTriggers = " \t\r\n'\"\\$`*?[]"

// NeedsQuoting reports whether a value must be quoted to survive
// re-tokenization as a single token.
func NeedsQuoting(s string) bool {
	return strings.ContainsAny(s, quoteTriggers)
}

// Quote wraps a value in quotes unconditionally. Single quotes are
// preferred; double quotes are used when the value itself contains a single
// quote. Backslashes are escaped in either form because the grammar honors
// escapes inside quotes.
func Quote(s string) string {
	if strings.Contains(s, "'") {
		return quoteDouble(s)
	}
	return "'" + strings.ReplaceAll(s, `\`, `\\`) + "'"
}

func quoteDouble(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// QuoteIfNeeded wraps a value in quotes when it contains characters with
// special meaning.
func QuoteIfNeeded(s string) string {
	if !NeedsQuoting(s) {
		return s
	}
	return Quote(s)
}
