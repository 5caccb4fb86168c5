// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/config"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/util"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// ErrCommandNotFound indicates dispatch of a name with no registered
// command behind it (after alias expansion).
var ErrCommandNotFound = errors.New("command not found")

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Option declares a flag a command accepts. Flag is the bare name without
// dashes; single-character flags render as -x, longer ones as --name.
type Option struct {
	Flag        string
	Description string
	TakesValue  bool
}

// OptionValue is the tagged value of a parsed flag: either a bare flag
// (HasValue false) or a flag that consumed the following argument.
type OptionValue struct {
	HasValue bool
	Value    string
}

// Options maps flag names to their parsed values. Unrecognized flags are
// recorded too; option parsing is permissive.
type Options map[string]OptionValue

// Has reports whether the flag was present.
func (o Options) Has(flag string) bool {
	_, ok := o[flag]
	return ok
}

// Value returns the value consumed by the flag, or "".
func (o Options) Value(flag string) string {
	return o[flag].Value
}

// Invocation is one resolved command execution.
type Invocation struct {
	// Name is the resolved command name (after alias expansion).
	Name string

	// Args are the positional arguments, options removed.
	Args []string

	// Options holds the parsed flags.
	Options Options
}

// CompletionRequest is handed to a command's custom completer.
type CompletionRequest struct {
	CommandLine    string
	CursorPosition int
	PartialArg     string
}

// Command is a registered terminal command. Commands are immutable once
// registered; re-registration replaces by name.
type Command struct {
	Name        string
	Description string
	Usage       string
	Options     []Option

	// Run executes the command. Output goes through ctx.Session; a
	// returned error is reported by the dispatching layer as an
	// error-styled scrollback line.
	Run func(ctx *Context, inv *Invocation) error

	// Complete, when set, produces raw candidate strings for the argument
	// under the cursor. Candidates are re-quoted by the completion engine.
	Complete func(req CompletionRequest) ([]string, error)
}

// =============================================================================
// EXECUTION CONTEXT
// =============================================================================

// Context provides command executors access to the session and its
// collaborators. Fields may be nil in tests; executors check before use.
type Context struct {
	Session  *session.Session
	FS       *vfs.Adapter
	Registry *Registry
	Config   *config.Config

	// Quit requests the surrounding surface to close, when it supports
	// that.
	Quit func()
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry stores named commands and aliases. Aliases are resolved at
// dispatch time by exactly one hop; targets are arbitrary command lines
// whose arguments are prepended to the caller's.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	aliases  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command, replacing any previous one with the same name.
func (r *Registry) Register(cmd *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name] = cmd
}

// RegisterAll registers a command set in order.
func (r *Registry) RegisterAll(cmds []*Command) {
	for _, cmd := range cmds {
		r.Register(cmd)
	}
}

// Unregister removes a command by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, name)
}

// Get returns the command behind a name, following one alias hop. Nil when
// nothing is registered under the resolved name.
func (r *Registry) Get(name string) *Command {
	cmd, _, _ := r.Resolve(name, nil)
	return cmd
}

// Has reports whether name resolves to a registered command.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// RegisterAlias maps an alias to a target command line.
func (r *Registry) RegisterAlias(alias, targetLine string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = targetLine
}

// UnregisterAlias removes an alias.
func (r *Registry) UnregisterAlias(alias string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.aliases, alias)
}

// AliasTarget returns the target line of an alias.
func (r *Registry) AliasTarget(alias string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.aliases[alias]
	return t, ok
}

// Aliases returns a snapshot of all aliases.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AliasNames returns all alias names, sorted.
func (r *Registry) AliasNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.aliases))
	for name := range r.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a name to its command, expanding an alias by one hop. The
// alias target line is tokenized; its arguments are prepended to args.
func (r *Registry) Resolve(name string, args []string) (*Command, []string, error) {
	r.mu.RLock()
	cmd, isCmd := r.commands[name]
	target, isAlias := r.aliases[name]
	r.mu.RUnlock()

	if isCmd {
		return cmd, args, nil
	}
	if isAlias {
		parsed := ParseCommandLine(target)
		expanded := append(append([]string{}, parsed.Args...), args...)
		r.mu.RLock()
		cmd, isCmd = r.commands[parsed.Command]
		r.mu.RUnlock()
		if !isCmd {
			return nil, nil, fmt.Errorf("%s: %w", parsed.Command, ErrCommandNotFound)
		}
		return cmd, expanded, nil
	}
	return nil, nil, fmt.Errorf("%s: %w", name, ErrCommandNotFound)
}

// Execute resolves and dispatches a command. Registry state is never
// mutated by dispatch.
func (r *Registry) Execute(ctx *Context, name string, args []string) error {
	cmd, fullArgs, err := r.Resolve(name, args)
	if err != nil {
		return err
	}
	positional, opts := ParseOptions(cmd, fullArgs)
	return cmd.Run(ctx, &Invocation{
		Name:    cmd.Name,
		Args:    positional,
		Options: opts,
	})
}

// =============================================================================
// OPTION PARSING
// =============================================================================

// ParseOptions splits raw arguments into positional arguments and parsed
// flags. "--flag" is a long option; "-xyz" is a cluster of short flags.
// A flag the command declares with TakesValue consumes the next raw
// argument. Unrecognized flags are recorded as bare flags rather than
// rejected.
func ParseOptions(cmd *Command, args []string) ([]string, Options) {
	takesValue := make(map[string]bool)
	if cmd != nil {
		for _, o := range cmd.Options {
			takesValue[o.Flag] = o.TakesValue
		}
	}

	positional := []string{}
	opts := make(Options)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-" || arg == "--":
			positional = append(positional, arg)

		case strings.HasPrefix(arg, "--"):
			name := arg[2:]
			if takesValue[name] && i+1 < len(args) {
				i++
				opts[name] = OptionValue{HasValue: true, Value: args[i]}
			} else {
				opts[name] = OptionValue{}
			}

		case strings.HasPrefix(arg, "-"):
			for _, r := range arg[1:] {
				flag := string(r)
				if takesValue[flag] && i+1 < len(args) {
					i++
					opts[flag] = OptionValue{HasValue: true, Value: args[i]}
				} else {
					opts[flag] = OptionValue{}
				}
			}

		default:
			positional = append(positional, arg)
		}
	}
	return positional, opts
}

// =============================================================================
// HELP TEXT
// =============================================================================

// HelpFor renders usage and options for one command.
func (r *Registry) HelpFor(name string) (string, error) {
	cmd, _, err := r.Resolve(name, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	fmt.Fprintf(&b, "usage: %s\n", usage)
	if cmd.Description != "" {
		fmt.Fprintf(&b, "  %s\n", cmd.Description)
	}
	if len(cmd.Options) > 0 {
		b.WriteString("options:\n")
		width := 0
		rendered := make([]string, len(cmd.Options))
		for i, o := range cmd.Options {
			rendered[i] = renderFlag(o.Flag)
			if w := util.StringWidth(rendered[i]); w > width {
				width = w
			}
		}
		for i, o := range cmd.Options {
			fmt.Fprintf(&b, "  %s  %s\n", util.PadRight(rendered[i], width), o.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// HelpAll renders the alphabetical listing of all commands with their
// descriptions.
func (r *Registry) HelpAll() string {
	names := r.Names()
	width := 0
	for _, name := range names {
		if w := util.StringWidth(name); w > width {
			width = w
		}
	}

	var b strings.Builder
	for _, name := range names {
		r.mu.RLock()
		cmd := r.commands[name]
		r.mu.RUnlock()
		fmt.Fprintf(&b, "%s  %s\n", util.PadRight(name, width), cmd.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderFlag renders a flag name with its dashes.
func renderFlag(flag string) string {
	if len(flag) == 1 {
		return "-" + flag
	}
	return "--" + flag
}
