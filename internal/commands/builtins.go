// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/apps"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// =============================================================================
// BUILTIN COMMANDS
// =============================================================================

// RegisterBuiltins installs the built-in command set. It takes the registry
// directly so the help command can complete against whatever ends up
// registered, including commands added later.
func RegisterBuiltins(r *Registry) {
	r.RegisterAll([]*Command{
		helpCommand(r),
		clearCommand(),
		echoCommand(),
		pwdCommand(),
		cdCommand(),
		lsCommand(),
		catCommand(),
		mkdirCommand(),
		touchCommand(),
		rmCommand(),
		mvCommand(),
		cpCommand(),
		envCommand(),
		exportCommand(),
		unsetCommand(),
		aliasCommand(),
		unaliasCommand(r),
		historyCommand(),
		dateCommand(),
		whoamiCommand(),
		readCommand(),
		viewCommand(),
		exitCommand(),
	})
}

// =============================================================================
// GENERAL
// =============================================================================

func helpCommand(r *Registry) *Command {
	return &Command{
		Name:        "help",
		Description: "List commands or show usage for one command",
		Usage:       "help [command]",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				writeBlock(ctx.Session, ctx.Registry.HelpAll())
				return nil
			}
			text, err := ctx.Registry.HelpFor(inv.Args[0])
			if err != nil {
				return fmt.Errorf("help: no such command: %s", inv.Args[0])
			}
			writeBlock(ctx.Session, text)
			return nil
		},
		Complete: func(req CompletionRequest) ([]string, error) {
			return append(r.Names(), r.AliasNames()...), nil
		},
	}
}

func clearCommand() *Command {
	return &Command{
		Name:        "clear",
		Description: "Clear the terminal scrollback",
		Usage:       "clear",
		Run: func(ctx *Context, inv *Invocation) error {
			ctx.Session.ClearScrollback()
			return nil
		},
	}
}

func echoCommand() *Command {
	return &Command{
		Name:        "echo",
		Description: "Print arguments to the terminal",
		Usage:       "echo [text...]",
		Run: func(ctx *Context, inv *Invocation) error {
			ctx.Session.WriteLine(strings.Join(inv.Args, " "), session.LineOutput, "")
			return nil
		},
	}
}

func dateCommand() *Command {
	return &Command{
		Name:        "date",
		Description: "Print the current date and time",
		Usage:       "date",
		Run: func(ctx *Context, inv *Invocation) error {
			ctx.Session.WriteLine(time.Now().Format("Mon Jan  2 15:04:05 MST 2006"), session.LineOutput, "")
			return nil
		},
	}
}

func whoamiCommand() *Command {
	return &Command{
		Name:        "whoami",
		Description: "Print the current user name",
		Usage:       "whoami",
		Run: func(ctx *Context, inv *Invocation) error {
			user := ctx.Session.GetEnv("USER")
			if user == "" {
				user = "user"
			}
			ctx.Session.WriteLine(user, session.LineOutput, "")
			return nil
		},
	}
}

func exitCommand() *Command {
	return &Command{
		Name:        "exit",
		Description: "Close the terminal",
		Usage:       "exit",
		Run: func(ctx *Context, inv *Invocation) error {
			if ctx.Quit != nil {
				ctx.Quit()
			}
			return nil
		},
	}
}

// =============================================================================
// FILESYSTEM
// =============================================================================

func pwdCommand() *Command {
	return &Command{
		Name:        "pwd",
		Description: "Print the working directory",
		Usage:       "pwd",
		Run: func(ctx *Context, inv *Invocation) error {
			ctx.Session.WriteLine(ctx.Session.WorkingDirectory(), session.LineOutput, "")
			return nil
		},
	}
}

func cdCommand() *Command {
	return &Command{
		Name:        "cd",
		Description: "Change the working directory",
		Usage:       "cd [directory]",
		Run: func(ctx *Context, inv *Invocation) error {
			// Bare cd goes home.
			target := "~"
			if len(inv.Args) > 0 {
				target = inv.Args[0]
			}
			p := vfs.ResolvePath(target, ctx.Session.WorkingDirectory())
			node, err := ctx.FS.FindByPath(p)
			if err != nil {
				return fmt.Errorf("cd: %s: directory not found", target)
			}
			if !node.IsDir() {
				return fmt.Errorf("cd: %s: not a directory", target)
			}
			ctx.Session.SetWorkingDirectory(p)
			return nil
		},
	}
}

func lsCommand() *Command {
	return &Command{
		Name:        "ls",
		Description: "List directory contents",
		Usage:       "ls [-la] [path]",
		Options: []Option{
			{Flag: "l", Description: "long listing"},
			{Flag: "a", Description: "include hidden entries"},
		},
		Run: func(ctx *Context, inv *Invocation) error {
			target := ""
			if len(inv.Args) > 0 {
				target = inv.Args[0]
			}
			p := vfs.ResolvePath(target, ctx.Session.WorkingDirectory())
			entries, err := ctx.FS.ListDirectory(p)
			if err != nil {
				return fmt.Errorf("ls: %s: %v", target, err)
			}

			for _, entry := range entries {
				if !inv.Options.Has("a") && strings.HasPrefix(entry.Name, ".") {
					continue
				}
				name := entry.Name
				style := "file"
				if entry.IsDir() {
					name += "/"
					style = "dir"
				}
				if inv.Options.Has("l") {
					mode := "-rw-"
					if entry.IsDir() {
						mode = "drwx"
					}
					ctx.Session.WriteSpans(session.LineOutput,
						session.Span{Text: fmt.Sprintf("%s %6d  ", mode, len(entry.Content)), Style: "dim"},
						session.Span{Text: name, Style: style},
					)
				} else {
					ctx.Session.WriteLine(name, session.LineOutput, style)
				}
			}
			return nil
		},
	}
}

func catCommand() *Command {
	return &Command{
		Name:        "cat",
		Description: "Print file contents",
		Usage:       "cat <file>...",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("cat: missing file operand")
			}
			for _, arg := range inv.Args {
				p := vfs.ResolvePath(arg, ctx.Session.WorkingDirectory())
				node, err := ctx.FS.ReadFile(p)
				if err != nil {
					return fmt.Errorf("cat: %s: %v", arg, err)
				}
				writeBlock(ctx.Session, node.Content)
			}
			return nil
		},
	}
}

func mkdirCommand() *Command {
	return &Command{
		Name:        "mkdir",
		Description: "Create directories",
		Usage:       "mkdir [-p] <directory>...",
		Options: []Option{
			{Flag: "p", Description: "create missing parents, ignore existing"},
		},
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("mkdir: missing operand")
			}
			for _, arg := range inv.Args {
				p := vfs.ResolvePath(arg, ctx.Session.WorkingDirectory())
				if inv.Options.Has("p") {
					if err := mkdirAll(ctx.FS, p); err != nil {
						return fmt.Errorf("mkdir: %s: %v", arg, err)
					}
					continue
				}
				if _, err := ctx.FS.CreateDirectory(p); err != nil {
					return fmt.Errorf("mkdir: %s: %v", arg, err)
				}
			}
			return nil
		},
	}
}

// mkdirAll creates every missing directory along p, tolerating segments
// that already exist as directories.
func mkdirAll(fs *vfs.Adapter, p string) error {
	partial := ""
	for _, seg := range vfs.SplitPath(p) {
		partial = vfs.JoinPath(partial, seg)
		if node, err := fs.FindByPath(partial); err == nil {
			if !node.IsDir() {
				return vfs.ErrNotADirectory
			}
			continue
		}
		if _, err := fs.CreateDirectory(partial); err != nil {
			return err
		}
	}
	return nil
}

func touchCommand() *Command {
	return &Command{
		Name:        "touch",
		Description: "Create empty files",
		Usage:       "touch <file>...",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("touch: missing file operand")
			}
			for _, arg := range inv.Args {
				p := vfs.ResolvePath(arg, ctx.Session.WorkingDirectory())
				if ctx.FS.Exists(p) {
					continue
				}
				if _, err := ctx.FS.CreateFile(p, "", "text/plain"); err != nil {
					return fmt.Errorf("touch: %s: %v", arg, err)
				}
			}
			return nil
		},
	}
}

func rmCommand() *Command {
	return &Command{
		Name:        "rm",
		Description: "Remove files or directories",
		Usage:       "rm [-r] <path>...",
		Options: []Option{
			{Flag: "r", Description: "remove directories recursively"},
		},
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("rm: missing operand")
			}
			for _, arg := range inv.Args {
				p := vfs.ResolvePath(arg, ctx.Session.WorkingDirectory())
				node, err := ctx.FS.FindByPath(p)
				if err != nil {
					return fmt.Errorf("rm: %s: %v", arg, err)
				}
				if node.IsDir() && !inv.Options.Has("r") {
					return fmt.Errorf("rm: %s: is a directory", arg)
				}
				if err := ctx.FS.Delete(p); err != nil {
					return fmt.Errorf("rm: %s: %v", arg, err)
				}
			}
			return nil
		},
	}
}

func mvCommand() *Command {
	return &Command{
		Name:        "mv",
		Description: "Move or rename a file or directory",
		Usage:       "mv <source> <destination>",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) != 2 {
				return fmt.Errorf("mv: expected source and destination")
			}
			cwd := ctx.Session.WorkingDirectory()
			src := vfs.ResolvePath(inv.Args[0], cwd)
			dst := vfs.ResolvePath(inv.Args[1], cwd)
			if _, err := ctx.FS.Move(src, dst); err != nil {
				return fmt.Errorf("mv: %v", err)
			}
			return nil
		},
	}
}

func cpCommand() *Command {
	return &Command{
		Name:        "cp",
		Description: "Copy a file or directory",
		Usage:       "cp <source> <destination>",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) != 2 {
				return fmt.Errorf("cp: expected source and destination")
			}
			cwd := ctx.Session.WorkingDirectory()
			src := vfs.ResolvePath(inv.Args[0], cwd)
			dst := vfs.ResolvePath(inv.Args[1], cwd)
			if _, err := ctx.FS.Copy(src, dst); err != nil {
				return fmt.Errorf("cp: %v", err)
			}
			return nil
		},
	}
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func envCommand() *Command {
	return &Command{
		Name:        "env",
		Description: "List environment variables",
		Usage:       "env",
		Run: func(ctx *Context, inv *Invocation) error {
			environ := ctx.Session.Environ()
			keys := make([]string, 0, len(environ))
			for k := range environ {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				ctx.Session.WriteLine(k+"="+environ[k], session.LineOutput, "")
			}
			return nil
		},
	}
}

func exportCommand() *Command {
	return &Command{
		Name:        "export",
		Description: "Set an environment variable",
		Usage:       "export NAME=value",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("export: expected NAME=value")
			}
			for _, arg := range inv.Args {
				name, value, ok := strings.Cut(arg, "=")
				if !ok || name == "" {
					return fmt.Errorf("export: invalid assignment: %s", arg)
				}
				ctx.Session.SetEnv(name, value)
			}
			return nil
		},
	}
}

func unsetCommand() *Command {
	return &Command{
		Name:        "unset",
		Description: "Remove an environment variable",
		Usage:       "unset NAME...",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("unset: expected a variable name")
			}
			for _, name := range inv.Args {
				ctx.Session.DeleteEnv(name)
			}
			return nil
		},
	}
}

func readCommand() *Command {
	return &Command{
		Name:        "read",
		Description: "Read a line of input into an environment variable",
		Usage:       "read [-p prompt] NAME",
		Options: []Option{
			{Flag: "p", Description: "prompt to display", TakesValue: true},
		},
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("read: expected a variable name")
			}
			prompt := inv.Options.Value("p")
			value := <-ctx.Session.ReadLine(prompt)
			ctx.Session.SetEnv(inv.Args[0], value)
			return nil
		},
	}
}

// =============================================================================
// ALIASES AND HISTORY
// =============================================================================

func aliasCommand() *Command {
	return &Command{
		Name:        "alias",
		Description: "Define an alias or list aliases",
		Usage:       "alias [name=command]",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				aliases := ctx.Registry.Aliases()
				for _, name := range ctx.Registry.AliasNames() {
					ctx.Session.WriteLine(fmt.Sprintf("alias %s=%s", name, QuoteIfNeeded(aliases[name])), session.LineOutput, "")
				}
				return nil
			}
			for _, arg := range inv.Args {
				name, target, ok := strings.Cut(arg, "=")
				if !ok || name == "" || target == "" {
					return fmt.Errorf("alias: invalid definition: %s", arg)
				}
				ctx.Registry.RegisterAlias(name, target)
			}
			return nil
		},
	}
}

func unaliasCommand(r *Registry) *Command {
	return &Command{
		Name:        "unalias",
		Description: "Remove an alias",
		Usage:       "unalias <name>...",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("unalias: expected an alias name")
			}
			for _, name := range inv.Args {
				if _, ok := ctx.Registry.AliasTarget(name); !ok {
					return fmt.Errorf("unalias: no such alias: %s", name)
				}
				ctx.Registry.UnregisterAlias(name)
			}
			return nil
		},
		Complete: func(req CompletionRequest) ([]string, error) {
			return r.AliasNames(), nil
		},
	}
}

func historyCommand() *Command {
	return &Command{
		Name:        "history",
		Description: "Show or clear the command history",
		Usage:       "history [-c]",
		Options: []Option{
			{Flag: "c", Description: "clear the history"},
		},
		Run: func(ctx *Context, inv *Invocation) error {
			if inv.Options.Has("c") {
				ctx.Session.ClearHistory()
				return nil
			}
			for i, entry := range ctx.Session.History() {
				ctx.Session.WriteLine(fmt.Sprintf("%4d  %s", i+1, entry), session.LineOutput, "")
			}
			return nil
		},
	}
}

// =============================================================================
// VIEWER
// =============================================================================

func viewCommand() *Command {
	return &Command{
		Name:        "view",
		Description: "Open a file in the full-screen pager",
		Usage:       "view <file>",
		Run: func(ctx *Context, inv *Invocation) error {
			if len(inv.Args) == 0 {
				return fmt.Errorf("view: missing file operand")
			}
			p := vfs.ResolvePath(inv.Args[0], ctx.Session.WorkingDirectory())
			node, err := ctx.FS.ReadFile(p)
			if err != nil {
				return fmt.Errorf("view: %s: %v", inv.Args[0], err)
			}
			ctx.Session.LaunchApp(apps.NewPager(node.Name, node.Content, node.MimeType))
			return nil
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// writeBlock writes multi-line text one scrollback line at a time.
func writeBlock(s *session.Session, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		s.WriteLine(line, session.LineOutput, "")
	}
}
