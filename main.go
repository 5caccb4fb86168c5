// NeonTerm - a terminal for the RecursiveNeon desktop.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/hoelzl/RecursiveNeon-sub001/internal/commands"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/config"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/session"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/storage"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/ui"
	"github.com/hoelzl/RecursiveNeon-sub001/internal/vfs"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	var (
		plain       = flag.Bool("plain", false, "run the line-oriented REPL instead of the full-screen interface")
		configPath  = flag.String("config", config.DefaultPath(), "path to the config file")
		dataPath    = flag.String("data", "", "path to the filesystem database (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("neonterm %s (%s)\n", Version, GitCommit)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *dataPath != "" {
		cfg.Storage.DatabasePath = *dataPath
	}

	setupLogging(cfg)

	store, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Seed(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fs := vfs.NewAdapter(store)
	if err := fs.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(
		session.WithScrollbackLimit(cfg.Terminal.ScrollbackLimit),
		session.WithHistoryLimit(cfg.Terminal.HistoryLimit),
		session.WithPrompt(cfg.Terminal.Prompt),
	)
	sess.SetEnv("USER", cfg.Terminal.User)
	sess.SetEnv("HOME", "/")
	sess.WriteLine("Welcome to NeonTerm. Type 'help' to get started.", session.LineSystem, "")

	registry := commands.NewRegistry()
	commands.RegisterBuiltins(registry)
	for alias, target := range cfg.Terminal.Aliases {
		registry.RegisterAlias(alias, target)
	}

	// Live-apply config edits to prompt and aliases.
	if watcher, err := config.Watch(*configPath, func(next *config.Config) {
		sess.SetPromptTemplate(next.Terminal.Prompt)
		for alias, target := range next.Terminal.Aliases {
			registry.RegisterAlias(alias, target)
		}
	}); err == nil {
		defer watcher.Close()
	} else {
		log.Debug("config watching disabled", "error", err)
	}

	if *plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		if err := ui.NewPlainREPL(sess, fs, registry, cfg).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := ui.Run(ui.New(sess, fs, registry, cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging points the global logger at the configured file and level.
// The full-screen interface owns stdout, so logs never go there.
func setupLogging(cfg *config.Config) {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	if cfg.Log.File == "" {
		log.SetOutput(io.Discard)
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
}
