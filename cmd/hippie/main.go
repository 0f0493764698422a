// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the hippie word expansion engine as an editor IPC server or as a
debugging shell.

hippie completes the word under the cursor from words already present in the open
documents. Repeated invocations cycle through the candidates in both directions,
replacing the word in place under every cursor. Candidates come from the text around
the cursor first, nearest words first, and fall back to every indexed document.

# Usage

Start the server, seeding the index from the current directory:

	hippie -root .

Keep the index in sync with files changing on disk:

	hippie -root . -watch -d

Run the shell to inspect ranking and cycling:

	hippie -c -root ./src -limit 10

# Configuration

The config file is created with defaults on first run:

	[engine]
	sigils = "$"
	local_first_char_filter = false
	max_candidates = 0

	[index]
	max_file_bytes = 1048576
	watch_debounce_ms = 75

	[server]
	max_frame_bytes = 8388608

	[cli]
	default_limit = 24

The index section also takes include and exclude lists of doublestar globs, matched
against paths relative to -root. By default everything is included except .git,
node_modules and vendor trees.

# IPC Protocol

See package server for the message formats. Logs go to stderr; stdout only carries
frames.

# Command Line Flags

	-config string
	    Path to a config file (default: user config dir)
	-root string
	    Directory to index at startup
	-watch
	    Re-index files under -root when they change
	-d  Enable debug mode with detailed logging
	-c  Run the debugging shell instead of the server
	-limit int
	    Candidates to print in the shell (default from config)
	-no-filter
	    Accept any query text in the shell
	-version
	    Show current version
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/hippie/internal/cli"
	"github.com/bastiangx/hippie/internal/utils"
	"github.com/bastiangx/hippie/pkg/config"
	"github.com/bastiangx/hippie/pkg/cycle"
	"github.com/bastiangx/hippie/pkg/index"
	"github.com/bastiangx/hippie/pkg/server"
	"github.com/bastiangx/hippie/pkg/tokenize"
	"github.com/bastiangx/hippie/pkg/workspace"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	Version = "0.3.0"
	gh      = "https://github.com/bastiangx/hippie"
)

// sigHandler cancels the returned context on SIGINT/SIGTERM.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		// closing a terminal stdin does not unblock a pending read
		time.Sleep(200 * time.Millisecond)
		os.Exit(0)
	}()
	return ctx
}

func main() {
	ctx := sigHandler()
	defaults := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to config file")
	root := flag.String("root", "", "Directory to index at startup")
	watch := flag.Bool("watch", false, "Re-index files under -root when they change")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", 0, fmt.Sprintf("Candidates to print in CLI mode (default %d)", defaults.CLI.DefaultLimit))
	noFilter := flag.Bool("no-filter", false, "Accept any query text in CLI mode (DBG only)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	cfg, usedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedPath))

	idx := index.New(tokenize.NewTokenizer(cfg.Engine.Sigils))
	session := cycle.NewSession(idx, cycle.Options{
		LocalFirstCharFilter: cfg.Engine.LocalFirstCharFilter,
		MaxCandidates:        cfg.Engine.MaxCandidates,
	})

	var watcher *workspace.Watcher
	if *root != "" {
		if resolver, err := utils.NewPathResolver(config.AppName); err == nil {
			*root = resolver.ResolveRelativePath(*root)
			log.Debug("Runtime info", "paths", resolver.GetRuntimeInfo())
		}
		watcher, err = seedWorkspace(ctx, idx, cfg.Index, *root, *watch)
		if err != nil {
			log.Fatalf("Failed to index %s: %v", *root, err)
		}
	} else if *watch {
		log.Warn("-watch needs -root, not watching")
	}

	// the front end owns the lifetime: when its input ends the watcher stops too
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if *cliMode {
		log.SetReportTimestamp(false)
		shellLimit := *limit
		if shellLimit <= 0 {
			shellLimit = cfg.CLI.DefaultLimit
		}
		log.Debug("Input info:", "limit", shellLimit, "noFilter", *noFilter)

		inputHandler := cli.NewInputHandler(session, os.Stdout, shellLimit, *noFilter)
		g.Go(func() error {
			defer stop()
			return inputHandler.Start(os.Stdin)
		})
		if err := g.Wait(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(session, cfg.Server.MaxFrameBytes)
	showStartupInfo(*root, idx)

	g.Go(func() error {
		defer stop()
		return srv.Start(gctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server stopped: %v", err)
	}
}

// seedWorkspace indexes root and, when watch is set, returns a watcher for it.
func seedWorkspace(ctx context.Context, idx *index.Index, cfg config.IndexConfig, root string, watch bool) (*workspace.Watcher, error) {
	loader := workspace.NewLoader(idx, workspace.Options{
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		MaxFileBytes: int64(cfg.MaxFileBytes),
	})

	stats, err := loader.LoadDir(ctx, root)
	if err != nil {
		if stats.Indexed == 0 {
			return nil, err
		}
		log.Warnf("Some files under %s could not be indexed: %v", root, err)
	}
	log.Debugf("Indexed %d files in %v", stats.Indexed, stats.Duration)

	if !watch {
		return nil, nil
	}
	w, err := workspace.NewWatcher(loader, root, time.Duration(cfg.WatchDebounceMs)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	w.OnRefresh = func(paths []string) {
		log.Debugf("Re-indexed %d files", len(paths))
	}
	return w, nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ hippie ] Expands the word under the cursor from what you already typed")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(root string, idx *index.Index) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println("  hippie   ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	if root != "" {
		log.Infof("workspace: ( %s ), %d buffers", root, idx.Stats()["buffers"])
	}
	log.Info("status: ready")
	println("===========")

	log.SetLevel(currentLevel)
}
