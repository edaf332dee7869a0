// Deskinit is a container entrypoint supervisor for desktop demo images.
// It runs the blocking setup scripts that bring up the display stack,
// launches the background services with their output captured to log files,
// prints the operator-facing status lines, and then follows the log files as
// the container's foreground process. SIGTERM or SIGINT stops the services
// gracefully and exits.
//
// Usage:
//
//	deskinit [--config FILE] [--data-dir DIR] [--skip-setup] [--verbose]
//	deskinit history [--config FILE] [--data-dir DIR]
//
// Without a config file the built-in defaults reproduce the classic desktop
// container layout: ./start_all.sh and ./novnc_startup.sh as setup, a static
// content server on :8080 and an API server on :9000 as services, and the
// noVNC log as an extra watched file.
//
// The history subcommand prints the lifecycle events of the most recent run
// from the journal in the data directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/deskenv/deskinit"
	"github.com/deskenv/deskinit/internal/core"
	"github.com/deskenv/deskinit/internal/journal"
)

// version is overridable at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "deskinit: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath  string
		dataDir     string
		skipSetup   bool
		verbose     bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("deskinit", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "TOML config file overriding the built-in defaults")
	flagSet.StringVar(&dataDir, "data-dir", "", "directory for the lock file and run journal (overrides config)")
	flagSet.BoolVar(&skipSetup, "skip-setup", false, "skip the blocking setup steps (services and log follow only)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("deskinit %s\n", version)
		return nil
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	deskinit.SetLogger(logger)

	cfg := builtinConfig()
	if configPath != "" {
		var err error
		cfg, err = loadConfig(configPath, cfg)
		if err != nil {
			return err
		}
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if skipSetup {
		cfg.SetupSteps = nil
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rest := flagSet.Args()
	if len(rest) > 0 {
		switch rest[0] {
		case "history":
			if len(rest) > 1 {
				return fmt.Errorf("unexpected argument: %s", rest[1])
			}
			return printHistory(cfg.DataDir, logger)
		default:
			return fmt.Errorf("unknown command %q", rest[0])
		}
	}

	supervisor, err := deskinit.NewSupervisor(cfg.options()...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return supervisor.Run(ctx)
}

// printHistory prints the lifecycle events of the most recent supervisor run
// recorded in the data directory's journal.
func printHistory(dataDir string, logger *slog.Logger) error {
	path := filepath.Join(dataDir, core.JournalFileName)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no journal at %s: %w", path, err)
	}

	jnl, err := journal.Open(path, logger)
	if err != nil {
		return err
	}
	defer jnl.Close()

	events, err := jnl.LastRun(context.Background())
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("journal is empty")
		return nil
	}

	fmt.Printf("run %s\n", events[0].RunID)
	for _, e := range events {
		line := fmt.Sprintf("%s  %-17s %s", e.Time.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Name)
		if e.Detail != "" {
			line += "  (" + e.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}
