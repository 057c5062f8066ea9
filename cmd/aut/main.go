// Package main is the entry point for the Augment usage tracker TUI.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/augment-usage-tui/internal/app"
	"github.com/j-veylop/augment-usage-tui/internal/config"
	"github.com/j-veylop/augment-usage-tui/internal/logger"
	"github.com/j-veylop/augment-usage-tui/internal/services"
	"github.com/j-veylop/augment-usage-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-v", "--version":
			fmt.Println(version.Info())
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--status":
			if err := runStatus(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Send logs to a file so they do not tear the alternate screen
	logPath := filepath.Join(filepath.Dir(cfg.DatabasePath), "aut.log")
	if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
		defer func() { _ = logFile.Close() }()
		logger.SetOutput(logFile, slog.LevelInfo)
	}

	// 3. Initialize the service manager
	// This starts the cookie watcher and the refresh scheduler
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// runStatus prints a one-shot snapshot without starting the TUI.
func runStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// One-shot mode queries the API directly; no periodic refresh
	cfg.Enabled = false

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() { _ = svcManager.Close() }()

	fmt.Println(svcManager.Auth().StatusSummary())

	if !svcManager.Auth().IsAuthenticated() {
		return nil
	}

	usage, err := svcManager.Client().FetchUsage(context.Background())
	if err != nil {
		return fmt.Errorf("usage fetch failed: %w", err)
	}

	fmt.Printf("usage: %d/%d (%d%%), remaining %d\n",
		usage.TotalUsage, usage.UsageLimit, usage.UsagePercentage(), usage.RemainingUsage())
	if user, err := svcManager.Client().FetchUser(context.Background()); err == nil && user.Email != "" {
		fmt.Printf("account: %s", user.Email)
		if user.Plan != "" {
			fmt.Printf(" (%s)", user.Plan)
		}
		fmt.Println()
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Augment Usage TUI - terminal monitor for Augment credit usage

Usage:
  aut [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information
  --status        Print a one-shot usage snapshot and exit

Keyboard Shortcuts:
  r               Refresh now
  e               Toggle automatic refresh
  h               Cycle history range (1h/24h/7d/30d)
  +/-             Adjust refresh interval by 10s
  q, Ctrl+C       Quit

Environment Variables:
  AUGMENT_API_BASE_URL  API base URL override
  COOKIE_PATH           Session cookie file path
  DATABASE_PATH         SQLite history database path
  REFRESH_INTERVAL      Refresh period (default: 30s)
  REFRESH_ENABLED       Start with automatic refresh (default: true)
  NOTIFICATIONS         Desktop notifications on thresholds (default: true)

Sign in by pasting your browser _session cookie into the cookie file
(default: ~/.config/augment-usage-tui/cookie). The file is watched, so
changes apply immediately.`)
}
