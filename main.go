package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"web2view/config"
	"web2view/kvstore"
	"web2view/steam"
)

func main() {
	cfg, err := config.Load(config.Path(), executableDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "store":
			st := kvstore.InDir(cfg.DataDir, logger)
			if err := runStoreCommand(os.Args[2:], st, os.Stdout); err != nil {
				if !errors.Is(err, errUsage) {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
				os.Exit(1)
			}
			return
		case "version":
			runVersion(cfg)
			return
		case "help", "-h", "--help":
			usage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
			usage()
			os.Exit(1)
		}
	}

	if err := runShell(cfg, logger); err != nil {
		logger.Error("shell failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: web2view [command]\n\nWith no command the game window opens.\n\nCommands:\n"+
		"  store     Inspect or edit the saved game store\n"+
		"  version   Print the game version marker\n")
}

func runVersion(cfg *config.Config) {
	version := readVersion(cfg.Game.VersionFile, cfg.Game.FallbackVersion)
	fmt.Println(version)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    marker:  %s\n", cfg.Game.VersionFile)
	gray.Printf("    wrapper: %s\n", wrapperURL(cfg.Game.Wrapper, version))
}

// runShell opens the game window and blocks until it closes.
func runShell(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting web2view",
		"config", config.Path(),
		"origin", cfg.Game.Origin,
		"data_dir", cfg.DataDir,
	)

	provider, err := steam.Open(steam.Config{
		AppID:   cfg.Game.AppID,
		Command: cfg.Steam.Command,
		Args:    cfg.Steam.Args,
		Env:     cfg.Steam.Env,
	}, logger)
	if err != nil {
		logger.Info("platform SDK unavailable, running in demo mode", "error", err)
	}

	window, err := NewWindow(cfg.Window)
	if err != nil {
		_ = provider.Shutdown()
		return fmt.Errorf("creating window: %w", err)
	}

	app := NewApp(cfg, provider, externalOpener(logger), logger)
	version := readVersion(cfg.Game.VersionFile, cfg.Game.FallbackVersion)
	if err := app.Init(window, wrapperURL(cfg.Game.Wrapper, version)); err != nil {
		app.Shutdown()
		return fmt.Errorf("initializing shell: %w", err)
	}

	app.Run()
	return nil
}
