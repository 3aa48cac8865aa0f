// ABOUTME: Entry point for the guildkeeper bot core
// ABOUTME: Wires config, store, bridge manager and reminder scheduler

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/ashgrove/guildkeeper/internal/bridge"
	"github.com/ashgrove/guildkeeper/internal/chat"
	"github.com/ashgrove/guildkeeper/internal/config"
	"github.com/ashgrove/guildkeeper/internal/events"
	"github.com/ashgrove/guildkeeper/internal/scheduler"
	"github.com/ashgrove/guildkeeper/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
             _ _     _ _
  __ _ _   _(_) | __| | | _____  ___ _ __   ___ _ __
 / _' | | | | | |/ _' | |/ / _ \/ _ \ '_ \ / _ \ '__|
| (_| | |_| | | | (_| |   <  __/  __/ |_) |  __/ |
 \__, |\__,_|_|_|\__,_|_|\_\___|\___| .__/ \___|_|
 |___/                              |_|
`

const sampleConfig = `server:
  http_addr: 127.0.0.1:8790

database:
  path: ${XDG_DATA_HOME}/guildkeeper/guildkeeper.db

chat:
  api_base_url: https://chat.example.com/api/v10
  token: ${GUILDKEEPER_TOKEN}
  bot_user_id: ${GUILDKEEPER_BOT_USER_ID}

bridges:
  max_per_guild: 5

reminders:
  interval: 30s
  max_per_user: 10
  max_horizon: 8760h

logging:
  level: info
  format: text
`

// getConfigPath returns the path to the config file.
// Priority: GUILDKEEPER_CONFIG env var > XDG_CONFIG_HOME > ~/.config.
func getConfigPath() string {
	if envPath := os.Getenv("GUILDKEEPER_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "guildkeeper.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "guildkeeper", "guildkeeper.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: guildkeeper <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the bot core")
		fmt.Println("  init     Write a starter config file")
		fmt.Println("  status   Show database schema status")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "status":
		err = runStatus()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	// Migration is part of Open and gates everything below; a failure
	// here must not be survived.
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	client := chat.NewRESTClient(cfg.Chat.APIBaseURL, cfg.Chat.Token)
	if err := client.Check(ctx); err != nil {
		logger.Warn("chat API unreachable at startup", "error", err)
	}
	bridges := bridge.NewManager(st, client, cfg.Chat.BotUserID, cfg.Bridges.MaxPerGuild)

	sched := scheduler.New(st, client, scheduler.Options{
		Interval:   cfg.Reminders.Interval,
		MaxPerUser: cfg.Reminders.MaxPerUser,
		MaxHorizon: cfg.Reminders.MaxHorizon,
	})

	mux := http.NewServeMux()
	mux.Handle("/events", events.NewHandler(bridges))
	srv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: mux}

	logger.Info("starting guildkeeper", "config", configPath,
		"database", cfg.Database.Path, "http_addr", cfg.Server.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	runErr := sched.Run(ctx)

	select {
	case err := <-errCh:
		return fmt.Errorf("event server: %w", err)
	default:
	}
	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}

func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", configPath)
	return nil
}

func runStatus() error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	v, err := st.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Printf("Database:       %s\n", cfg.Database.Path)
	fmt.Printf("Schema version: %d\n", v)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
