package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polygrid/config"
	"github.com/alejandrodnm/polygrid/internal/adapters/notify"
	"github.com/alejandrodnm/polygrid/internal/adapters/storage"
	"github.com/alejandrodnm/polygrid/internal/align"
	"github.com/alejandrodnm/polygrid/internal/search"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full result tables (default: compact 1-line)")
	event := flag.String("event", "", "align a single event and print its timeline, then exit")
	seed := flag.Int64("seed", 0, "override split seed (0 = use config)")
	workers := flag.Int("workers", 0, "override worker count (0 = use config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *seed != 0 {
		cfg.Search.Seed = *seed
	}
	if *workers != 0 {
		cfg.Search.Workers = *workers
	}
	setupLogger(cfg.Log)

	slog.Info("polygrid starting",
		"config", *configPath,
		"dataset", cfg.Storage.DSN,
		"market_source", cfg.Storage.MarketSource,
		"seed", cfg.Search.Seed,
	)

	dataset, err := storage.NewSQLiteDataset(cfg.Storage.DSN, storage.MarketSource(cfg.Storage.MarketSource))
	if err != nil {
		slog.Error("failed to open dataset", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer dataset.Close()

	console := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *event != "" {
		inspectEvent(ctx, dataset, console, cfg, *event)
		return
	}

	optimizer := search.New(
		cfg.Search,
		cfg.DomainStrategy(),
		cfg.AlignConfig(),
		dataset,
		notify.NewConsoleProgress(),
	)

	result, err := optimizer.Run(ctx)
	if err != nil {
		slog.Error("grid search failed", "err", err)
		os.Exit(1)
	}

	if err := console.Notify(ctx, result); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	slog.Info("polygrid finished cleanly")
}

// inspectEvent alinea un solo evento y muestra su línea temporal: el modo
// de depuración de calidad de datos.
func inspectEvent(ctx context.Context, dataset *storage.SQLiteDataset, console *notify.Console, cfg *config.Config, eventID string) {
	data, err := dataset.FetchEvent(ctx, eventID)
	if err != nil {
		slog.Error("failed to fetch event", "err", err, "event_id", eventID)
		os.Exit(1)
	}

	snaps, diag := align.Align(data, cfg.AlignConfig())
	console.PrintAlignment(snaps, diag)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
