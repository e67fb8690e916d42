package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"OISentinel/internal/collector"
	"OISentinel/internal/config"
	"OISentinel/internal/history"
	"OISentinel/internal/notifier"
	"OISentinel/internal/scanner"
	"OISentinel/internal/scheduler"
	"OISentinel/internal/strategy"
)

func main() {
	envErr := godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.LogLevel)
	if envErr != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("OISentinel starting...")

	// Init fetcher
	fetcher := collector.NewCoinalyzeFetcher(cfg.Source.URL, collector.FetcherOptions{
		PageParam:         cfg.Source.PageParam,
		UserAgent:         cfg.Source.UserAgent,
		Timeout:           cfg.Source.Timeout,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		Proxy:             cfg.Proxy,
	})
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	// Init history store
	store, err := history.Open(cfg.History.Backend, cfg.History.Path, cfg.History.Key)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.History.Backend).Msg("open history store")
	}
	defer store.Close()

	// Init Telegram notifier
	tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.GroupChatID,
		cfg.Telegram.PrivateChatID, cfg.Proxy, cfg.Notify.MaxRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram notifier")
	}

	var sink notifier.Sink = tn
	if cfg.Notify.Async {
		d := notifier.NewDispatcher(tn, cfg.Notify.QueueSize)
		defer d.Close()
		sink = d
	}

	titles := collector.Titles{Change24h: cfg.Source.OI24hTitle, Change4h: cfg.Source.OI4hTitle}
	scan := scanner.New(fetcher, store, sink, strategy.NewClassifier(cfg.Thresholds), titles, cfg.Source.MaxPages)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.NewScheduler(ctx, scan, tn)

	if cfg.Schedule.Cron == "" {
		if err := sched.RunOnce(ctx); err != nil {
			// deferred calls do not run on os.Exit
			cancel()
			store.Close()
			os.Exit(1)
		}
		return
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	log.Info().Str("cron", cfg.Schedule.Cron).Msg("OISentinel is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	sched.Stop()
	log.Info().Msg("OISentinel stopped")
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(lvl)
}
