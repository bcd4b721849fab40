package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/troubleonmonday/forum-bot/pkg/config"
	"github.com/troubleonmonday/forum-bot/pkg/corpus"
	"github.com/troubleonmonday/forum-bot/pkg/llm"
	"github.com/troubleonmonday/forum-bot/pkg/notify"
	"github.com/troubleonmonday/forum-bot/pkg/pipeline"
	"github.com/troubleonmonday/forum-bot/pkg/research"
	"github.com/troubleonmonday/forum-bot/pkg/runlog"
	"github.com/troubleonmonday/forum-bot/pkg/settings"
	"github.com/troubleonmonday/forum-bot/pkg/synthesis"
)

func main() {
	_ = godotenv.Load()

	dryRun := flag.Bool("dry-run", false, "Report accepted candidates without writing the thread store")
	threadsPath := flag.String("threads", "", "Thread store path (overrides THREADS_PATH)")
	settingsPath := flag.String("settings", "", "Admin settings path (overrides ADMIN_SETTINGS_PATH)")
	runLogPath := flag.String("runlog", "", "Run audit log path (overrides RUN_LOG_PATH)")
	flag.Parse()

	cfg := config.Load()
	if *threadsPath != "" {
		cfg.ThreadsPath = *threadsPath
	}
	if *settingsPath != "" {
		cfg.SettingsPath = *settingsPath
	}
	if *runLogPath != "" {
		cfg.RunLogPath = *runLogPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()

	provider, err := llm.NewGeminiProvider(ctx, llm.GeminiConfig{
		APIKey:      cfg.GoogleAPIKey,
		Model:       cfg.Model,
		Temperature: synthesis.Temperature,
	})
	if err != nil {
		log.Fatalf("Failed to create Gemini provider: %v", err)
	}
	store := corpus.NewStore(cfg.ThreadsPath)
	log.Printf("Model %s, thread store %s", provider.Model(), store.Path())

	var logger runlog.Logger
	if jl, err := runlog.NewJSONLLogger(cfg.RunLogPath); err != nil {
		log.Printf("Run log unavailable (%v), continuing without audit trail", err)
		logger = runlog.Nop{}
	} else {
		logger = jl
		defer jl.Close()
	}

	p := &pipeline.Pipeline{
		Store:    store,
		Settings: settings.NewStore(cfg.SettingsPath),
		Search: research.NewClient(research.Config{
			APIKey: cfg.BrightDataKey,
			Zone:   cfg.BrightDataZone,
		}),
		Synth:        synthesis.NewClient(provider),
		Logger:       logger,
		DefaultCount: cfg.WeeklyPostCount,
		DryRun:       *dryRun,
	}
	if cfg.NotifyEnabled() {
		p.Notifier = notify.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannel)
	}

	if _, err := p.Run(ctx); err != nil {
		log.Fatalf("Failed to generate weekly threads: %v", err)
	}
}
