package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/n0teapp/n0te-bot/internal/api"
	"github.com/n0teapp/n0te-bot/internal/biz/repo"
	"github.com/n0teapp/n0te-bot/internal/biz/usecase"
	"github.com/n0teapp/n0te-bot/internal/conf"
	"github.com/n0teapp/n0te-bot/internal/data"
	"github.com/n0teapp/n0te-bot/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	texts, err := conf.LoadTexts(cfg.TextsPath)
	if err != nil {
		log.Fatalf("Failed to load texts: %v", err)
	}

	sysPrompt := conf.NewSystemPrompt(cfg.SystemPromptPath)

	// Initialize clients
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create Telegram client: %v", err)
	}
	bot.Debug = cfg.Debug

	aiClient := data.NewAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModelText, cfg.OpenAIModelTranscribe)

	store, err := data.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	if err != nil {
		log.Fatalf("Failed to create Supabase store: %v", err)
	}

	messenger := data.NewTelegramMessenger(bot)

	// Local usage journal is optional
	var journal repo.UsageJournal
	if cfg.UsageDBPath != "" {
		journal, err = data.NewUsageJournal(cfg.UsageDBPath)
		if err != nil {
			log.Fatalf("Failed to open usage journal: %v", err)
		}
		fmt.Printf("[Main] Usage journal: %s\n", cfg.UsageDBPath)
	}

	// Initialize usecase layer
	processor := usecase.NewProcessor(aiClient, aiClient, store, journal, messenger, sysPrompt.Load)
	collector := usecase.NewCollector(processor, messenger, store, texts, usecase.CollectorConfig{
		DebounceWindow: cfg.DebounceWindow(),
		WebAppURL:      cfg.WebAppURL,
	})

	// Initialize service layer
	botSvc := service.NewBotService(bot, collector, store, texts, cfg)

	// Health endpoint
	apiServer := api.NewServer(processor, cfg.HealthPort)
	go func() {
		if err := apiServer.Start(); err != nil {
			fmt.Printf("[Main] Health server error: %v\n", err)
		}
	}()

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
		apiServer.Stop()
		if journal != nil {
			journal.Close()
		}
	}()

	fmt.Println("Starting n0te bot...")
	if err := botSvc.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Bot stopped: %v", err)
	}
	fmt.Println("Stopped.")
}
