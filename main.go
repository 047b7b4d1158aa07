package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"signalSentry/config"
	"signalSentry/internal/adapters/binanceclient"
	"signalSentry/internal/adapters/geminiclient"
	"signalSentry/internal/adapters/logger"
	"signalSentry/internal/adapters/sqlite"
	"signalSentry/internal/adapters/telegramclient"
	"signalSentry/internal/admission"
	"signalSentry/internal/app"
	"signalSentry/internal/engine"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Telegram Client (message source and notifier)
	telegramClient, err := telegramclient.New(telegramclient.Config{
		BotToken: cfg.TelegramBotToken,
		Logger:   appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Telegram client")
		log.Fatalf("FATAL: Failed to initialize Telegram client: %v", err)
	}
	appLogger.Info(context.Background(), "Telegram client initialized")

	// 5. Initialize Signal Extractor (Gemini Adapter)
	extractor, err := geminiclient.New(geminiclient.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Gemini extractor")
		log.Fatalf("FATAL: Failed to initialize Gemini extractor: %v", err)
	}
	appLogger.Info(context.Background(), "Gemini extractor initialized", map[string]interface{}{"model": cfg.GeminiModel})

	// 6. Initialize Price Feed (Binance Adapter)
	priceFeed, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.BinanceAPIKey,
		SecretKey:  cfg.BinanceSecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance price feed")
		log.Fatalf("FATAL: Failed to initialize Binance price feed: %v", err)
	}
	appLogger.Info(context.Background(), "Binance price feed initialized")

	// 7. Initialize Trade Lifecycle Engine (shared across all units)
	eng, err := engine.New(engine.Config{
		EntryTolerancePips: cfg.EntryTolerancePips,
		EntryConfirmTicks:  cfg.EntryConfirmTicks,
		ExitConfirmTicks:   cfg.ExitConfirmTicks,
		PipValues:          cfg.PipValues,
		DefaultPipValue:    cfg.DefaultPipValue,
	}, appLogger, priceFeed, telegramClient)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize lifecycle engine")
		log.Fatalf("FATAL: Failed to initialize lifecycle engine: %v", err)
	}
	appLogger.Info(context.Background(), "Lifecycle engine initialized")

	// 8. Build one admission pipeline per configured unit
	pipelines := make([]*admission.Pipeline, 0, len(cfg.Units))
	for _, unit := range cfg.Units {
		p, err := admission.New(admission.Unit{
			SourceID:  unit.Source,
			StorageID: unit.Storage,
			TargetID:  unit.Target,
		}, cfg.MaxMessagesToPoll, telegramClient, extractor, priceFeed, telegramClient, repo, eng, appLogger)
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize admission pipeline", map[string]interface{}{"source": unit.Source})
			log.Fatalf("FATAL: Failed to initialize admission pipeline for %s: %v", unit.Source, err)
		}
		pipelines = append(pipelines, p)
	}
	appLogger.Info(context.Background(), "Admission pipelines initialized", map[string]interface{}{"count": len(pipelines)})

	// 9. Initialize Application Service
	service, err := app.NewService(cfg, appLogger, eng, pipelines)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize service")
		log.Fatalf("FATAL: Failed to initialize service: %v", err)
	}
	appLogger.Info(context.Background(), "Service initialized")

	// 10. Start the Service
	// Use context.Background() as the base context for the application run
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Service exited with error")
		log.Fatalf("FATAL: Service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
