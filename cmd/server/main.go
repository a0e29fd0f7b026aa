package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nightpath/werewolf-server/internal/ai"
	"github.com/nightpath/werewolf-server/internal/archive"
	"github.com/nightpath/werewolf-server/internal/config"
	"github.com/nightpath/werewolf-server/internal/engine"
	"github.com/nightpath/werewolf-server/internal/game"
	"github.com/nightpath/werewolf-server/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting werewolf server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize the completed-game archive if configured
	var archiver engine.Archiver
	if cfg.Archive.Enabled {
		store, archiveErr := archive.New(ctx, cfg.Archive.DatabaseURL, logger)
		if archiveErr != nil {
			logger.Fatal("failed to initialize game archive", zap.Error(archiveErr))
		}
		defer store.Close()
		archiver = store
		logger.Info("game archive initialized")
	}

	// Build the decision provider factory for automated seats
	factory, announcer := buildAI(cfg.AI, logger)

	// Wire the hub first; the engine needs it as its event sink
	hub := server.NewHub(logger)

	engineCfg := engine.Config{
		PausePoll:        cfg.Game.PausePoll,
		AnnounceDelay:    cfg.Game.AnnounceDelay,
		ReminderInterval: cfg.Game.ReminderInterval,
	}
	svc := engine.NewService(engineCfg, hub, announcer, factory, archiver, logger)
	logger.Info("game engine initialized",
		zap.Duration("announce_delay", engineCfg.AnnounceDelay),
		zap.Duration("reminder_interval", engineCfg.ReminderInterval),
	)

	gateway := server.NewGateway(hub, svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WebSocket.Path, gateway.ServeWS)

	httpServer := &http.Server{
		Addr:    cfg.Server.WebSocket.Address,
		Handler: mux,
	}

	go func() {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("WebSocket server error", zap.Error(serveErr))
		}
	}()

	logger.Info("werewolf server initialized",
		zap.String("version", version),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("archive_enabled", cfg.Archive.Enabled),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket server shutdown error", zap.Error(err))
	}

	logger.Info("werewolf server stopped")
}

// buildAI constructs the provider factory and announcer from config.
func buildAI(cfg config.AIConfig, logger *zap.Logger) (engine.ProviderFactory, ai.Announcer) {
	if cfg.Provider != "openai" {
		logger.Info("using scripted decision provider")
		return nil, nil // the engine falls back to its scripted defaults
	}

	model := ai.NewModelProvider(ai.ModelConfig{
		CompletionsURL: cfg.CompletionsURL,
		Model:          cfg.Model,
		APIKey:         cfg.APIKey,
	}, logger)
	logger.Info("using model decision provider", zap.String("model", cfg.Model))

	factory := func(*game.Seat) ai.Provider { return model }
	return factory, model
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
