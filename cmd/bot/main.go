package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/astro_bot/internal/catalog"
	"github.com/mroshb/astro_bot/internal/config"
	"github.com/mroshb/astro_bot/internal/database"
	"github.com/mroshb/astro_bot/internal/middleware"
	"github.com/mroshb/astro_bot/internal/repositories"
	"github.com/mroshb/astro_bot/internal/server"
	"github.com/mroshb/astro_bot/internal/services"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/mroshb/astro_bot/pkg/logger"
	"github.com/mroshb/astro_bot/telegram"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	logger.Info("Starting deep space object quiz bot...")

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	src, db := catalogSource(cfg)
	if db != nil {
		defer database.Close(db)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cat, err := catalog.Load(ctx, src)
	cancel()
	if err != nil {
		logger.Fatal("Failed to load catalog", errors.Wrap(err, errors.ErrCodeCatalogLoad, "catalog unavailable"))
	}

	isolation := services.IsolateChannel
	if cfg.Isolation == config.IsolationUser {
		isolation = services.IsolateUser
	}

	quiz := services.NewQuizService(cat, services.QuizOptions{
		Isolation:        isolation,
		ChannelExclusive: cfg.ChannelExclusive,
		Threshold:        cfg.MatchThreshold,
		SessionTTL:       cfg.GetSessionTTL(),
	})

	for _, m := range quiz.Modes() {
		logger.Info("Mode ready", "mode", m.Key, "label", m.Label)
	}

	keepAlive := server.NewKeepAlive(cfg.AppPort, quiz)
	keepAlive.Start()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, time.Minute)
	defer limiter.Stop()

	// Initialize and start Telegram bot
	bot, err := telegram.InitBot(cfg, quiz, limiter)
	if err != nil {
		logger.Fatal("Failed to initialize bot", err)
	}

	logger.Info("Bot started successfully", "env", cfg.AppEnv, "catalog_entries", cat.Len(), "isolation", cfg.Isolation)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	bot.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := keepAlive.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Keep-alive server shutdown failed", "error", err)
	}
	logger.Info("Bot stopped")
}

// catalogSource picks the catalog source from config. The returned DB is
// non-nil only for the postgres source.
func catalogSource(cfg *config.Config) (catalog.Source, *gorm.DB) {
	if cfg.CatalogSource != config.CatalogSourcePostgres {
		return catalog.FileSource{Path: cfg.CatalogPath}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	return catalog.DatabaseSource{Repo: repositories.NewCatalogRepository(db)}, db
}
