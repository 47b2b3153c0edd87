package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keto-planner/internal/app"
	"keto-planner/internal/auth"
	"keto-planner/internal/config"
	"keto-planner/internal/database"
	"keto-planner/internal/llm"
	"keto-planner/internal/logger"
	"keto-planner/internal/metrics"
	"keto-planner/internal/notify"
	"keto-planner/internal/planner"
	"keto-planner/internal/session"
	"keto-planner/internal/telegram"
)

func main() {
	// 1. Load Configuration
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN and TELEGRAM_WEBHOOK_URL must be set")
	}

	logs, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logs.Sync()

	ctx := context.Background()

	// 2. Storage
	db, err := database.NewDB(cfg.DatabasePath, logs)
	if err != nil {
		logs.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	sessions := session.NewStore(db.SQL)

	// 3. Services
	gen := llm.NewFromConfig(cfg, planner.SystemPrompt)
	if c, ok := gen.(llm.Closer); ok {
		defer c.Close()
	}
	requester := planner.NewRequester(gen, cfg.PlanFormat, cfg.PlanProvider)
	application := app.NewApp(
		requester,
		sessions,
		planner.NewPlanRepository(db.SQL),
		auth.NewUsers(db.SQL),
		auth.NewProfiles(db.SQL),
		notify.New(ctx, cfg.SESEmail, cfg.AWSRegion, logs),
		metrics.NewStore(db.SQL),
		cfg.DatabasePath,
		logs,
	)

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, application, sessions, logs)
	if err != nil {
		logs.Fatal("Failed to initialize Telegram Bot", "error", err)
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logs.Info("Telegram Bot Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logs.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logs.Fatal("Server forced to shutdown", "error", err)
	}
	if err := bot.Wait(ctxShutdown); err != nil {
		logs.Warn("Pending updates abandoned", "error", err)
	}

	logs.Info("Server exiting")
}
