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

	"github.com/gin-gonic/gin"

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
	"keto-planner/internal/web"
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

	logs, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logs.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// 2. Storage
	db, err := database.NewDB(cfg.DatabasePath, logs)
	if err != nil {
		logs.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	users := auth.NewUsers(db.SQL)

	// 3. Services
	gen := llm.NewFromConfig(cfg, planner.SystemPrompt)
	if c, ok := gen.(llm.Closer); ok {
		defer c.Close()
	}
	requester := planner.NewRequester(gen, cfg.PlanFormat, cfg.PlanProvider)
	application := app.NewApp(
		requester,
		session.NewStore(db.SQL),
		planner.NewPlanRepository(db.SQL),
		users,
		auth.NewProfiles(db.SQL),
		notify.New(ctx, cfg.SESEmail, cfg.AWSRegion, logs),
		metrics.NewStore(db.SQL),
		cfg.DatabasePath,
		logs,
	)

	server := web.NewServer(application, users, auth.NewTokens(cfg.JWTSecret, auth.DefaultTokenTTL), cfg.CookieSecure, logs)

	// 4. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logs.Info("Keto planner listening", "port", cfg.Port, "provider", cfg.PlanProvider, "format", cfg.PlanFormat)
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

	logs.Info("Server exiting")
}
