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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/logger"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/rockdeals"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadRockDeals()

	zl, err := logger.New(cfg.Log, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	conn, err := db.OpenSQLite(cfg.DBPath, cfg.Env == "development")
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}
	if err := rockdeals.Migrate(conn); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	if cfg.Seed {
		created, err := rockdeals.Seed(conn, cfg.AdminPassword, time.Now())
		if err != nil {
			zl.Fatal("seeding failed", zap.Error(err))
		}
		if created {
			zl.Info("sample data created")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           rockdeals.NewRouter(conn, zl),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zl.Info("rockdeals server starting", zap.String("addr", srv.Addr), zap.String("db", cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
	zl.Info("server stopped gracefully")
}
