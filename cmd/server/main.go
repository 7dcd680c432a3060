package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/cache"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/events"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/logger"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/policy"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/search"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	zl, err := logger.New(cfg.Log, cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	dbConn, err := db.Connect(cfg.Database, zl)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, dbConn); err != nil {
			zl.Fatal("migration failed", zap.Error(err))
		}
		zl.Info("migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.App); err != nil {
			zl.Fatal("seeding failed", zap.Error(err))
		}
		zl.Info("seeding completed successfully")
		return
	}

	if err := migrate(cfg, dbConn); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	if err := db.Seed(dbConn, cfg.App); err != nil {
		zl.Fatal("seeding failed", zap.Error(err))
	}

	ctx := context.Background()
	deps := policy.RouterDeps{DB: dbConn, Config: cfg, Log: zl}

	deps.Tokens, err = auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.Algorithm, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		zl.Fatal("invalid jwt configuration", zap.Error(err))
	}

	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			zl.Warn("redis unavailable, using in-memory holds and token denylist", zap.Error(err))
		} else {
			defer client.Close()
			deps.Holds = cache.NewRedisHoldStore(client)
			deps.Denylist = cache.NewRedisDenylist(client)
			deps.Redis = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			zl.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka)
		defer publisher.Close()
		deps.Publisher = publisher
		zl.Info("publishing sale events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	var index search.Index
	if len(cfg.Elastic.Addresses) > 0 {
		es, err := search.NewElasticIndex(ctx, cfg.Elastic)
		if err != nil {
			zl.Warn("elasticsearch unavailable, searching the database", zap.Error(err))
		} else {
			index = es
		}
	}
	deps.Search = search.NewService(dbConn, index, zl)
	if deps.Search.Enabled() {
		if n, err := deps.Search.Reindex(ctx); err != nil {
			zl.Warn("product reindex failed", zap.Int("indexed", n), zap.Error(err))
		} else {
			zl.Info("products indexed", zap.Int("count", n))
		}
	}

	// Tokens of deleted or deactivated users stop working immediately.
	auth.SetUserVerifier(func(ctx context.Context, uid uuid.UUID) bool {
		var count int64
		dbConn.WithContext(ctx).Model(&models.User{}).Where("id = ? AND is_active = ?", uid, true).Count(&count)
		return count > 0
	})
	httpx.SetInternalErrorHook(func(r *http.Request, err error) {
		zl.Error("internal error", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	})

	routerCfg, err := policy.NewRouterConfig(deps)
	if err != nil {
		zl.Fatal("failed to build router", zap.Error(err))
	}
	appHandler := NewApp(routerCfg, cfg.CORS.Origins, zl)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zl.Info("server starting",
			zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env), zap.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
	zl.Info("server stopped gracefully")
}

// migrate applies the embedded SQL migrations when MIGRATIONS is set, and
// AutoMigrate otherwise.
func migrate(cfg *config.Config, conn *gorm.DB) error {
	if cfg.App.Migrations {
		return db.RunSQLMigrations(cfg.Database.MigrateURL())
	}
	return db.Migrate(conn)
}
