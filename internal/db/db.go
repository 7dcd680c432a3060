// Package db opens the Enterprise POS database, applies its schema and seeds
// default data.
package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// GormConfig returns the gorm configuration, verbose when debug is set.
func GormConfig(debug bool) *gorm.Config {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(level), TranslateError: true}
}

// Connect opens PostgreSQL, retrying while the server starts up.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := NormalizeDSN(cfg.DSN())
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	log.Info("connecting to database", zap.String("dsn", MaskDSN(dsn)))

	var (
		conn *gorm.DB
		err  error
	)
	for i := 1; i <= connectAttempts; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), GormConfig(cfg.Debug))
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying",
			zap.Int("attempt", i), zap.Int("max_attempts", connectAttempts), zap.Error(err))
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.PoolSize)
	sqlDB.SetMaxOpenConns(cfg.PoolSize + cfg.MaxOverflow)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Ping(context.Background(), conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Ping runs SELECT 1.
func Ping(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

// Migrate runs AutoMigrate for all models.
func Migrate(conn *gorm.DB) error {
	for _, m := range models.All() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}
