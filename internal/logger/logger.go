// Package logger builds the application's zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
)

// New returns a zap logger. Development uses a colored console encoder at debug
// level; other environments use the configured format and level.
func New(cfg config.LogConfig, env string) (*zap.Logger, error) {
	var zc zap.Config
	if env == "development" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if strings.EqualFold(cfg.Format, "console") {
		zc.Encoding = "console"
	} else if strings.EqualFold(cfg.Format, "json") && env != "development" {
		zc.Encoding = "json"
	}
	return zc.Build()
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
