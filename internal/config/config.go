// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all Enterprise POS configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticConfig
	CORS     CORSConfig
	Log      LogConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name               string
	Version            string
	Env                string
	EnableRegistration bool
	Migrations         bool
	DefaultTaxRate     float64
	StoreName          string
	// Bootstrap admin created by the seed when the users table is empty.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// IsDevelopment reports whether APP_ENV is development.
func (a AppConfig) IsDevelopment() bool { return a.Env == "development" }

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL         string // DATABASE_URL, takes precedence when set
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	PoolSize    int
	MaxOverflow int
	Debug       bool
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// MigrateURL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) MigrateURL() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// JWTConfig holds token settings.
type JWTConfig struct {
	SecretKey  string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RedisConfig is empty-Addr when Redis is disabled.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	HoldTTL  time.Duration
}

// KafkaConfig is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ElasticConfig is disabled when Addresses is empty.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type CORSConfig struct {
	Origins []string
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Name:               getEnv("APP_NAME", "CP'S Enterprise POS"),
			Version:            getEnv("APP_VERSION", "2.0.0"),
			Env:                getEnv("APP_ENV", "development"),
			EnableRegistration: getEnvBool("ENABLE_REGISTRATION", true),
			Migrations:         getEnvBool("MIGRATIONS", false),
			DefaultTaxRate:     getEnvFloat("DEFAULT_TAX_RATE", 0),
			StoreName:          getEnv("STORE_NAME", "CP'S Enterprise Store"),
			AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
			AdminEmail:         getEnv("ADMIN_EMAIL", "admin@pos.local"),
			AdminPassword:      getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Server: ServerConfig{
			Host:         getEnv("HOST", "0.0.0.0"),
			Port:         getEnv("PORT", "8000"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "pos"),
			Password:    getEnv("DB_PASSWORD", "pos"),
			DBName:      getEnv("DB_NAME", "enterprise_pos"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			PoolSize:    getEnvInt("DATABASE_POOL_SIZE", 20),
			MaxOverflow: getEnvInt("DATABASE_MAX_OVERFLOW", 10),
			Debug:       getEnvBool("DB_DEBUG", false),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-this-secret-in-production"),
			Algorithm:  getEnv("JWT_ALGORITHM", "HS256"),
			AccessTTL:  time.Duration(getEnvInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			RefreshTTL: time.Duration(getEnvInt("JWT_REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			HoldTTL:  time.Duration(getEnvInt("POS_HOLD_TTL_HOURS", 24)) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC_SALES", "pos.sales"),
		},
		Elastic: ElasticConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", nil),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_PRODUCT_INDEX", "products"),
		},
		CORS: CORSConfig{
			Origins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// RockDealsConfig holds the RockDeals server settings.
type RockDealsConfig struct {
	Port          string
	DBPath        string
	Seed          bool
	AdminPassword string
	Log           LogConfig
	Env           string
}

// LoadRockDeals reads the RockDeals configuration.
func LoadRockDeals() *RockDealsConfig {
	return &RockDealsConfig{
		Port:          getEnv("ROCKDEALS_PORT", "5000"),
		DBPath:        getEnv("ROCKDEALS_DB_PATH", "rockdeals.db"),
		Seed:          getEnvBool("ROCKDEALS_SEED", true),
		AdminPassword: getEnv("ROCKDEALS_ADMIN_PASSWORD", "admin123"),
		Env:           getEnv("APP_ENV", "development"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvSlice splits a comma separated variable, dropping empty entries.
func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
