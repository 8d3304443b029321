// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	API      APIConfig
	Images   ImageConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// Mode selects where the workflow data lives.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	Mode          Mode
	Dev           bool
	LogLevel      string
	SchemaVersion string
	SeedDemo      bool
	DefaultRegion string
}

// StoreConfig selects the key-value backend of the local mode.
type StoreConfig struct {
	Backend    string // memory, sqlite, postgres, redis, gcs
	SQLitePath string
	QuotaBytes int64
	GCSBucket  string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Debug    bool
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// APIConfig points the remote mode at the production backend.
type APIConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	PollInterval time.Duration
}

type ImageConfig struct {
	MaxDimension int
	Quality      int
}

const (
	MinPollInterval = 2 * time.Second
	MaxPollInterval = 30 * time.Second
)

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	mode := ModeLocal
	if strings.EqualFold(getEnv("APP_MODE", "local"), string(ModeRemote)) {
		mode = ModeRemote
	}
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		App: AppConfig{
			Mode:          mode,
			Dev:           getEnvBool("DEV", true),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			SchemaVersion: getEnv("SCHEMA_VERSION", "1"),
			SeedDemo:      getEnvBool("SEED_DEMO", false),
			DefaultRegion: getEnv("DEFAULT_REGION", "IN"),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", "memory")),
			SQLitePath: getEnv("STORE_SQLITE_PATH", "cobbler.db"),
			QuotaBytes: int64(getEnvInt("STORE_QUOTA_BYTES", 5<<20)),
			GCSBucket:  getEnv("GCS_BUCKET", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "cobbler"),
			Password: getEnv("DB_PASSWORD", "cobbler123"),
			DBName:   getEnv("DB_NAME", "cobbler"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		API: APIConfig{
			BaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
			Token:        getEnv("API_TOKEN", ""),
			Timeout:      getEnvDuration("API_TIMEOUT", 10*time.Second),
			PollInterval: ClampPollInterval(getEnvDuration("POLL_INTERVAL", 5*time.Second)),
		},
		Images: ImageConfig{
			MaxDimension: getEnvInt("IMAGE_MAX_DIMENSION", 1280),
			Quality:      getEnvInt("IMAGE_QUALITY", 75),
		},
	}
}

// ClampPollInterval keeps d within [MinPollInterval, MaxPollInterval].
func ClampPollInterval(d time.Duration) time.Duration {
	if d < MinPollInterval {
		return MinPollInterval
	}
	if d > MaxPollInterval {
		return MaxPollInterval
	}
	return d
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

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration accepts Go durations ("5s") or plain seconds ("5").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if s, err := strconv.Atoi(value); err == nil {
		return time.Duration(s) * time.Second
	}
	return defaultValue
}
