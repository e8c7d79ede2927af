// Package config loads application configuration from environment variables.
// All variables use the MEDSTUDY_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends accepted by MEDSTUDY_STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig
	Storage        StorageConfig
	Database       DatabaseConfig
	Cache          CacheConfig
	AI             AIConfig
	Exam           ExamConfig
	Log            LogConfig
	CurriculumPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects where the study snapshot lives.
type StorageConfig struct {
	Backend    string
	Path       string // file backend
	SQLitePath string
	Slot       string // row/key for shared backends
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings.
type CacheConfig struct {
	URL         string
	Enabled     bool
	TipTTLHours int
}

// TipTTL returns the mentor tip cache lifetime.
func (c CacheConfig) TipTTL() time.Duration {
	return time.Duration(c.TipTTLHours) * time.Hour
}

// AIConfig holds configuration for the text-generation providers.
type AIConfig struct {
	Google           GoogleConfig
	OpenAI           OpenAIConfig
	DailyTokenBudget int // 0 = unlimited
	TimeoutSeconds   int
}

// Timeout bounds a single mentor call.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig holds settings for any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ExamConfig seeds the target-exam preferences of a fresh snapshot.
type ExamConfig struct {
	Name string
	Date string // YYYY-MM-DD
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with MEDSTUDY_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("MEDSTUDY_SERVER_PORT", 8080),
			Host: envStr("MEDSTUDY_SERVER_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(envStr("MEDSTUDY_STORAGE_BACKEND", BackendFile)),
			Path:       envStr("MEDSTUDY_STORAGE_PATH", "./data/medstudy.json"),
			SQLitePath: envStr("MEDSTUDY_SQLITE_PATH", "./data/medstudy.db"),
			Slot:       envStr("MEDSTUDY_STORAGE_SLOT", "default"),
		},
		Database: DatabaseConfig{
			URL:      envStr("MEDSTUDY_DATABASE_URL", ""),
			MaxConns: envInt("MEDSTUDY_DATABASE_MAX_CONNS", 5),
			MinConns: envInt("MEDSTUDY_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL:         envStr("MEDSTUDY_CACHE_URL", "redis://localhost:6379"),
			Enabled:     envBool("MEDSTUDY_CACHE_ENABLED", false),
			TipTTLHours: envInt("MEDSTUDY_TIP_CACHE_TTL_HOURS", 168),
		},
		AI: AIConfig{
			Google: GoogleConfig{
				APIKey: envStr("MEDSTUDY_AI_GOOGLE_API_KEY", ""),
				Model:  envStr("MEDSTUDY_AI_GOOGLE_MODEL", "gemini-2.5-flash"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  envStr("MEDSTUDY_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("MEDSTUDY_AI_OPENAI_BASE_URL", ""),
				Model:   envStr("MEDSTUDY_AI_OPENAI_MODEL", "gpt-4o-mini"),
			},
			DailyTokenBudget: envInt("MEDSTUDY_AI_DAILY_TOKEN_BUDGET", 0),
			TimeoutSeconds:   envInt("MEDSTUDY_AI_TIMEOUT_SECONDS", 30),
		},
		Exam: ExamConfig{
			Name: envStr("MEDSTUDY_EXAM_NAME", ""),
			Date: envStr("MEDSTUDY_EXAM_DATE", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envStr("MEDSTUDY_LOG_LEVEL", "info")),
			Format: strings.ToLower(envStr("MEDSTUDY_LOG_FORMAT", "json")),
		},
		CurriculumPath: envStr("MEDSTUDY_CURRICULUM_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("MEDSTUDY_STORAGE_BACKEND must be one of file, sqlite, postgres, redis, memory; got %q", c.Storage.Backend)
	}

	if c.Storage.Backend == BackendPostgres && c.Database.URL == "" {
		return fmt.Errorf("MEDSTUDY_DATABASE_URL is required for the postgres backend")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("MEDSTUDY_LOG_LEVEL must be debug, info, warn or error; got %q", c.Log.Level)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("MEDSTUDY_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if c.AI.DailyTokenBudget < 0 {
		return fmt.Errorf("MEDSTUDY_AI_DAILY_TOKEN_BUDGET must not be negative")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("MEDSTUDY_AI_TIMEOUT_SECONDS must be positive")
	}

	if c.Exam.Date != "" {
		if _, err := time.Parse(time.DateOnly, c.Exam.Date); err != nil {
			return fmt.Errorf("MEDSTUDY_EXAM_DATE must be YYYY-MM-DD: %w", err)
		}
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Google.APIKey != "" || c.AI.OpenAI.APIKey != ""
}

// NeedsCache reports whether any component needs a Redis connection.
func (c *Config) NeedsCache() bool {
	return c.Cache.Enabled || c.Storage.Backend == BackendRedis
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
