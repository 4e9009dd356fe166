package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int              `json:"port"`
	LogConfig        logger.LogConfig `json:"log_config"`
	Database         DatabaseConfig   `json:"database"`
	Embedding        EmbeddingConfig  `json:"embedding"`
	Backfill         BackfillConfig   `json:"backfill"`
	CORSAllowOrigins []string         `json:"cors_allow_origins"`
	// RateLimitSeconds throttles writes to one request per client+path within
	// the window. 0 disables the limiter.
	RateLimitSeconds int `json:"rate_limit_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// EmbeddingConfig selects and configures the server-side remote embedder.
// Data is passed through to the provider factory untouched.
type EmbeddingConfig struct {
	Provider        string      `json:"provider"`
	Model           string      `json:"model"`
	TimeoutSeconds  int         `json:"timeout_seconds"`
	CacheSize       int         `json:"cache_size"`
	CacheTTLSeconds int         `json:"cache_ttl_seconds"`
	DBCache         bool        `json:"db_cache"`
	Data            interface{} `json:"data"`
}

type BackfillConfig struct {
	Enable    bool   `json:"enable"`
	Cron      string `json:"cron"`
	BatchSize int    `json:"batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Backfill.Cron == "" {
		cfg.Backfill.Cron = "*/5 * * * *"
	}
	if cfg.Backfill.BatchSize == 0 {
		cfg.Backfill.BatchSize = 50
	}
	return &cfg, nil
}
