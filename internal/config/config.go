package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	// FileBaseDir is the root directory for uploaded file blobs.
	FileBaseDir string `json:"file_base_dir"`
	// OllamaBaseURL seeds the server registry when it is empty.
	OllamaBaseURL string `json:"ollama_base_url"`
	// DefaultModel is used when a request does not name a model.
	DefaultModel string `json:"default_model"`
	// MonitorIntervalSeconds overrides the server health check period.
	MonitorIntervalSeconds int `json:"monitor_interval_seconds"`
	// ResponseCacheTTLMinutes bounds how long generated responses stay cached.
	ResponseCacheTTLMinutes int `json:"response_cache_ttl_minutes"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.BasicConfig.OllamaBaseURL == "" {
		cfg.BasicConfig.OllamaBaseURL = "http://localhost:11434"
	}
	if cfg.BasicConfig.DefaultModel == "" {
		cfg.BasicConfig.DefaultModel = "deepseek-r1:1.5b"
	}
	if cfg.BasicConfig.FileBaseDir == "" {
		cfg.BasicConfig.FileBaseDir = "./uploads"
	}

	return &cfg, nil
}
