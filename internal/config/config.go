package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Store         StoreConfig      `json:"store"`
	AI            AIConfig         `json:"ai"`
	Jobs          JobsConfig       `json:"jobs"`
}

type StoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider         string      `json:"provider"`
	Model            string      `json:"model"`
	Data             interface{} `json:"data"`
	FallbackProvider string      `json:"fallback_provider"`
	FallbackModel    string      `json:"fallback_model"`
	FallbackData     interface{} `json:"fallback_data"`
	EnableWebSearch  bool        `json:"enable_web_search"`
}

type JobsConfig struct {
	OrphanSweepSpec string `json:"orphan_sweep_spec"`
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
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Store.Type == "" {
		return nil, fmt.Errorf("store.type is required")
	}
	if cfg.AI.Provider != "" && cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required when ai.provider is set")
	}
	if cfg.AI.FallbackProvider == "" {
		cfg.AI.FallbackProvider = "openaichat"
	}
	if cfg.AI.FallbackData == nil {
		cfg.AI.FallbackData = cfg.AI.Data
	}
	if cfg.Jobs.OrphanSweepSpec == "" {
		cfg.Jobs.OrphanSweepSpec = "0 4 * * *"
	}
	return &cfg, nil
}
