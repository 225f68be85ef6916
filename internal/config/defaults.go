package config

import (
	"strings"
	"time"

	"github.com/hyperjump/kaku/internal/retry"
)

const (
	DefaultSearchBaseURL     = "https://api.exa.ai"
	DefaultGenerationBaseURL = "https://api.openai.com/v1"
	DefaultModel             = "gpt-3.5-turbo"
	DefaultTemperature       = 1.0
	DefaultTopP              = 0.95
)

// RetryBudget is the longest a full generation can take: one search, every
// generation attempt timing out, and the largest possible wait between attempts.
func RetryBudget(search SearchConfig, gen GenerationConfig) time.Duration {
	budget := search.Timeout + time.Duration(retry.DefaultMaxAttempts)*gen.Timeout
	for attempt := 1; attempt < retry.DefaultMaxAttempts; attempt++ {
		budget += retry.ExponentialCeiling(attempt, retry.DefaultMinWait, retry.DefaultMaxWait)
	}
	return budget
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = DefaultSearchBaseURL
	}
	cfg.Search.BaseURL = strings.TrimRight(cfg.Search.BaseURL, "/")
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 30 * time.Second
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = DefaultGenerationBaseURL
	}
	cfg.Generation.BaseURL = strings.TrimRight(cfg.Generation.BaseURL, "/")
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = DefaultModel
	}
	if cfg.Generation.Temperature == nil {
		cfg.Generation.Temperature = Float64(DefaultTemperature)
	}
	if cfg.Generation.TopP == nil {
		cfg.Generation.TopP = Float64(DefaultTopP)
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = RetryBudget(cfg.Search, cfg.Generation)
	}
}
