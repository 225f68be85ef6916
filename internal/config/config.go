// Package config provides configuration loading and structs for the kaku server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvSearchAPIKey       = "EXA_API_KEY"
	EnvSearchAPIKeyLegacy = "METAPHOR_API_KEY"
	EnvGenerationAPIKey   = "OPENAI_API_KEY"
	EnvGenerationBaseURL  = "OPENAI_BASE_URL"
	EnvGenerationModel    = "KAKU_MODEL"
	EnvPort               = "PORT"
	EnvDebug              = "KAKU_DEBUG"
)

// ErrMissingCredential matches any CredentialError via errors.Is.
var ErrMissingCredential = errors.New("missing credential")

// CredentialError reports that a required API key is not configured.
type CredentialError struct {
	Service string
	Env     string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s credential not configured: set %s", e.Service, e.Env)
}

// Is makes errors.Is(err, ErrMissingCredential) true for every CredentialError.
func (e *CredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Search     SearchConfig     `yaml:"search"`
	Generation GenerationConfig `yaml:"generation"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// SearchConfig holds settings for the external search service.
type SearchConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key,omitempty"`
	// RequestsPerSecond throttles outbound search calls; 0 disables throttling.
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// GenerationConfig holds settings for the chat-completion service.
type GenerationConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key,omitempty"`
	Model       string        `yaml:"model"`
	// Temperature and TopP are pointers so that an explicit 0 survives ApplyDefaults.
	Temperature *float64      `yaml:"temperature"`
	TopP        *float64      `yaml:"top_p"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Float64 returns a pointer to v, for setting sampling fields in code.
func Float64(v float64) *float64 {
	return &v
}

// Sampling returns the temperature and top_p to send, falling back to the defaults for unset fields.
func (c *GenerationConfig) Sampling() (temperature, topP float64) {
	temperature, topP = DefaultTemperature, DefaultTopP
	if c.Temperature != nil {
		temperature = *c.Temperature
	}
	if c.TopP != nil {
		topP = *c.TopP
	}
	return temperature, topP
}

// SearchCredential returns the search API key or a CredentialError when it is unset.
func (c *SearchConfig) SearchCredential() (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", &CredentialError{Service: "search", Env: EnvSearchAPIKey}
	}
	return c.APIKey, nil
}

// GenerationCredential returns the generation API key or a CredentialError when it is unset.
func (c *GenerationConfig) GenerationCredential() (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", &CredentialError{Service: "generation", Env: EnvGenerationAPIKey}
	}
	return c.APIKey, nil
}

// Load reads and parses the config file at path, applies defaults and the environment.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)
	return &cfg, nil
}

// Default returns a config built from defaults and the environment only.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg)
	return cfg
}

// Save writes the config to path. API keys are never written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Search.APIKey = ""
	out.Generation.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into the
// process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overlays secrets and a few overrides from the environment.
// Environment values win over the config file.
func ApplyEnv(cfg *Config) {
	if v := firstEnv(EnvSearchAPIKey, EnvSearchAPIKeyLegacy); v != "" {
		cfg.Search.APIKey = v
	}
	if v := firstEnv(EnvGenerationAPIKey); v != "" {
		cfg.Generation.APIKey = v
	}
	if v := firstEnv(EnvGenerationBaseURL); v != "" {
		cfg.Generation.BaseURL = strings.TrimRight(v, "/")
	}
	if v := firstEnv(EnvGenerationModel); v != "" {
		cfg.Generation.Model = v
	}
	if v := firstEnv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := firstEnv(EnvDebug); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
