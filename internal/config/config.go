package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobmail pipeline.
type Config struct {
	Query     string        // mail search query
	BatchSize int           // max messages fetched per batch
	Interval  time.Duration // pause between batches

	Mail      MailConfig
	AI        AIConfig
	DBPath    string
	StateDir  string // checkpoint files live here
	Blacklist string // newline-delimited keyword file, may be absent
	Log       LogConfig
	Report    ReportConfig
}

// MailConfig controls the Gmail adapter.
type MailConfig struct {
	BaseURL     string        // override for tests; empty means the real API
	AccessToken string        // OAuth bearer token, usually from the env
	Timeout     time.Duration // per-request timeout
}

// AIConfig controls the extraction provider.
type AIConfig struct {
	Provider   string        // "openai" or "ollama"
	BaseURL    string        // openai-compatible endpoint
	Model      string        // model identifier
	APIKey     string        // expanded from env by Load
	Timeout    time.Duration // per-request timeout
	Workers    int           // extraction pool width
	MaxRetries int           // extra attempts after a throttled call
	RetryDelay time.Duration // base backoff delay
	CallDelay  time.Duration // fixed pause before each call, 0 to disable
}

// LogConfig selects handler level and format.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// ReportConfig controls the read-only report server.
type ReportConfig struct {
	Addr string `yaml:"addr"`
}

const (
	defaultQuery = "(subject:applied OR subject:application OR subject:interview " +
		"OR subject:offer OR subject:rejected) after:2024/01/01"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as
// strings).
type rawConfig struct {
	Query     string        `yaml:"query"`
	BatchSize int           `yaml:"batch_size"`
	Interval  string        `yaml:"interval"`
	Mail      rawMailConfig `yaml:"mail"`
	AI        rawAIConfig   `yaml:"ai"`
	DBPath    string        `yaml:"db_path"`
	StateDir  string        `yaml:"state_dir"`
	Blacklist string        `yaml:"blacklist"`
	Log       LogConfig     `yaml:"log"`
	Report    ReportConfig  `yaml:"report"`
}

type rawMailConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
	Timeout     string `yaml:"timeout"`
}

type rawAIConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Timeout    string `yaml:"timeout"`
	Workers    int    `yaml:"workers"`
	MaxRetries int    `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
	CallDelay  string `yaml:"call_delay"`
}

// envOverrides are secrets that take precedence over the YAML file when set.
type envOverrides struct {
	APIKey      string `env:"JOBMAIL_LLM_API_KEY"`
	AccessToken string `env:"JOBMAIL_GMAIL_TOKEN"`
	DBPath      string `env:"JOBMAIL_DB_PATH"`
}

// Load reads the YAML config at path, applies defaults and environment
// overrides, validates, and returns Config. A .env file in the working
// directory is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand ${VAR} references before parsing.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Query:     raw.Query,
		BatchSize: raw.BatchSize,
		Mail: MailConfig{
			BaseURL:     raw.Mail.BaseURL,
			AccessToken: raw.Mail.AccessToken,
		},
		AI: AIConfig{
			Provider:   raw.AI.Provider,
			BaseURL:    raw.AI.BaseURL,
			Model:      raw.AI.Model,
			APIKey:     raw.AI.APIKey,
			Workers:    raw.AI.Workers,
			MaxRetries: raw.AI.MaxRetries,
		},
		DBPath:    raw.DBPath,
		StateDir:  raw.StateDir,
		Blacklist: raw.Blacklist,
		Log:       raw.Log,
		Report:    raw.Report,
	}

	cfg.Interval, err = parseDuration("interval", raw.Interval, 2*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.Mail.Timeout, err = parseDuration("mail.timeout", raw.Mail.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.AI.Timeout, err = parseDuration("ai.timeout", raw.AI.Timeout, 60*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.AI.RetryDelay, err = parseDuration("ai.retry_delay", raw.AI.RetryDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.AI.CallDelay, err = parseDuration("ai.call_delay", raw.AI.CallDelay, 0)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	if overrides.APIKey != "" {
		cfg.AI.APIKey = overrides.APIKey
	}
	if overrides.AccessToken != "" {
		cfg.Mail.AccessToken = overrides.AccessToken
	}
	if overrides.DBPath != "" {
		cfg.DBPath = overrides.DBPath
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Query == "" {
		cfg.Query = defaultQuery
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 400
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.AI.Workers == 0 {
		cfg.AI.Workers = 8
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 3
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "jobs.db"
	}
	if cfg.StateDir == "" {
		cfg.StateDir = "state"
	}
	if cfg.Blacklist == "" {
		cfg.Blacklist = "blacklist.txt"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Report.Addr == "" {
		cfg.Report.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.AI.Workers < 1 {
		return fmt.Errorf("ai.workers must be at least 1, got %d", cfg.AI.Workers)
	}

	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key (or JOBMAIL_LLM_API_KEY) is required for the openai provider")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required for the openai provider")
		}
	case "ollama":
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required for the ollama provider")
		}
	default:
		return fmt.Errorf("ai.provider must be \"openai\" or \"ollama\", got %q", cfg.AI.Provider)
	}

	return nil
}
