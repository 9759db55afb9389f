package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/types"
)

type Config struct {
	Mode        string   `yaml:"mode"` // LIVE or REPLAY
	PollSeconds int      `yaml:"poll_seconds"`
	Symbols     []string `yaml:"symbols"`
	FeedFile    string   `yaml:"feed_file"`

	// Timeframes defaults to the full supported set. An unknown value here
	// is fatal at startup, never a per-request failure.
	Timeframes []types.Timeframe `yaml:"timeframes"`

	Cache struct {
		Backend string `yaml:"backend"` // memory or redis
		Prefix  string `yaml:"prefix"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	LLM struct {
		Provider       string  `yaml:"provider"` // OPENAI or NOOP
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		System         string  `yaml:"system"`
	} `yaml:"llm"`

	Strategy struct {
		HighConfidence float64 `yaml:"high_confidence"`
		MinConfidence  float64 `yaml:"min_confidence"`
	} `yaml:"strategy"`

	Lock struct {
		AcquireTimeoutSeconds int `yaml:"acquire_timeout_seconds"`
	} `yaml:"lock"`

	Backtest struct {
		Workers int `yaml:"workers"`
	} `yaml:"backtest"`
}

func (c *Config) Validate() error {
	if c.Mode != "LIVE" && c.Mode != "REPLAY" {
		return fmt.Errorf("invalid mode '%s': must be 'LIVE' or 'REPLAY'", c.Mode)
	}
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	if err := schedule.Validate(c.Timeframes); err != nil {
		return fmt.Errorf("timeframes: %w", err)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New("cache.redis.addr required for redis backend")
	}
	if c.LLM.Provider != "OPENAI" && c.LLM.Provider != "NOOP" {
		return fmt.Errorf("llm.provider must be 'OPENAI' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	if c.Strategy.MinConfidence <= 0 || c.Strategy.MinConfidence > 1 {
		return fmt.Errorf("strategy.min_confidence must be in (0,1], got %.2f", c.Strategy.MinConfidence)
	}
	if c.Strategy.HighConfidence < c.Strategy.MinConfidence || c.Strategy.HighConfidence > 1 {
		return fmt.Errorf("strategy.high_confidence must be in [min_confidence,1], got %.2f", c.Strategy.HighConfidence)
	}
	return nil
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Lock.AcquireTimeoutSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if len(c.Timeframes) == 0 {
		c.Timeframes = types.AllTimeframes()
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.Strategy.MinConfidence == 0 {
		c.Strategy.MinConfidence = 0.4
	}
	if c.Strategy.HighConfidence == 0 {
		c.Strategy.HighConfidence = 0.75
	}
	if c.Lock.AcquireTimeoutSeconds == 0 {
		c.Lock.AcquireTimeoutSeconds = 10
	}
	if c.Backtest.Workers == 0 {
		c.Backtest.Workers = 4
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
