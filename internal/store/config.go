package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Enabled     bool   `yaml:"enabled"`
	DataSource  string `yaml:"data_source"` // STATIC or CLICKHOUSE
	PollSeconds int    `yaml:"poll_seconds"`

	Scan struct {
		// Timeframes is a spec string like "5m:120,1h:200": timeframe
		// code and candle count per pair.
		Timeframes       string `yaml:"timeframes"`
		MaxRetries       int    `yaml:"max_retries"`
		Parallelism      int    `yaml:"parallelism"`
		TradesTable      string `yaml:"trades_table"`
		FailureThreshold int    `yaml:"failure_threshold"`
		ShutdownSeconds  int    `yaml:"shutdown_seconds"`
	} `yaml:"scan"`

	Risk struct {
		ATRPeriod     int     `yaml:"atr_period"`
		SwingLookback int     `yaml:"swing_lookback"`
		ATRBuffer     float64 `yaml:"atr_buffer"`
		RewardRisk    float64 `yaml:"reward_risk"`
	} `yaml:"risk"`

	Watchlist struct {
		Mode   string   `yaml:"mode"` // STATIC or REDIS
		Static []string `yaml:"static"`
		Source string   `yaml:"source"`
	} `yaml:"watchlist"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	ClickHouse struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Database string `yaml:"database"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Table    string `yaml:"table"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Analyst struct {
		Provider    string  `yaml:"provider"` // OPENAI or empty for noop
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"analyst"`
}

func (c *Config) Validate() error {
	if c.DataSource != "STATIC" && c.DataSource != "CLICKHOUSE" {
		return fmt.Errorf("invalid data_source '%s': must be 'STATIC' or 'CLICKHOUSE'", c.DataSource)
	}
	if c.Scan.Timeframes == "" {
		return fmt.Errorf("scan.timeframes cannot be empty")
	}
	if c.Scan.MaxRetries < 1 {
		return fmt.Errorf("scan.max_retries must be at least 1, got %d", c.Scan.MaxRetries)
	}
	if c.Watchlist.Mode != "STATIC" && c.Watchlist.Mode != "REDIS" {
		return fmt.Errorf("watchlist.mode must be 'STATIC' or 'REDIS', got '%s'", c.Watchlist.Mode)
	}
	if c.Watchlist.Mode == "STATIC" && len(c.Watchlist.Static) == 0 {
		return fmt.Errorf("watchlist.static cannot be empty in STATIC mode")
	}
	return nil
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
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.Scan.MaxRetries == 0 {
		c.Scan.MaxRetries = 3
	}
	if c.Scan.Parallelism == 0 {
		c.Scan.Parallelism = 1
	}
	if c.Scan.TradesTable == "" {
		c.Scan.TradesTable = "trades"
	}
	if c.Scan.FailureThreshold == 0 {
		c.Scan.FailureThreshold = 5
	}
	if c.Scan.ShutdownSeconds == 0 {
		c.Scan.ShutdownSeconds = 10
	}
	if c.Risk.ATRPeriod == 0 {
		c.Risk.ATRPeriod = 14
	}
	if c.Risk.SwingLookback == 0 {
		c.Risk.SwingLookback = 10
	}
	if c.Risk.ATRBuffer == 0 {
		c.Risk.ATRBuffer = 0.5
	}
	if c.Risk.RewardRisk == 0 {
		c.Risk.RewardRisk = 2.0
	}
	if c.Watchlist.Mode == "" {
		c.Watchlist.Mode = "STATIC"
	}
	if c.Watchlist.Source == "" {
		c.Watchlist.Source = "default"
	}
}
