package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dashboard service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Databases DatabasesConfig `mapstructure:"databases"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// DatasetConfig points at the raw trip export and controls refresh behaviour.
type DatasetConfig struct {
	Source      string        `mapstructure:"source"`       // http(s) URL or local file path
	RefreshCron string        `mapstructure:"refresh_cron"` // empty disables scheduled refresh
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

func (d DatasetConfig) Validate() error {
	if strings.TrimSpace(d.Source) == "" {
		return fmt.Errorf("dataset.source is required")
	}
	return nil
}

// ProvidersConfig contains external agent provider settings.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig contains the chat completion settings for the command agent.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	CompletionModel string        `mapstructure:"completion_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// DatabasesConfig contains external store connection settings.
type DatabasesConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains the remote row store connection settings. The row
// store is optional; remote queries are reported as unavailable without it.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Configured reports whether a row store connection can be built at all.
func (p PostgresConfig) Configured() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

// DSN builds the connection string from either the url or the parts.
func (p PostgresConfig) DSN() (string, error) {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL, nil
	}
	if strings.TrimSpace(p.Host) == "" || strings.TrimSpace(p.DBName) == "" {
		return "", fmt.Errorf("postgres not configured (databases.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains Redis connection settings. Redis is optional; without
// it the snapshot cache and the refresh lock are simply skipped.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.Host) != "" && strings.TrimSpace(r.Port) != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// LoadConfig loads config from file, with TRIPDASH_* env overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.SetDefault("general.listen", ":10040")
	v.SetDefault("general.log_level", "info")
	// declared so TRIPDASH_DATASET_SOURCE can satisfy it without a config file
	v.SetDefault("dataset.source", "")
	v.SetDefault("dataset.refresh_cron", "")
	v.SetDefault("dataset.snapshot_ttl", "168h")
	v.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	v.SetDefault("providers.openai.temperature", 0.2)
	v.SetDefault("providers.openai.max_tokens", 1024)
	v.SetDefault("providers.openai.timeout", "30s")

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("TRIPDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// env-only operation is fine as long as required keys resolve
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Dataset.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
