// Package config loads application configuration from file and
// environment and owns the global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" mapstructure:"serpapi"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the enrichment cache backend.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN         string `yaml:"dsn" mapstructure:"dsn"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxAgeDays  int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// CatalogConfig points at the product catalog CSV.
type CatalogConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Limit int    `yaml:"limit" mapstructure:"limit"` // candidates per query
}

// SerpAPIConfig holds SerpAPI credentials and rate limits.
type SerpAPIConfig struct {
	Key   string  `yaml:"key" mapstructure:"key"`
	RPS   float64 `yaml:"rps" mapstructure:"rps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// TavilyConfig holds Tavily web search credentials.
type TavilyConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// AnthropicConfig holds Anthropic API settings for extraction.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// EnrichConfig tunes the enrichment orchestrator.
type EnrichConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxResults  int `yaml:"max_results" mapstructure:"max_results"`
}

// SourcesConfig points at the optional fetcher priority file.
type SourcesConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int `yaml:"port" mapstructure:"port"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GLAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key gets one, including empty-string secrets and
	// paths: viper only decodes keys it knows about, so a key without a
	// default would be invisible when set via environment alone.
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dsn", "data/enrichment_cache.sqlite3")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.max_age_days", 365)
	v.SetDefault("catalog.path", "data/products.csv")
	v.SetDefault("catalog.limit", 8)
	v.SetDefault("serpapi.key", "")
	v.SetDefault("serpapi.rps", 5.0)
	v.SetDefault("serpapi.burst", 5)
	v.SetDefault("tavily.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.max_results", 3)
	v.SetDefault("sources.config_path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
