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
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Risk   RiskConfig   `yaml:"risk" mapstructure:"risk"`
	Verify VerifyConfig `yaml:"verify" mapstructure:"verify"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RiskConfig configures the scoring engine.
type RiskConfig struct {
	// TablesPath optionally overrides the built-in reference tables with a
	// YAML file. Empty means use the defaults.
	TablesPath string `yaml:"tables_path" mapstructure:"tables_path"`
}

// VerifyConfig configures automated verification checks.
type VerifyConfig struct {
	// RegistryURL points at an external registry cross-check service. Empty
	// means the built-in simulated registry is used.
	RegistryURL  string  `yaml:"registry_url" mapstructure:"registry_url"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	// MaxRetries counts retries after the first attempt.
	MaxRetries   int `yaml:"max_retries" mapstructure:"max_retries"`
	SimLatencyMs int `yaml:"sim_latency_ms" mapstructure:"sim_latency_ms"`
}

// BatchConfig configures bulk recomputation.
type BatchConfig struct {
	MaxConcurrentSuppliers int `yaml:"max_concurrent_suppliers" mapstructure:"max_concurrent_suppliers"`
}

// NotifyConfig configures outbound event delivery.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("SUPPLIERRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "supplier-risk.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_suppliers", 5)
	v.SetDefault("verify.timeout_secs", 15)
	v.SetDefault("verify.rate_per_sec", 5)
	v.SetDefault("verify.max_retries", 2)
	v.SetDefault("verify.sim_latency_ms", 50)

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
