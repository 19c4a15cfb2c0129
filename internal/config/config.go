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
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Index  IndexConfig  `yaml:"index" mapstructure:"index"`
	Bench  BenchConfig  `yaml:"bench" mapstructure:"bench"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the build-time relational source.
type SourceConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// IndexConfig configures the serialized container.
type IndexConfig struct {
	ContainerPath string `yaml:"container_path" mapstructure:"container_path"`
}

// BenchConfig configures the query benchmark.
type BenchConfig struct {
	Workers  int     `yaml:"workers" mapstructure:"workers"`
	Requests int     `yaml:"requests" mapstructure:"requests"`
	RatePerS float64 `yaml:"rate_per_s" mapstructure:"rate_per_s"`
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
	v.SetEnvPrefix("ZIPSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.driver", "sqlite")
	v.SetDefault("source.dsn", "simple_db.sqlite")
	v.SetDefault("index.container_path", "indices.bin")
	v.SetDefault("bench.workers", 8)
	v.SetDefault("bench.requests", 10000)
	v.SetDefault("bench.rate_per_s", 0)
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
