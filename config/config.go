// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strings"

	"github.com/jcodagnone/closest/spatial"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Unit   string       `yaml:"unit" mapstructure:"unit"`
	Seed   uint64       `yaml:"seed" mapstructure:"seed"` // 0 draws pivots from the global generator
	Format string       `yaml:"format" mapstructure:"format"`
	DB     DBConfig     `yaml:"db" mapstructure:"db"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DBConfig configures the DuckDB record catalog.
type DBConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DistanceUnit parses Unit.
func (c *Config) DistanceUnit() (spatial.Unit, error) {
	u, err := spatial.ParseUnit(c.Unit)
	if err != nil {
		return spatial.Kilometers, eris.Wrap(err, "config: unit")
	}

	return u, nil
}

// flagKeys maps configuration keys to the command line flags overriding them.
var flagKeys = map[string]string{
	"unit":        "unit",
	"seed":        "seed",
	"format":      "format",
	"db.path":     "db",
	"server.addr": "addr",
	"log.level":   "log-level",
	"log.format":  "log-format",
}

// Load reads closest.yaml from path (or the working directory when path is
// empty) and CLOSEST_* environment variables. A missing file is not an error.
// Flags present in flags and set on the command line take precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "config: bind flag %s", name)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("closest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CLOSEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("unit", "km")
	v.SetDefault("seed", 0)
	v.SetDefault("format", "text")
	v.SetDefault("db.path", "")
	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if _, err := cfg.DistanceUnit(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewLogger builds a zap logger: development output for "console", JSON otherwise.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}

	return logger, nil
}

// InitLogger builds a logger and installs it as the zap global.
func InitLogger(cfg LogConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)

	return nil
}
