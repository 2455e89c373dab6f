// Package config provides a reusable loader for pstore's server and CLI
// configuration. It mirrors pkg/config from the codebase this project was
// bootstrapped from: a viper-backed loader with environment overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/orbas1/pstore/pkg/utils"
)

// Config is the unified configuration for a pstore server or CLI invocation.
type Config struct {
	Server struct {
		Addr           string `mapstructure:"addr" json:"addr"`
		SelectTimeoutS int    `mapstructure:"select_timeout_s" json:"select_timeout_s"`
	} `mapstructure:"server" json:"server"`

	Store struct {
		Path        string `mapstructure:"path" json:"path"`
		LRUSegments int    `mapstructure:"lru_segments" json:"lru_segments"`
	} `mapstructure:"store" json:"store"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load.
var AppConfig Config

// Default returns a Config populated with pstore's defaults.
func Default() Config {
	var c Config
	c.Server.Addr = utils.EnvString("PSTORE_ADDR", ":8080")
	c.Server.SelectTimeoutS = utils.EnvInt("PSTORE_SELECT_TIMEOUT_S", 60)
	c.Store.Path = utils.EnvString("PSTORE_PATH", "pstore.db")
	c.Store.LRUSegments = utils.EnvInt("PSTORE_LRU_SEGMENTS", 256)
	c.Logging.Level = utils.EnvString("PSTORE_LOG_LEVEL", "info")
	return c
}

// Load reads configuration from an optional file path (if non-empty) merged
// with environment variables prefixed PSTORE_, falling back to Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("PSTORE")
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("decode config %q: %w", path, err)
		}
	}
	AppConfig = cfg
	return &cfg, nil
}
