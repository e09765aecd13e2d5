// Package config loads the process-wide tunables (page size, buffer pool
// capacity, data directory) the same way tuannm99-novasql's own
// internal/config.go does: a viper instance reading an optional config
// file, overridable by TXNSTORE_-prefixed environment variables, unmarshaled
// into a plain struct so callers never touch viper directly.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the tunables named in the storage engine's configuration
// section: PageSize and BufferPoolCapacity, plus the directory holding
// each table's backing file.
type Config struct {
	PageSize           int    `mapstructure:"page_size"`
	BufferPoolCapacity int    `mapstructure:"buffer_pool_capacity"`
	DataDir            string `mapstructure:"data_dir"`
}

// Defaults returns the engine's built-in defaults, used when no config
// file or environment override is present.
func Defaults() Config {
	return Config{
		PageSize:           4096,
		BufferPoolCapacity: 50,
		DataDir:            "./data",
	}
}

// Load reads configuration from path (if non-empty and present), then
// layers TXNSTORE_PAGE_SIZE / TXNSTORE_BUFFER_POOL_CAPACITY /
// TXNSTORE_DATA_DIR environment overrides on top, falling back to
// Defaults for anything neither sets.
func Load(path string) (*Config, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("buffer_pool_capacity", d.BufferPoolCapacity)
	v.SetDefault("data_dir", d.DataDir)

	v.SetEnvPrefix("txnstore")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// SetConfigFile points viper at an explicit path, so a missing
			// file surfaces as a plain *os.PathError rather than viper's own
			// ConfigFileNotFoundError (that type is only ever produced by
			// viper's search-path lookup) -- both mean "nothing to load,
			// fall back to defaults and env".
			_, isNotFound := err.(viper.ConfigFileNotFoundError)
			if !isNotFound && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
