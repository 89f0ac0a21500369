package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level tipwatch configuration.
type Config struct {
	DBPath       string        `mapstructure:"db_path"`
	LookbackDays int           `mapstructure:"lookback_days"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxTips      int           `mapstructure:"max_tips"`
	RegistryFile string        `mapstructure:"registry_file"`
	Output       Output        `mapstructure:"output"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies TIPWATCH_* environment overrides and returns a validated Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("lookback_days", DefaultLookbackDays)
	v.SetDefault("cache_ttl", DefaultCacheTTL)
	v.SetDefault("query_timeout", DefaultQueryTimeout)
	v.SetDefault("max_tips", DefaultMaxTips)
	v.SetDefault("registry_file", "")
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// A missing config file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.DBPath = expandPath(cfg.DBPath)
	cfg.RegistryFile = expandPath(cfg.RegistryFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot honour.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return errors.New("config: db_path must not be empty")
	case c.LookbackDays < 0:
		return fmt.Errorf("config: lookback_days must be >= 0, got %d", c.LookbackDays)
	case c.CacheTTL < 0:
		return fmt.Errorf("config: cache_ttl must be >= 0, got %s", c.CacheTTL)
	case c.QueryTimeout <= 0:
		return fmt.Errorf("config: query_timeout must be positive, got %s", c.QueryTimeout)
	case c.MaxTips < 1 || c.MaxTips > DefaultMaxTips:
		return fmt.Errorf("config: max_tips must be between 1 and %d, got %d", DefaultMaxTips, c.MaxTips)
	}
	return nil
}

// DBPath returns the default path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
