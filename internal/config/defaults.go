// Package config provides configuration loading and defaults for tipwatch.
package config

import "time"

// DefaultConfigDir is the default location for tipwatch configuration.
const DefaultConfigDir = "~/.config/tipwatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "tipwatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix namespaces environment overrides, e.g. TIPWATCH_LOOKBACK_DAYS.
const EnvPrefix = "TIPWATCH"

// DefaultLookbackDays bounds the project and cross-project history window.
const DefaultLookbackDays = 30

// DefaultCacheTTL is how long resolved statistics stay cached.
const DefaultCacheTTL = time.Hour

// DefaultQueryTimeout bounds each history query.
const DefaultQueryTimeout = 3 * time.Second

// DefaultMaxTips caps the tips shown per analysis.
const DefaultMaxTips = 5

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
