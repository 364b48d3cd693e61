// Package config provides configuration management for the sqlrepl CLI.
//
// Values are layered from defaults, an optional sqlrepl.yaml file,
// SQLREPL_* environment variables and explicitly set command-line flags,
// in increasing order of precedence.
package config

import (
	"time"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
)

// ServerConfig holds configuration for the web console server.
type ServerConfig struct {
	Addr          string  `koanf:"addr"`
	ImagePath     string  `koanf:"image_path"`
	Source        string  `koanf:"source"`
	SessionSecret string  `koanf:"session_secret"`
	SecureCookie  bool    `koanf:"secure_cookie"`
	RateLimit     float64 `koanf:"rate_limit"`
	RateBurst     int     `koanf:"rate_burst"`
	Watch         bool    `koanf:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	Source       string        `koanf:"source"`
	Engine       string        `koanf:"engine"`
	AssetHint    string        `koanf:"asset_hint"`
	InitTimeout  time.Duration `koanf:"init_timeout"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
	Splash       bool          `koanf:"splash"`
	Output       string        `koanf:"output"`
	LogLevel     string        `koanf:"log_level"`
	LogFormat    string        `koanf:"log_format"`
	LogFile      string        `koanf:"log_file"`
	Verbose      bool          `koanf:"verbose"`
	Server       ServerConfig  `koanf:"server"`
}

// Default configuration values.
const (
	DefaultSource      = engine.DefaultSource
	DefaultEngine      = engine.SQLiteName
	DefaultInitTimeout = 60 * time.Second
	DefaultOutput      = "table"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultServerAddr  = "localhost:8765"
	DefaultImagePath   = "db.sqlite"
	DefaultRateLimit   = 20.0
	DefaultRateBurst   = 40
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Source:      DefaultSource,
		Engine:      DefaultEngine,
		InitTimeout: DefaultInitTimeout,
		Splash:      true,
		Output:      DefaultOutput,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		Server: ServerConfig{
			Addr:      DefaultServerAddr,
			ImagePath: DefaultImagePath,
			RateLimit: DefaultRateLimit,
			RateBurst: DefaultRateBurst,
			Watch:     true,
		},
	}
}

// LoaderConfig builds engine loader settings from the configuration.
func (c *Config) LoaderConfig(source string) engine.LoaderConfig {
	if source == "" {
		source = c.Source
	}
	return engine.LoaderConfig{
		Engine:  c.Engine,
		Source:  source,
		Timeout: c.InitTimeout,
		Options: engine.Options{AssetHint: c.AssetHint},
	}
}
