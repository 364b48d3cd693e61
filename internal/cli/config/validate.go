package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/render"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine == "" {
		return fmt.Errorf("engine is required")
	}
	if !engine.IsRegistered(c.Engine) {
		return fmt.Errorf("unknown engine %q (available: %s)\nHint: set 'engine' in sqlrepl.yaml or pass --engine",
			c.Engine, strings.Join(engine.Available(), ", "))
	}
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if _, err := render.ParseFormat(c.Output); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (valid: text, json)", c.LogFormat)
	}
	if c.InitTimeout < 0 {
		return fmt.Errorf("init_timeout must not be negative, got %s", c.InitTimeout)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout must not be negative, got %s", c.QueryTimeout)
	}
	return c.Server.Validate()
}

// Validate checks the server section.
func (s *ServerConfig) Validate() error {
	if s.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if s.RateLimit > 0 && s.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be at least 1 when server.rate_limit is set")
	}
	return nil
}
