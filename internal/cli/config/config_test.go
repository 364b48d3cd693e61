package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlrepl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestLoadConfig_Defaults tests that an empty load yields the defaults.
func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "http://localhost:8765/db.sqlite", cfg.Source)
	assert.Equal(t, 60*time.Second, cfg.InitTimeout)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

// TestLoadConfig_File tests loading nested values and durations from YAML.
func TestLoadConfig_File(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
source: ./demo.sqlite
engine: SQLite
init_timeout: 5s
query_timeout: 250ms
splash: false
output: json
server:
  addr: ":9000"
  rate_limit: 2.5
  rate_burst: 5
  watch: false
  secure_cookie: true
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "./demo.sqlite", cfg.Source)
	assert.Equal(t, "sqlite", cfg.Engine, "engine names are normalised")
	assert.Equal(t, 5*time.Second, cfg.InitTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.QueryTimeout)
	assert.False(t, cfg.Splash)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.InDelta(t, 2.5, cfg.Server.RateLimit, 0.0001)
	assert.Equal(t, 5, cfg.Server.RateBurst)
	assert.False(t, cfg.Server.Watch)
	assert.True(t, cfg.Server.SecureCookie)
	assert.Equal(t, DefaultImagePath, cfg.Server.ImagePath, "unset nested keys keep defaults")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override the config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "source: from_file\nserver:\n  addr: file:1\n")
	t.Setenv("SQLREPL_SOURCE", "from_env")
	t.Setenv("SQLREPL_SERVER_ADDR", "env:2")
	t.Setenv("SQLREPL_INIT_TIMEOUT", "0s")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Source)
	assert.Equal(t, "env:2", cfg.Server.Addr)
	assert.Zero(t, cfg.InitTimeout)
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "source: from_file\n")
	t.Setenv("SQLREPL_SOURCE", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("source", "", "image source")
	flags.Duration("init-timeout", 0, "bootstrap bound")
	flags.String("server-addr", "", "listen address")
	flags.String("output", "table", "output format")
	require.NoError(t, flags.Set("source", "from_flag"))
	require.NoError(t, flags.Set("init-timeout", "3s"))
	require.NoError(t, flags.Set("server-addr", "flag:3"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.Source, "flag value should override config file and env var")
	assert.Equal(t, 3*time.Second, cfg.InitTimeout)
	assert.Equal(t, "flag:3", cfg.Server.Addr)
	assert.Equal(t, DefaultOutput, cfg.Output, "unset flags do not override")
}

// TestLoadConfig_Invalid tests that invalid values are rejected at load time.
func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "unknown engine", content: "engine: oracle\n", errSubstr: "unknown engine"},
		{name: "unknown output", content: "output: xml\n", errSubstr: "unknown output format"},
		{name: "negative timeout", content: "init_timeout: -1s\n", errSubstr: "init_timeout"},
		{name: "bad duration", content: "query_timeout: soon\n", errSubstr: "unable to decode config"},
		{name: "bad log level", content: "log_level: loud\n", errSubstr: "unknown log level"},
		{name: "missing file", content: "", errSubstr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.content != "" {
				path = writeConfig(t, tt.content)
			}

			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

// TestConfig_Validate tests the Config.Validate method.
func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Defaults().Validate())
	})

	t.Run("unknown engine lists available", func(t *testing.T) {
		cfg := Defaults()
		cfg.Engine = "mysql"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
		assert.Contains(t, err.Error(), "sqlrepl.yaml")
	})

	t.Run("burst required with rate limit", func(t *testing.T) {
		cfg := Defaults()
		cfg.Server.RateBurst = 0
		assert.Error(t, cfg.Validate())

		cfg.Server.RateLimit = 0
		assert.NoError(t, cfg.Validate(), "rate limiting disabled")
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "source", envKey("SQLREPL_SOURCE"))
	assert.Equal(t, "init_timeout", envKey("SQLREPL_INIT_TIMEOUT"))
	assert.Equal(t, "server.rate_limit", envKey("SQLREPL_SERVER_RATE_LIMIT"))
	assert.Equal(t, "server.session_secret", flagKey("server-session-secret"))
	assert.Equal(t, "log_level", flagKey("log-level"))
}

func TestConfig_LoaderConfig(t *testing.T) {
	cfg := Defaults()
	cfg.AssetHint = "/opt/ext"

	lc := cfg.LoaderConfig("")
	assert.Equal(t, cfg.Source, lc.Source)
	assert.Equal(t, cfg.Engine, lc.Engine)
	assert.Equal(t, DefaultInitTimeout, lc.Timeout)
	assert.Equal(t, "/opt/ext", lc.Options.AssetHint)

	assert.Equal(t, "other", cfg.LoaderConfig("other").Source)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := Defaults()
	cfg.LogFormat = "json"
	logger, closeLog, err := NewLogger(cfg, &buf)
	require.NoError(t, err)
	defer func() { _ = closeLog() }()

	logger.Debug("hidden")
	logger.Info("shown", "engine", "sqlite")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"engine":"sqlite"`)

	buf.Reset()
	cfg.Verbose = true
	cfg.LogFormat = "text"
	logger, _, err = NewLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestNewLogger_File(t *testing.T) {
	cfg := Defaults()
	cfg.LogFile = filepath.Join(t.TempDir(), "sqlrepl.log")

	logger, closeLog, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger, _, err := NewLogger(Defaults(), nil)
	require.NoError(t, err)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		_, err := ParseLevel(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
