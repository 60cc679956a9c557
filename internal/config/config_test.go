package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 2*time.Second, cfg.OpenTimeout.Std())
	assert.Equal(t, 5*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 50, cfg.AllPaginationSize)
	assert.False(t, cfg.RemoveResponseLinks)
	assert.False(t, cfg.RemoveResponseKeyUnderscores)
	assert.True(t, cfg.UnderscoreResponseKeys)
	assert.False(t, cfg.RespondWithTrue)
	assert.True(t, cfg.RaiseErrorRequests)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogHeaders)
	assert.False(t, cfg.LogBodies)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `{
		"api_url": "https://shop.example.com/api/",
		"client_id": "file-id",
		"timeout": 10,
		"open_timeout": "500ms",
		"all_pagination_size": 20,
		"remove_response_links": true
	}`)
	t.Setenv(envConfigFile, path)
	t.Setenv(envNoDotenv, "1")
	t.Setenv("BEYOND_CLIENT_ID", "env-id")
	t.Setenv("BEYOND_LOG_LEVEL", "DEBUG")
	t.Setenv("BEYOND_UNDERSCORE_RESPONSE_KEYS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api", cfg.APIURL)
	assert.Equal(t, "env-id", cfg.ClientID)
	assert.Equal(t, 10*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.OpenTimeout.Std())
	assert.Equal(t, 20, cfg.AllPaginationSize)
	assert.True(t, cfg.RemoveResponseLinks)
	assert.False(t, cfg.UnderscoreResponseKeys)
	assert.True(t, cfg.RaiseErrorRequests, "untouched keys keep defaults")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv(envConfigFile, filepath.Join(t.TempDir(), "nope.json"))
	t.Setenv(envNoDotenv, "1")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	dir := t.TempDir()
	original := userConfigDir
	userConfigDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userConfigDir = original })

	t.Setenv(envConfigFile, "")
	t.Setenv(envNoDotenv, "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAllPaginationSize, cfg.AllPaginationSize)
}

func TestLoad_InvalidJSON(t *testing.T) {
	t.Setenv(envConfigFile, writeConfigFile(t, `{"api_url":`))
	t.Setenv(envNoDotenv, "1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BEYOND_TEST_DOTENV_VALUE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BEYOND_TEST_DOTENV_VALUE") })

	loadDotenv(path)
	assert.Equal(t, "from-dotenv", os.Getenv("BEYOND_TEST_DOTENV_VALUE"))

	// missing files are ignored
	loadDotenv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestApplyEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"bad bool", "BEYOND_LOG_BODIES", "maybe"},
		{"bad int", "BEYOND_ALL_PAGINATION_SIZE", "lots"},
		{"bad duration", "BEYOND_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			cfg := Default()
			err := ApplyEnv(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestApplyEnv_Values(t *testing.T) {
	t.Setenv("BEYOND_API_URL", "https://a.example.com")
	t.Setenv("BEYOND_CLIENT_SECRET", "s3cret")
	t.Setenv("BEYOND_RESPOND_WITH_TRUE", "yes")
	t.Setenv("BEYOND_MAX_5XX_RETRIES", "4")
	t.Setenv("BEYOND_CACHE_TTL", "1m")
	t.Setenv("BEYOND_REDIS_URL", "redis://localhost:6379/0")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))

	assert.Equal(t, "https://a.example.com", cfg.APIURL)
	assert.Equal(t, "s3cret", cfg.ClientSecret)
	assert.True(t, cfg.RespondWithTrue)
	assert.Equal(t, 4, cfg.Max5xxRetries)
	assert.Equal(t, time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"missing url", func(c *Config) { c.APIURL = "" }, "api url not configured"},
		{"bad scheme", func(c *Config) { c.APIURL = "ftp://x" }, "must start with"},
		{"plain http remote", func(c *Config) { c.APIURL = "http://shop.example.com/api" }, "must use https"},
		{"http loopback", func(c *Config) { c.APIURL = "http://127.0.0.1:8080" }, ""},
		{"zero page size", func(c *Config) { c.AllPaginationSize = 0 }, "all_pagination_size"},
		{"negative timeout", func(c *Config) { c.Timeout = Duration(-time.Second) }, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIURL = "https://shop.example.com/api"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`1.5`), &d))
	assert.Equal(t, 1500*time.Millisecond, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`"3"`), &d))
	assert.Equal(t, 3*time.Second, d.Std())

	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
	assert.Error(t, json.Unmarshal([]byte(`"later"`), &d))

	data, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"2s"`, string(data))
}

func TestDefaultFile(t *testing.T) {
	original := userConfigDir
	userConfigDir = func() (string, error) { return "/tmp/cfg", nil }
	t.Cleanup(func() { userConfigDir = original })

	path, err := DefaultFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/cfg", "beyond-cli", "config.json"), path)
}
