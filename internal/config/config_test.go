// Package config tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/google-ads-mcp/internal/retry"
)

// isolate points HOME at an empty directory and clears the credential envs.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"GOOGLE_ADS_DEVELOPER_TOKEN",
		"GOOGLE_ADS_LOGIN_CUSTOMER_ID",
		"GOOGLE_ADS_ACCESS_TOKEN",
		"GOOGLE_ADS_CONFIGURATION_FILE_PATH",
		"LOG_LEVEL",
		"RETRY_MAX_ATTEMPTS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return home
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://googleads.googleapis.com", cfg.APIEndpoint)
	assert.Equal(t, "v20", cfg.APIVersion)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 256, cfg.DocsCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.DocsCacheTTL)
	assert.False(t, cfg.DocsVerify)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.Configured())
	assert.Equal(t, retry.DefaultPolicy(), cfg.RetryPolicy())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_ADS_DEVELOPER_TOKEN", "dev")
	t.Setenv("GOOGLE_ADS_ACCESS_TOKEN", "ya29.token")
	t.Setenv("GOOGLE_ADS_LOGIN_CUSTOMER_ID", "111-222-3333")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Configured())
	assert.Equal(t, "1112223333", cfg.LoginCustomerID)
	assert.Equal(t, 5, cfg.RetryPolicy().MaxAttempts)
}

func TestLoad_DefaultFileFillsMissingValues(t *testing.T) {
	home := isolate(t)
	writeFile(t, home, "developer_token: file-dev\nlogin_customer_id: 1234567890\naccess_token: file-token\n")
	t.Setenv("GOOGLE_ADS_DEVELOPER_TOKEN", "env-dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-dev", cfg.DeveloperToken)
	assert.Equal(t, "file-token", cfg.AccessToken)
	assert.Equal(t, "1234567890", cfg.LoginCustomerID)
	assert.Equal(t, filepath.Join(home, DefaultConfigFile), cfg.ConfigPath)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "developer_token: explicit\n")
	t.Setenv("GOOGLE_ADS_CONFIGURATION_FILE_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.DeveloperToken)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_ADS_CONFIGURATION_FILE_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, home, "developer_token: [unterminated\n")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	isolate(t)
	t.Setenv("RETRY_BASE_DELAY", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LogLevel:            "debug",
			RequestTimeout:      time.Second,
			DocsCacheSize:       1,
			RetryMaxAttempts:    3,
			RetryBaseDelay:      time.Second,
			RetryMaxDelay:       time.Minute,
			RetryJitterFraction: 0.1,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"login customer id", func(c *Config) { c.LoginCustomerID = "12" }},
		{"timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"cache size", func(c *Config) { c.DocsCacheSize = 0 }},
		{"cache ttl", func(c *Config) { c.DocsCacheTTL = -time.Second }},
		{"attempts", func(c *Config) { c.RetryMaxAttempts = 0 }},
		{"jitter", func(c *Config) { c.RetryJitterFraction = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
