package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/p-blackswan/google-ads-mcp/internal/retry"
)

// DefaultConfigFile is read from the home directory when
// GOOGLE_ADS_CONFIGURATION_FILE_PATH is not set.
const DefaultConfigFile = "google-ads.yaml"

var customerIDPattern = regexp.MustCompile(`^\d{10}$`)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Google Ads credentials. Optional: without them the server starts and
	// every remote tool reports not configured.
	DeveloperToken  string `envconfig:"GOOGLE_ADS_DEVELOPER_TOKEN"`
	LoginCustomerID string `envconfig:"GOOGLE_ADS_LOGIN_CUSTOMER_ID"`
	AccessToken     string `envconfig:"GOOGLE_ADS_ACCESS_TOKEN"`
	ConfigPath      string `envconfig:"GOOGLE_ADS_CONFIGURATION_FILE_PATH"`

	// API
	APIEndpoint    string        `envconfig:"GOOGLE_ADS_API_ENDPOINT" default:"https://googleads.googleapis.com"`
	APIVersion     string        `envconfig:"GOOGLE_ADS_API_VERSION" default:"v20"`
	RequestTimeout time.Duration `envconfig:"GOOGLE_ADS_REQUEST_TIMEOUT" default:"60s"`

	// Retry
	RetryMaxAttempts    int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay      time.Duration `envconfig:"RETRY_BASE_DELAY" default:"5s"`
	RetryMaxDelay       time.Duration `envconfig:"RETRY_MAX_DELAY" default:"60s"`
	RetryJitterFraction float64       `envconfig:"RETRY_JITTER_FRACTION" default:"0.1"`

	// Documentation links
	DocsVerify    bool          `envconfig:"DOCS_VERIFY" default:"false"`
	DocsTimeout   time.Duration `envconfig:"DOCS_TIMEOUT" default:"10s"`
	DocsCacheSize int           `envconfig:"DOCS_CACHE_SIZE" default:"256"`
	DocsCacheTTL  time.Duration `envconfig:"DOCS_CACHE_TTL" default:"24h"`

	// Metrics endpoint; empty disables it
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// fileConfig is the subset of google-ads.yaml this server understands.
type fileConfig struct {
	DeveloperToken  string `yaml:"developer_token"`
	LoginCustomerID any    `yaml:"login_customer_id"`
	AccessToken     string `yaml:"access_token"`
}

// Configured returns true if credentials for remote calls are present.
func (c *Config) Configured() bool {
	return c.DeveloperToken != "" && c.AccessToken != ""
}

// RetryPolicy returns the retry settings as a policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    c.RetryMaxAttempts,
		BaseDelay:      c.RetryBaseDelay,
		MaxDelay:       c.RetryMaxDelay,
		JitterFraction: c.RetryJitterFraction,
	}
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LoginCustomerID != "" && !customerIDPattern.MatchString(c.LoginCustomerID) {
		errs = append(errs, fmt.Errorf("GOOGLE_ADS_LOGIN_CUSTOMER_ID %q must be 10 digits", c.LoginCustomerID))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("GOOGLE_ADS_REQUEST_TIMEOUT must be positive"))
	}
	if c.DocsCacheSize < 1 {
		errs = append(errs, fmt.Errorf("DOCS_CACHE_SIZE must be >= 1, got %d", c.DocsCacheSize))
	}
	if c.DocsCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("DOCS_CACHE_TTL must not be negative, got %s", c.DocsCacheTTL))
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables, then fills missing
// credentials from the google-ads.yaml file.
func Load() (*Config, error) {
	return LoadWithPrefix("")
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	if err := cfg.mergeFile(); err != nil {
		return nil, err
	}
	cfg.LoginCustomerID = strings.ReplaceAll(strings.TrimSpace(cfg.LoginCustomerID), "-", "")
	return &cfg, nil
}

// mergeFile applies the credentials file. An explicitly configured file must
// exist; the default one is optional.
func (c *Config) mergeFile() error {
	path, explicit := c.ConfigPath, c.ConfigPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, DefaultConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	c.ConfigPath = path

	if c.DeveloperToken == "" {
		c.DeveloperToken = fc.DeveloperToken
	}
	if c.AccessToken == "" {
		c.AccessToken = fc.AccessToken
	}
	if c.LoginCustomerID == "" && fc.LoginCustomerID != nil {
		c.LoginCustomerID = fmt.Sprint(fc.LoginCustomerID)
	}
	return nil
}
