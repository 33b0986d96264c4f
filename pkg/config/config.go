package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the OrgSyn scraper
type Config struct {
	// Target site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Retry behavior for requests and downloads
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Crawl settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds settings for the target site
type SiteConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// RetryConfig holds the shared retry policy for listings and downloads
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BackoffStep time.Duration `yaml:"backoff_step" json:"backoff_step"`
}

// CrawlConfig holds link discovery settings
type CrawlConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Workers       int    `yaml:"workers" json:"workers"`
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:        "http://orgsyn.org",
			UserAgent:      "Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)",
			RequestTimeout: 15 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			BackoffStep: 10 * time.Second,
		},
		Crawl: CrawlConfig{
			Workers: 4,
		},
		Download: DownloadConfig{
			Workers:       4,
			BaseDirectory: "./downloads",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load builds the effective configuration: defaults, then an optional
// config file, then environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Load .env file if present, ignoring a missing file
	_ = godotenv.Load()

	if baseURL := os.Getenv("ORGSYN_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if userAgent := os.Getenv("ORGSYN_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}
	if timeout := os.Getenv("ORGSYN_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid ORGSYN_REQUEST_TIMEOUT: %w", err)
		}
		c.Site.RequestTimeout = d
	}

	if attempts := os.Getenv("ORGSYN_MAX_ATTEMPTS"); attempts != "" {
		var val int
		fmt.Sscanf(attempts, "%d", &val)
		if val > 0 {
			c.Retry.MaxAttempts = val
		}
	}
	if step := os.Getenv("ORGSYN_BACKOFF_STEP"); step != "" {
		d, err := time.ParseDuration(step)
		if err != nil {
			return fmt.Errorf("invalid ORGSYN_BACKOFF_STEP: %w", err)
		}
		c.Retry.BackoffStep = d
	}

	if workers := os.Getenv("ORGSYN_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Crawl.Workers = val
			c.Download.Workers = val
		}
	}

	if outputDir := os.Getenv("ORGSYN_OUTPUT_DIR"); outputDir != "" {
		c.Download.BaseDirectory = outputDir
	}

	if logLevel := os.Getenv("ORGSYN_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".orgsynscraper.yaml",
		".orgsynscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "orgsynscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "orgsynscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".orgsynscraper.yaml"),
		filepath.Join(os.Getenv("HOME"), ".orgsynscraper.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}
	if !strings.HasPrefix(c.Site.BaseURL, "http://") && !strings.HasPrefix(c.Site.BaseURL, "https://") {
		errs = append(errs, errors.New("site base URL must be an http(s) URL"))
	}
	if c.Site.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Retry.BackoffStep < 0 {
		errs = append(errs, errors.New("backoff step cannot be negative"))
	}

	if c.Crawl.Workers <= 0 {
		errs = append(errs, errors.New("crawl workers must be positive"))
	}
	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("download workers must be positive"))
	}
	if c.Download.BaseDirectory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
