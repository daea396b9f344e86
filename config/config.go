package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	PolicySkip    = "skip"
	PolicyDegrade = "degrade"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatBoth = "both"
)

// Config holds all application-level configuration
type Config struct {
	// Search
	Year     int    `mapstructure:"year"`
	Category string `mapstructure:"category"`

	// Browser
	BaseURL   string `mapstructure:"base_url"`
	Headless  bool   `mapstructure:"headless"`
	UserAgent string `mapstructure:"user_agent"`

	// Waits
	WaitTimeout       time.Duration `mapstructure:"wait_timeout"`
	PaginationTimeout time.Duration `mapstructure:"pagination_timeout"`
	DetailTimeout     time.Duration `mapstructure:"detail_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	SubmitSettle      time.Duration `mapstructure:"submit_settle"`
	DetailSettle      time.Duration `mapstructure:"detail_settle"`

	// Detail fetching
	RecordPolicy   string        `mapstructure:"record_policy"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay"`

	// Output
	OutputDir   string `mapstructure:"output_dir"`
	Format      string `mapstructure:"format"`
	DatabaseURL string `mapstructure:"database_url"`
	MetricsFile string `mapstructure:"metrics_file"`
	PreviewRows int    `mapstructure:"preview_rows"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("year", 2024)
	v.SetDefault("category", "Physics and Astronomy")
	v.SetDefault("base_url", "https://abstracts.societyforscience.org")
	v.SetDefault("headless", true)
	v.SetDefault("user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("wait_timeout", 10*time.Second)
	v.SetDefault("pagination_timeout", 10*time.Second)
	v.SetDefault("detail_timeout", 15*time.Second)
	v.SetDefault("poll_interval", 250*time.Millisecond)
	v.SetDefault("submit_settle", 500*time.Millisecond)
	v.SetDefault("detail_settle", time.Duration(0))
	v.SetDefault("record_policy", PolicySkip)
	v.SetDefault("max_retries", 2)
	v.SetDefault("retry_delay", time.Second)
	v.SetDefault("rate_limit_delay", 500*time.Millisecond)
	v.SetDefault("output_dir", ".")
	v.SetDefault("format", FormatCSV)
	v.SetDefault("database_url", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("preview_rows", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Load reads configuration from v, which may already carry bound flags.
// Environment variables are read with the ISEF_ prefix, and a .env file in the
// working directory is merged in when present.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("ISEF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// a missing .env is fine; configuration can come purely from flags and env
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the defaults without reading flags, env or files
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Category) == "" {
		return fmt.Errorf("category must not be empty")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base url must not be empty")
	}
	switch c.RecordPolicy {
	case PolicySkip, PolicyDegrade:
	default:
		return fmt.Errorf("unknown record policy %q (want %q or %q)", c.RecordPolicy, PolicySkip, PolicyDegrade)
	}
	switch c.Format {
	case FormatCSV, FormatXLSX, FormatBoth:
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	for name, d := range map[string]time.Duration{
		"wait timeout":       c.WaitTimeout,
		"pagination timeout": c.PaginationTimeout,
		"detail timeout":     c.DetailTimeout,
		"poll interval":      c.PollInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.RetryDelay < 0 || c.RateLimitDelay < 0 {
		return fmt.Errorf("retry and rate limit delays must not be negative")
	}
	return nil
}
