// Package config provides configuration management for the seocrawl
// application. It handles loading, validation, and access to configuration
// values from YAML files, environment variables, and flags via viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Default crawl configuration values
const (
	DefaultUserAgent        = "seocrawl/1.0 (+https://github.com/jonesrussell/seocrawl)"
	DefaultDelay            = 500 * time.Millisecond
	DefaultTimeout          = 10 * time.Second
	DefaultMaxDepth         = 2
	DefaultMaxPages         = 100
	DefaultAuditParallelism = 20
	// MaxAuditParallelism caps concurrent audit probes regardless of configuration.
	MaxAuditParallelism = 50
	// DefaultCheckpointEvery is how many parsed pages pass between state saves.
	DefaultCheckpointEvery = 50
)

// CrawlConfig holds the per-run crawl settings. It is validated and its
// patterns compiled once at startup; afterwards it is treated as
// immutable.
type CrawlConfig struct {
	// BaseURL is the site root the crawl starts from
	BaseURL string `mapstructure:"base_url"`
	// UserAgent is the identity string sent with every request
	UserAgent string `mapstructure:"user_agent"`
	// Include restricts admission to URL paths matching this pattern
	Include string `mapstructure:"include"`
	// Exclude rejects URL paths matching this pattern
	Exclude string `mapstructure:"exclude"`
	// Delay is the politeness delay applied before every crawl-phase request
	Delay time.Duration `mapstructure:"delay"`
	// Timeout bounds each HTTP request
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxDepth bounds traversal depth; seeds are depth 0
	MaxDepth int `mapstructure:"max_depth"`
	// MaxPages caps parsed pages per run (0 = unlimited)
	MaxPages int `mapstructure:"max_pages"`
	// Resume continues from persisted state instead of starting fresh
	Resume bool `mapstructure:"resume"`
	// AuditParallelism is the audit phase worker cap
	AuditParallelism int `mapstructure:"audit_parallelism"`
	// CheckpointEvery is the parsed-page interval between state saves
	CheckpointEvery int `mapstructure:"checkpoint_every"`
	// SiteKey overrides the storage key derived from the base URL host
	SiteKey string `mapstructure:"site_key"`

	includeRe *regexp.Regexp
	excludeRe *regexp.Regexp
}

// NewCrawlConfig returns a crawl configuration with defaults applied.
func NewCrawlConfig() *CrawlConfig {
	return &CrawlConfig{
		UserAgent:        DefaultUserAgent,
		Delay:            DefaultDelay,
		Timeout:          DefaultTimeout,
		MaxDepth:         DefaultMaxDepth,
		MaxPages:         DefaultMaxPages,
		AuditParallelism: DefaultAuditParallelism,
		CheckpointEvery:  DefaultCheckpointEvery,
	}
}

// Validate checks bounds, compiles the include/exclude patterns, and
// derives the site key. An invalid base URL or pattern is the one fatal
// configuration error class in the application.
func (c *CrawlConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid base_url: scheme %q is not http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("invalid base_url: missing host")
	}

	if c.UserAgent == "" {
		return errors.New("user_agent must not be empty")
	}
	if c.Delay < 0 {
		return errors.New("delay must be non-negative")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MaxDepth < 0 {
		return errors.New("max_depth must be non-negative")
	}
	if c.MaxPages < 0 {
		return errors.New("max_pages must be non-negative")
	}
	if c.AuditParallelism < 1 {
		return errors.New("audit_parallelism must be positive")
	}
	if c.AuditParallelism > MaxAuditParallelism {
		c.AuditParallelism = MaxAuditParallelism
	}
	if c.CheckpointEvery < 1 {
		return errors.New("checkpoint_every must be positive")
	}

	if c.Include != "" {
		re, compileErr := regexp.Compile(c.Include)
		if compileErr != nil {
			return fmt.Errorf("invalid include pattern: %w", compileErr)
		}
		c.includeRe = re
	}
	if c.Exclude != "" {
		re, compileErr := regexp.Compile(c.Exclude)
		if compileErr != nil {
			return fmt.Errorf("invalid exclude pattern: %w", compileErr)
		}
		c.excludeRe = re
	}

	if c.SiteKey == "" {
		c.SiteKey = SiteKeyForHost(parsed.Host)
	}

	return nil
}

// PathAllowed applies the include/exclude patterns to a URL path. The
// include pattern, when present, must match; the exclude pattern, when
// present, must not.
func (c *CrawlConfig) PathAllowed(urlPath string) bool {
	if c.includeRe != nil && !c.includeRe.MatchString(urlPath) {
		return false
	}
	if c.excludeRe != nil && c.excludeRe.MatchString(urlPath) {
		return false
	}
	return true
}

// siteKeySanitizer collapses characters unsafe in file names or index
// names into dashes.
var siteKeySanitizer = regexp.MustCompile(`[^a-z0-9.-]+`)

// SiteKeyForHost derives the storage key for a host, e.g.
// "www.Example.com:8080" becomes "www.example.com-8080".
func SiteKeyForHost(host string) string {
	return siteKeySanitizer.ReplaceAllString(strings.ToLower(host), "-")
}
