package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/seocrawl/internal/config"
)

func validCrawlConfig() *config.CrawlConfig {
	cfg := config.NewCrawlConfig()
	cfg.BaseURL = "https://example.com"
	return cfg
}

func TestCrawlConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults validate", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "example.com", cfg.SiteKey)
	})

	t.Run("site key includes sanitized port", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		cfg.BaseURL = "https://Example.com:8080"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "example.com-8080", cfg.SiteKey)
	})

	t.Run("explicit site key wins", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		cfg.SiteKey = "staging"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "staging", cfg.SiteKey)
	})

	t.Run("audit parallelism is capped", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		cfg.AuditParallelism = 500
		require.NoError(t, cfg.Validate())
		assert.Equal(t, config.MaxAuditParallelism, cfg.AuditParallelism)
	})

	tests := []struct {
		name   string
		mutate func(*config.CrawlConfig)
	}{
		{"missing base url", func(c *config.CrawlConfig) { c.BaseURL = "" }},
		{"non-http scheme", func(c *config.CrawlConfig) { c.BaseURL = "ftp://example.com" }},
		{"missing host", func(c *config.CrawlConfig) { c.BaseURL = "https://" }},
		{"empty user agent", func(c *config.CrawlConfig) { c.UserAgent = "" }},
		{"negative delay", func(c *config.CrawlConfig) { c.Delay = -time.Second }},
		{"zero timeout", func(c *config.CrawlConfig) { c.Timeout = 0 }},
		{"negative depth", func(c *config.CrawlConfig) { c.MaxDepth = -1 }},
		{"negative pages", func(c *config.CrawlConfig) { c.MaxPages = -1 }},
		{"zero audit parallelism", func(c *config.CrawlConfig) { c.AuditParallelism = 0 }},
		{"zero checkpoint interval", func(c *config.CrawlConfig) { c.CheckpointEvery = 0 }},
		{"bad include pattern", func(c *config.CrawlConfig) { c.Include = "(" }},
		{"bad exclude pattern", func(c *config.CrawlConfig) { c.Exclude = "[" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validCrawlConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPathAllowed(t *testing.T) {
	t.Parallel()

	t.Run("no patterns admit everything", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.PathAllowed("/anything"))
	})

	t.Run("include must match", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		cfg.Include = `^/blog/`
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.PathAllowed("/blog/post"))
		assert.False(t, cfg.PathAllowed("/shop/item"))
	})

	t.Run("exclude must not match", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		cfg.Exclude = `\.pdf$`
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.PathAllowed("/docs/guide"))
		assert.False(t, cfg.PathAllowed("/docs/guide.pdf"))
	})

	t.Run("exclude wins over include", func(t *testing.T) {
		t.Parallel()
		cfg := validCrawlConfig()
		cfg.Include = `^/blog/`
		cfg.Exclude = `/draft`
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.PathAllowed("/blog/post"))
		assert.False(t, cfg.PathAllowed("/blog/draft-post"))
	})
}

func TestSiteKeyForHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "www.example.com", config.SiteKeyForHost("www.Example.com"))
	assert.Equal(t, "example.com-8080", config.SiteKeyForHost("example.com:8080"))
}

func TestValidateStatic(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	require.NoError(t, cfg.ValidateStatic())

	cfg.Storage.Backend = "redis"
	assert.Error(t, cfg.ValidateStatic())

	cfg = config.New()
	cfg.Storage.DataDir = ""
	assert.Error(t, cfg.ValidateStatic())

	cfg = config.New()
	cfg.Export.Elasticsearch.Enabled = true
	assert.Error(t, cfg.ValidateStatic(), "enabled sink without addresses must fail")
	cfg.Export.Elasticsearch.Addresses = []string{"http://127.0.0.1:9200"}
	assert.NoError(t, cfg.ValidateStatic())
}

func TestPostgresDSN(t *testing.T) {
	t.Parallel()

	p := config.PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "crawler",
		Password: "secret",
		DBName:   "seo",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=crawler password=secret dbname=seo sslmode=require",
		p.DSN())
}
