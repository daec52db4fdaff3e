package urlutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/seocrawl/internal/urlutil"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases scheme and host",
			input:    "HTTPS://Example.COM/Path",
			expected: "https://example.com/Path",
		},
		{
			name:     "removes default http port",
			input:    "http://example.com:80/a",
			expected: "http://example.com/a",
		},
		{
			name:     "removes default https port",
			input:    "https://example.com:443/a",
			expected: "https://example.com/a",
		},
		{
			name:     "keeps non-default port",
			input:    "https://example.com:8443/a",
			expected: "https://example.com:8443/a",
		},
		{
			name:     "strips fragment",
			input:    "https://example.com/page#section",
			expected: "https://example.com/page",
		},
		{
			name:     "trims trailing slash",
			input:    "https://example.com/a/b/",
			expected: "https://example.com/a/b",
		},
		{
			name:     "keeps root slash",
			input:    "https://example.com/",
			expected: "https://example.com/",
		},
		{
			name:     "empty path becomes root",
			input:    "https://example.com",
			expected: "https://example.com/",
		},
		{
			name:     "resolves dot segments",
			input:    "https://example.com/a/b/../c/./d",
			expected: "https://example.com/a/c/d",
		},
		{
			name:     "sorts query keys",
			input:    "https://example.com/p?b=2&a=1",
			expected: "https://example.com/p?a=1&b=2",
		},
		{
			name:     "strips tracking parameters",
			input:    "https://example.com/p?utm_source=x&id=7&fbclid=y",
			expected: "https://example.com/p?id=7",
		},
		{
			name:     "drops query when only trackers remain",
			input:    "https://example.com/p?utm_source=x&gclid=y",
			expected: "https://example.com/p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := urlutil.Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "/relative/path", "ftp://example.com/file", "example.com"} {
		_, err := urlutil.Normalize(input)
		assert.Error(t, err, "input %q must not normalize", input)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	once, err := urlutil.Normalize("HTTP://Example.com:80/a/../b/?utm_source=x&z=1&a=2#frag")
	require.NoError(t, err)
	twice, err := urlutil.Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRegisteredDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.example.com/page", "example.com"},
		{"https://blog.example.co.uk/", "example.co.uk"},
		{"https://example.com", "example.com"},
		{"https://127.0.0.1:8080/", ""},
		{"https://localhost/", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, urlutil.RegisteredDomain(tt.input), "input %q", tt.input)
	}
}

func TestSameSite(t *testing.T) {
	t.Parallel()

	assert.True(t, urlutil.SameSite("example.com", "https://example.com/a"))
	assert.True(t, urlutil.SameSite("example.com", "https://shop.example.com/a"))
	assert.False(t, urlutil.SameSite("example.com", "https://other.org/"))

	// No registrable domain on either side counts as internal.
	assert.True(t, urlutil.SameSite("", "https://anything.test/"))
	assert.True(t, urlutil.SameSite("example.com", "https://127.0.0.1/"))
}

func TestResolveLink(t *testing.T) {
	t.Parallel()

	page := "https://example.com/blog/post"

	tests := []struct {
		name     string
		href     string
		expected string
		ok       bool
	}{
		{"relative", "about", "https://example.com/blog/about", true},
		{"rooted", "/about", "https://example.com/about", true},
		{"absolute", "https://other.org/x", "https://other.org/x", true},
		{"protocol relative", "//cdn.example.com/a.js", "https://cdn.example.com/a.js", true},
		{"fragment stripped", "/about#team", "https://example.com/about", true},
		{"fragment only", "#top", "", false},
		{"mailto", "mailto:hi@example.com", "", false},
		{"tel", "tel:+15551234", "", false},
		{"javascript", "javascript:void(0)", "", false},
		{"empty", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := urlutil.ResolveLink(page, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHost(t *testing.T) {
	t.Parallel()

	host, err := urlutil.Host("https://Example.COM:8080/path")
	require.NoError(t, err)
	assert.Equal(t, "example.com", host)

	_, err = urlutil.Host("/relative")
	assert.Error(t, err)
}
