// Package urlutil provides URL normalization and domain classification for
// the crawler. URLs are normalized before admission so that the same URL
// expressed differently deduplicates to one visited entry.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// trackingParams lists query parameters that are stripped during normalization.
// These are advertising and analytics trackers that do not affect page content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
}

// defaultPorts maps schemes to their default port strings.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	errEmptyInput          = errors.New("normalize url: empty input")
	errMissingSchemeOrHost = errors.New("normalize url: missing scheme or host")
	errUnsupportedScheme   = errors.New("normalize url: unsupported scheme")
)

// Normalize applies deterministic transformations to an absolute http(s)
// URL so that equivalent URLs produce identical strings: lowercased scheme
// and host, default port removed, fragment removed, dot-segments resolved,
// trailing slash trimmed (root kept as "/"), query keys sorted and
// tracking parameters stripped. The scheme itself is preserved.
func Normalize(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errEmptyInput
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errMissingSchemeOrHost
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: %s", errUnsupportedScheme, parsed.Scheme)
	}

	parsed.Host = normalizeHost(parsed)
	parsed.Fragment = ""
	parsed.RawQuery = buildCleanQuery(parsed.Query())
	parsed.Path = normalizePath(parsed.Path)

	return parsed.String(), nil
}

// Host returns the lowercased hostname (without port) of a URL.
func Host(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("extract host: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errMissingSchemeOrHost
	}
	return strings.ToLower(parsed.Hostname()), nil
}

// RegisteredDomain returns the public-suffix-aware registrable domain of a
// URL's host ("blog.example.co.uk" yields "example.co.uk"). The empty
// string is returned when no registrable domain can be derived (IP
// literals, bare TLDs, malformed hosts); callers treat that as matching
// the crawl's own site.
func RegisteredDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ""
	}
	etld, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return etld
}

// SameSite reports whether rawURL belongs to the site identified by
// baseDomain (a registrable domain). Subdomains match. An empty
// registrable domain on either side counts as internal; this deliberately
// over-includes relative-looking or malformed targets into the internal
// graph.
func SameSite(baseDomain, rawURL string) bool {
	if baseDomain == "" {
		return true
	}
	d := RegisteredDomain(rawURL)
	if d == "" {
		return true
	}
	return d == baseDomain
}

// ResolveLink resolves an anchor href against the page URL it appeared
// on. The fragment suffix is stripped before resolution; only http(s)
// results are kept, so mailto:, tel:, and script-protocol targets report
// ok=false.
func ResolveLink(pageURL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if i := strings.Index(href, "#"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

// normalizeHost lowercases the hostname and removes the scheme's default
// port.
func normalizeHost(u *url.URL) string {
	hostname := strings.ToLower(u.Hostname())
	port := u.Port()

	if port == "" {
		return hostname
	}
	if defaultPort, ok := defaultPorts[u.Scheme]; ok && port == defaultPort {
		return hostname
	}
	return hostname + ":" + port
}

// buildCleanQuery strips tracking parameters, sorts the remaining keys
// alphabetically, and returns the encoded query string. Returns an empty
// string when no parameters remain after filtering.
func buildCleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))

	for key := range values {
		if _, isTracking := trackingParams[key]; !isTracking {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return ""
	}

	sort.Strings(keys)

	var b strings.Builder

	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}

		vals := values[key]
		for j, val := range vals {
			if j > 0 {
				b.WriteByte('&')
			}

			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}

	return b.String()
}

// normalizePath resolves dot-segments (/../, /./) and removes trailing
// slashes while preserving the root "/".
func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	cleaned := path.Clean(p)
	if cleaned == "/" {
		return "/"
	}

	return strings.TrimRight(cleaned, "/")
}
