// Package extract turns fetched HTML into page-signal records, outbound
// links, and image references using goquery. Extraction is best-effort:
// malformed markup and absent elements yield empty fields, never errors.
package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/urlutil"
)

// schemaTypePattern captures the type name from a schema.org vocabulary
// URL such as "https://schema.org/Article".
var schemaTypePattern = regexp.MustCompile(`(?i)schema\.org/([A-Za-z0-9]+)`)

// Result is everything extracted from one HTML page.
type Result struct {
	Record domain.PageRecord
	Links  []string
	Images []domain.ImageRef
}

// Extractor parses fetched HTML pages.
type Extractor struct{}

// New creates a new Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses the page body and collects every SEO signal, outbound
// link, and image reference. It always returns a usable Result; a body
// that fails to parse produces a Result with empty fields.
func (e *Extractor) Extract(pageURL string, body []byte) *Result {
	result := &Result{Record: domain.PageRecord{URL: pageURL}}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return result
	}

	rec := &result.Record
	rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	rec.Description = metaContent(doc, "meta[name='description']")
	rec.RobotsMeta = metaContent(doc, "meta[name='robots']")
	rec.Canonical = extractCanonical(doc, pageURL)
	rec.OGTitle = metaContent(doc, "meta[property='og:title']")
	rec.OGDescription = metaContent(doc, "meta[property='og:description']")
	rec.TwitterCard = metaContent(doc, "meta[name='twitter:card']")
	rec.Headings = extractHeadings(doc)
	rec.StructuredData = extractStructuredDataTypes(doc)

	result.Links = extractLinks(doc, pageURL)
	result.Images = extractImages(doc, pageURL)

	return result
}

// metaContent returns the trimmed content attribute of the first element
// matching the selector, or "" when absent.
func metaContent(doc *goquery.Document, selector string) string {
	if content, exists := doc.Find(selector).First().Attr("content"); exists {
		return strings.TrimSpace(content)
	}
	return ""
}

// extractCanonical returns the declared canonical URL resolved against
// the page URL, normalized so it compares cleanly against crawled URLs.
func extractCanonical(doc *goquery.Document, pageURL string) string {
	href, exists := doc.Find("link[rel='canonical']").First().Attr("href")
	if !exists {
		return ""
	}

	resolved, ok := urlutil.ResolveLink(pageURL, href)
	if !ok {
		return ""
	}
	if normalized, err := urlutil.Normalize(resolved); err == nil {
		return normalized
	}
	return resolved
}

// extractHeadings joins the text of the first heading elements in
// document order, bounded so pathological pages cannot balloon memory.
func extractHeadings(doc *goquery.Document) string {
	var texts []string
	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= domain.HeadingLimit {
			return false
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			texts = append(texts, text)
		}
		return true
	})
	return strings.Join(texts, domain.HeadingSeparator)
}

// extractStructuredDataTypes collects schema.org type names from
// microdata itemtype attributes and JSON-LD @type values, deduplicated
// and sorted for determinism.
func extractStructuredDataTypes(doc *goquery.Document) []string {
	seen := make(map[string]struct{})

	doc.Find("[itemtype]").Each(func(_ int, s *goquery.Selection) {
		itemtype, _ := s.Attr("itemtype")
		if m := schemaTypePattern.FindStringSubmatch(itemtype); m != nil {
			seen[m[1]] = struct{}{}
		}
	})

	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		collectJSONLDTypes(s.Text(), seen)
	})

	if len(seen) == 0 {
		return nil
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// collectJSONLDTypes records the @type values of a JSON-LD block,
// including members of a top-level @graph. Unparsable blocks are ignored.
func collectJSONLDTypes(raw string, seen map[string]struct{}) {
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return
	}

	var walk func(node any)
	walk = func(node any) {
		switch v := node.(type) {
		case map[string]any:
			recordTypeValue(v["@type"], seen)
			if graph, ok := v["@graph"]; ok {
				walk(graph)
			}
		case []any:
			for _, item := range v {
				walk(item)
			}
		}
	}
	walk(payload)
}

// recordTypeValue records a single @type value, which may be a string or
// a list of strings.
func recordTypeValue(value any, seen map[string]struct{}) {
	switch t := value.(type) {
	case string:
		if t != "" {
			seen[t] = struct{}{}
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				seen[s] = struct{}{}
			}
		}
	}
}

// extractLinks collects every anchor target in appearance order,
// fragment-stripped and resolved against the page URL. Non-http(s)
// targets (mailto:, tel:, javascript:) are discarded.
func extractLinks(doc *goquery.Document, pageURL string) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved, ok := urlutil.ResolveLink(pageURL, href); ok {
			links = append(links, resolved)
		}
	})
	return links
}

// extractImages collects every image source in appearance order with its
// declared alt, width, and height attributes.
func extractImages(doc *goquery.Document, pageURL string) []domain.ImageRef {
	var images []domain.ImageRef
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		resolved, ok := urlutil.ResolveLink(pageURL, src)
		if !ok {
			return
		}
		alt, _ := s.Attr("alt")
		width, _ := s.Attr("width")
		height, _ := s.Attr("height")
		images = append(images, domain.ImageRef{
			PageURL:  pageURL,
			ImageURL: resolved,
			Alt:      strings.TrimSpace(alt),
			Width:    width,
			Height:   height,
		})
	})
	return images
}
