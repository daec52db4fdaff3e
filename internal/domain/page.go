// Package domain provides domain models used across the application.
package domain

import (
	"strings"
	"time"
)

// HeadingLimit caps how many heading elements contribute to a PageRecord.
const HeadingLimit = 20

// HeadingSeparator joins the collected heading texts.
const HeadingSeparator = " | "

// PageRecord holds the SEO signals extracted from one parsed HTML page.
// Every signal is optional; an absent element or attribute yields an empty
// string, never an error. A record is created once per URL on first
// successful parse and never mutated afterward.
type PageRecord struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Headings       string    `json:"headings"`
	RobotsMeta     string    `json:"robots_meta"`
	Canonical      string    `json:"canonical"`
	OGTitle        string    `json:"og_title"`
	OGDescription  string    `json:"og_description"`
	TwitterCard    string    `json:"twitter_card"`
	StructuredData []string  `json:"structured_data,omitempty"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// DuplicateKey returns the duplicate-cluster key for the record: the
// lower-cased, trimmed title and description joined with "|". Two pages
// sharing a key are duplicate candidates.
func (p *PageRecord) DuplicateKey() string {
	return DuplicateKey(p.Title, p.Description)
}

// DuplicateKey builds the cluster key from a raw title and description.
func DuplicateKey(title, description string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(description))
}

// ImageRef records one <img> occurrence on a page, in appearance order.
// Width and Height carry the raw attribute strings. Status and Unreachable
// are filled in by the audit phase; Status stays zero for unprobed images.
type ImageRef struct {
	PageURL     string `json:"page_url"`
	ImageURL    string `json:"image_url"`
	Alt         string `json:"alt"`
	Width       string `json:"width"`
	Height      string `json:"height"`
	Status      int    `json:"status,omitempty"`
	Unreachable bool   `json:"unreachable,omitempty"`
}

// Broken reports whether the image's audited status marks it unusable.
func (i *ImageRef) Broken() bool {
	return i.Unreachable || i.Status >= 400
}

// Indexability classifications for a page.
const (
	IndexabilityIndexable     = "indexable"
	IndexabilityNoindex       = "noindex"
	IndexabilityCanonicalized = "canonicalized"
)

// Title and description length thresholds for quality flags.
const (
	TitleLengthLimit       = 60
	DescriptionLengthLimit = 155
)

// PageQuality carries the derived quality flags for one page. It is
// computed by the diagnostics pass and never stored on the PageRecord.
type PageQuality struct {
	URL             string `json:"url"`
	TitleMissing    bool   `json:"title_missing"`
	TitleTooLong    bool   `json:"title_too_long"`
	TitleDuplicated bool   `json:"title_duplicated"`
	DescMissing     bool   `json:"description_missing"`
	DescTooLong     bool   `json:"description_too_long"`
	Indexability    string `json:"indexability"`
}
