package helpers

import (
	"fmt"
	"strings"
)

// PageContent describes one page of a mock crawl target.
type PageContent struct {
	Title       string
	Description string
	Canonical   string
	RobotsMeta  string
	Links       []string
	Images      []string
	Body        string
}

// HTMLPage renders a PageContent as a complete HTML document with the
// head elements the extractor reads.
func HTMLPage(page PageContent) string {
	var b strings.Builder

	b.WriteString("<html><head>")
	fmt.Fprintf(&b, "<title>%s</title>", page.Title)
	if page.Description != "" {
		fmt.Fprintf(&b, `<meta name="description" content="%s">`, page.Description)
	}
	if page.RobotsMeta != "" {
		fmt.Fprintf(&b, `<meta name="robots" content="%s">`, page.RobotsMeta)
	}
	if page.Canonical != "" {
		fmt.Fprintf(&b, `<link rel="canonical" href="%s">`, page.Canonical)
	}
	b.WriteString("</head><body>")

	fmt.Fprintf(&b, "<h1>%s</h1>", page.Title)
	if page.Body != "" {
		fmt.Fprintf(&b, "<p>%s</p>", page.Body)
	}
	for _, link := range page.Links {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, link, link)
	}
	for _, image := range page.Images {
		fmt.Fprintf(&b, `<img src="%s" alt="image">`, image)
	}

	b.WriteString("</body></html>")
	return b.String()
}

// TestHTMLPage renders a minimal page with a title and description.
func TestHTMLPage(title, description string) string {
	return HTMLPage(PageContent{Title: title, Description: description})
}
