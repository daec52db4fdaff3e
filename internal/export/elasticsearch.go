// Package export ships a finished run's report to optional external
// sinks. The Elasticsearch sink bulk-indexes the page table and broken
// links; export failures are reported to the caller but are never fatal
// to a crawl.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/seocrawl/internal/config"
	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/logger"
)

// Index name suffixes under the configured prefix.
const (
	pagesIndexSuffix  = "pages"
	brokenIndexSuffix = "broken"
)

// ElasticsearchSink bulk-indexes report tables into an Elasticsearch
// cluster.
type ElasticsearchSink struct {
	client *es.Client
	prefix string
	log    logger.Interface
}

// NewElasticsearchSink builds a sink from configuration.
func NewElasticsearchSink(cfg config.ElasticsearchConfig, log logger.Interface) (*ElasticsearchSink, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return NewElasticsearchSinkWithClient(client, cfg.IndexPrefix, log), nil
}

// NewElasticsearchSinkWithClient builds a sink over an existing client.
func NewElasticsearchSinkWithClient(client *es.Client, prefix string, log logger.Interface) *ElasticsearchSink {
	return &ElasticsearchSink{client: client, prefix: prefix, log: log}
}

// pageDocument is the indexed form of one page row: the record plus its
// quality flags, flattened for querying.
type pageDocument struct {
	domain.PageRecord
	SiteKey      string `json:"site_key"`
	RunID        string `json:"run_id"`
	RunDate      string `json:"run_date"`
	Indexability string `json:"indexability,omitempty"`
}

// brokenDocument is the indexed form of one broken-link row.
type brokenDocument struct {
	domain.BrokenLinkRecord
	SiteKey string `json:"site_key"`
	RunID   string `json:"run_id"`
	RunDate string `json:"run_date"`
}

// Export bulk-indexes the report's pages and broken links.
func (s *ElasticsearchSink) Export(ctx context.Context, report *domain.Report) error {
	quality := make(map[string]string, len(report.Quality))
	for _, q := range report.Quality {
		quality[q.URL] = q.Indexability
	}

	pages := make([]any, 0, len(report.Pages))
	for _, page := range report.Pages {
		pages = append(pages, pageDocument{
			PageRecord:   page,
			SiteKey:      report.SiteKey,
			RunID:        report.RunID,
			RunDate:      report.RunDate,
			Indexability: quality[page.URL],
		})
	}
	if err := s.bulkIndex(ctx, s.indexName(pagesIndexSuffix), pages); err != nil {
		return fmt.Errorf("export pages: %w", err)
	}

	broken := make([]any, 0, len(report.BrokenLinks))
	for _, record := range report.BrokenLinks {
		broken = append(broken, brokenDocument{
			BrokenLinkRecord: record,
			SiteKey:          report.SiteKey,
			RunID:            report.RunID,
			RunDate:          report.RunDate,
		})
	}
	if err := s.bulkIndex(ctx, s.indexName(brokenIndexSuffix), broken); err != nil {
		return fmt.Errorf("export broken links: %w", err)
	}

	s.log.Info("Report exported to Elasticsearch",
		"pages", len(pages), "broken_links", len(broken), "prefix", s.prefix)
	return nil
}

func (s *ElasticsearchSink) indexName(suffix string) string {
	return s.prefix + "-" + suffix
}

// bulkIndex sends one bulk request of index actions. Empty input is a
// no-op.
func (s *ElasticsearchSink) bulkIndex(ctx context.Context, index string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		meta := map[string]map[string]string{"index": {"_index": index}}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk request failed: %s", res.String())
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&result); decodeErr != nil {
		return fmt.Errorf("decode bulk response: %w", decodeErr)
	}
	if result.Errors {
		return fmt.Errorf("bulk request reported item errors for index %s", index)
	}
	return nil
}
