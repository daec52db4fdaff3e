package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jonesrussell/seocrawl/internal/domain"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime.
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second
)

// pgSchema creates the three tables the store uses. JSONB payloads keep
// the schema stable while the Go structs evolve.
const pgSchema = `
CREATE TABLE IF NOT EXISTS crawl_state (
	site_key   TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS crawl_snapshots (
	site_key   TEXT NOT NULL,
	run_date   TEXT NOT NULL,
	run_id     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (site_key, run_date)
);

CREATE TABLE IF NOT EXISTS crawl_reports (
	site_key   TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists crawl data in PostgreSQL via sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresConnection opens a pooled connection and verifies it with a
// ping.
func NewPostgresConnection(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// NewPostgresStore creates a store over an existing connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the store's tables when they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveState upserts the serialized crawl state.
func (s *PostgresStore) SaveState(ctx context.Context, siteKey string, state *domain.CrawlState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	query := `
		INSERT INTO crawl_state (site_key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (site_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`
	if _, err = s.db.ExecContext(ctx, query, siteKey, payload); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// LoadState returns the stored state, or ErrNoState.
func (s *PostgresStore) LoadState(ctx context.Context, siteKey string) (*domain.CrawlState, error) {
	var payload []byte
	query := `SELECT payload FROM crawl_state WHERE site_key = $1`

	if err := s.db.GetContext(ctx, &payload, query, siteKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state domain.CrawlState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	state.Normalize()
	return &state, nil
}

// ClearState deletes the stored state. Deleting absent state succeeds.
func (s *PostgresStore) ClearState(ctx context.Context, siteKey string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM crawl_state WHERE site_key = $1`, siteKey); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}

// SaveSnapshot upserts one dated snapshot.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, siteKey string, snapshot *domain.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO crawl_snapshots (site_key, run_date, run_id, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (site_key, run_date) DO UPDATE
		SET run_id = EXCLUDED.run_id, payload = EXCLUDED.payload, created_at = now()
	`
	if _, err = s.db.ExecContext(ctx, query, siteKey, snapshot.RunDate, snapshot.RunID, payload); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns snapshot metadata in ascending date order.
func (s *PostgresStore) ListSnapshots(ctx context.Context, siteKey string) ([]domain.SnapshotInfo, error) {
	type row struct {
		SiteKey   string    `db:"site_key"`
		RunDate   string    `db:"run_date"`
		RunID     string    `db:"run_id"`
		PageCount int       `db:"page_count"`
		CreatedAt time.Time `db:"created_at"`
	}

	query := `
		SELECT site_key, run_date, run_id,
		       jsonb_array_length(payload->'pages') AS page_count,
		       created_at
		FROM crawl_snapshots
		WHERE site_key = $1
		ORDER BY run_date ASC
	`

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, siteKey); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	infos := make([]domain.SnapshotInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, domain.SnapshotInfo{
			SiteKey:   r.SiteKey,
			RunID:     r.RunID,
			RunDate:   r.RunDate,
			PageCount: r.PageCount,
			CreatedAt: r.CreatedAt,
		})
	}
	return infos, nil
}

// LoadSnapshot returns one dated snapshot, or ErrNoSnapshot.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, siteKey, date string) (*domain.Snapshot, error) {
	var payload []byte
	query := `SELECT payload FROM crawl_snapshots WHERE site_key = $1 AND run_date = $2`

	if err := s.db.GetContext(ctx, &payload, query, siteKey, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// SaveReport upserts the latest run report.
func (s *PostgresStore) SaveReport(ctx context.Context, siteKey string, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := `
		INSERT INTO crawl_reports (site_key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (site_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`
	if _, err = s.db.ExecContext(ctx, query, siteKey, payload); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// LoadReport returns the latest stored report, or ErrNoReport.
func (s *PostgresStore) LoadReport(ctx context.Context, siteKey string) (*domain.Report, error) {
	var payload []byte
	query := `SELECT payload FROM crawl_reports WHERE site_key = $1`

	if err := s.db.GetContext(ctx, &payload, query, siteKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoReport
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
