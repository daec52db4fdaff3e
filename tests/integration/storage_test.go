// Package integration_test provides integration tests for seocrawl.
// These tests verify component interactions against real backends.
package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/seocrawl/internal/domain"
	"github.com/jonesrussell/seocrawl/internal/storage"
	"github.com/jonesrussell/seocrawl/tests/helpers"
)

func TestIntegration_PostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := helpers.StartPostgres(ctx)
	require.NoError(t, err, "failed to start Postgres container")
	defer func() {
		_ = pgContainer.Stop(ctx)
	}()

	db, err := storage.NewPostgresConnection(pgContainer.DSN)
	require.NoError(t, err, "failed to connect to Postgres")

	store := storage.NewPostgresStore(db)
	defer func() {
		_ = store.Close()
	}()
	require.NoError(t, store.EnsureSchema(ctx), "failed to create schema")

	const siteKey = "example.com"

	// Absent data maps to the sentinel errors.
	_, err = store.LoadState(ctx, siteKey)
	require.ErrorIs(t, err, storage.ErrNoState)
	_, err = store.LoadReport(ctx, siteKey)
	require.ErrorIs(t, err, storage.ErrNoReport)
	_, err = store.LoadSnapshot(ctx, siteKey, "2026-08-30")
	require.ErrorIs(t, err, storage.ErrNoSnapshot)

	// State round-trips through the JSONB payload.
	state := domain.NewCrawlState("https://example.com/", siteKey)
	state.MarkVisited("https://example.com/")
	state.AddPage(domain.PageRecord{
		URL:       "https://example.com/",
		Title:     "Home",
		FetchedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	})
	state.Graph.AddEdge("https://example.com/", "https://example.com/about")
	state.UpdatedAt = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveState(ctx, siteKey, state))

	loaded, err := store.LoadState(ctx, siteKey)
	require.NoError(t, err)
	assert.Equal(t, state.Pages, loaded.Pages)
	assert.True(t, loaded.IsVisited("https://example.com/"))
	assert.Equal(t, 1, loaded.Graph.InDegree("https://example.com/about"))

	// Saving again overwrites instead of duplicating.
	state.MarkVisited("https://example.com/about")
	require.NoError(t, store.SaveState(ctx, siteKey, state))
	loaded, err = store.LoadState(ctx, siteKey)
	require.NoError(t, err)
	assert.True(t, loaded.IsVisited("https://example.com/about"))

	require.NoError(t, store.ClearState(ctx, siteKey))
	_, err = store.LoadState(ctx, siteKey)
	require.ErrorIs(t, err, storage.ErrNoState)

	// Snapshots list in date order with their page counts.
	for _, date := range []string{"2026-08-30", "2026-08-29"} {
		require.NoError(t, store.SaveSnapshot(ctx, siteKey, &domain.Snapshot{
			SiteKey:   siteKey,
			RunID:     "run-" + date,
			RunDate:   date,
			Pages:     state.Pages,
			CreatedAt: time.Now().UTC(),
		}))
	}

	infos, err := store.ListSnapshots(ctx, siteKey)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "2026-08-29", infos[0].RunDate)
	assert.Equal(t, "2026-08-30", infos[1].RunDate)
	assert.Equal(t, len(state.Pages), infos[0].PageCount)

	snapshot, err := store.LoadSnapshot(ctx, siteKey, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "run-2026-08-30", snapshot.RunID)

	// A same-date save replaces the earlier snapshot.
	require.NoError(t, store.SaveSnapshot(ctx, siteKey, &domain.Snapshot{
		SiteKey: siteKey,
		RunID:   "run-later",
		RunDate: "2026-08-30",
		Pages:   state.Pages,
	}))
	snapshot, err = store.LoadSnapshot(ctx, siteKey, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "run-later", snapshot.RunID)

	infos, err = store.ListSnapshots(ctx, siteKey)
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	// Reports round-trip and overwrite.
	report := &domain.Report{
		SiteKey: siteKey,
		BaseURL: "https://example.com",
		RunID:   "run-later",
		RunDate: "2026-08-30",
		Pages:   state.Pages,
	}
	require.NoError(t, store.SaveReport(ctx, siteKey, report))

	stored, err := store.LoadReport(ctx, siteKey)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, stored.RunID)
	assert.Equal(t, report.Pages, stored.Pages)
}
