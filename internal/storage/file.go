package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonesrussell/seocrawl/internal/domain"
)

const (
	stateFileName  = "state.json"
	reportFileName = "report.json"
	historyDirName = "history"

	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStore is the default backend: JSON files under one directory per
// site key. Writes go through a temp file in the same directory, fsync,
// and rename, so a crash never leaves a half-written record behind.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir, creating it when
// absent.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage: data directory is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// SaveState writes the crawl state atomically.
func (s *FileStore) SaveState(_ context.Context, siteKey string, state *domain.CrawlState) error {
	return s.writeJSON(s.statePath(siteKey), state)
}

// LoadState reads the stored state. A missing file is ErrNoState; an
// unreadable or corrupt file is a plain error the caller may treat as a
// fresh start.
func (s *FileStore) LoadState(_ context.Context, siteKey string) (*domain.CrawlState, error) {
	var state domain.CrawlState
	if err := s.readJSON(s.statePath(siteKey), &state); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, err
	}
	state.Normalize()
	return &state, nil
}

// ClearState removes the stored state, if any.
func (s *FileStore) ClearState(_ context.Context, siteKey string) error {
	if err := os.Remove(s.statePath(siteKey)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: clear state: %w", err)
	}
	return nil
}

// SaveSnapshot writes one dated snapshot file, replacing a same-date
// file.
func (s *FileStore) SaveSnapshot(_ context.Context, siteKey string, snapshot *domain.Snapshot) error {
	return s.writeJSON(s.snapshotPath(siteKey, snapshot.RunDate), snapshot)
}

// ListSnapshots lists the stored snapshots in ascending date order. The
// date key is the file name, so lexical order is date order.
func (s *FileStore) ListSnapshots(ctx context.Context, siteKey string) ([]domain.SnapshotInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.siteDir(siteKey), historyDirName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: list snapshots: %w", err)
	}

	var infos []domain.SnapshotInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(name, ".json")
		snapshot, loadErr := s.LoadSnapshot(ctx, siteKey, date)
		if loadErr != nil {
			continue
		}
		infos = append(infos, domain.SnapshotInfo{
			SiteKey:   snapshot.SiteKey,
			RunID:     snapshot.RunID,
			RunDate:   snapshot.RunDate,
			PageCount: len(snapshot.Pages),
			CreatedAt: snapshot.CreatedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].RunDate < infos[j].RunDate })
	return infos, nil
}

// LoadSnapshot reads one dated snapshot.
func (s *FileStore) LoadSnapshot(_ context.Context, siteKey, date string) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := s.readJSON(s.snapshotPath(siteKey, date), &snapshot); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return &snapshot, nil
}

// SaveReport writes the latest run report.
func (s *FileStore) SaveReport(_ context.Context, siteKey string, report *domain.Report) error {
	return s.writeJSON(filepath.Join(s.siteDir(siteKey), reportFileName), report)
}

// LoadReport reads the latest run report.
func (s *FileStore) LoadReport(_ context.Context, siteKey string) (*domain.Report, error) {
	var report domain.Report
	if err := s.readJSON(filepath.Join(s.siteDir(siteKey), reportFileName), &report); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoReport
		}
		return nil, err
	}
	return &report, nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) siteDir(siteKey string) string {
	return filepath.Join(s.root, siteKey)
}

func (s *FileStore) statePath(siteKey string) string {
	return filepath.Join(s.siteDir(siteKey), stateFileName)
}

func (s *FileStore) snapshotPath(siteKey, date string) string {
	return filepath.Join(s.siteDir(siteKey), historyDirName, date+".json")
}

// writeJSON marshals v and writes it atomically: temp file in the target
// directory, fsync, rename over the destination.
func (s *FileStore) writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", filepath.Base(path), err)
	}

	if err = os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: rename temp file: %w", err)
	}
	return nil
}

func (s *FileStore) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
