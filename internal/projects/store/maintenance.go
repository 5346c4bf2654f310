package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rhulha/WebTracker/internal/projects/domain"
)

// ListProjects returns the IDs of all projects under the root.
func (s *Store) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &domain.StorageError{Op: "list projects", Err: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && validProjectID(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// SweepTemp removes leftover temp files from aborted uploads or writes that
// are older than the cutoff. Fresh ones may belong to an in-flight request
// and are left alone. Returns the number of files removed.
func (s *Store) SweepTemp(ctx context.Context, id string, olderThan time.Duration) (int, error) {
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return 0, err
	}
	defer release()

	entries, err := os.ReadDir(s.projectDir(id))
	if err != nil {
		return 0, &domain.StorageError{Op: "read project dir", Err: err}
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".tmp") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.projectDir(id), name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// RefreshUsage recomputes usage from disk and rewrites the cache entry,
// correcting any drift from out-of-band changes to the projects root.
func (s *Store) RefreshUsage(ctx context.Context, id string) (int64, error) {
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return 0, err
	}
	defer release()

	n, err := s.walkUsage(id)
	if err != nil {
		return 0, err
	}
	s.cache.Set(ctx, id, n)
	return n, nil
}
