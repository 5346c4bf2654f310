package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rhulha/WebTracker/internal/projects/domain"
)

// MaxProjectSize is the per-project byte ceiling for sample blobs (10 MiB).
// It is a configuration constant, not negotiable over the API.
const MaxProjectSize = 10 * 1024 * 1024

// Usage returns the total byte size of sample blobs stored for the project.
// Metadata files and in-flight temp files are excluded. A project directory
// that does not exist yet counts as zero usage, not an error, because usage
// may be queried mid-creation.
func (s *Store) Usage(ctx context.Context, id string) (int64, error) {
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return 0, err
	}
	defer release()
	return s.usageLocked(ctx, id)
}

func (s *Store) usageLocked(ctx context.Context, id string) (int64, error) {
	if n, ok := s.cache.Get(ctx, id); ok {
		return n, nil
	}
	n, err := s.walkUsage(id)
	if err != nil {
		return 0, err
	}
	s.cache.Set(ctx, id, n)
	return n, nil
}

// walkUsage recomputes usage from disk. Cache misses and the janitor's
// drift check land here.
func (s *Store) walkUsage(id string) (int64, error) {
	var total int64
	err := filepath.WalkDir(s.projectDir(id), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isSampleBlob(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &domain.StorageError{Op: "walk project dir", Err: err}
	}
	return total, nil
}

// isSampleBlob reports whether a file in a project directory counts toward
// the quota. The record, history files and dot-prefixed temp files do not.
func isSampleBlob(name string) bool {
	switch name {
	case recordFile, historyFile, historyTail:
		return false
	}
	return !strings.HasPrefix(name, ".")
}

// admit applies the quota check: current usage plus the incoming blob must
// stay at or under the ceiling. Must run under the project lock so two
// concurrent uploads cannot both be admitted past the ceiling.
func admit(current, incoming int64) error {
	if current+incoming > MaxProjectSize {
		return domain.ErrQuotaExceeded
	}
	return nil
}
