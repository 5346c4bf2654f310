package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rhulha/WebTracker/internal/projects/domain"
)

// The audit trail is split in two files per project. history.json holds the
// compacted snapshot ({"changes": [...]}), history.log is a JSON-lines tail
// that appends in O(1) without rewriting prior entries. A crash mid-append
// can only tear the final line, which readers skip. Once the tail grows past
// compactThreshold entries it is folded back into history.json.
const compactThreshold = 64

type historyDoc struct {
	Changes []domain.HistoryEntry `json:"changes"`
}

func (s *Store) historyPath(id string) string {
	return filepath.Join(s.root, id, historyFile)
}

func (s *Store) historyTailPath(id string) string {
	return filepath.Join(s.root, id, historyTail)
}

// ReadHistory returns all history entries in append order.
func (s *Store) ReadHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.readHistoryLocked(id)
}

func (s *Store) readHistoryLocked(id string) ([]domain.HistoryEntry, error) {
	snapshot, err := s.readHistorySnapshot(id)
	if err != nil {
		return nil, err
	}
	tail, err := s.readHistoryTail(id)
	if err != nil {
		return nil, err
	}
	return append(snapshot, tail...), nil
}

func (s *Store) readHistorySnapshot(id string) ([]domain.HistoryEntry, error) {
	b, err := os.ReadFile(s.historyPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, &domain.StorageError{Op: "read history", Err: err}
	}
	var doc historyDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &domain.StorageError{Op: "decode history", Err: err}
	}
	return doc.Changes, nil
}

func (s *Store) readHistoryTail(id string) ([]domain.HistoryEntry, error) {
	f, err := os.Open(s.historyTailPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "read history tail", Err: err}
	}
	defer f.Close()

	var entries []domain.HistoryEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e domain.HistoryEntry
		if err := json.Unmarshal(line, &e); err != nil {
			// torn trailing line from an interrupted append
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.StorageError{Op: "scan history tail", Err: err}
	}
	return entries, nil
}

// appendHistoryLocked appends one entry to the tail log and compacts when
// the tail gets long. Callers must hold the project lock.
func (s *Store) appendHistoryLocked(id string, entry domain.HistoryEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return &domain.StorageError{Op: "marshal history entry", Err: err}
	}
	f, err := os.OpenFile(s.historyTailPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &domain.StorageError{Op: "open history tail", Err: err}
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return &domain.StorageError{Op: "append history", Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.StorageError{Op: "append history", Err: err}
	}

	tail, err := s.readHistoryTail(id)
	if err == nil && len(tail) >= compactThreshold {
		// best effort; the tail keeps accumulating until a later compaction succeeds
		_ = s.compactHistoryLocked(id)
	}
	return nil
}

// CompactHistory folds the tail log into history.json. The janitor calls
// this periodically; it is also triggered inline once the tail grows.
func (s *Store) CompactHistory(ctx context.Context, id string) error {
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	return s.compactHistoryLocked(id)
}

func (s *Store) compactHistoryLocked(id string) error {
	tail, err := s.readHistoryTail(id)
	if err != nil {
		return err
	}
	if len(tail) == 0 {
		return nil
	}
	snapshot, err := s.readHistorySnapshot(id)
	if err != nil {
		return err
	}
	if err := s.writeHistorySnapshot(id, append(snapshot, tail...)); err != nil {
		return err
	}
	// Safe to drop the tail only after the snapshot rename landed.
	if err := os.Remove(s.historyTailPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.StorageError{Op: "truncate history tail", Err: err}
	}
	return nil
}

func (s *Store) writeHistorySnapshot(id string, entries []domain.HistoryEntry) error {
	b, err := json.MarshalIndent(historyDoc{Changes: entries}, "", "  ")
	if err != nil {
		return &domain.StorageError{Op: "marshal history", Err: err}
	}
	if err := writeFileAtomic(s.historyPath(id), b); err != nil {
		return &domain.StorageError{Op: "write history", Err: err}
	}
	return nil
}
