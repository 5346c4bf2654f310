package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rhulha/WebTracker/internal/projects/domain"
)

const (
	recordFile  = "project.json"
	historyFile = "history.json"
	historyTail = "history.log"

	// createAttempts bounds ID generation retries on collision.
	createAttempts = 5
)

// Store owns the durable per-project state under a single projects root:
//
//	<root>/<project-id>/
//	    project.json   current record (authoritative state)
//	    history.json   compacted audit trail
//	    history.log    append-only audit tail, folded into history.json
//	    <filename>     one blob per uploaded sample
//
// Every mutation is serialized per project ID, so readers never observe a
// half-applied operation and concurrent writers never merge.
type Store struct {
	root  string
	locks *lockTable
	cache UsageCache
}

// NewStore creates the projects root if needed and returns a store over it.
// cache may be nil, in which case usage is cached in process memory.
func NewStore(root string, cache UsageCache) (*Store, error) {
	if root == "" {
		root = "projects"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &domain.StorageError{Op: "init projects root", Err: err}
	}
	if cache == nil {
		cache = NewMemoryUsageCache()
	}
	return &Store{root: root, locks: newLockTable(), cache: cache}, nil
}

// Root returns the projects root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) projectDir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.root, id, recordFile)
}

// Exists reports whether a project directory is present.
func (s *Store) Exists(id string) bool {
	if !validProjectID(id) {
		return false
	}
	_, err := os.Stat(s.projectDir(id))
	return err == nil
}

// validProjectID rejects anything that could escape the projects root when
// joined as a path segment. Generated IDs are always alphanumeric.
func validProjectID(id string) bool {
	if id == "" || id != filepath.Base(id) {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// CreateNew generates a fresh project ID and creates the project, retrying
// on the (unlikely) ID collision.
func (s *Store) CreateNew(ctx context.Context) (*domain.Project, error) {
	for i := 0; i < createAttempts; i++ {
		p, err := s.Create(ctx, domain.NewProjectID())
		if errors.Is(err, domain.ErrProjectExists) {
			continue
		}
		return p, err
	}
	return nil, fmt.Errorf("failed to generate unique project id")
}

// Create makes the project directory, the initial record and the
// project_created history entry. Either all of it becomes visible or, on
// failure, the directory is removed so no partial project can be observed.
func (s *Store) Create(ctx context.Context, id string) (*domain.Project, error) {
	if !validProjectID(id) {
		return nil, domain.ErrInvalidInput
	}
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	dir := s.projectDir(id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, domain.ErrProjectExists
		}
		return nil, &domain.StorageError{Op: "create project dir", Err: err}
	}

	now := time.Now().UTC()
	p := domain.NewProject(id, now)
	if err := s.writeRecord(id, p); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	snapshot, merr := json.Marshal(p)
	if merr != nil {
		_ = os.RemoveAll(dir)
		return nil, &domain.StorageError{Op: "marshal project record", Err: merr}
	}
	first := domain.HistoryEntry{Timestamp: now, Action: domain.ActionProjectCreated, Data: snapshot}
	if err := s.writeHistorySnapshot(id, []domain.HistoryEntry{first}); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	s.cache.Set(ctx, id, 0)
	return p, nil
}

// Read returns the current project record.
func (s *Store) Read(ctx context.Context, id string) (*domain.Project, error) {
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.readRecord(id)
}

// UpdatePattern replaces the pattern, tempo and last-modified timestamp in
// one serialized operation and records a pattern_saved history entry.
// pattern must be a JSON array; its elements are opaque to the store.
func (s *Store) UpdatePattern(ctx context.Context, id string, pattern json.RawMessage, bpm int) error {
	steps, err := decodePattern(pattern)
	if err != nil {
		return err
	}
	if bpm <= 0 {
		return domain.ErrInvalidInput
	}

	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	p, err := s.readRecord(id)
	if err != nil {
		return err
	}
	prev, merr := json.Marshal(p)
	if merr != nil {
		return &domain.StorageError{Op: "marshal project record", Err: merr}
	}

	now := time.Now().UTC()
	p.Pattern = steps
	p.BPM = bpm
	p.LastModified = &now
	if err := s.writeRecord(id, p); err != nil {
		return err
	}

	data, merr := json.Marshal(struct {
		Pattern []json.RawMessage `json:"pattern"`
		BPM     int               `json:"bpm"`
	}{Pattern: steps, BPM: bpm})
	if merr != nil {
		return &domain.StorageError{Op: "marshal history payload", Err: merr}
	}
	entry := domain.HistoryEntry{Timestamp: now, Action: domain.ActionPatternSaved, Data: data}
	if err := s.appendHistoryLocked(id, entry); err != nil {
		// restore the previous record so state and history stay paired
		var old domain.Project
		if uerr := json.Unmarshal(prev, &old); uerr == nil {
			_ = s.writeRecord(id, &old)
		}
		return err
	}
	return nil
}

// AppendSample adds an already admitted sample entry to the record and the
// history trail. Quota admission is the caller's job; Ingest does both.
func (s *Store) AppendSample(ctx context.Context, id string, entry domain.SampleEntry) error {
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	return s.appendSampleLocked(id, entry)
}

func (s *Store) appendSampleLocked(id string, entry domain.SampleEntry) error {
	p, err := s.readRecord(id)
	if err != nil {
		return err
	}
	prev, merr := json.Marshal(p)
	if merr != nil {
		return &domain.StorageError{Op: "marshal project record", Err: merr}
	}

	// A re-upload under the same name overwrites the blob, so the inventory
	// keeps one entry per filename (last write wins).
	replaced := false
	for i := range p.Samples {
		if p.Samples[i].Filename == entry.Filename {
			p.Samples[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		p.Samples = append(p.Samples, entry)
	}
	if err := s.writeRecord(id, p); err != nil {
		return err
	}

	data, merr := json.Marshal(struct {
		Filename string `json:"filename"`
	}{Filename: entry.Filename})
	if merr != nil {
		return &domain.StorageError{Op: "marshal history payload", Err: merr}
	}
	entryErr := s.appendHistoryLocked(id, domain.HistoryEntry{
		Timestamp: entry.Uploaded,
		Action:    domain.ActionSampleUploaded,
		Data:      data,
	})
	if entryErr != nil {
		// restore the previous record so the inventory never lists a sample
		// the caller is about to roll back
		var old domain.Project
		if uerr := json.Unmarshal(prev, &old); uerr == nil {
			_ = s.writeRecord(id, &old)
		}
		return entryErr
	}
	return nil
}

func decodePattern(pattern json.RawMessage) ([]json.RawMessage, error) {
	if len(pattern) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var steps []json.RawMessage
	if err := json.Unmarshal(pattern, &steps); err != nil {
		return nil, domain.ErrInvalidInput
	}
	if steps == nil {
		steps = []json.RawMessage{}
	}
	return steps, nil
}

func (s *Store) readRecord(id string) (*domain.Project, error) {
	b, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, &domain.StorageError{Op: "read project record", Err: err}
	}
	var p domain.Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, &domain.StorageError{Op: "decode project record", Err: err}
	}
	if p.Samples == nil {
		p.Samples = []domain.SampleEntry{}
	}
	if p.Pattern == nil {
		p.Pattern = []json.RawMessage{}
	}
	return &p, nil
}

// writeRecord persists the record with a temp-file write and rename so a
// crash mid-write never leaves a torn project.json behind.
func (s *Store) writeRecord(id string, p *domain.Project) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return &domain.StorageError{Op: "marshal project record", Err: err}
	}
	if err := writeFileAtomic(s.recordPath(id), b); err != nil {
		return &domain.StorageError{Op: "write project record", Err: err}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".write-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
