package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rhulha/WebTracker/internal/projects/domain"
	"github.com/rhulha/WebTracker/internal/projects/store"
)

// ProjectService handles project-related business logic on top of the store.
type ProjectService struct {
	store *store.Store
}

// NewProjectService creates a new project service
func NewProjectService(st *store.Store) *ProjectService {
	return &ProjectService{
		store: st,
	}
}

// Create creates a new project with a generated ID.
func (s *ProjectService) Create(ctx context.Context) (*domain.Project, error) {
	return s.store.CreateNew(ctx)
}

// ProjectInfo is the project record plus live storage usage.
type ProjectInfo struct {
	*domain.Project
	TotalSize int64 `json:"total_size"`
	MaxSize   int64 `json:"max_size"`
}

// Info returns the project record with its current usage and the quota
// ceiling attached.
func (s *ProjectService) Info(ctx context.Context, id string) (*ProjectInfo, error) {
	p, err := s.store.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	usage, err := s.store.Usage(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProjectInfo{Project: p, TotalSize: usage, MaxSize: store.MaxProjectSize}, nil
}

// Upload ingests one sample payload into the project.
func (s *ProjectService) Upload(ctx context.Context, id, filename string, r io.Reader, declaredSize int64) (domain.SampleEntry, error) {
	return s.store.Ingest(ctx, id, filename, r, declaredSize)
}

// SamplePath resolves a stored sample file for streaming.
func (s *ProjectService) SamplePath(id, filename string) (string, error) {
	return s.store.SamplePath(id, filename)
}

// SavePattern persists a new pattern and tempo.
func (s *ProjectService) SavePattern(ctx context.Context, id string, pattern json.RawMessage, bpm int) error {
	return s.store.UpdatePattern(ctx, id, pattern, bpm)
}

// PatternState is what the sequencer needs to restore a session.
type PatternState struct {
	Pattern []json.RawMessage    `json:"pattern"`
	BPM     int                  `json:"bpm"`
	Samples []domain.SampleEntry `json:"samples"`
}

// LoadPattern returns the saved pattern, tempo and sample inventory.
func (s *ProjectService) LoadPattern(ctx context.Context, id string) (*PatternState, error) {
	p, err := s.store.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PatternState{Pattern: p.Pattern, BPM: p.BPM, Samples: p.Samples}, nil
}

// History returns the full audit trail in append order.
func (s *ProjectService) History(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	return s.store.ReadHistory(ctx, id)
}

// Exists reports whether the project is present on storage.
func (s *ProjectService) Exists(id string) bool {
	return s.store.Exists(id)
}
