package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhulha/WebTracker/internal/projects/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestCreateInitializesProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "abc123DEF456")
	require.NoError(t, err)

	assert.Equal(t, "abc123DEF456", p.ID)
	assert.Equal(t, domain.DefaultBPM, p.BPM)
	assert.Empty(t, p.Samples)
	assert.Empty(t, p.Pattern)
	assert.False(t, p.Created.IsZero())
	assert.Nil(t, p.LastModified)

	// record and history must exist together
	_, err = os.Stat(filepath.Join(s.Root(), p.ID, recordFile))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(s.Root(), p.ID, historyFile))
	require.NoError(t, err)

	got, err := s.Read(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreateAlreadyExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "samesamesame")
	require.NoError(t, err)

	_, err = s.Create(ctx, "samesamesame")
	assert.ErrorIs(t, err, domain.ErrProjectExists)
}

func TestCreateNewGeneratesUniqueIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateNew(ctx)
	require.NoError(t, err)
	b, err := s.CreateNew(ctx)
	require.NoError(t, err)

	assert.Len(t, a.ID, 12)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestReadNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Read(context.Background(), "nosuchproj12")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestUnknownProjectOperationsHaveNoSideEffect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpdatePattern(ctx, "nosuchproj12", json.RawMessage(`[[0,1]]`), 120)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = s.ReadHistory(ctx, "nosuchproj12")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "failed operations must not create project state")
}

func TestUpdatePatternRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateNew(ctx)
	require.NoError(t, err)

	pattern := json.RawMessage(`[[0,1,0,1],[1,0,1,0]]`)
	require.NoError(t, s.UpdatePattern(ctx, p.ID, pattern, 140))

	got, err := s.Read(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 140, got.BPM)
	require.NotNil(t, got.LastModified)

	round, err := json.Marshal(got.Pattern)
	require.NoError(t, err)
	assert.JSONEq(t, string(pattern), string(round))
}

func TestUpdatePatternValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateNew(ctx)
	require.NoError(t, err)

	err = s.UpdatePattern(ctx, p.ID, json.RawMessage(`{"not":"an array"}`), 120)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = s.UpdatePattern(ctx, p.ID, json.RawMessage(`[[0,1]]`), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = s.UpdatePattern(ctx, p.ID, json.RawMessage(`[[0,1]]`), -10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// nothing was recorded for the rejected saves
	entries, err := s.ReadHistory(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdatePatternIdempotentStateNotHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateNew(ctx)
	require.NoError(t, err)

	pattern := json.RawMessage(`[[1,1,1,1]]`)
	require.NoError(t, s.UpdatePattern(ctx, p.ID, pattern, 90))
	first, err := s.Read(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, s.UpdatePattern(ctx, p.ID, pattern, 90))
	second, err := s.Read(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, first.BPM, second.BPM)
	assert.Equal(t, first.Pattern, second.Pattern)

	entries, err := s.ReadHistory(ctx, p.ID)
	require.NoError(t, err)
	saved := 0
	for _, e := range entries {
		if e.Action == domain.ActionPatternSaved {
			saved++
		}
	}
	assert.Equal(t, 2, saved, "history is not idempotent")
}

func TestHistoryStartsWithProjectCreated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateNew(ctx)
	require.NoError(t, err)
	require.NoError(t, s.UpdatePattern(ctx, p.ID, json.RawMessage(`[]`), 100))

	entries, err := s.ReadHistory(ctx, p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	assert.Equal(t, domain.ActionProjectCreated, entries[0].Action)
	created := 0
	for _, e := range entries {
		if e.Action == domain.ActionProjectCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)

	// the creation entry snapshots the full initial record
	var snap domain.Project
	require.NoError(t, json.Unmarshal(entries[0].Data, &snap))
	assert.Equal(t, p.ID, snap.ID)
	assert.Equal(t, domain.DefaultBPM, snap.BPM)
}

func TestRecordIsPrettyPrinted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateNew(ctx)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(s.Root(), p.ID, recordFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  \"id\"")
}
