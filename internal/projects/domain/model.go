package domain

import (
	"encoding/json"
	"time"
)

// Project is the persisted record for a single sequencer workspace.
// It is intentionally storage-agnostic and used across store and HTTP layers.
type Project struct {
	ID           string            `json:"id"`
	Created      time.Time         `json:"created"`
	Samples      []SampleEntry     `json:"samples"`
	Pattern      []json.RawMessage `json:"pattern"`
	BPM          int               `json:"bpm"`
	LastModified *time.Time        `json:"last_modified,omitempty"`
}

// SampleEntry describes one uploaded sample as recorded in the project.
// Size is the byte count at upload time; live usage is recomputed from disk.
type SampleEntry struct {
	Filename string    `json:"filename"`
	Uploaded time.Time `json:"uploaded"`
	Size     int64     `json:"size"`
}

// History actions written by the store. The set is extensible.
const (
	ActionProjectCreated = "project_created"
	ActionSampleUploaded = "sample_uploaded"
	ActionPatternSaved   = "pattern_saved"
)

// HistoryEntry is one record in a project's append-only audit trail.
type HistoryEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data"`
}

// DefaultBPM is the tempo assigned to freshly created projects.
const DefaultBPM = 120

// NewProject returns an empty project record with the default tempo.
func NewProject(id string, now time.Time) *Project {
	return &Project{
		ID:      id,
		Created: now,
		Samples: []SampleEntry{},
		Pattern: []json.RawMessage{},
		BPM:     DefaultBPM,
	}
}
