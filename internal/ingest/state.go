package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State tracks progress so an interrupted ingest can resume.
type State struct {
	StartedAt           time.Time `json:"started_at"`
	LastProcessedAt     time.Time `json:"last_processed_at"`
	FilesProcessed      []string  `json:"files_processed"`
	FilesRemaining      int       `json:"files_remaining"`
	ConversationsStored int       `json:"conversations_stored"`
	EntriesStored       int       `json:"entries_stored"`
	DuplicatesSkipped   int       `json:"duplicates_skipped"`
	Errors              []string  `json:"errors"`

	path string // not serialized
}

// LoadState loads the ingest state from path, or starts a new one.
func LoadState(path string) (*State, error) {
	p := ExpandHome(path)

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{
				StartedAt: time.Now().UTC(),
				path:      p,
			}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.path = p
	return &s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return os.WriteFile(s.path, data, 0o644)
}

// Path returns the file the state is saved to.
func (s *State) Path() string {
	return s.path
}

// IsProcessed returns true if the given file has already been ingested.
func (s *State) IsProcessed(path string) bool {
	for _, f := range s.FilesProcessed {
		if f == path {
			return true
		}
	}
	return false
}

// MarkProcessed records a file as ingested.
func (s *State) MarkProcessed(path string) {
	s.FilesProcessed = append(s.FilesProcessed, path)
}

// AddError records a processing error.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
