// Package state persists the set of story URLs that have already been surfaced.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hackerfeed/internal/domain/entity"
)

// DefaultPath is the state file name used when none is configured.
const DefaultPath = "state"

// document is the on-disk shape of the state file.
type document struct {
	History []string `json:"history"`
}

// HistoryStore loads and saves the history as JSON: {"history": [url, ...]}.
// It holds no state of its own; the caller owns the in-memory set.
type HistoryStore struct {
	path string
}

// NewHistoryStore returns a store backed by the file at path.
func NewHistoryStore(path string) *HistoryStore {
	if path == "" {
		path = DefaultPath
	}
	return &HistoryStore{path: path}
}

// Path returns the state file location.
func (s *HistoryStore) Path() string {
	return s.path
}

// Load reads the history from disk.
//
// It never fails hard: a missing, unreadable, or malformed file yields an
// empty history together with an error wrapping entity.ErrStateIO, which the
// caller logs as a warning.
func (s *HistoryStore) Load() (entity.History, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return entity.NewHistory(), fmt.Errorf("%w: read %s: %v", entity.ErrStateIO, s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return entity.NewHistory(), fmt.Errorf("%w: decode %s: %v", entity.ErrStateIO, s.path, err)
	}

	return entity.NewHistory(doc.History...), nil
}

// Save writes the history atomically: the document is written to a temporary
// file in the same directory, synced, and renamed over the state file. On
// failure the previous state file is left untouched.
func (s *HistoryStore) Save(h entity.History) error {
	urls := h.URLs()
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(document{History: urls})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", entity.ErrStateIO, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", entity.ErrStateIO, dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %v", entity.ErrStateIO, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", entity.ErrStateIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", entity.ErrStateIO, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: rename to %s: %v", entity.ErrStateIO, s.path, err)
	}
	return nil
}
