// Package file persists score records as a single JSON document, the layout
// the bot has always used: {"<user id>": {"name": ..., "score": ...}}.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quizbot/internal/domain"
)

type record struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ScoreStore keeps the full record map in memory and rewrites the file on
// every mutation via write-to-temporary-then-rename, so a crash mid-write
// leaves the previous committed file intact.
type ScoreStore struct {
	path string

	mu      sync.Mutex
	records map[string]record
}

// Open loads the score file at path. A missing file is a fresh start; a file
// that exists but does not parse is refused so a corrupted store is never
// silently overwritten.
func Open(path string) (*ScoreStore, error) {
	store := &ScoreStore{path: path, records: make(map[string]record)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read score file: %w", err)
	}
	if err := json.Unmarshal(data, &store.records); err != nil {
		return nil, fmt.Errorf("parse score file %s: %w", path, err)
	}
	return store, nil
}

func (s *ScoreStore) UpsertName(_ context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if ok && rec.Name == name {
		return nil
	}
	rec.Name = name
	s.records[userID] = rec
	return s.persistLocked()
}

func (s *ScoreStore) IncrementScore(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[userID]
	rec.Score += delta
	s.records[userID] = rec
	if err := s.persistLocked(); err != nil {
		return rec.Score, err
	}
	return rec.Score, nil
}

func (s *ScoreStore) Score(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[userID].Score, nil
}

func (s *ScoreStore) Snapshot(_ context.Context) ([]domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]domain.ScoreRecord, 0, len(s.records))
	for userID, rec := range s.records {
		records = append(records, domain.ScoreRecord{
			UserID:      userID,
			DisplayName: rec.Name,
			Score:       rec.Score,
		})
	}
	return records, nil
}

// persistLocked writes the whole map to a temporary file in the same
// directory and renames it over the target. Rename is atomic on POSIX, so
// readers observe either the old document or the new one, never a torn mix.
func (s *ScoreStore) persistLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp score file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp score file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp score file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace score file: %w", err)
	}
	return nil
}
