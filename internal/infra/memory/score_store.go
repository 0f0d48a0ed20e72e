// Package memory holds a non-durable ScoreStore used by tests and demos.
package memory

import (
	"context"
	"sync"

	"quizbot/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreStore.
type ScoreStore struct {
	mu      sync.Mutex
	records map[string]*domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{records: make(map[string]*domain.ScoreRecord)}
}

func (s *ScoreStore) UpsertName(_ context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[userID]; ok {
		rec.DisplayName = name
		return nil
	}
	s.records[userID] = &domain.ScoreRecord{UserID: userID, DisplayName: name}
	return nil
}

func (s *ScoreStore) IncrementScore(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		rec = &domain.ScoreRecord{UserID: userID}
		s.records[userID] = rec
	}
	rec.Score += delta
	return rec.Score, nil
}

func (s *ScoreStore) Score(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[userID]; ok {
		return rec.Score, nil
	}
	return 0, nil
}

func (s *ScoreStore) Snapshot(_ context.Context) ([]domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]domain.ScoreRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, *rec)
	}
	return records, nil
}
