// Package redis backs the score store with two Redis hashes:
//
//	HSET quiz:scores {userID} {score}
//	HSET quiz:names  {userID} {name}
//
// HINCRBY gives the atomic per-user increment; snapshot reads are two
// HGETALLs, which is as consistent as the leaderboard needs.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"quizbot/internal/domain"
)

const (
	scoresKey = "quiz:scores"
	namesKey  = "quiz:names"
)

// ScoreStore is a Redis-backed implementation of app.ScoreStore.
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

func (s *ScoreStore) UpsertName(ctx context.Context, userID, name string) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, namesKey, userID, name)
	pipe.HSetNX(ctx, scoresKey, userID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert name: %w", err)
	}
	return nil
}

func (s *ScoreStore) IncrementScore(ctx context.Context, userID string, delta int) (int, error) {
	score, err := s.client.HIncrBy(ctx, scoresKey, userID, int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment score: %w", err)
	}
	return int(score), nil
}

func (s *ScoreStore) Score(ctx context.Context, userID string) (int, error) {
	raw, err := s.client.HGet(ctx, scoresKey, userID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get score: %w", err)
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse score for %s: %w", userID, err)
	}
	return score, nil
}

func (s *ScoreStore) Snapshot(ctx context.Context) ([]domain.ScoreRecord, error) {
	scores, err := s.client.HGetAll(ctx, scoresKey).Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot scores: %w", err)
	}
	names, err := s.client.HGetAll(ctx, namesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot names: %w", err)
	}

	records := make([]domain.ScoreRecord, 0, len(scores))
	for userID, raw := range scores {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse score for %s: %w", userID, err)
		}
		records = append(records, domain.ScoreRecord{
			UserID:      userID,
			DisplayName: names[userID],
			Score:       score,
		})
	}
	return records, nil
}
