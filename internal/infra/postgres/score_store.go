package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quizbot/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:quiz_users"`

	UserID string `bun:"user_id,pk"`
	Name   string `bun:"name"`
	Score  int    `bun:"score"`
}

// ScoreStore persists score records in Postgres. Every mutation is its own
// committed transaction, so a crash mid-write leaves the previous committed
// row untouched.
type ScoreStore struct {
	db *bun.DB
}

func NewScoreStore(db *bun.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) UpsertName(ctx context.Context, userID, name string) error {
	row := &userRow{UserID: userID, Name: name}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert name: %w", err)
	}
	return nil
}

func (s *ScoreStore) IncrementScore(ctx context.Context, userID string, delta int) (int, error) {
	row := &userRow{UserID: userID, Score: delta}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (user_id) DO UPDATE").
			Set("score = quiz_users.score + EXCLUDED.score").
			Returning("score").
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("increment score: %w", err)
	}
	return row.Score, nil
}

func (s *ScoreStore) Score(ctx context.Context, userID string) (int, error) {
	var score int
	err := s.db.NewSelect().
		Model((*userRow)(nil)).
		Column("score").
		Where("user_id = ?", userID).
		Scan(ctx, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get score: %w", err)
	}
	return score, nil
}

func (s *ScoreStore) Snapshot(ctx context.Context) ([]domain.ScoreRecord, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("snapshot scores: %w", err)
	}

	records := make([]domain.ScoreRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.ScoreRecord{
			UserID:      row.UserID,
			DisplayName: row.Name,
			Score:       row.Score,
		})
	}
	return records, nil
}
