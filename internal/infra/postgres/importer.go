package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/uptrace/bun"

	"quizbot/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:quiz_questions"`

	ID       int64           `bun:"id,pk,autoincrement"`
	Category string          `bun:"category"`
	Prompt   string          `bun:"prompt"`
	Options  json.RawMessage `bun:"options,type:jsonb"`
	Answer   string          `bun:"answer"`
}

// ImportQuestions moves a questions.json file into the quiz_questions table.
// Prompts already present are skipped, so the import can be re-run. Returns
// how many rows were inserted.
func ImportQuestions(ctx context.Context, db *bun.DB, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read questions file: %w", err)
	}
	var raw map[string][]domain.Question
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse questions file %s: %w", path, err)
	}

	inserted := 0
	for category, questions := range raw {
		for _, q := range questions {
			optionsJSON, err := json.Marshal(q.Options)
			if err != nil {
				return inserted, fmt.Errorf("marshal options for %q: %w", q.Prompt, err)
			}
			res, err := db.NewInsert().
				Model(&questionRow{
					Category: category,
					Prompt:   q.Prompt,
					Options:  optionsJSON,
					Answer:   q.Answer,
				}).
				On("CONFLICT (prompt) DO NOTHING").
				Exec(ctx)
			if err != nil {
				return inserted, fmt.Errorf("insert question %q: %w", q.Prompt, err)
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				inserted++
			}
		}
	}
	return inserted, nil
}

// ImportScores moves a scores.json file into the quiz_users table,
// overwriting existing rows (last import wins, like the original migration
// script). Returns how many users were written.
func ImportScores(ctx context.Context, db *bun.DB, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read scores file: %w", err)
	}
	var raw map[string]struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse scores file %s: %w", path, err)
	}

	written := 0
	for userID, rec := range raw {
		_, err := db.NewInsert().
			Model(&userRow{UserID: userID, Name: rec.Name, Score: rec.Score}).
			On("CONFLICT (user_id) DO UPDATE").
			Set("name = EXCLUDED.name, score = EXCLUDED.score").
			Exec(ctx)
		if err != nil {
			return written, fmt.Errorf("insert user %s: %w", userID, err)
		}
		written++
	}
	return written, nil
}
