package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizbot/internal/domain"
)

// CatalogLoader reads the question table into the raw form the catalog is
// built from. Questions come back in insertion order (ORDER BY id), which is
// the serving order.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) Load(ctx context.Context) (map[string][]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT category, prompt, options, answer FROM quiz_questions ORDER BY category, id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	raw := make(map[string][]domain.Question)
	for rows.Next() {
		var (
			q           domain.Question
			optionsJSON []byte
		)
		if err := rows.Scan(&q.Category, &q.Prompt, &optionsJSON, &q.Answer); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for %q: %w", q.Prompt, err)
		}
		raw[q.Category] = append(raw[q.Category], q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return raw, nil
}
