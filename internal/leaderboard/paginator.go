// Package leaderboard turns a score snapshot into fixed-size, navigable
// pages. Everything here is pure: sorting happens fresh on every call, since
// scores mutate between views.
package leaderboard

import (
	"fmt"
	"sort"
	"strings"

	"quizbot/internal/domain"
)

// DefaultPageSize is how many players fit on one leaderboard page.
const DefaultPageSize = 5

// Row is one ranked line of a page. Rank is 1-based and continues across
// pages; You marks the requesting user's own row.
type Row struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	You   bool   `json:"you"`
}

// Page is one clamped leaderboard page plus its navigation affordances.
type Page struct {
	Number     int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Rows       []Row `json:"rows"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

// Paginate sorts records by score descending (ties broken by display name,
// then user ID, for a deterministic total order) and returns the requested
// page. Out-of-range page numbers are clamped, never rejected.
func Paginate(records []domain.ScoreRecord, page, pageSize int, requesterID string) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	sorted := make([]domain.ScoreRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if sorted[i].DisplayName != sorted[j].DisplayName {
			return sorted[i].DisplayName < sorted[j].DisplayName
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	totalPages := (len(sorted) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * pageSize
	end := start + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}

	rows := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, Row{
			Rank:  i + 1,
			Name:  sorted[i].DisplayName,
			Score: sorted[i].Score,
			You:   sorted[i].UserID == requesterID,
		})
	}

	return Page{
		Number:     page,
		TotalPages: totalPages,
		Rows:       rows,
		HasPrev:    page > 0,
		HasNext:    page < totalPages-1,
	}
}

// Render produces the chat text for a page.
func (p Page) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Leaderboard (Page %d of %d)\n\n", p.Number+1, p.TotalPages)
	if len(p.Rows) == 0 {
		b.WriteString("No players to show yet.")
		return b.String()
	}
	lines := make([]string, 0, len(p.Rows))
	for _, row := range p.Rows {
		if row.You {
			lines = append(lines, fmt.Sprintf("%d. %s (You) - %d points", row.Rank, row.Name, row.Score))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s - %d points", row.Rank, row.Name, row.Score))
		}
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
