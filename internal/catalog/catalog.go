package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"quizbot/internal/domain"
)

// Catalog is the immutable, categorized set of all quiz questions. It is
// built once at startup and shared read-only across all sessions.
type Catalog struct {
	categories map[string][]domain.Question
	names      []string
}

// New validates the raw question table and freezes it into a Catalog.
// A category with no questions, a question with fewer than two options, or a
// designated answer that is not among the options all make the whole catalog
// invalid; such entries would otherwise surface as unanswerable questions at
// play time.
func New(raw map[string][]domain.Question) (*Catalog, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	categories := make(map[string][]domain.Question, len(raw))
	names := make([]string, 0, len(raw))
	for name, questions := range raw {
		if name == "" {
			return nil, fmt.Errorf("catalog has a category with an empty name")
		}
		if len(questions) == 0 {
			return nil, fmt.Errorf("category %q has no questions", name)
		}
		copied := make([]domain.Question, len(questions))
		for i, q := range questions {
			if err := validate(q); err != nil {
				return nil, fmt.Errorf("category %q, question %d: %w", name, i, err)
			}
			q.Category = name
			copied[i] = q
		}
		categories[name] = copied
		names = append(names, name)
	}
	sort.Strings(names)

	return &Catalog{categories: categories, names: names}, nil
}

func validate(q domain.Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("empty prompt")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("needs at least two options, has %d", len(q.Options))
	}
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return fmt.Errorf("answer %q is not among the options", q.Answer)
}

// Categories lists category names in a stable sorted order.
func (c *Catalog) Categories() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

// Questions returns the ordered question sequence for a category. The order
// is the serving order; it is never shuffled.
func (c *Catalog) Questions(category string) ([]domain.Question, bool) {
	questions, ok := c.categories[category]
	return questions, ok
}

// Question returns the question at index within a category, or false when the
// category is unknown or the index is past the end.
func (c *Catalog) Question(category string, index int) (domain.Question, bool) {
	questions, ok := c.categories[category]
	if !ok || index < 0 || index >= len(questions) {
		return domain.Question{}, false
	}
	return questions[index], true
}

// Len reports how many questions a category holds.
func (c *Catalog) Len(category string) int {
	return len(c.categories[category])
}

// LoadFile reads a questions.json file shaped as
// {"category": [{"question": ..., "options": [...], "answer": ...}]}.
// Any structural problem is fatal to the caller: the service refuses to start
// without a usable catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var raw map[string][]domain.Question
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse questions file %s: %w", path, err)
	}
	catalog, err := New(raw)
	if err != nil {
		return nil, fmt.Errorf("questions file %s: %w", path, err)
	}
	return catalog, nil
}
