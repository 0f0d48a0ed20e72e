package domain

import "errors"

var (
	// ErrCategoryNotFound is returned when a user picks a category the catalog does not know.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryEmpty is returned when a category exists but holds no questions.
	ErrCategoryEmpty = errors.New("category has no questions")
	// ErrNoActiveQuestion is returned when an answer arrives with no question in flight.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrNoActiveCategory is returned when a user asks for the next question before picking a category.
	ErrNoActiveCategory = errors.New("no active category")
	// ErrAlreadyResolved signals that the question was resolved first by the
	// other path (timeout or an earlier submit). Callers must treat it as a
	// silent no-op, never as a failure.
	ErrAlreadyResolved = errors.New("question already resolved")
)
