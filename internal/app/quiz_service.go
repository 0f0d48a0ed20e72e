package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"quizbot/internal/catalog"
	"quizbot/internal/domain"
)

// DefaultAnswerWindow bounds how long a delivered question waits for an
// answer before the timeout path resolves it.
const DefaultAnswerWindow = 15 * time.Second

// ScoreStore abstracts durable per-user score records (file, Postgres, Redis).
// IncrementScore must be atomic per user; Snapshot may be stale relative to
// concurrent writes but never returns a torn record.
type ScoreStore interface {
	UpsertName(ctx context.Context, userID, name string) error
	IncrementScore(ctx context.Context, userID string, delta int) (int, error)
	Score(ctx context.Context, userID string) (int, error)
	Snapshot(ctx context.Context) ([]domain.ScoreRecord, error)
}

// Notifier receives engine output that has no inbound request to answer,
// which today is only the timeout-expiry path.
type Notifier interface {
	TimeExpired(userID string, notice domain.TimeoutNotice)
}

// QuizService owns the authoritative progression of each user through one
// category's question sequence and guarantees that every delivered question
// is resolved exactly once, whether by an answer or by the timer.
type QuizService struct {
	catalog  *catalog.Catalog
	scores   ScoreStore
	timers   *TimerScheduler
	notifier Notifier
	window   time.Duration
	logger   zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// session tracks one user's run. Its mutex is the single synchronization
// point between the answer path and the timeout path; the answered flag
// test-and-set under that mutex picks the first writer.
type session struct {
	mu       sync.Mutex
	category string
	index    int
	question *domain.Question
	answered bool
	seq      uint64
	timer    *TimerHandle
}

func NewQuizService(cat *catalog.Catalog, scores ScoreStore, notifier Notifier, window time.Duration, logger zerolog.Logger) *QuizService {
	if window <= 0 {
		window = DefaultAnswerWindow
	}
	return &QuizService{
		catalog:  cat,
		scores:   scores,
		timers:   NewTimerScheduler(),
		notifier: notifier,
		window:   window,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Catalog exposes the immutable question catalog for rendering category lists.
func (s *QuizService) Catalog() *catalog.Catalog {
	return s.catalog
}

// StartCategory begins a fresh run through category, abandoning any question
// in flight for this user. The display name refresh is best effort.
func (s *QuizService) StartCategory(ctx context.Context, userID, name, category string) (domain.Delivery, error) {
	questions, ok := s.catalog.Questions(category)
	if !ok {
		return domain.Delivery{}, domain.ErrCategoryNotFound
	}
	if len(questions) == 0 {
		return domain.Delivery{}, domain.ErrCategoryEmpty
	}

	if err := s.scores.UpsertName(ctx, userID, name); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("name refresh failed")
	}

	sess := s.sessionFor(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.timer.Cancel()
	sess.category = category
	sess.index = 0
	return s.deliverLocked(sess, userID), nil
}

// NextQuestion advances the user's run by one question.
func (s *QuizService) NextQuestion(ctx context.Context, userID string) (domain.Delivery, error) {
	sess, ok := s.lookup(userID)
	if !ok {
		return domain.Delivery{}, domain.ErrNoActiveCategory
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.category == "" {
		return domain.Delivery{}, domain.ErrNoActiveCategory
	}
	sess.index++
	return s.deliverLocked(sess, userID), nil
}

// SubmitAnswer resolves the current question with the user's chosen option.
// If the timeout fired first (or this is a duplicate submit) it returns
// ErrAlreadyResolved and touches nothing; a correct first answer performs
// exactly one score increment.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID, name, option string) (domain.AnswerResult, error) {
	sess, ok := s.lookup(userID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrNoActiveQuestion
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.question == nil {
		return domain.AnswerResult{}, domain.ErrNoActiveQuestion
	}
	if sess.answered {
		return domain.AnswerResult{}, domain.ErrAlreadyResolved
	}
	sess.answered = true
	sess.timer.Cancel()

	if err := s.scores.UpsertName(ctx, userID, name); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("name refresh failed")
	}

	question := sess.question
	result := domain.AnswerResult{
		Correct:       option == question.Answer,
		CorrectAnswer: question.Answer,
		Persisted:     true,
	}

	if result.Correct {
		newScore, err := s.scores.IncrementScore(ctx, userID, 1)
		if err != nil {
			// The previous committed record survives; the in-memory outcome
			// is still shown but flagged so operators can spot it.
			s.logger.Error().Err(err).Str("user_id", userID).Msg("score increment not yet durable")
			result.Persisted = false
		} else {
			result.Score = newScore
		}
	} else {
		score, err := s.scores.Score(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("score read failed")
			result.Persisted = false
		} else {
			result.Score = score
		}
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("category", question.Category).
		Int("index", sess.index).
		Bool("correct", result.Correct).
		Msg("answer resolved")

	return result, nil
}

// Abandon cancels any armed timer and clears the user's session. A no-op for
// users without one.
func (s *QuizService) Abandon(userID string) {
	sess, ok := s.lookup(userID)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.clearLocked(sess)
}

// CurrentScore ensures the user has a score record and returns its value.
func (s *QuizService) CurrentScore(ctx context.Context, userID, name string) (int, error) {
	if err := s.scores.UpsertName(ctx, userID, name); err != nil {
		return 0, err
	}
	return s.scores.Score(ctx, userID)
}

// deliverLocked is the single chokepoint through which both start and advance
// serve a question: it stores the question at the session's index, resets the
// answered flag, and arms a fresh timeout bound to this exact delivery via
// the sequence number. Past the last question it clears the session and
// reports completion instead.
func (s *QuizService) deliverLocked(sess *session, userID string) domain.Delivery {
	questions, _ := s.catalog.Questions(sess.category)
	if sess.index >= len(questions) {
		s.clearLocked(sess)
		return domain.Delivery{Completed: true}
	}

	question := questions[sess.index]
	sess.question = &question
	sess.answered = false
	sess.seq++
	seq := sess.seq

	sess.timer.Cancel()
	sess.timer = s.timers.Arm(s.window, func() {
		s.expire(userID, sess, seq)
	})

	return domain.Delivery{Question: &domain.QuestionView{
		Category: question.Category,
		Index:    sess.index,
		Prompt:   question.Prompt,
		Options:  question.Options,
	}}
}

// expire is the timeout-expiry path. It performs the same test-and-set as
// SubmitAnswer; observing the flag already set, or a sequence number from an
// older delivery, makes it a no-op. The session stays on the same index so
// the user must explicitly advance.
func (s *QuizService) expire(userID string, sess *session, seq uint64) {
	sess.mu.Lock()
	if sess.seq != seq || sess.answered || sess.question == nil {
		sess.mu.Unlock()
		return
	}
	sess.answered = true
	sess.timer = nil
	notice := domain.TimeoutNotice{
		Category:      sess.category,
		Index:         sess.index,
		CorrectAnswer: sess.question.Answer,
	}
	sess.mu.Unlock()

	s.logger.Debug().
		Str("user_id", userID).
		Str("category", notice.Category).
		Int("index", notice.Index).
		Msg("answer window expired")

	if s.notifier != nil {
		s.notifier.TimeExpired(userID, notice)
	}
}

func (s *QuizService) clearLocked(sess *session) {
	sess.timer.Cancel()
	sess.timer = nil
	sess.question = nil
	sess.answered = false
	sess.category = ""
	sess.index = 0
}

// sessionFor returns the user's session, creating it on first use. Session
// structs are retained for the life of the process so a stale timer callback
// can never observe a recycled sequence number.
func (s *QuizService) sessionFor(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := &session{}
	s.sessions[userID] = sess
	return sess
}

func (s *QuizService) lookup(userID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}
