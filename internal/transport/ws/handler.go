// Package ws is the chat transport adapter: it turns inbound websocket
// events into engine calls and renders engine output back to the user.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quizbot/internal/app"
	"quizbot/internal/domain"
	"quizbot/internal/leaderboard"
)

type Gateway struct {
	service  *app.QuizService
	scores   app.ScoreStore
	registry *Registry
	pageSize int
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewGateway(service *app.QuizService, scores app.ScoreStore, registry *Registry, pageSize int, logger zerolog.Logger) *Gateway {
	if pageSize <= 0 {
		pageSize = leaderboard.DefaultPageSize
	}
	return &Gateway{
		service:  service,
		scores:   scores,
		registry: registry,
		pageSize: pageSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type startPayload struct {
	Category string `json:"category"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type pagePayload struct {
	Page int `json:"page"`
}

type categoriesPayload struct {
	Categories []string `json:"categories"`
}

type resultPayload struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
	Message       string `json:"message"`
}

type timeoutPayload struct {
	Message       string `json:"message"`
	CorrectAnswer string `json:"correctAnswer"`
}

type leaderboardPayload struct {
	Text       string `json:"text"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	HasPrev    bool   `json:"hasPrev"`
	HasNext    bool   `json:"hasNext"`
}

type scorePayload struct {
	Score   int    `json:"score"`
	Message string `json:"message"`
}

type noticePayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the read loop for one user.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	if userID == "" || name == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	c := &client{send: make(chan outbound, 16)}
	g.registry.register(userID, c)
	defer g.registry.unregister(userID, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				g.logger.Debug().Err(err).Str("user_id", userID).Msg("ws write failed")
				return
			}
		}
	}()

	c.enqueue(outbound{Type: "categories", Payload: categoriesPayload{
		Categories: g.service.Catalog().Categories(),
	}})

	for {
		var inbound envelope
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		g.handle(r, userID, name, c, inbound)
	}

	c.shutdown()
	<-writerDone
}

func (g *Gateway) handle(r *http.Request, userID, name string, c *client, inbound envelope) {
	ctx := r.Context()
	switch inbound.Type {
	case "categories":
		c.enqueue(outbound{Type: "categories", Payload: categoriesPayload{
			Categories: g.service.Catalog().Categories(),
		}})

	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: "invalid start payload"}})
			return
		}
		delivery, err := g.service.StartCategory(ctx, userID, name, payload.Category)
		if err != nil {
			c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: guidance(err)}})
			return
		}
		c.enqueue(outbound{Type: "question", Payload: delivery.Question})

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: "invalid answer payload"}})
			return
		}
		result, err := g.service.SubmitAnswer(ctx, userID, name, payload.Option)
		if errors.Is(err, domain.ErrAlreadyResolved) {
			// The timeout (or an earlier submit) won; nothing to say twice.
			return
		}
		if err != nil {
			c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: guidance(err)}})
			return
		}
		c.enqueue(outbound{Type: "result", Payload: resultPayload{
			Correct:       result.Correct,
			CorrectAnswer: result.CorrectAnswer,
			Score:         result.Score,
			Message:       resultMessage(result),
		}})

	case "next":
		delivery, err := g.service.NextQuestion(ctx, userID)
		if err != nil {
			c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: guidance(err)}})
			return
		}
		if delivery.Completed {
			c.enqueue(outbound{Type: "complete", Payload: noticePayload{
				Message: "Category complete! Pick another one to keep playing.",
			}})
			return
		}
		c.enqueue(outbound{Type: "question", Payload: delivery.Question})

	case "leaderboard":
		var payload pagePayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: "invalid leaderboard payload"}})
				return
			}
		}
		snapshot, err := g.scores.Snapshot(ctx)
		if err != nil {
			g.logger.Error().Err(err).Msg("leaderboard snapshot failed")
			c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: "Leaderboard is unavailable right now."}})
			return
		}
		page := leaderboard.Paginate(snapshot, payload.Page, g.pageSize, userID)
		c.enqueue(outbound{Type: "leaderboard", Payload: leaderboardPayload{
			Text:       page.Render(),
			Page:       page.Number,
			TotalPages: page.TotalPages,
			HasPrev:    page.HasPrev,
			HasNext:    page.HasNext,
		}})

	case "score":
		score, err := g.service.CurrentScore(ctx, userID, name)
		if err != nil {
			g.logger.Error().Err(err).Str("user_id", userID).Msg("score read failed")
			c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: "Your score is unavailable right now."}})
			return
		}
		c.enqueue(outbound{Type: "score", Payload: scorePayload{
			Score:   score,
			Message: fmt.Sprintf("Your current score is: %d", score),
		}})

	default:
		c.enqueue(outbound{Type: "error", Payload: noticePayload{Message: "unsupported message type"}})
	}
}

// guidance maps user-state errors to plain recovery text; raw internals
// never reach the user.
func guidance(err error) string {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return "Unknown category. Pick one from the category list."
	case errors.Is(err, domain.ErrCategoryEmpty):
		return "No questions available in this category right now."
	case errors.Is(err, domain.ErrNoActiveQuestion):
		return "No question is waiting for an answer. Pick a category to start."
	case errors.Is(err, domain.ErrNoActiveCategory):
		return "Please select a category first."
	default:
		return "Something went wrong. Please try again."
	}
}

func resultMessage(result domain.AnswerResult) string {
	if result.Correct {
		return fmt.Sprintf("Correct! Your score: %d", result.Score)
	}
	return fmt.Sprintf("Wrong! The correct answer was: %s\nYour score: %d", result.CorrectAnswer, result.Score)
}
