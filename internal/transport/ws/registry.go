package ws

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"quizbot/internal/domain"
)

// Registry maps connected users to their write channel. It implements
// app.Notifier, so the engine can push timeout notices to whoever is
// currently connected without knowing anything about websockets.
type Registry struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// TimeExpired implements app.Notifier. Sessions outlive connections, so a
// notice for a user who is no longer connected is simply dropped.
func (r *Registry) TimeExpired(userID string, notice domain.TimeoutNotice) {
	r.mu.RLock()
	c := r.clients[userID]
	r.mu.RUnlock()
	if c == nil {
		r.logger.Debug().Str("user_id", userID).Msg("timeout notice for disconnected user dropped")
		return
	}
	c.enqueue(outbound{Type: "timeout", Payload: timeoutPayload{
		Message:       fmt.Sprintf("Time's up! The correct answer was: %s", notice.CorrectAnswer),
		CorrectAnswer: notice.CorrectAnswer,
	}})
}

func (r *Registry) register(userID string, c *client) {
	r.mu.Lock()
	r.clients[userID] = c
	r.mu.Unlock()
}

func (r *Registry) unregister(userID string, c *client) {
	r.mu.Lock()
	if r.clients[userID] == c {
		delete(r.clients, userID)
	}
	r.mu.Unlock()
}

// client owns the write side of one connection. The writer goroutine is the
// only thing that touches the conn for writes; everyone else enqueues.
type client struct {
	send   chan outbound
	mu     sync.Mutex
	closed bool
}

// enqueue drops the message when the client is gone or its buffer is full;
// a slow reader must not block the engine's timer goroutine.
func (c *client) enqueue(msg outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
