// Package session holds the in-memory conversation log of one running assistant.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/medqa/internal/models"
)

// Session is an append-only, ordered log of turns. It lives for the process and is never persisted.
type Session struct {
	id    string
	mu    sync.RWMutex
	turns []models.Turn
	now   func() time.Time
}

// New returns an empty session with a random ID.
func New() *Session {
	return &Session{id: uuid.New().String(), now: time.Now}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Append adds a turn at the end of the log and returns it with its timestamp set.
func (s *Session) Append(role models.Role, content string) models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := models.Turn{Role: role, Content: content, CreatedAt: s.now()}
	s.turns = append(s.turns, turn)
	return turn
}

// Turns returns a copy of the log in order.
func (s *Session) Turns() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Count returns the number of turns with the given role.
func (s *Session) Count(role models.Role) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.turns {
		if t.Role == role {
			n++
		}
	}
	return n
}
