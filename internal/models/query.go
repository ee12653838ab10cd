package models

import (
	"strings"
	"time"
)

// Role is the speaker of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation log.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Question is the input to an answer call.
type Question struct {
	Text string `json:"question"`
}

// Validate trims the question and rejects empty input.
func (q *Question) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return ErrEmptyQuestion
	}
	return nil
}

// QueryResult is the outcome of one successful answer call.
type QueryResult struct {
	Question        string   `json:"question"`
	Answer          string   `json:"answer"`
	RetrievedChunks []*Chunk `json:"retrieved_chunks"`
	// DurationMs is the wall time spent retrieving and generating.
	DurationMs int64 `json:"duration_ms"`
}
