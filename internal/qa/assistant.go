// Package qa is the question answering pipeline: retrieve context, build the grounding prompt,
// ask the language model, and record the exchange in the session.
package qa

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/medqa/internal/llm"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/internal/prompt"
	"github.com/hyperjump/medqa/internal/retrieval"
	"github.com/hyperjump/medqa/internal/session"
	"go.uber.org/zap"
)

// Retriever returns the k chunks most relevant to a query in rank order.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]*models.Chunk, error)
}

// Assistant answers one question at a time against a shared index and its own session.
type Assistant struct {
	retriever Retriever
	client    llm.Client
	session   *session.Session
	topK      int
	retry     RetryPolicy
	logger    *zap.Logger
	// inFlight is held for the duration of an Answer call.
	inFlight sync.Mutex
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets a logger for answer and retry events.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(a *Assistant) { a.topK = k }
}

// WithRetryPolicy enables retries of transient completion failures.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(a *Assistant) { a.retry = p }
}

// WithSession records turns into s instead of a fresh session.
func WithSession(s *session.Session) Option {
	return func(a *Assistant) { a.session = s }
}

// New returns an Assistant. The retriever and client are required.
func New(retriever Retriever, client llm.Client, opts ...Option) (*Assistant, error) {
	if retriever == nil || client == nil {
		return nil, errors.New("qa: retriever and llm client are required")
	}
	a := &Assistant{
		retriever: retriever,
		client:    client,
		topK:      retrieval.DefaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.session == nil {
		a.session = session.New()
	}
	if a.topK < 1 {
		return nil, fmt.Errorf("qa: top k must be at least 1, got %d", a.topK)
	}
	return a, nil
}

// Answer retrieves context for question, asks the model, and returns the answer together with
// the chunks it was grounded on. The user turn is recorded once the question is accepted; the
// assistant turn only when the model answers. Empty questions and questions arriving while
// another is in flight are rejected without touching the session.
func (a *Assistant) Answer(ctx context.Context, question string) (*models.QueryResult, error) {
	q := models.Question{Text: question}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if !a.inFlight.TryLock() {
		return nil, models.ErrBusy
	}
	defer a.inFlight.Unlock()

	start := time.Now()
	a.session.Append(models.RoleUser, q.Text)

	chunks, err := a.retriever.Retrieve(ctx, q.Text, a.topK)
	if err != nil {
		a.logger.Error("retrieval failed", zap.Error(err))
		return nil, fmt.Errorf("answer: %w", err)
	}

	p := prompt.Build(chunks, q.Text)
	var text string
	err = a.retry.do(ctx, func() error {
		var cerr error
		text, cerr = a.client.Complete(ctx, p)
		return cerr
	}, func(attempt int, err error, wait time.Duration) {
		a.logger.Warn("completion failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	if err != nil {
		a.logger.Error("completion failed", zap.Error(err), zap.Bool("retryable", models.IsRetryable(err)))
		return nil, err
	}

	a.session.Append(models.RoleAssistant, text)
	elapsed := time.Since(start)
	a.logger.Info("question answered",
		zap.Int("question_len", len(q.Text)),
		zap.Int("retrieved", len(chunks)),
		zap.Duration("duration", elapsed))

	return &models.QueryResult{
		Question:        q.Text,
		Answer:          text,
		RetrievedChunks: chunks,
		DurationMs:      elapsed.Milliseconds(),
	}, nil
}

// History returns a copy of the session's turns.
func (a *Assistant) History() []models.Turn {
	return a.session.Turns()
}

// Session returns the session the assistant records into.
func (a *Assistant) Session() *session.Session {
	return a.session
}

// TopK returns the number of chunks retrieved per question.
func (a *Assistant) TopK() int {
	return a.topK
}
