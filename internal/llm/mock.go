package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests. Each call consumes the next reply; once the
// script runs out the last reply repeats. A reply with a non-nil Err fails that call.
type MockClient struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// Reply is one scripted result.
type Reply struct {
	Text string
	Err  error
}

// NewMockClient returns a client that plays replies in order.
func NewMockClient(replies ...Reply) *MockClient {
	return &MockClient{replies: replies}
}

// Complete records prompt and returns the next scripted reply.
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if len(m.replies) == 0 {
		return "I don't know.", nil
	}
	i := min(len(m.prompts)-1, len(m.replies)-1)
	return m.replies[i].Text, m.replies[i].Err
}

// Prompts returns every prompt received so far.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Calls returns the number of Complete calls.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
