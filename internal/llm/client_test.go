package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gemma2-9b-it",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Aspirin reduces fever."}}]
}`

type capturedRequest struct {
	Auth string
	Body struct {
		Model       string   `json:"model"`
		MaxTokens   int      `json:"max_tokens"`
		Temperature *float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
}

func newTestServer(t *testing.T, status int, body string, captured *capturedRequest, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/openai/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			captured.Auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&captured.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, srv *httptest.Server, mutate func(*Config)) *OpenAIClient {
	t.Helper()
	cfg := Config{BaseURL: srv.URL + "/openai/v1", Model: "gemma2-9b-it", APIKey: "gsk_test", Timeout: 5 * time.Second}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewOpenAIClient(cfg)
	require.NoError(t, err)
	return c
}

func TestComplete_success(t *testing.T) {
	var captured capturedRequest
	srv := newTestServer(t, http.StatusOK, completionJSON, &captured, nil)
	temp := 0.2
	c := testClient(t, srv, func(cfg *Config) {
		cfg.MaxTokens = 128
		cfg.Temperature = &temp
	})

	text, err := c.Complete(context.Background(), "Question:\nWhat reduces fever?")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin reduces fever.", text)

	assert.Equal(t, "Bearer gsk_test", captured.Auth)
	assert.Equal(t, "gemma2-9b-it", captured.Body.Model)
	assert.Equal(t, 128, captured.Body.MaxTokens)
	require.NotNil(t, captured.Body.Temperature)
	assert.InDelta(t, 0.2, *captured.Body.Temperature, 1e-9)
	require.Len(t, captured.Body.Messages, 1)
	assert.Equal(t, "user", captured.Body.Messages[0].Role)
	assert.Equal(t, "Question:\nWhat reduces fever?", captured.Body.Messages[0].Content)
}

func TestComplete_errorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, models.ErrAuthentication},
		{"forbidden", http.StatusForbidden, models.ErrAuthentication},
		{"rate limited", http.StatusTooManyRequests, models.ErrRateLimit},
		{"server error", http.StatusInternalServerError, models.ErrRequest},
		{"bad request", http.StatusBadRequest, models.ErrRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := newTestServer(t, tt.status, `{"error":{"message":"nope","type":"error"}}`, nil, &hits)
			c := testClient(t, srv, nil)

			_, err := c.Complete(context.Background(), "prompt")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var llmErr *models.LLMError
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.status, llmErr.StatusCode)
			assert.Equal(t, int32(1), hits.Load(), "client must not retry")
		})
	}
}

func TestComplete_transportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewOpenAIClient(Config{BaseURL: url, APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, models.ErrRequest)
	assert.True(t, models.IsRetryable(err))
}

func TestComplete_noChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, nil, nil)
	_, err := testClient(t, srv, nil).Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, models.ErrRequest)
}

func TestComplete_rateLimiterHonorsContext(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, completionJSON, nil, nil)
	c := testClient(t, srv, func(cfg *Config) { cfg.RequestsPerMinute = 1 })

	_, err := c.Complete(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, "second")
	assert.ErrorIs(t, err, models.ErrRequest)
}

func TestNewOpenAIClient_missingKey(t *testing.T) {
	_, err := NewOpenAIClient(Config{APIKey: "  "})
	assert.ErrorIs(t, err, models.ErrMissingCredential)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().LLM
	c, err := FromConfig(cfg, "gsk_test")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLLMModel, c.Model())
	assert.Equal(t, 60*time.Second, c.cfg.Timeout)
}

func TestDescribe(t *testing.T) {
	auth := &models.LLMError{Kind: models.ErrAuthentication}
	assert.Contains(t, Describe(auth), "API key")
	assert.Contains(t, Describe(&models.LLMError{Kind: models.ErrRateLimit}), "rate limiting")
	assert.Contains(t, Describe(&models.LLMError{Kind: models.ErrRequest}), "retry")
	assert.NotContains(t, Describe(auth), "I don't know")
}

func TestMockClient(t *testing.T) {
	m := NewMockClient(Reply{Err: &models.LLMError{Kind: models.ErrRateLimit}}, Reply{Text: "ok"})
	ctx := context.Background()
	_, err := m.Complete(ctx, "a")
	assert.ErrorIs(t, err, models.ErrRateLimit)
	text, err := m.Complete(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	text, _ = m.Complete(ctx, "c")
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"a", "b", "c"}, m.Prompts())
	assert.Equal(t, 3, m.Calls())
}
