package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/embedding"
	"github.com/hyperjump/medqa/internal/llm"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/internal/qa"
	"github.com/hyperjump/medqa/internal/retrieval"
	"github.com/hyperjump/medqa/internal/session"
	"github.com/hyperjump/medqa/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssistant(t *testing.T, replies ...llm.Reply) *qa.Assistant {
	t.Helper()
	emb := embedding.NewHashingEmbedder(64)
	texts := []string{"Aspirin reduces fever.", "Melatonin helps regulate sleep."}
	entries := make([]vector.Entry, len(texts))
	for i, text := range texts {
		v, _ := emb.Embed(context.Background(), text)
		entries[i] = vector.Entry{
			Chunk:  &models.Chunk{ID: fmt.Sprintf("doc/%d", i), Text: text, Source: models.SourceRef{Path: "meds.pdf", Page: i + 1}},
			Vector: v,
		}
	}
	index, err := vector.BuildMemoryIndex(64, entries)
	require.NoError(t, err)
	r, err := retrieval.NewRetriever(emb, index)
	require.NoError(t, err)
	a, err := qa.New(r, llm.NewMockClient(replies...), qa.WithTopK(1))
	require.NoError(t, err)
	return a
}

func testServer(a Assistant) http.Handler {
	status := Status{IndexSize: 2, Dimensions: 64, IndexType: "memory", EmbeddingProvider: "hashing", LLMModel: "gemma2-9b-it", TopK: 1}
	return NewServer(a, status, &config.ServerConfig{Host: "localhost", Port: 8080}, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleAnswer(t *testing.T) {
	h := testServer(testAssistant(t, llm.Reply{Text: "Aspirin."}))
	w := do(t, h, http.MethodPost, "/api/v1/answer", `{"question":"What reduces fever?"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var res models.QueryResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "Aspirin.", res.Answer)
	require.Len(t, res.RetrievedChunks, 1)
	assert.Equal(t, "Aspirin reduces fever.", res.RetrievedChunks[0].Text)
	assert.Equal(t, 1, res.RetrievedChunks[0].Source.Page)
}

func TestHandleAnswer_errors(t *testing.T) {
	tests := []struct {
		name      string
		reply     llm.Reply
		body      string
		status    int
		code      string
		retryable bool
	}{
		{"bad body", llm.Reply{}, `{"question":`, http.StatusBadRequest, "invalid_body", false},
		{"empty question", llm.Reply{}, `{"question":"   "}`, http.StatusBadRequest, "empty_question", false},
		{"rate limited", llm.Reply{Err: &models.LLMError{Kind: models.ErrRateLimit, StatusCode: 429}}, `{"question":"fever"}`, http.StatusTooManyRequests, "rate_limited", true},
		{"auth failure", llm.Reply{Err: &models.LLMError{Kind: models.ErrAuthentication, StatusCode: 401}}, `{"question":"fever"}`, http.StatusBadGateway, "llm_authentication", false},
		{"transport failure", llm.Reply{Err: &models.LLMError{Kind: models.ErrRequest}}, `{"question":"fever"}`, http.StatusBadGateway, "llm_request", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testServer(testAssistant(t, tt.reply))
			w := do(t, h, http.MethodPost, "/api/v1/answer", tt.body)
			assert.Equal(t, tt.status, w.Code)
			var out errorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
			assert.Equal(t, tt.code, out.Code)
			assert.Equal(t, tt.retryable, out.Retryable)
			assert.NotEmpty(t, out.Error)
			assert.NotContains(t, out.Error, "I don't know")
		})
	}
}

type busyAssistant struct{ sess *session.Session }

func (b busyAssistant) Answer(context.Context, string) (*models.QueryResult, error) {
	return nil, models.ErrBusy
}

func (b busyAssistant) Session() *session.Session { return b.sess }

func TestHandleAnswer_busy(t *testing.T) {
	h := testServer(busyAssistant{sess: session.New()})
	w := do(t, h, http.MethodPost, "/api/v1/answer", `{"question":"fever"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleSession(t *testing.T) {
	a := testAssistant(t, llm.Reply{Err: &models.LLMError{Kind: models.ErrAuthentication}})
	h := testServer(a)
	do(t, h, http.MethodPost, "/api/v1/answer", `{"question":"What reduces fever?"}`)

	w := do(t, h, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out sessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, a.Session().ID(), out.ID)
	require.Len(t, out.Turns, 1)
	assert.Equal(t, models.RoleUser, out.Turns[0].Role)
}

func TestHandleStatus(t *testing.T) {
	h := testServer(testAssistant(t))
	w := do(t, h, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, float64(2), out["index_size"])
	assert.Equal(t, "hashing", out["embedding_provider"])
	assert.Equal(t, "gemma2-9b-it", out["llm_model"])
	assert.Equal(t, float64(0), out["turns"])
}

func TestHandleHealth(t *testing.T) {
	w := do(t, testServer(testAssistant(t)), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestStatusFor(t *testing.T) {
	code, name := statusFor(fmt.Errorf("answer: %w", models.ErrEmptyIndex))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "empty_index", name)
	code, name = statusFor(fmt.Errorf("answer: retrieval: %w: k=3, index holds 1 entries", models.ErrInvalidK))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "invalid_top_k", name)
	code, _ = statusFor(&models.LLMError{Kind: models.ErrRequest, Err: context.DeadlineExceeded})
	assert.Equal(t, http.StatusGatewayTimeout, code)
	code, _ = statusFor(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, code)
}
