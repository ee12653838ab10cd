package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyperjump/medqa/internal/cli"
	"github.com/hyperjump/medqa/internal/models"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

type sessionResponse struct {
	ID    string        `json:"id"`
	Turns []models.Turn `json:"turns"`
}

type statusResponse struct {
	Status
	Turns int `json:"turns"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body", false)
		return
	}
	s.logger.Debug("answer request", zap.Int("question_len", len(q.Text)))
	res, err := s.assistant.Answer(r.Context(), q.Text)
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("answer failed", zap.String("code", code), zap.Error(err))
		}
		s.respondError(w, status, code, cli.FailureMessage(err), models.IsRetryable(err))
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.assistant.Session()
	s.respondJSON(w, http.StatusOK, sessionResponse{ID: sess.ID(), Turns: sess.Turns()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, statusResponse{Status: s.status, Turns: s.assistant.Session().Len()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps an answer failure to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest, "empty_question"
	case errors.Is(err, models.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, models.ErrRateLimit):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, models.ErrAuthentication):
		return http.StatusBadGateway, "llm_authentication"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, models.ErrRequest):
		return http.StatusBadGateway, "llm_request"
	case errors.Is(err, models.ErrEmptyIndex):
		return http.StatusServiceUnavailable, "empty_index"
	case errors.Is(err, models.ErrInvalidK):
		return http.StatusServiceUnavailable, "invalid_top_k"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	s.respondJSON(w, status, errorResponse{Error: message, Code: code, Retryable: retryable})
}
