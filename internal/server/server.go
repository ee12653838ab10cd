// Package server provides the HTTP API for the medqa assistant.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/internal/session"
	"go.uber.org/zap"
)

// Assistant is the core the server exposes: answer a question and read the session.
type Assistant interface {
	Answer(ctx context.Context, question string) (*models.QueryResult, error)
	Session() *session.Session
}

// Status describes the static parts of the running pipeline.
type Status struct {
	IndexSize         int    `json:"index_size"`
	Dimensions        int    `json:"dimensions"`
	IndexType         string `json:"index_type"`
	EmbeddingProvider string `json:"embedding_provider"`
	LLMModel          string `json:"llm_model"`
	TopK              int    `json:"top_k"`
}

// DefaultRequestTimeout bounds a single HTTP request, LLM call and retries included.
const DefaultRequestTimeout = 120 * time.Second

// Server is the HTTP server for the medqa API.
type Server struct {
	assistant Assistant
	status    Status
	config    *config.ServerConfig
	logger    *zap.Logger
	timeout   time.Duration
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(assistant Assistant, status Status, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		assistant: assistant,
		status:    status,
		config:    cfg,
		logger:    logger,
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/answer", s.handleAnswer)
	r.Get("/api/v1/session", s.handleSession)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// requestLogger tags each request with an X-Request-ID and logs it when done.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
