// Package llm sends grounding prompts to a hosted, OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client completes a prompt. Failures are *models.LLMError values whose Kind is
// models.ErrAuthentication, models.ErrRequest or models.ErrRateLimit. Clients never retry.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures an OpenAIClient.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	// MaxTokens caps the completion length; 0 leaves it to the provider.
	MaxTokens int
	// Temperature is left to the provider when nil.
	Temperature *float64
	// RequestsPerMinute paces outgoing requests; 0 disables pacing.
	RequestsPerMinute int
}

// OpenAIClient implements Client with the official OpenAI SDK pointed at any compatible base URL.
type OpenAIClient struct {
	client  openai.Client
	model   string
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures an OpenAIClient.
type Option func(*clientOptions)

type clientOptions struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// WithLogger sets a logger for request failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithHTTPClient overrides the SDK's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// NewOpenAIClient returns a client for cfg. A blank API key is models.ErrMissingCredential.
func NewOpenAIClient(cfg Config, opts ...Option) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, models.ErrMissingCredential
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultLLMBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	o := clientOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	c := &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  cfg.Model,
		cfg:    cfg,
		logger: o.logger,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c, nil
}

// FromConfig builds a client from the llm config section and an already resolved API key.
func FromConfig(cfg config.LLMConfig, apiKey string, opts ...Option) (*OpenAIClient, error) {
	return NewOpenAIClient(Config{
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		APIKey:            apiKey,
		Timeout:           cfg.Timeout(),
		MaxTokens:         cfg.MaxTokens,
		Temperature:       cfg.Temperature,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, opts...)
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends prompt as a single user message and returns the first choice's text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &models.LLMError{Kind: models.ErrRequest, Message: "waiting for rate limiter", Err: err}
		}
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature != nil {
		params.Temperature = openai.Float(*c.cfg.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		llmErr := classify(err)
		c.logger.Warn("llm completion failed",
			zap.String("model", c.model),
			zap.Int("status", llmErr.StatusCode),
			zap.Error(err))
		return "", llmErr
	}
	if len(resp.Choices) == 0 {
		return "", &models.LLMError{Kind: models.ErrRequest, Message: "response has no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK and transport errors onto the LLM error taxonomy.
func classify(err error) *models.LLMError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		kind := models.ErrRequest
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = models.ErrAuthentication
		case http.StatusTooManyRequests:
			kind = models.ErrRateLimit
		}
		return &models.LLMError{Kind: kind, StatusCode: apiErr.StatusCode, Err: err}
	}
	return &models.LLMError{Kind: models.ErrRequest, Message: "transport failure", Err: err}
}

// Describe returns a short user-facing message for a failed completion.
func Describe(err error) string {
	switch {
	case errors.Is(err, models.ErrAuthentication):
		return "The language model rejected the API key. Check the configured credential."
	case errors.Is(err, models.ErrRateLimit):
		return "The language model is rate limiting requests. Please retry in a moment."
	case errors.Is(err, models.ErrRequest):
		return "The language model could not be reached. Please retry."
	default:
		return fmt.Sprintf("Answer failed: %v", err)
	}
}
