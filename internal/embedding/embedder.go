// Package embedding maps text to dense vectors. Every embedder returns
// L2-normalized vectors so inner product equals cosine similarity.
package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/medqa/internal/config"
	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text. Implementations are deterministic for a
// fixed model, and the same instance must embed both chunks and queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names accepted by New.
const (
	ProviderHashing = "hashing"
	ProviderHugot   = "hugot"
	ProviderONNX    = "onnx"
	ProviderMock    = "mock"
)

// New builds the embedder selected by cfg.Provider, wrapped in an LRU cache when CacheSize > 0.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case ProviderHashing:
		e = NewHashingEmbedder(cfg.Dimensions)
	case ProviderMock:
		return NewMockEmbedder(cfg.Dimensions), nil
	case ProviderHugot:
		e, err = NewHugotEmbedder(cfg.ModelName, cfg.ModelDir)
	case ProviderONNX:
		e, err = NewONNXEmbedder(ONNXConfig{
			ModelPath:   cfg.ModelPath,
			VocabPath:   cfg.VocabPath,
			LibraryPath: cfg.LibraryPath,
			Dimensions:  cfg.Dimensions,
			MaxTokens:   cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q (supported: hashing, hugot, onnx, mock)", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s embedder: %w", cfg.Provider, err)
	}
	if e.Dimensions() != cfg.Dimensions {
		logger.Warn("embedding dimensions differ from config; using the model's",
			zap.Int("configured", cfg.Dimensions), zap.Int("model", e.Dimensions()))
	}
	logger.Info("embedder initialized",
		zap.String("provider", cfg.Provider),
		zap.Int("dimensions", e.Dimensions()),
		zap.Int("cache_size", cfg.CacheSize))
	if cfg.CacheSize > 0 {
		e = WithCache(e, cfg.CacheSize)
	}
	return e, nil
}

// embedEach runs embed over texts in order, stopping at the first error or cancellation.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
