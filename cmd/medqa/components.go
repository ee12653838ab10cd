package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/embedding"
	"github.com/hyperjump/medqa/internal/indexer"
	"github.com/hyperjump/medqa/internal/llm"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/internal/qa"
	"github.com/hyperjump/medqa/internal/retrieval"
	"github.com/hyperjump/medqa/internal/server"
	"github.com/hyperjump/medqa/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Config    *config.Config
	Embedder  embedding.Embedder
	Index     *vector.Lazy
	Retriever *retrieval.Retriever
	Client    *llm.OpenAIClient
	Assistant *qa.Assistant
}

// Close releases the index and the embedder.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// Status summarizes the pipeline for the HTTP status endpoint and the chat header.
func (c *Components) Status() server.Status {
	idx := c.Retriever.Index()
	return server.Status{
		IndexSize:         idx.Size(),
		Dimensions:        idx.Dimensions(),
		IndexType:         idx.Type(),
		EmbeddingProvider: c.Config.Embedding.Provider,
		LLMModel:          c.Client.Model(),
		TopK:              c.Assistant.TopK(),
	}
}

// initializeComponents runs the startup phase: credential, embedder, ingestion and index build,
// then the client and the assistant. Any failure here ends the process before a question is read.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	apiKey, err := cfg.LLM.APIKey()
	if err != nil {
		return nil, err
	}

	emb, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := &Components{Config: cfg, Embedder: emb}

	idx, err := indexer.FromConfig(cfg, emb, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}
	c.Index = vector.NewLazy(idx.Build)

	start := time.Now()
	index, err := c.Index.Get(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	if index.Size() < cfg.Retrieval.TopK {
		c.Close()
		return nil, fmt.Errorf("%w: retrieval.top_k is %d but the index holds %d chunks",
			models.ErrInvalidK, cfg.Retrieval.TopK, index.Size())
	}
	logger.Info("startup index ready",
		zap.Int("entries", index.Size()),
		zap.Duration("elapsed", time.Since(start)))

	c.Retriever, err = retrieval.NewRetriever(emb, index)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Client, err = llm.FromConfig(cfg.LLM, apiKey, llm.WithLogger(logger))
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Assistant, err = qa.New(c.Retriever, c.Client,
		qa.WithLogger(logger),
		qa.WithTopK(cfg.Retrieval.TopK),
		qa.WithRetryPolicy(qa.RetryPolicyFromConfig(cfg.Retry)),
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}
