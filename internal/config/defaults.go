package config

import (
	"errors"
	"fmt"
)

const (
	DefaultLLMBaseURL = "https://api.groq.com/openai/v1"
	DefaultLLMModel   = "gemma2-9b-it"
	DefaultAPIKeyEnv  = "GROQ_API_KEY"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Corpus.Directory == "" {
		cfg.Corpus.Directory = "data"
	}
	if cfg.Corpus.Pattern == "" {
		cfg.Corpus.Pattern = "*.pdf"
	}
	// An explicit chunk_size keeps whatever overlap came with it, zero included.
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 400
		if cfg.Chunking.ChunkOverlap == 0 {
			cfg.Chunking.ChunkOverlap = 50
		}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hugot"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embedding.ModelDir == "" {
		cfg.Embedding.ModelDir = "./models"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 60
	}
	if cfg.Retry.InitialIntervalMs == 0 {
		cfg.Retry.InitialIntervalMs = 500
	}
	if cfg.Retry.MaxIntervalMs == 0 {
		cfg.Retry.MaxIntervalMs = 5000
	}
	if cfg.Display.SourcePreviewChars == 0 {
		cfg.Display.SourcePreviewChars = 300
	}
}

// Validate checks the invariants the pipeline relies on. Call after ApplyDefaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Chunking.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize))
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		errs = append(errs, fmt.Errorf("chunking.chunk_overlap must satisfy 0 <= overlap < chunk_size, got %d (chunk_size %d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize))
	}
	switch c.Embedding.Provider {
	case "hashing", "hugot", "onnx", "mock":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider %q is not one of hashing, hugot, onnx, mock", c.Embedding.Provider))
	}
	if c.Embedding.Provider == "onnx" && c.Embedding.ModelPath == "" {
		errs = append(errs, errors.New("embedding.model_path is required for the onnx provider"))
	}
	if c.Embedding.Dimensions < 1 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions))
	}
	switch c.Vector.IndexType {
	case "memory", "faiss":
	default:
		errs = append(errs, fmt.Errorf("vector.index_type %q is not one of memory, faiss", c.Vector.IndexType))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be at least 1, got %d", c.Retrieval.TopK))
	}
	if c.LLM.BaseURL == "" || c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.base_url and llm.model are required"))
	}
	if c.LLM.RequestsPerMinute < 0 || c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("llm.requests_per_minute and retry.max_retries cannot be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
