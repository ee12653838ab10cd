// Package config provides configuration loading and structs for the medqa assistant.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/medqa/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Retry     RetryConfig     `yaml:"retry"`
	Display   DisplayConfig   `yaml:"display"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CorpusConfig selects the source documents.
type CorpusConfig struct {
	Directory string `yaml:"directory"`
	// Pattern is a filepath.Match glob applied to file base names, e.g. "*.pdf".
	Pattern            string `yaml:"pattern"`
	Recursive          bool   `yaml:"recursive"`
	CollapseWhitespace *bool  `yaml:"collapse_whitespace"`
}

// CollapseWhitespaceOrDefault returns whether extracted text is whitespace-normalized; defaults to true when unset.
func (c *CorpusConfig) CollapseWhitespaceOrDefault() bool {
	if c.CollapseWhitespace != nil {
		return *c.CollapseWhitespace
	}
	return true
}

// ChunkingConfig holds the character window parameters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	// Provider is one of hashing, hugot, onnx, mock.
	Provider    string `yaml:"provider"`
	ModelName   string `yaml:"model_name"`
	ModelDir    string `yaml:"model_dir"`
	ModelPath   string `yaml:"model_path"`
	VocabPath   string `yaml:"vocab_path"`
	LibraryPath string `yaml:"library_path"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	CacheSize   int    `yaml:"cache_size"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	IndexType string `yaml:"index_type"`
}

// RetrievalConfig holds retrieval parameters.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// LLMConfig holds settings for the hosted, OpenAI-compatible completion endpoint.
type LLMConfig struct {
	BaseURL           string   `yaml:"base_url"`
	Model             string   `yaml:"model"`
	APIKeyEnv         string   `yaml:"api_key_env"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	MaxTokens         int      `yaml:"max_tokens"`
	Temperature       *float64 `yaml:"temperature"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

// Timeout returns the per-request timeout.
func (l *LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// APIKey reads the credential from the environment variable named by APIKeyEnv.
func (l *LLMConfig) APIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(l.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("%w: set %s in the environment or .env", models.ErrMissingCredential, l.APIKeyEnv)
	}
	return key, nil
}

// RetryConfig is the caller-side retry policy for transient LLM failures.
type RetryConfig struct {
	MaxRetries        int `yaml:"max_retries"`
	InitialIntervalMs int `yaml:"initial_interval_ms"`
	MaxIntervalMs     int `yaml:"max_interval_ms"`
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	SourcePreviewChars int `yaml:"source_preview_chars"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.Directory = expandPath(cfg.Corpus.Directory, configDir)
	cfg.Embedding.ModelDir = expandPath(cfg.Embedding.ModelDir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)

	return &cfg, nil
}

// Default returns a config with every default applied. Relative paths stay relative to the working directory.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" (or bare relative paths)
// are relative to configDir; "~/" is relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
