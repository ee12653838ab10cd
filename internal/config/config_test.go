package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/medqa/internal/models"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
corpus:
  directory: "/srv/medical"
chunking:
  chunk_size: 200
  chunk_overlap: 20
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Corpus.Directory != "/srv/medical" {
		t.Errorf("corpus directory = %s", cfg.Corpus.Directory)
	}
	if cfg.Chunking.ChunkSize != 200 || cfg.Chunking.ChunkOverlap != 20 {
		t.Errorf("chunking = %+v", cfg.Chunking)
	}
	if cfg.Corpus.Pattern != "*.pdf" {
		t.Errorf("pattern should default to *.pdf, got %s", cfg.Corpus.Pattern)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Embedding.Provider != "hugot" {
		t.Errorf("a config without an embedding section should use the semantic model, got %s", cfg.Embedding.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoad_relativePathsResolveAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
corpus:
  directory: "./data"
embedding:
  provider: onnx
  model_path: "models/minilm.onnx"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data"); cfg.Corpus.Directory != want {
		t.Errorf("corpus directory = %s, want %s", cfg.Corpus.Directory, want)
	}
	if want := filepath.Join(dir, "models", "minilm.onnx"); cfg.Embedding.ModelPath != want {
		t.Errorf("model path = %s, want %s", cfg.Embedding.ModelPath, want)
	}
	if want := filepath.Join(dir, "models"); cfg.Embedding.ModelDir != want {
		t.Errorf("model dir = %s, want %s", cfg.Embedding.ModelDir, want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Chunking.ChunkSize != 400 || cfg.Chunking.ChunkOverlap != 50 {
		t.Errorf("chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top_k default: got %d", cfg.Retrieval.TopK)
	}
	if cfg.LLM.Model != "gemma2-9b-it" || cfg.LLM.APIKeyEnv != "GROQ_API_KEY" {
		t.Errorf("llm defaults: %+v", cfg.LLM)
	}
	if cfg.LLM.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("base url default: %s", cfg.LLM.BaseURL)
	}
	if cfg.Embedding.Provider != "hugot" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("retry should be off by default, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Display.SourcePreviewChars != 300 {
		t.Errorf("source preview default: %d", cfg.Display.SourcePreviewChars)
	}
	if !cfg.Corpus.CollapseWhitespaceOrDefault() {
		t.Error("collapse_whitespace should default to true")
	}
}

func TestApplyDefaults_explicitChunkSizeKeepsZeroOverlap(t *testing.T) {
	cfg := &Config{Chunking: ChunkingConfig{ChunkSize: 100}}
	ApplyDefaults(cfg)
	if cfg.Chunking.ChunkOverlap != 0 {
		t.Errorf("overlap = %d, want 0", cfg.Chunking.ChunkOverlap)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"hugot needs no model path", func(c *Config) { c.Embedding.Provider = "hugot"; c.Embedding.ModelPath = "" }, ""},
		{"hashing is an explicit choice", func(c *Config) { c.Embedding.Provider = "hashing" }, ""},
		{"overlap equals size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }, "chunk_overlap"},
		{"negative overlap", func(c *Config) { c.Chunking.ChunkOverlap = -1 }, "chunk_overlap"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "word2vec" }, "embedding.provider"},
		{"onnx without model path", func(c *Config) { c.Embedding.Provider = "onnx" }, "model_path"},
		{"unknown index", func(c *Config) { c.Vector.IndexType = "hnsw" }, "vector.index_type"},
		{"zero top k", func(c *Config) { c.Retrieval.TopK = 0 }, "top_k"},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -2 }, "max_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLLMConfig_APIKey(t *testing.T) {
	cfg := LLMConfig{APIKeyEnv: "MEDQA_TEST_API_KEY"}

	t.Setenv("MEDQA_TEST_API_KEY", "")
	if _, err := cfg.APIKey(); !errors.Is(err, models.ErrMissingCredential) {
		t.Fatalf("missing key: got %v, want ErrMissingCredential", err)
	}

	t.Setenv("MEDQA_TEST_API_KEY", "  gsk_test  ")
	key, err := cfg.APIKey()
	if err != nil {
		t.Fatal(err)
	}
	if key != "gsk_test" {
		t.Errorf("key = %q", key)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Retrieval.TopK = 5
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Retrieval.TopK != 5 {
		t.Errorf("loaded: port %d top_k %d", loaded.Server.Port, loaded.Retrieval.TopK)
	}
}
