// Package indexer runs the ingestion pipeline: load the corpus, chunk it, embed every chunk,
// and build the read-only vector index.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/medqa/internal/chunker"
	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/embedding"
	"github.com/hyperjump/medqa/internal/extract"
	"github.com/hyperjump/medqa/internal/loader"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/internal/vector"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of chunks sent to the embedder per EmbedBatch call.
const DefaultBatchSize = 64

// Indexer builds a vector index from a corpus directory.
type Indexer struct {
	loader    *loader.Loader
	chunker   *chunker.Chunker
	embedder  embedding.Embedder
	directory string
	pattern   string
	indexType string
	batchSize int
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for pipeline progress events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// WithIndexType selects the vector backend ("memory" or "faiss").
func WithIndexType(t string) IndexerOption {
	return func(idx *Indexer) { idx.indexType = t }
}

// NewIndexer creates an indexer over directory/pattern with the given dependencies.
func NewIndexer(ld *loader.Loader, ch *chunker.Chunker, emb embedding.Embedder, directory, pattern string, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		loader:    ld,
		chunker:   ch,
		embedder:  emb,
		directory: directory,
		pattern:   pattern,
		indexType: string(vector.IndexTypeMemory),
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// FromConfig wires a loader and chunker from cfg around emb.
func FromConfig(cfg *config.Config, emb embedding.Embedder, logger *zap.Logger) (*Indexer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ch, err := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	ld := loader.New(extract.NewExtractor(),
		loader.WithLogger(logger),
		loader.WithRecursive(cfg.Corpus.Recursive),
		loader.WithCollapseWhitespace(cfg.Corpus.CollapseWhitespaceOrDefault()),
	)
	return NewIndexer(ld, ch, emb, cfg.Corpus.Directory, cfg.Corpus.Pattern,
		WithLogger(logger),
		WithIndexType(cfg.Vector.IndexType),
	), nil
}

// Build loads, chunks and embeds the corpus and returns the finished index. Corpus problems
// are reported as *models.IngestionError.
func (idx *Indexer) Build(ctx context.Context) (vector.Index, error) {
	start := time.Now()

	docs, err := idx.loader.Load(ctx, idx.directory, idx.pattern)
	if err != nil {
		return nil, err
	}

	chunks := idx.chunker.ChunkAll(docs)
	if len(chunks) == 0 {
		return nil, &models.IngestionError{Path: idx.directory, Reason: "corpus produced no chunks"}
	}
	idx.logger.Info("corpus chunked",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", idx.chunker.Size()),
		zap.Int("chunk_overlap", idx.chunker.Overlap()))

	entries, err := idx.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	index, err := vector.Build(idx.indexType, idx.embedder.Dimensions(), entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s index: %w", idx.indexType, err)
	}
	idx.logger.Info("index built",
		zap.Int("entries", index.Size()),
		zap.Int("dimensions", index.Dimensions()),
		zap.String("type", index.Type()),
		zap.Duration("duration", time.Since(start)))
	return index, nil
}

func (idx *Indexer) embed(ctx context.Context, chunks []*models.Chunk) ([]vector.Entry, error) {
	entries := make([]vector.Entry, 0, len(chunks))
	for start := 0; start < len(chunks); start += idx.batchSize {
		end := min(start+idx.batchSize, len(chunks))
		texts := make([]string, end-start)
		for i, ch := range chunks[start:end] {
			texts[i] = ch.Text
		}
		vecs, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(texts))
		}
		for i, ch := range chunks[start:end] {
			entries = append(entries, vector.Entry{Chunk: ch, Vector: vecs[i]})
		}
		idx.logger.Debug("embedded chunk batch", zap.Int("from", start), zap.Int("to", end))
	}
	return entries, nil
}
