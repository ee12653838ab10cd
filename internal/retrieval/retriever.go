// Package retrieval maps a natural-language query to the most similar corpus chunks.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/medqa/internal/embedding"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/internal/vector"
)

// DefaultTopK is the number of chunks retrieved per question when no k is configured.
const DefaultTopK = 3

// Retriever embeds a query with the same embedder used at ingestion and searches the index.
type Retriever struct {
	embedder embedding.Embedder
	index    vector.Index
}

// NewRetriever returns a Retriever over index. Both arguments are required.
func NewRetriever(embedder embedding.Embedder, index vector.Index) (*Retriever, error) {
	if embedder == nil || index == nil {
		return nil, errors.New("retrieval: embedder and index are required")
	}
	if embedder.Dimensions() != index.Dimensions() {
		return nil, fmt.Errorf("retrieval: %w: embedder produces %d dimensions, index holds %d",
			models.ErrDimensionMismatch, embedder.Dimensions(), index.Dimensions())
	}
	return &Retriever{embedder: embedder, index: index}, nil
}

// Retrieve returns the k chunks most similar to query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]*models.Chunk, error) {
	results, err := r.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]*models.Chunk, len(results))
	for i, res := range results {
		chunks[i] = res.Chunk
	}
	return chunks, nil
}

// Search is Retrieve with scores kept.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]vector.Result, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	results, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval: search: %w", err)
	}
	return results, nil
}

// Index returns the underlying index.
func (r *Retriever) Index() vector.Index {
	return r.index
}
