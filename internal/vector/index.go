// Package vector provides read-only similarity indexes over chunk embeddings.
package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/pkg/utils"
)

// Index is a similarity index built once from a batch of entries. Implementations are safe for
// concurrent Search calls and reject searches on an empty index with models.ErrEmptyIndex.
type Index interface {
	// Search returns the k entries with the highest inner product to query, ordered by
	// descending score with ties kept in insertion order.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Entry pairs a chunk with its embedding.
type Entry struct {
	Chunk  *models.Chunk
	Vector []float32
}

// Result is a single search hit. Score is the inner product, which equals cosine similarity
// for normalized vectors.
type Result struct {
	Chunk *models.Chunk
	Score float64
}

// checkSearch applies the checks every backend shares.
func checkSearch(query []float32, k, size, dimensions int) error {
	if size == 0 {
		return models.ErrEmptyIndex
	}
	if len(query) != dimensions {
		return fmt.Errorf("query %w: got %d, expected %d", models.ErrDimensionMismatch, len(query), dimensions)
	}
	if k < 1 || k > size {
		return fmt.Errorf("%w: k=%d, index holds %d entries", models.ErrInvalidK, k, size)
	}
	return nil
}

// checkEntries validates entries against dimensions before a build.
func checkEntries(dimensions int, entries []Entry) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive")
	}
	for i, e := range entries {
		if e.Chunk == nil {
			return fmt.Errorf("entry %d has no chunk", i)
		}
		if len(e.Vector) != dimensions {
			return fmt.Errorf("entry %d (%s): %w: got %d, expected %d",
				i, e.Chunk.ID, models.ErrDimensionMismatch, len(e.Vector), dimensions)
		}
	}
	return nil
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return utils.Dot(a, b)
}
