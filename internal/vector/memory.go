package vector

import (
	"context"
	"sort"
)

// MemoryIndex is an in-memory vector index using brute-force inner product search.
// It is immutable after Build, so concurrent searches need no locking.
type MemoryIndex struct {
	dimensions int
	entries    []Entry
}

// BuildMemoryIndex copies entries into a new index. An empty entry list yields an index whose
// searches fail with models.ErrEmptyIndex.
func BuildMemoryIndex(dimensions int, entries []Entry) (*MemoryIndex, error) {
	if err := checkEntries(dimensions, entries); err != nil {
		return nil, err
	}
	owned := make([]Entry, len(entries))
	for i, e := range entries {
		vec := make([]float32, dimensions)
		copy(vec, e.Vector)
		owned[i] = Entry{Chunk: e.Chunk, Vector: vec}
	}
	return &MemoryIndex{dimensions: dimensions, entries: owned}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Search scores every entry and returns the top k.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if err := checkSearch(query, k, len(m.entries), m.dimensions); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scores := make([]Result, len(m.entries))
	for i, e := range m.entries {
		scores[i] = Result{Chunk: e.Chunk, Score: InnerProduct(query, e.Vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores[:k], nil
}

// Size returns the number of entries in the index.
func (m *MemoryIndex) Size() int {
	return len(m.entries)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
