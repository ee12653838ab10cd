package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/medqa/internal/models"
)

func TestMemoryIndex_Search(t *testing.T) {
	idx, err := BuildMemoryIndex(3, entriesOf(
		[]float32{1, 0, 0},
		[]float32{0.9, 0.1, 0},
		[]float32{0, 1, 0},
	))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if idx.Size() != 3 || idx.Dimensions() != 3 {
		t.Errorf("Size=%d Dimensions=%d", idx.Size(), idx.Dimensions())
	}

	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "doc/0" || results[1].Chunk.ID != "doc/1" {
		t.Errorf("order = %v", ids(results))
	}
	if results[0].Score < results[1].Score {
		t.Error("scores should be descending")
	}
}

func TestMemoryIndex_tiesKeepInsertionOrder(t *testing.T) {
	idx, _ := BuildMemoryIndex(2, entriesOf(
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{1, 0},
	))
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		results, err := idx.Search(ctx, []float32{1, 0}, 4)
		if err != nil {
			t.Fatal(err)
		}
		got := ids(results)
		want := []string{"doc/1", "doc/3", "doc/4", "doc/0"}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("run %d: got %v, want %v", i, got, want)
			}
		}
	}
}

func TestMemoryIndex_emptyIndex(t *testing.T) {
	idx, err := BuildMemoryIndex(3, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = idx.Search(context.Background(), []float32{1, 0, 0}, 1)
	if !errors.Is(err, models.ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex, got %v", err)
	}
}

func TestMemoryIndex_invalidK(t *testing.T) {
	idx, _ := BuildMemoryIndex(2, entriesOf([]float32{1, 0}, []float32{0, 1}))
	ctx := context.Background()
	for _, k := range []int{0, -1, 3} {
		if _, err := idx.Search(ctx, []float32{1, 0}, k); !errors.Is(err, models.ErrInvalidK) {
			t.Errorf("k=%d: expected ErrInvalidK, got %v", k, err)
		}
	}
	results, err := idx.Search(ctx, []float32{1, 0}, 2)
	if err != nil || len(results) != 2 {
		t.Errorf("k=size: got %d results, err %v", len(results), err)
	}
}

func TestMemoryIndex_dimensionMismatch(t *testing.T) {
	if _, err := BuildMemoryIndex(3, entriesOf([]float32{1, 0})); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("short vector: got %v, want ErrDimensionMismatch", err)
	}
	if _, err := BuildMemoryIndex(0, nil); err == nil {
		t.Error("expected build error for zero dimensions")
	}
	if _, err := BuildMemoryIndex(2, []Entry{{Vector: []float32{1, 0}}}); err == nil {
		t.Error("expected build error for missing chunk")
	}
	idx, _ := BuildMemoryIndex(2, entriesOf([]float32{1, 0}))
	if _, err := idx.Search(context.Background(), []float32{1, 0, 0}, 1); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("query dimension mismatch: got %v, want ErrDimensionMismatch", err)
	}
}

func TestMemoryIndex_copiesVectors(t *testing.T) {
	entries := entriesOf([]float32{1, 0}, []float32{0, 1})
	idx, _ := BuildMemoryIndex(2, entries)
	entries[0].Vector[0] = -1

	results, _ := idx.Search(context.Background(), []float32{1, 0}, 1)
	if results[0].Chunk.ID != "doc/0" {
		t.Errorf("mutating input changed the index: top = %s", results[0].Chunk.ID)
	}
}

func TestMemoryIndex_noDuplicates(t *testing.T) {
	idx, _ := BuildMemoryIndex(2, entriesOf([]float32{1, 0}, []float32{0.5, 0.5}, []float32{0, 1}))
	results, _ := idx.Search(context.Background(), []float32{0.7, 0.7}, 3)
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Chunk.ID] {
			t.Fatalf("duplicate %s", r.Chunk.ID)
		}
		seen[r.Chunk.ID] = true
	}
}

func TestInnerProduct(t *testing.T) {
	if got := InnerProduct([]float32{1, 2}, []float32{3, 4}); got != 11 {
		t.Errorf("got %v", got)
	}
	if got := InnerProduct([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths should be 0, got %v", got)
	}
}
