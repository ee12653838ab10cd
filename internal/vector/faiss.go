//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"unsafe"
)

// FAISSIndex is a FAISS IndexFlatIP (exact inner product) over a fixed set of entries.
// FAISS labels are the entries' insertion positions.
type FAISSIndex struct {
	index      *C.FaissIndexFlatIP
	dimensions int
	entries    []Entry
	// guards index against Close racing a search
	mu sync.RWMutex
}

// BuildFAISSIndex creates a flat inner product index and adds all entries in one batch.
func BuildFAISSIndex(dimensions int, entries []Entry) (*FAISSIndex, error) {
	if err := checkEntries(dimensions, entries); err != nil {
		return nil, err
	}

	var index *C.FaissIndexFlatIP
	if ret := C.faiss_IndexFlatIP_new_with(&index, C.idx_t(dimensions)); ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}

	if n := len(entries); n > 0 {
		flat := make([]float32, n*dimensions)
		for i, e := range entries {
			copy(flat[i*dimensions:(i+1)*dimensions], e.Vector)
		}
		if ret := C.faiss_Index_add(index, C.idx_t(n), (*C.float)(unsafe.Pointer(&flat[0]))); ret != 0 {
			C.faiss_Index_free(index)
			return nil, fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
		}
	}

	owned := make([]Entry, len(entries))
	copy(owned, entries)
	return &FAISSIndex{index: index, dimensions: dimensions, entries: owned}, nil
}

func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Search runs a FAISS top-k search and re-sorts hits by score, then label, so equal scores
// keep insertion order.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if err := checkSearch(query, k, len(f.entries), f.dimensions); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.index == nil {
		return nil, fmt.Errorf("FAISS index is closed")
	}

	distances := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	type hit struct {
		label int64
		score float64
	}
	hits := make([]hit, 0, k)
	for i, label := range labels {
		if label < 0 || int(label) >= len(f.entries) {
			continue
		}
		hits = append(hits, hit{label: label, score: float64(distances[i])})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].label < hits[j].label
	})

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{Chunk: f.entries[h.label].Chunk, Score: h.score}
	}
	return results, nil
}

// Size returns the number of entries.
func (f *FAISSIndex) Size() int {
	return len(f.entries)
}

// Dimensions returns the vector dimension.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}
