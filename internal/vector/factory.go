package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search. Good for small corpora (<100k chunks).
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses a FAISS flat inner product index.
	// Requires the FAISS library and build tags -tags=faiss,cgo.
	IndexTypeFAISS IndexType = "faiss"
)

// Build creates an index of the specified type over entries.
// Supported types: "memory" (default), "faiss".
func Build(indexType string, dimensions int, entries []Entry) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return BuildMemoryIndex(dimensions, entries)
	case IndexTypeFAISS:
		return BuildFAISSIndex(dimensions, entries)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := BuildFAISSIndex(1, nil)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
