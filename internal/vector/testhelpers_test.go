package vector

import (
	"fmt"

	"github.com/hyperjump/medqa/internal/models"
)

func entriesOf(vecs ...[]float32) []Entry {
	entries := make([]Entry, len(vecs))
	for i, v := range vecs {
		entries[i] = Entry{
			Chunk:  &models.Chunk{ID: fmt.Sprintf("doc/%d", i), Text: fmt.Sprintf("chunk %d", i), SequenceIndex: i},
			Vector: v,
		}
	}
	return entries
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.ID
	}
	return out
}
