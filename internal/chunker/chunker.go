// Package chunker splits documents into overlapping fixed-size character windows.
package chunker

import (
	"fmt"

	"github.com/hyperjump/medqa/internal/fileid"
	"github.com/hyperjump/medqa/internal/models"
)

// Chunker slides a window of size characters across each document, advancing by
// size-overlap. Characters are runes, so multi-byte text is never split mid-character.
// Splitting is content-agnostic and does not look for sentence boundaries.
type Chunker struct {
	size    int
	overlap int
}

// New returns a chunker. It requires 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must satisfy 0 <= overlap < size, got overlap %d size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the chunks of one document in sequence order. Every chunk except the
// last is exactly Size characters; the last may be shorter. Empty text yields no chunks.
func (c *Chunker) Split(doc *models.Document) []*models.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	chunks := make([]*models.Chunk, 0, (len(runes)+step-1)/step)
	for start, seq := 0, 0; ; start, seq = start+step, seq+1 {
		end := min(start+c.size, len(runes))
		chunks = append(chunks, &models.Chunk{
			ID:   fileid.ChunkID(doc.ID, seq),
			Text: string(runes[start:end]),
			Source: models.SourceRef{
				DocumentID: doc.ID,
				Path:       doc.Path,
				Page:       doc.Page,
				Offset:     start,
			},
			SequenceIndex: seq,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ChunkAll splits every document, keeping chunks grouped by document in input order.
func (c *Chunker) ChunkAll(docs []*models.Document) []*models.Chunk {
	var chunks []*models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.Split(doc)...)
	}
	return chunks
}

// Reassemble concatenates the non-overlapping portions of one document's chunks,
// which reproduces the document text exactly.
func Reassemble(chunks []*models.Chunk, overlap int) string {
	var out []rune
	for i, ch := range chunks {
		r := []rune(ch.Text)
		if i > 0 {
			r = r[overlap:]
		}
		out = append(out, r...)
	}
	return string(out)
}
