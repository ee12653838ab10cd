// Package models defines core data structures for documents, chunks, turns, and answers.
package models

import "fmt"

// SourceRef locates a piece of text in the corpus.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
	// Page is 1-based for paginated formats (PDF pages, spreadsheet sheets) and 0 otherwise.
	Page int `json:"page,omitempty"`
	// Offset is the character (rune) offset of the chunk start within the document text.
	Offset int `json:"offset"`
}

// String returns "path" or "path p.N".
func (s SourceRef) String() string {
	if s.Page > 0 {
		return fmt.Sprintf("%s p.%d", s.Path, s.Page)
	}
	return s.Path
}

// Document is one extractable text unit of the corpus (one page of a PDF, one sheet, one file).
type Document struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
	Page  int    `json:"page,omitempty"`
	Text  string `json:"text"`
}

// Chunk is a bounded slice of a Document's text and the unit of retrieval.
type Chunk struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Source        SourceRef `json:"source"`
	SequenceIndex int       `json:"sequence_index"`
}
