// Package extract turns corpus files into page-level plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions the extractor cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Page is one extractable text unit of a file. Number is 1-based for paginated
// formats (PDF pages, spreadsheet sheets, slides) and 0 for single-unit formats.
type Page struct {
	Number int
	Text   string
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) has an extractor.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".xlsx", ".pptx", ".odt", ".rtf", ".txt", ".md", ".rst":
		return true
	}
	return false
}

// Extract reads the file at path and returns its pages.
// Paginated formats yield one Page per page that has text; other formats yield a single Page.
func (e *Extractor) Extract(path string) ([]Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]Page, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".xlsx":
		return extractExcel(content)
	case ".pptx":
		return extractPPTX(content)
	case ".docx":
		return single(extractDOCX(content))
	case ".odt":
		return single(extractWithCat(content))
	case ".rtf":
		return single(extractRTF(content))
	case ".txt", ".md", ".rst":
		return single(extractPlain(content))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// single wraps a whole-file extraction result; empty text yields no pages.
func single(text string, err error) ([]Page, error) {
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []Page{{Number: 0, Text: text}}, nil
}
