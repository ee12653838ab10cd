// Package fileid derives stable identifiers for corpus documents and chunks.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

const prefix = "doc:"

// DocumentID returns a stable ID for page of the file at path (page 0 for single-unit files).
// The path is cleaned first, so equivalent spellings of the same path share an ID.
func DocumentID(path string, page int) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", normalized, page)))
	return prefix + hex.EncodeToString(hash[:8])
}

// ChunkID returns the ID of the seq-th chunk of a document.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s/%d", documentID, seq)
}
