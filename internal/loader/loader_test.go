package loader

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_onePerPage(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "analgesics.pdf", testutil.MinimalPDF("Aspirin reduces fever.", "Ibuprofen reduces inflammation."))
	testutil.WriteFile(t, dir, "notes.txt", []byte("not matched by *.pdf"))

	docs, err := New(nil).Load(context.Background(), dir, "*.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, 2, docs[1].Page)
	assert.Equal(t, "analgesics.pdf", docs[0].Path)
	assert.Contains(t, docs[0].Text, "Aspirin reduces fever.")
	assert.Contains(t, docs[1].Text, "Ibuprofen reduces inflammation.")
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
}

func TestLoad_patternIsCaseInsensitiveAndSorted(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "b.TXT", []byte("second"))
	testutil.WriteFile(t, dir, "a.txt", []byte("first"))

	docs, err := New(nil).Load(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].Text)
	assert.Equal(t, "second", docs[1].Text)
	assert.Equal(t, 0, docs[0].Page)
}

func TestLoad_recursive(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "top.txt", []byte("top level"))
	testutil.WriteFile(t, dir, filepath.Join("cardiology", "deep.txt"), []byte("nested"))

	flat, err := New(nil).Load(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	all, err := New(nil, WithRecursive(true)).Load(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "cardiology/deep.txt", all[0].Path)
}

func TestLoad_collapseWhitespace(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.txt", []byte("  Take   one\n\ntablet  "))

	docs, err := New(nil).Load(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, "Take one tablet", docs[0].Text)

	raw, err := New(nil, WithCollapseWhitespace(false)).Load(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, "  Take   one\n\ntablet  ", raw[0].Text)
}

func TestLoad_skipsImageOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "scan.pdf", testutil.MinimalPDF(""))
	testutil.WriteFile(t, dir, "text.pdf", testutil.MinimalPDF("Dosage: 500 mg."))

	docs, err := New(nil).Load(context.Background(), dir, "*.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "text.pdf", docs[0].Path)
}

func TestLoad_ingestionErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		pattern string
		reason  string
	}{
		{
			name:    "missing directory",
			setup:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			pattern: "*.pdf",
			reason:  "directory does not exist",
		},
		{
			name: "not a directory",
			setup: func(t *testing.T) string {
				return testutil.WriteFile(t, t.TempDir(), "file.pdf", testutil.MinimalPDF("x"))
			},
			pattern: "*.pdf",
			reason:  "not a directory",
		},
		{
			name:    "empty directory",
			setup:   func(t *testing.T) string { return t.TempDir() },
			pattern: "*.pdf",
			reason:  `no files match "*.pdf"`,
		},
		{
			name: "only image pages",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				testutil.WriteFile(t, dir, "scan.pdf", testutil.MinimalPDF("", ""))
				return dir
			},
			pattern: "*.pdf",
			reason:  "no extractable text in 1 matching files",
		},
		{
			name: "corrupt pdf",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				testutil.WriteFile(t, dir, "broken.pdf", []byte("%PDF-1.4 garbage"))
				return dir
			},
			pattern: "*.pdf",
			reason:  "cannot extract text",
		},
		{
			name:    "bad pattern",
			setup:   func(t *testing.T) string { return t.TempDir() },
			pattern: "[",
			reason:  `invalid file pattern "["`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			docs, err := New(nil).Load(context.Background(), dir, tt.pattern)
			require.Error(t, err)
			assert.Nil(t, docs)
			assert.True(t, errors.Is(err, models.ErrIngestion), "error should match ErrIngestion: %v", err)
			var ie *models.IngestionError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.reason, ie.Reason)
		})
	}
}

func TestLoad_unsupportedFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.txt", []byte("kept"))
	testutil.WriteFile(t, dir, "b.bin", []byte{0, 1, 2})

	docs, err := New(nil).Load(context.Background(), dir, "*")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept", docs[0].Text)
}

func TestLoad_canceledContext(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.txt", []byte("text"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Load(ctx, dir, "*.txt")
	assert.ErrorIs(t, err, context.Canceled)
}
