// Package loader reads a corpus directory into page-level Documents.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/medqa/internal/extract"
	"github.com/hyperjump/medqa/internal/fileid"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/pkg/utils"
	"go.uber.org/zap"
)

// Loader walks a directory and extracts every matching file into Documents.
type Loader struct {
	extractor          *extract.Extractor
	recursive          bool
	collapseWhitespace bool
	logger             *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a logger for per-file and summary events.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithRecursive makes Load descend into subdirectories.
func WithRecursive(recursive bool) Option {
	return func(ld *Loader) { ld.recursive = recursive }
}

// WithCollapseWhitespace normalizes runs of whitespace in extracted text to single spaces.
func WithCollapseWhitespace(collapse bool) Option {
	return func(ld *Loader) { ld.collapseWhitespace = collapse }
}

// New returns a Loader using the given extractor. A nil extractor gets the default one.
func New(extractor *extract.Extractor, opts ...Option) *Loader {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	ld := &Loader{
		extractor:          extractor,
		collapseWhitespace: true,
		logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load returns one Document per extractable text unit of the files in dir whose base name
// matches pattern (case-insensitive filepath.Match glob). Files are visited in lexical order.
//
// It fails with *models.IngestionError when dir is missing, no file matches, a matching file
// cannot be parsed, or the whole corpus yields zero Documents.
func (l *Loader) Load(ctx context.Context, dir, pattern string) ([]*models.Document, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, &models.IngestionError{Path: dir, Reason: fmt.Sprintf("invalid file pattern %q", pattern), Err: err}
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, &models.IngestionError{Path: dir, Reason: "cannot resolve directory", Err: err}
	}
	info, err := os.Stat(absDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.IngestionError{Path: absDir, Reason: "directory does not exist"}
		}
		return nil, &models.IngestionError{Path: absDir, Reason: "cannot stat directory", Err: err}
	}
	if !info.IsDir() {
		return nil, &models.IngestionError{Path: absDir, Reason: "not a directory"}
	}

	files, err := l.matchingFiles(absDir, pattern)
	if err != nil {
		return nil, &models.IngestionError{Path: absDir, Reason: "cannot read directory", Err: err}
	}
	if len(files) == 0 {
		return nil, &models.IngestionError{Path: absDir, Reason: fmt.Sprintf("no files match %q", pattern)}
	}

	var docs []*models.Document
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileDocs, err := l.loadFile(absDir, path)
		if err != nil {
			if errors.Is(err, extract.ErrUnsupportedFormat) {
				l.logger.Warn("loader skipping unsupported file", zap.String("path", path))
				continue
			}
			return nil, &models.IngestionError{Path: path, Reason: "cannot extract text", Err: err}
		}
		if len(fileDocs) == 0 {
			l.logger.Warn("loader found no extractable text", zap.String("path", path))
			continue
		}
		l.logger.Debug("loader loaded file", zap.String("path", path), zap.Int("documents", len(fileDocs)))
		docs = append(docs, fileDocs...)
	}
	if len(docs) == 0 {
		return nil, &models.IngestionError{
			Path:   absDir,
			Reason: fmt.Sprintf("no extractable text in %d matching files", len(files)),
		}
	}
	l.logger.Info("corpus loaded",
		zap.String("directory", absDir),
		zap.Int("files", len(files)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

func (l *Loader) matchingFiles(root, pattern string) ([]string, error) {
	pattern = strings.ToLower(pattern)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && !l.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, strings.ToLower(d.Name())); !ok {
			return nil
		}
		// Follow symlinks but only keep regular files.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func (l *Loader) loadFile(root, path string) ([]*models.Document, error) {
	pages, err := l.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	docs := make([]*models.Document, 0, len(pages))
	for _, page := range pages {
		text := page.Text
		if l.collapseWhitespace {
			text = utils.CollapseWhitespace(text)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, &models.Document{
			ID:    fileid.DocumentID(path, page.Number),
			Path:  filepath.ToSlash(rel),
			Title: filepath.Base(path),
			Page:  page.Number,
			Text:  text,
		})
	}
	return docs, nil
}
