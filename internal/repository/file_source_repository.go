package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"pdf-layout-annotator/internal/domain"
)

// FileSourceRepository implements domain.SourceRepository over the pdfs
// folder of a FileLayout.
type FileSourceRepository struct {
	layout *FileLayout
}

func NewFileSourceRepository(layout *FileLayout) domain.SourceRepository {
	return &FileSourceRepository{layout: layout}
}

func (r *FileSourceRepository) OpenPDF(ctx context.Context, name string) (io.ReadCloser, error) {
	return open(r.layout.sourceFile(name, pdfFile), domain.ErrDocumentNotFound)
}

func (r *FileSourceRepository) OpenTokens(ctx context.Context, name string) (io.ReadCloser, error) {
	return open(r.layout.sourceFile(name, tokensFile), domain.ErrTokensNotFound)
}

func open(path string, missing error) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, missing
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
