package annotator

import (
	"context"

	"pdf-layout-annotator/internal/domain"
)

// Backend is the part of the persistence backend a session talks to.
// Implementations return domain.ErrDocumentNotFound for unknown documents.
type Backend interface {
	Annotations(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error)
	SaveAnnotations(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error
	Tokens(ctx context.Context, name string) (domain.PagesTokens, error)
	Labels(ctx context.Context, task string) ([]domain.Label, error)
	ReorderRegion(ctx context.Context, ref domain.DocumentRef, region domain.Annotation) (domain.PdfAnnotations, error)
	ReorderToPosition(ctx context.Context, ref domain.DocumentRef, annotation domain.Annotation, position int) (domain.PdfAnnotations, error)
}

// Store is the narrow view of the session's annotation set handed to page
// controllers and the reading-order assigner. Apply derives the next set
// from the current one; Install replaces it with an authoritative value.
type Store interface {
	Current() domain.PdfAnnotations
	Apply(update func(domain.PdfAnnotations) domain.PdfAnnotations)
	Install(annotations domain.PdfAnnotations)
}
