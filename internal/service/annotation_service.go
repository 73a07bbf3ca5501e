package service

import (
	"context"
	"fmt"

	"pdf-layout-annotator/internal/domain"
)

type AnnotationService struct {
	repo   domain.AnnotationRepository
	logger domain.Logger
}

func NewAnnotationService(repo domain.AnnotationRepository, logger domain.Logger) *AnnotationService {
	return &AnnotationService{
		repo:   repo,
		logger: logger,
	}
}

func (s *AnnotationService) Annotations(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error) {
	ref, err := folderRef(ref)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}
	return s.repo.Load(ctx, ref)
}

// SaveAnnotations replaces the stored set of ref. The whole set is rejected
// when any annotation is invalid.
func (s *AnnotationService) SaveAnnotations(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error {
	ref, err := folderRef(ref)
	if err != nil {
		return err
	}

	for i, a := range annotations.Annotations {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("annotation %d: %w", i, err)
		}
	}

	if err := s.repo.Save(ctx, ref, domain.NewPdfAnnotations(annotations.Annotations)); err != nil {
		return err
	}
	s.logger.Debug("Annotations saved", "document", ref.String(), "count", annotations.Len())
	return nil
}
