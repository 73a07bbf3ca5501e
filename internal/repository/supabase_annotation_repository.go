package repository

import (
	"context"
	"fmt"
	"time"

	"pdf-layout-annotator/internal/domain"
)

// SupabaseAnnotationRepository implements domain.AnnotationRepository. Each
// document has one annotation_sets row holding the set as jsonb.
type SupabaseAnnotationRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseAnnotationRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.AnnotationRepository {
	return &SupabaseAnnotationRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SupabaseAnnotationRepository) Load(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error) {
	client, err := db(r.supabaseClient)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}

	data, _, err := client.From(annotationSetsTable).
		Select("annotations", "", false).
		Eq("task", ref.Task).
		Eq("dataset", ref.Dataset).
		Eq("name", ref.Name).
		Execute()
	if err != nil {
		return domain.PdfAnnotations{}, fmt.Errorf("failed to get annotations: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return domain.PdfAnnotations{}, err
	}

	if len(rows) == 0 {
		exists, err := r.documentExists(ref)
		if err != nil {
			return domain.PdfAnnotations{}, err
		}
		if !exists {
			return domain.PdfAnnotations{}, domain.ErrDocumentNotFound
		}
		return domain.NewPdfAnnotations(nil), nil
	}

	var annotations []domain.Annotation
	if err := jsonField(rows[0], "annotations", &annotations); err != nil {
		return domain.PdfAnnotations{}, fmt.Errorf("decode annotations of %s: %w", ref, err)
	}
	return domain.NewPdfAnnotations(annotations), nil
}

func (r *SupabaseAnnotationRepository) Save(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error {
	client, err := db(r.supabaseClient)
	if err != nil {
		return err
	}

	items := annotations.Annotations
	if items == nil {
		items = []domain.Annotation{}
	}
	row := map[string]interface{}{
		"task":        ref.Task,
		"dataset":     ref.Dataset,
		"name":        ref.Name,
		"annotations": items,
		"updated_at":  time.Now().UTC(),
	}
	_, _, err = client.From(annotationSetsTable).
		Insert(row, true, "task,dataset,name", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}
	return nil
}

func (r *SupabaseAnnotationRepository) documentExists(ref domain.DocumentRef) (bool, error) {
	client, err := db(r.supabaseClient)
	if err != nil {
		return false, err
	}
	data, _, err := client.From(documentsTable).
		Select("id", "", false).
		Eq("task", ref.Task).
		Eq("dataset", ref.Dataset).
		Eq("name", ref.Name).
		Limit(1, "").
		Execute()
	if err != nil {
		return false, fmt.Errorf("failed to look up document: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
