package repository

import (
	"context"
	"fmt"

	"pdf-layout-annotator/internal/domain"
)

// SupabaseLabelRepository implements domain.LabelRepository over the
// task_labels table.
type SupabaseLabelRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseLabelRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.LabelRepository {
	return &SupabaseLabelRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SupabaseLabelRepository) GetLabels(ctx context.Context, task string) ([]domain.Label, error) {
	client, err := db(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(taskLabelsTable).
		Select("labels", "", false).
		Eq("task", task).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.Label{}, nil
	}

	labels := []domain.Label{}
	if err := jsonField(rows[0], "labels", &labels); err != nil {
		return nil, fmt.Errorf("decode labels of %s: %w", task, err)
	}
	return labels, nil
}

func (r *SupabaseLabelRepository) SaveLabels(ctx context.Context, task string, labels []domain.Label) error {
	client, err := db(r.supabaseClient)
	if err != nil {
		return err
	}

	row := map[string]interface{}{
		"task":   task,
		"labels": labels,
	}
	_, _, err = client.From(taskLabelsTable).
		Upsert(row, "task", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to save labels: %w", err)
	}
	return nil
}
