package repository

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"pdf-layout-annotator/internal/domain"
)

// activeSelectionID is the key of the single active_selection row.
const activeSelectionID = 1

// SupabaseCatalogRepository implements domain.CatalogRepository over the
// documents and active_selection tables.
type SupabaseCatalogRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseCatalogRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.CatalogRepository {
	return &SupabaseCatalogRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SupabaseCatalogRepository) ListTasks(ctx context.Context) ([]string, error) {
	client, err := db(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(documentsTable).
		Select("task", "", false).
		Order("task", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	return distinct(rows, "task"), nil
}

func (r *SupabaseCatalogRepository) ListDatasets(ctx context.Context, task string) ([]string, error) {
	client, err := db(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(documentsTable).
		Select("dataset", "", false).
		Eq("task", task).
		Order("dataset", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return distinct(rows, "dataset"), nil
}

func (r *SupabaseCatalogRepository) GetActive(ctx context.Context) (domain.ActiveSelection, error) {
	client, err := db(r.supabaseClient)
	if err != nil {
		return domain.ActiveSelection{}, err
	}

	data, _, err := client.From(activeSelectionTable).
		Select("*", "", false).
		Eq("id", fmt.Sprint(activeSelectionID)).
		Execute()
	if err != nil {
		return domain.ActiveSelection{}, fmt.Errorf("failed to get active selection: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return domain.ActiveSelection{}, err
	}
	if len(rows) == 0 {
		return domain.ActiveSelection{}, nil
	}
	return domain.ActiveSelection{
		Task:    stringField(rows[0], "task"),
		Dataset: stringField(rows[0], "dataset"),
	}, nil
}

func (r *SupabaseCatalogRepository) SetActive(ctx context.Context, selection domain.ActiveSelection) error {
	client, err := db(r.supabaseClient)
	if err != nil {
		return err
	}

	row := map[string]interface{}{
		"id":      activeSelectionID,
		"task":    selection.Task,
		"dataset": selection.Dataset,
	}
	_, _, err = client.From(activeSelectionTable).
		Upsert(row, "id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to set active selection: %w", err)
	}
	return nil
}

func (r *SupabaseCatalogRepository) ListDocuments(ctx context.Context, task, dataset string) ([]domain.DocumentStatus, error) {
	client, err := db(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(documentsTable).
		Select("*", "", false).
		Eq("task", task).
		Eq("dataset", dataset).
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrDatasetNotFound
	}

	docs := make([]domain.DocumentStatus, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, documentFromRow(row))
	}
	return docs, nil
}

// SetStatus keeps finished and junk mutually exclusive, like the file
// layout's single status.txt.
func (r *SupabaseCatalogRepository) SetStatus(ctx context.Context, ref domain.DocumentRef, flag domain.StatusFlag, value bool) error {
	client, err := db(r.supabaseClient)
	if err != nil {
		return err
	}

	update := map[string]interface{}{string(flag): value}
	if value {
		update[string(domain.StatusFinished)] = flag == domain.StatusFinished
		update[string(domain.StatusJunk)] = flag == domain.StatusJunk
	}

	data, _, err := client.From(documentsTable).
		Update(update, "representation", "").
		Eq("task", ref.Task).
		Eq("dataset", ref.Dataset).
		Eq("name", ref.Name).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *SupabaseCatalogRepository) DeleteDocument(ctx context.Context, ref domain.DocumentRef) error {
	client, err := db(r.supabaseClient)
	if err != nil {
		return err
	}

	_, _, err = client.From(annotationSetsTable).
		Delete("minimal", "").
		Eq("task", ref.Task).
		Eq("dataset", ref.Dataset).
		Eq("name", ref.Name).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete annotations: %w", err)
	}

	data, _, err := client.From(documentsTable).
		Delete("representation", "").
		Eq("task", ref.Task).
		Eq("dataset", ref.Dataset).
		Eq("name", ref.Name).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrDocumentNotFound
	}
	r.logger.Info("Document deleted", "document", ref.String())
	return nil
}
