package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pdf-layout-annotator/internal/domain"
)

// FileCatalogRepository implements domain.CatalogRepository over a
// FileLayout. The active selection is an active_dataset.txt file in the
// active task's folder; at most one task holds it.
type FileCatalogRepository struct {
	layout *FileLayout
	logger domain.Logger
}

func NewFileCatalogRepository(layout *FileLayout, logger domain.Logger) domain.CatalogRepository {
	return &FileCatalogRepository{
		layout: layout,
		logger: logger,
	}
}

func (r *FileCatalogRepository) ListTasks(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.layout.labeledRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func (r *FileCatalogRepository) ListDatasets(ctx context.Context, task string) ([]string, error) {
	dir := r.layout.taskDir(task)
	if !isDir(dir) {
		return nil, domain.ErrTaskNotFound
	}
	datasets, err := subdirs(dir)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return datasets, nil
}

func (r *FileCatalogRepository) GetActive(ctx context.Context) (domain.ActiveSelection, error) {
	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return domain.ActiveSelection{}, err
	}
	for _, task := range tasks {
		data, err := os.ReadFile(filepath.Join(r.layout.taskDir(task), activeDatasetFile))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.ActiveSelection{}, fmt.Errorf("read active dataset: %w", err)
		}
		return domain.ActiveSelection{Task: task, Dataset: strings.TrimSpace(string(data))}, nil
	}
	return domain.ActiveSelection{}, nil
}

func (r *FileCatalogRepository) SetActive(ctx context.Context, selection domain.ActiveSelection) error {
	dir := r.layout.taskDir(selection.Task)
	if !isDir(dir) {
		return domain.ErrTaskNotFound
	}

	r.layout.mu.Lock()
	defer r.layout.mu.Unlock()

	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := removeIfExists(filepath.Join(r.layout.taskDir(task), activeDatasetFile)); err != nil {
			return fmt.Errorf("clear active dataset: %w", err)
		}
	}
	return writeFile(filepath.Join(dir, activeDatasetFile), []byte(selection.Dataset))
}

func (r *FileCatalogRepository) ListDocuments(ctx context.Context, task, dataset string) ([]domain.DocumentStatus, error) {
	dir := r.layout.datasetDir(task, dataset)
	if !isDir(dir) {
		return nil, domain.ErrDatasetNotFound
	}
	names, err := subdirs(dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]domain.DocumentStatus, 0, len(names))
	for _, name := range names {
		status := readStatus(filepath.Join(dir, name, statusFile))
		out = append(out, domain.DocumentStatus{
			ID:       documentID(domain.DocumentRef{Task: task, Dataset: dataset, Name: name}),
			Name:     name,
			Finished: status == domain.StatusFinished,
			Junk:     status == domain.StatusJunk,
		})
	}
	return out, nil
}

// SetStatus writes status.txt. A document holds one flag at a time;
// clearing removes the file only when it holds that flag.
func (r *FileCatalogRepository) SetStatus(ctx context.Context, ref domain.DocumentRef, flag domain.StatusFlag, value bool) error {
	dir := r.layout.documentDir(ref.Task, ref.Dataset, ref.Name)
	if !isDir(dir) {
		return domain.ErrDocumentNotFound
	}

	r.layout.mu.Lock()
	defer r.layout.mu.Unlock()

	path := filepath.Join(dir, statusFile)
	if value {
		return writeFile(path, []byte(flag))
	}
	if readStatus(path) == flag {
		return removeIfExists(path)
	}
	return nil
}

func (r *FileCatalogRepository) DeleteDocument(ctx context.Context, ref domain.DocumentRef) error {
	dir := r.layout.documentDir(ref.Task, ref.Dataset, ref.Name)
	if !isDir(dir) {
		return domain.ErrDocumentNotFound
	}

	r.layout.mu.Lock()
	defer r.layout.mu.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	r.logger.Info("Document folder removed", "path", dir)
	return nil
}

func readStatus(path string) domain.StatusFlag {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return domain.StatusFlag(strings.TrimSpace(string(data)))
}

// documentID derives a stable id from the document address.
func documentID(ref domain.DocumentRef) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(ref.String())).String()
}
