package service

import (
	"context"
	"fmt"

	"pdf-layout-annotator/internal/domain"
)

type CatalogService struct {
	repo   domain.CatalogRepository
	logger domain.Logger
}

func NewCatalogService(repo domain.CatalogRepository, logger domain.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
	}
}

// Datasets lists the datasets of task. The first dataset becomes active
// when nothing is active yet.
func (s *CatalogService) Datasets(ctx context.Context, task string) ([]string, error) {
	folder := domain.TaskFolder(task)
	if err := domain.ValidateName("task", folder); err != nil {
		return nil, err
	}

	datasets, err := s.repo.ListDatasets(ctx, folder)
	if err != nil {
		return nil, err
	}
	if len(datasets) == 0 {
		return datasets, nil
	}

	active, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if active.Task == "" {
		selection := domain.ActiveSelection{Task: folder, Dataset: datasets[0]}
		if err := s.repo.SetActive(ctx, selection); err != nil {
			return nil, fmt.Errorf("activate first dataset: %w", err)
		}
		s.logger.Info("Activated default dataset", "task", folder, "dataset", datasets[0])
	}
	return datasets, nil
}

// ActiveTask returns the display name of the active task, falling back to
// the first task on record.
func (s *CatalogService) ActiveTask(ctx context.Context) (string, error) {
	active, err := s.repo.GetActive(ctx)
	if err != nil {
		return "", err
	}
	if active.Task != "" {
		return domain.TaskTitle(active.Task), nil
	}

	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "", domain.ErrNoActiveTask
	}
	return domain.TaskTitle(tasks[0]), nil
}

// ActiveDataset returns the active dataset, or "" when none is active.
func (s *CatalogService) ActiveDataset(ctx context.Context) (string, error) {
	active, err := s.repo.GetActive(ctx)
	if err != nil {
		return "", err
	}
	return active.Dataset, nil
}

func (s *CatalogService) SetActive(ctx context.Context, task, dataset string) error {
	folder := domain.TaskFolder(task)
	if err := domain.ValidateName("task", folder); err != nil {
		return err
	}
	if err := domain.ValidateName("dataset", dataset); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, domain.ActiveSelection{Task: folder, Dataset: dataset})
}

func (s *CatalogService) Documents(ctx context.Context, task, dataset string) ([]domain.DocumentStatus, error) {
	folder := domain.TaskFolder(task)
	if err := domain.ValidateName("task", folder); err != nil {
		return nil, err
	}
	if err := domain.ValidateName("dataset", dataset); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, folder, dataset)
}

func (s *CatalogService) SetStatus(ctx context.Context, ref domain.DocumentRef, flag domain.StatusFlag, value bool) error {
	ref, err := folderRef(ref)
	if err != nil {
		return err
	}
	return s.repo.SetStatus(ctx, ref, flag, value)
}

// DeleteJunk removes one document's labeled data. Only documents flagged
// as junk may be deleted.
func (s *CatalogService) DeleteJunk(ctx context.Context, ref domain.DocumentRef) error {
	ref, err := folderRef(ref)
	if err != nil {
		return err
	}

	docs, err := s.repo.ListDocuments(ctx, ref.Task, ref.Dataset)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.Name != ref.Name {
			continue
		}
		if !d.Junk {
			return domain.ErrNotJunk
		}
		if err := s.repo.DeleteDocument(ctx, ref); err != nil {
			return err
		}
		s.logger.Info("Deleted junk document", "document", ref.String())
		return nil
	}
	return domain.ErrDocumentNotFound
}

// DeleteAllJunk removes every junk document of a dataset and returns how
// many were deleted.
func (s *CatalogService) DeleteAllJunk(ctx context.Context, task, dataset string) (int, error) {
	docs, err := s.Documents(ctx, task, dataset)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, d := range docs {
		if !d.Junk {
			continue
		}
		ref := domain.DocumentRef{Task: domain.TaskFolder(task), Dataset: dataset, Name: d.Name}
		if err := s.repo.DeleteDocument(ctx, ref); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", ref, err)
		}
		deleted++
	}
	s.logger.Info("Deleted junk documents", "task", task, "dataset", dataset, "count", deleted)
	return deleted, nil
}

// folderRef converts the task of ref to its storage key and validates it.
func folderRef(ref domain.DocumentRef) (domain.DocumentRef, error) {
	ref.Task = domain.TaskFolder(ref.Task)
	if err := ref.Validate(); err != nil {
		return domain.DocumentRef{}, err
	}
	return ref, nil
}
