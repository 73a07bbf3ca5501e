package service

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"pdf-layout-annotator/internal/domain"
)

type LabelService struct {
	repo   domain.LabelRepository
	logger domain.Logger
}

func NewLabelService(repo domain.LabelRepository, logger domain.Logger) *LabelService {
	return &LabelService{
		repo:   repo,
		logger: logger,
	}
}

// Labels returns the palette of task. A task without labels gets the
// default palette, which is also written back so later exports can index it.
func (s *LabelService) Labels(ctx context.Context, task string) ([]domain.Label, error) {
	folder := domain.TaskFolder(task)
	if err := domain.ValidateName("task", folder); err != nil {
		return nil, err
	}

	labels, err := s.repo.GetLabels(ctx, folder)
	if err != nil {
		return nil, err
	}
	if len(labels) > 0 {
		return labels, nil
	}

	labels = slices.Clone(domain.DefaultLabels)
	if err := s.repo.SaveLabels(ctx, folder, labels); err != nil {
		s.logger.Warn("Could not store default labels", "task", folder, "error", err)
	}
	return labels, nil
}

// SaveLabels normalizes and validates labels before replacing the palette.
func (s *LabelService) SaveLabels(ctx context.Context, task string, labels []domain.Label) ([]domain.Label, error) {
	folder := domain.TaskFolder(task)
	if err := domain.ValidateName("task", folder); err != nil {
		return nil, err
	}

	out := make([]domain.Label, 0, len(labels))
	for _, l := range labels {
		l.Name = norm.NFC.String(strings.TrimSpace(l.Name))
		if l.Color != "" && !strings.HasPrefix(l.Color, "#") {
			l.Color = "#" + l.Color
		}
		out = append(out, l)
	}
	if err := domain.ValidateLabels(out); err != nil {
		return nil, err
	}

	if err := s.repo.SaveLabels(ctx, folder, out); err != nil {
		return nil, err
	}
	s.logger.Info("Labels saved", "task", folder, "count", len(out))
	return out, nil
}
