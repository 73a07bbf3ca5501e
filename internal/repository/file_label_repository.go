package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pdf-layout-annotator/internal/domain"
)

// fileLabel is the palette entry written to a task's labels.json. Older
// files name the label "text".
type fileLabel struct {
	Text     string `json:"text"`
	Name     string `json:"name,omitempty"`
	Color    string `json:"color"`
	Metadata string `json:"metadata,omitempty"`
}

// FileLabelRepository implements domain.LabelRepository over a FileLayout.
type FileLabelRepository struct {
	layout *FileLayout
	logger domain.Logger
}

func NewFileLabelRepository(layout *FileLayout, logger domain.Logger) *FileLabelRepository {
	return &FileLabelRepository{
		layout: layout,
		logger: logger,
	}
}

func (r *FileLabelRepository) GetLabels(ctx context.Context, task string) ([]domain.Label, error) {
	data, err := os.ReadFile(filepath.Join(r.layout.taskDir(task), labelsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Label{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	var raw []fileLabel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode labels of %s: %w", task, err)
	}
	labels := make([]domain.Label, 0, len(raw))
	for _, l := range raw {
		name := l.Text
		if name == "" {
			name = l.Name
		}
		labels = append(labels, domain.Label{Name: name, Color: l.Color, Metadata: l.Metadata})
	}
	return labels, nil
}

func (r *FileLabelRepository) SaveLabels(ctx context.Context, task string, labels []domain.Label) error {
	dir := r.layout.taskDir(task)
	if !isDir(dir) {
		return domain.ErrTaskNotFound
	}

	raw := make([]fileLabel, 0, len(labels))
	for _, l := range labels {
		raw = append(raw, fileLabel{Text: l.Name, Color: l.Color, Metadata: l.Metadata})
	}
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return err
	}

	r.layout.mu.Lock()
	defer r.layout.mu.Unlock()
	return writeFile(filepath.Join(dir, labelsFile), data)
}
