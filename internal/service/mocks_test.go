package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"pdf-layout-annotator/internal/domain"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, fields ...interface{})             {}
func (mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (mockLogger) Debug(msg string, fields ...interface{})            {}
func (mockLogger) Warn(msg string, fields ...interface{})             {}

// mockCatalogRepository keeps task -> dataset -> documents in memory.
type mockCatalogRepository struct {
	mu      sync.Mutex
	docs    map[string]map[string][]domain.DocumentStatus
	active  domain.ActiveSelection
	deleted []domain.DocumentRef
	setErr  error
}

func newMockCatalogRepository() *mockCatalogRepository {
	return &mockCatalogRepository{docs: make(map[string]map[string][]domain.DocumentStatus)}
}

func (m *mockCatalogRepository) add(task, dataset string, docs ...domain.DocumentStatus) {
	if m.docs[task] == nil {
		m.docs[task] = make(map[string][]domain.DocumentStatus)
	}
	m.docs[task][dataset] = append(m.docs[task][dataset], docs...)
}

func (m *mockCatalogRepository) ListTasks(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(m.docs))
	for t := range m.docs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockCatalogRepository) ListDatasets(ctx context.Context, task string) ([]string, error) {
	datasets, ok := m.docs[task]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	out := make([]string, 0, len(datasets))
	for d := range datasets {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockCatalogRepository) GetActive(ctx context.Context) (domain.ActiveSelection, error) {
	return m.active, nil
}

func (m *mockCatalogRepository) SetActive(ctx context.Context, selection domain.ActiveSelection) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.active = selection
	return nil
}

func (m *mockCatalogRepository) ListDocuments(ctx context.Context, task, dataset string) ([]domain.DocumentStatus, error) {
	docs, ok := m.docs[task][dataset]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return docs, nil
}

func (m *mockCatalogRepository) SetStatus(ctx context.Context, ref domain.DocumentRef, flag domain.StatusFlag, value bool) error {
	docs := m.docs[ref.Task][ref.Dataset]
	for i := range docs {
		if docs[i].Name != ref.Name {
			continue
		}
		switch flag {
		case domain.StatusFinished:
			docs[i].Finished = value
		case domain.StatusJunk:
			docs[i].Junk = value
		}
		return nil
	}
	return domain.ErrDocumentNotFound
}

func (m *mockCatalogRepository) DeleteDocument(ctx context.Context, ref domain.DocumentRef) error {
	docs := m.docs[ref.Task][ref.Dataset]
	for i := range docs {
		if docs[i].Name == ref.Name {
			m.docs[ref.Task][ref.Dataset] = append(docs[:i:i], docs[i+1:]...)
			m.deleted = append(m.deleted, ref)
			return nil
		}
	}
	return domain.ErrDocumentNotFound
}

type mockLabelRepository struct {
	labels  map[string][]domain.Label
	saveErr error
	saves   int
}

func (m *mockLabelRepository) GetLabels(ctx context.Context, task string) ([]domain.Label, error) {
	return m.labels[task], nil
}

func (m *mockLabelRepository) SaveLabels(ctx context.Context, task string, labels []domain.Label) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.labels == nil {
		m.labels = make(map[string][]domain.Label)
	}
	m.labels[task] = labels
	return nil
}

type mockAnnotationRepository struct {
	mu      sync.Mutex
	sets    map[domain.DocumentRef]domain.PdfAnnotations
	loadErr error
	saved   []domain.DocumentRef
}

func newMockAnnotationRepository() *mockAnnotationRepository {
	return &mockAnnotationRepository{sets: make(map[domain.DocumentRef]domain.PdfAnnotations)}
}

func (m *mockAnnotationRepository) Load(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.PdfAnnotations{}, m.loadErr
	}
	return m.sets[ref], nil
}

func (m *mockAnnotationRepository) Save(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[ref] = annotations
	m.saved = append(m.saved, ref)
	return nil
}

type mockSourceRepository struct {
	pdfs   map[string]string
	tokens map[string]string
}

func (m *mockSourceRepository) OpenPDF(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := m.pdfs[name]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *mockSourceRepository) OpenTokens(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := m.tokens[name]
	if !ok {
		return nil, domain.ErrTokensNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

type staticTokens struct {
	pages domain.PagesTokens
	err   error
}

func (s staticTokens) Tokens(ctx context.Context, name string) (domain.PagesTokens, error) {
	return s.pages, s.err
}
