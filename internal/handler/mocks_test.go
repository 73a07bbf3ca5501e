package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"pdf-layout-annotator/internal/domain"
)

type mockCatalogService struct {
	datasets  []string
	documents []domain.DocumentStatus
	task      string
	dataset   string
	err       error

	lastRef    domain.DocumentRef
	lastFlag   domain.StatusFlag
	lastValue  bool
	lastActive domain.ActiveSelection
	deleted    int
}

func (m *mockCatalogService) Datasets(ctx context.Context, task string) ([]string, error) {
	return m.datasets, m.err
}

func (m *mockCatalogService) ActiveTask(ctx context.Context) (string, error) {
	return m.task, m.err
}

func (m *mockCatalogService) ActiveDataset(ctx context.Context) (string, error) {
	return m.dataset, m.err
}

func (m *mockCatalogService) SetActive(ctx context.Context, task, dataset string) error {
	m.lastActive = domain.ActiveSelection{Task: task, Dataset: dataset}
	return m.err
}

func (m *mockCatalogService) Documents(ctx context.Context, task, dataset string) ([]domain.DocumentStatus, error) {
	return m.documents, m.err
}

func (m *mockCatalogService) SetStatus(ctx context.Context, ref domain.DocumentRef, flag domain.StatusFlag, value bool) error {
	m.lastRef, m.lastFlag, m.lastValue = ref, flag, value
	return m.err
}

func (m *mockCatalogService) DeleteJunk(ctx context.Context, ref domain.DocumentRef) error {
	m.lastRef = ref
	return m.err
}

func (m *mockCatalogService) DeleteAllJunk(ctx context.Context, task, dataset string) (int, error) {
	return m.deleted, m.err
}

type mockLabelService struct {
	labels []domain.Label
	saved  []domain.Label
	err    error
}

func (m *mockLabelService) Labels(ctx context.Context, task string) ([]domain.Label, error) {
	return m.labels, m.err
}

func (m *mockLabelService) SaveLabels(ctx context.Context, task string, labels []domain.Label) ([]domain.Label, error) {
	m.saved = labels
	return labels, m.err
}

type mockAnnotationService struct {
	set   domain.PdfAnnotations
	saved *domain.PdfAnnotations
	ref   domain.DocumentRef
	err   error
}

func (m *mockAnnotationService) Annotations(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error) {
	m.ref = ref
	return m.set, m.err
}

func (m *mockAnnotationService) SaveAnnotations(ctx context.Context, ref domain.DocumentRef, set domain.PdfAnnotations) error {
	m.ref = ref
	m.saved = &set
	return m.err
}

type mockReadingOrderService struct {
	result       domain.PdfAnnotations
	lastRegion   domain.Annotation
	lastPosition int
	err          error
}

func (m *mockReadingOrderService) ReorderRegion(ctx context.Context, ref domain.DocumentRef, region domain.Annotation) (domain.PdfAnnotations, error) {
	m.lastRegion = region
	return m.result, m.err
}

func (m *mockReadingOrderService) ReorderToPosition(ctx context.Context, ref domain.DocumentRef, annotation domain.Annotation, position int) (domain.PdfAnnotations, error) {
	m.lastRegion = annotation
	m.lastPosition = position
	return m.result, m.err
}

type mockSourceService struct {
	pdf    string
	tokens domain.PagesTokens
	err    error
}

func (m *mockSourceService) PDF(ctx context.Context, name string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(m.pdf)), nil
}

func (m *mockSourceService) Tokens(ctx context.Context, name string) (domain.PagesTokens, error) {
	return m.tokens, m.err
}

type testServices struct {
	catalog      *mockCatalogService
	labels       *mockLabelService
	annotations  *mockAnnotationService
	readingOrder *mockReadingOrderService
	sources      *mockSourceService
}

func newTestServices() *testServices {
	return &testServices{
		catalog:      &mockCatalogService{},
		labels:       &mockLabelService{},
		annotations:  &mockAnnotationService{},
		readingOrder: &mockReadingOrderService{},
		sources:      &mockSourceService{},
	}
}

func (s *testServices) handlers() Handlers {
	logger := NewMockHandlerLogger()
	return Handlers{
		Catalog:    NewCatalogHandler(s.catalog, logger),
		Labels:     NewLabelHandler(s.labels, logger),
		Annotation: NewAnnotationHandler(s.annotations, s.readingOrder, logger),
		Source:     NewSourceHandler(s.sources, logger),
	}
}

func (s *testServices) router() http.Handler {
	return NewRouter(s.handlers(), nil, NewMockHandlerLogger())
}
