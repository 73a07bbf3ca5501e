package domain

import (
	"context"
	"io"
	"time"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetLogFormat() string
	GetStorageBackend() string
	GetLabeledDataPath() string
	GetPDFsPath() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetTokensBucket() string
	GetAllowedOrigins() []string
	GetSaveDebounce() time.Duration
	GetUnloadSaveTimeout() time.Duration
	GetBackendURL() string
}

// CatalogRepository stores tasks, datasets, the active selection and the
// per-document triage flags.
type CatalogRepository interface {
	ListTasks(ctx context.Context) ([]string, error)
	ListDatasets(ctx context.Context, task string) ([]string, error)
	GetActive(ctx context.Context) (ActiveSelection, error)
	SetActive(ctx context.Context, selection ActiveSelection) error
	ListDocuments(ctx context.Context, task, dataset string) ([]DocumentStatus, error)
	SetStatus(ctx context.Context, ref DocumentRef, flag StatusFlag, value bool) error
	DeleteDocument(ctx context.Context, ref DocumentRef) error
}

// LabelRepository stores the label palette of a task. GetLabels returns an
// empty slice when the task has none.
type LabelRepository interface {
	GetLabels(ctx context.Context, task string) ([]Label, error)
	SaveLabels(ctx context.Context, task string, labels []Label) error
}

// AnnotationRepository stores one annotation set per document. Load returns
// an empty set when nothing was saved yet.
type AnnotationRepository interface {
	Load(ctx context.Context, ref DocumentRef) (PdfAnnotations, error)
	Save(ctx context.Context, ref DocumentRef, annotations PdfAnnotations) error
}

// SourceRepository opens the files extracted for a document. OpenPDF
// returns ErrDocumentNotFound and OpenTokens ErrTokensNotFound when the
// file is missing.
type SourceRepository interface {
	OpenPDF(ctx context.Context, name string) (io.ReadCloser, error)
	OpenTokens(ctx context.Context, name string) (io.ReadCloser, error)
}

// CatalogService defines the task, dataset and triage use cases.
type CatalogService interface {
	Datasets(ctx context.Context, task string) ([]string, error)
	ActiveTask(ctx context.Context) (string, error)
	ActiveDataset(ctx context.Context) (string, error)
	SetActive(ctx context.Context, task, dataset string) error
	Documents(ctx context.Context, task, dataset string) ([]DocumentStatus, error)
	SetStatus(ctx context.Context, ref DocumentRef, flag StatusFlag, value bool) error
	DeleteJunk(ctx context.Context, ref DocumentRef) error
	DeleteAllJunk(ctx context.Context, task, dataset string) (int, error)
}

// LabelService defines the label palette use cases.
type LabelService interface {
	Labels(ctx context.Context, task string) ([]Label, error)
	SaveLabels(ctx context.Context, task string, labels []Label) ([]Label, error)
}

// AnnotationService defines load and save of a document's annotation set.
type AnnotationService interface {
	Annotations(ctx context.Context, ref DocumentRef) (PdfAnnotations, error)
	SaveAnnotations(ctx context.Context, ref DocumentRef, annotations PdfAnnotations) error
}

// SourceService serves a document's PDF and its parsed page tokens.
type SourceService interface {
	PDF(ctx context.Context, name string) (io.ReadCloser, error)
	Tokens(ctx context.Context, name string) (PagesTokens, error)
}

// ReadingOrderService reassigns reading-order positions. Both operations
// return, and persist, the authoritative set.
type ReadingOrderService interface {
	ReorderRegion(ctx context.Context, ref DocumentRef, region Annotation) (PdfAnnotations, error)
	ReorderToPosition(ctx context.Context, ref DocumentRef, annotation Annotation, position int) (PdfAnnotations, error)
}
