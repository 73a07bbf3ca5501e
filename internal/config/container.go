package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"pdf-layout-annotator/internal/domain"
	"pdf-layout-annotator/internal/repository"
	"pdf-layout-annotator/internal/service"
	"pdf-layout-annotator/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient

	CatalogRepository    domain.CatalogRepository
	LabelRepository      domain.LabelRepository
	AnnotationRepository domain.AnnotationRepository
	SourceRepository     domain.SourceRepository

	CatalogService      domain.CatalogService
	LabelService        domain.LabelService
	AnnotationService   domain.AnnotationService
	SourceService       domain.SourceService
	ReadingOrderService domain.ReadingOrderService
}

// NewContainer creates a new dependency injection container from the
// environment.
func NewContainer() (*Container, error) {
	return NewContainerWithConfig(NewConfig())
}

// NewContainerWithConfig wires repositories and services for config.
func NewContainerWithConfig(config domain.Config) (*Container, error) {
	appLogger := logger.New(os.Stdout, config.GetLogLevel(), config.GetLogFormat())
	c := &Container{
		Config: config,
		Logger: appLogger,
	}

	switch config.GetStorageBackend() {
	case StorageFilesystem:
		layout := repository.NewFileLayout(config.GetLabeledDataPath(), config.GetPDFsPath())
		labels := repository.NewFileLabelRepository(layout, appLogger)
		c.CatalogRepository = repository.NewFileCatalogRepository(layout, appLogger)
		c.LabelRepository = labels
		c.AnnotationRepository = repository.NewFileAnnotationRepository(layout, labels, appLogger)
		c.SourceRepository = repository.NewFileSourceRepository(layout)
	case StorageSupabase:
		supabaseClient := repository.NewSupabaseClient(config, appLogger)
		if err := supabaseClient.Initialize(); err != nil {
			return nil, fmt.Errorf("initialize supabase: %w", err)
		}
		c.SupabaseClient = supabaseClient
		c.CatalogRepository = repository.NewSupabaseCatalogRepository(supabaseClient, appLogger)
		c.LabelRepository = repository.NewSupabaseLabelRepository(supabaseClient, appLogger)
		c.AnnotationRepository = repository.NewSupabaseAnnotationRepository(supabaseClient, appLogger)
		c.SourceRepository = repository.NewSupabaseStorageRepository(
			config.GetSupabaseURL(),
			config.GetSupabaseKey(),
			config.GetTokensBucket(),
			&http.Client{Timeout: 60 * time.Second},
		)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.GetStorageBackend())
	}

	sources := service.NewSourceService(c.SourceRepository, appLogger)
	c.CatalogService = service.NewCatalogService(c.CatalogRepository, appLogger)
	c.LabelService = service.NewLabelService(c.LabelRepository, appLogger)
	c.AnnotationService = service.NewAnnotationService(c.AnnotationRepository, appLogger)
	c.SourceService = sources
	c.ReadingOrderService = service.NewReadingOrderService(c.AnnotationRepository, sources, appLogger)

	appLogger.Info("Container ready", "storage", config.GetStorageBackend())
	return c, nil
}
