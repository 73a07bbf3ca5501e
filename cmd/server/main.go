package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-layout-annotator/internal/config"
	"pdf-layout-annotator/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	logger := container.Logger

	// Handlers
	handlers := handler.Handlers{
		Catalog:    handler.NewCatalogHandler(container.CatalogService, logger),
		Labels:     handler.NewLabelHandler(container.LabelService, logger),
		Annotation: handler.NewAnnotationHandler(container.AnnotationService, container.ReadingOrderService, logger),
		Source:     handler.NewSourceHandler(container.SourceService, logger),
	}

	// Router
	router := handler.NewRouter(handlers, container.Config.GetAllowedOrigins(), logger)

	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "address", server.Addr, "storage", container.Config.GetStorageBackend())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}

	logger.Info("Server exited")
}
