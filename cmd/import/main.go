package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pdf-layout-annotator/internal/client"
	"pdf-layout-annotator/internal/config"
	"pdf-layout-annotator/internal/importer"
	"pdf-layout-annotator/internal/render"
	"pdf-layout-annotator/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	cfg := config.NewConfig()

	scriptPath := flag.String("script", "", "Path to the replay script YAML file (required)")
	backendURL := flag.String("backend", cfg.GetBackendURL(), "Base URL of the annotation backend")
	previewDir := flag.String("preview", "", "Directory to write rendered page PNGs for documents with render: true")
	flag.Parse()

	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -script flag is required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	appLogger := logger.New(os.Stderr, cfg.GetLogLevel(), cfg.GetLogFormat())

	script, err := importer.LoadScript(*scriptPath)
	if err != nil {
		appLogger.Error("Failed to load script", err, "path", *scriptPath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := importer.NewRunner(importer.RunnerConfig{
		Backend:       client.New(*backendURL, nil, appLogger),
		Loader:        render.NewLoader(appLogger),
		Logger:        appLogger,
		SaveDebounce:  cfg.GetSaveDebounce(),
		UnloadTimeout: cfg.GetUnloadSaveTimeout(),
		PreviewDir:    *previewDir,
	})

	reports, err := runner.Run(ctx, script)
	for _, r := range reports {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Printf("%s\tannotations=%d\tsteps=%d\t%s\n", r.Ref, r.Annotations, r.Steps, status)
	}
	if err != nil {
		os.Exit(1)
	}
}
