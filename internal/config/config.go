package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pdf-layout-annotator/internal/domain"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	StorageFilesystem = "filesystem"
	StorageSupabase   = "supabase"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort        string
	LogLevel          string
	LogFormat         string
	StorageBackend    string
	LabeledDataPath   string
	PDFsPath          string
	SupabaseURL       string
	SupabaseKey       string
	TokensBucket      string
	AllowedOrigins    []string
	SaveDebounce      time.Duration
	UnloadSaveTimeout time.Duration
	BackendURL        string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:        getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "text"),
		StorageBackend:    strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageFilesystem)),
		LabeledDataPath:   getEnvOrDefault("LABELED_DATA_PATH", "./data/labeled_data"),
		PDFsPath:          getEnvOrDefault("PDFS_PATH", "./data/pdfs"),
		SupabaseURL:       getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:       getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		TokensBucket:      getEnvOrDefault("TOKENS_BUCKET", "pdfs"),
		AllowedOrigins:    getEnvListOrDefault("CORS_ALLOWED_ORIGINS", nil),
		SaveDebounce:      getEnvMillisOrDefault("SAVE_DEBOUNCE_MS", 100*time.Millisecond),
		UnloadSaveTimeout: getEnvMillisOrDefault("UNLOAD_SAVE_TIMEOUT_MS", 2*time.Second),
		BackendURL:        getEnvOrDefault("BACKEND_URL", "http://localhost:8080"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns "text" or "json"
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetStorageBackend returns the storage backend name
func (c *AppConfig) GetStorageBackend() string {
	return c.StorageBackend
}

func (c *AppConfig) GetLabeledDataPath() string {
	return c.LabeledDataPath
}

func (c *AppConfig) GetPDFsPath() string {
	return c.PDFsPath
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetTokensBucket returns the storage bucket holding PDFs and token files
func (c *AppConfig) GetTokensBucket() string {
	return c.TokensBucket
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetSaveDebounce returns the delay between the last edit and the save
func (c *AppConfig) GetSaveDebounce() time.Duration {
	return c.SaveDebounce
}

// GetUnloadSaveTimeout bounds the final save when a session closes
func (c *AppConfig) GetUnloadSaveTimeout() time.Duration {
	return c.UnloadSaveTimeout
}

// GetBackendURL returns the base URL the importer talks to
func (c *AppConfig) GetBackendURL() string {
	return c.BackendURL
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvMillisOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
