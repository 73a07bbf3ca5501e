package handler

import (
	"net/http"

	"pdf-layout-annotator/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Handlers groups the route handlers mounted under /api/v1.
type Handlers struct {
	Catalog    *CatalogHandler
	Labels     *LabelHandler
	Annotation *AnnotationHandler
	Source     *SourceHandler
}

var defaultAllowedOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"http://localhost:4173", // Vite preview
	"http://localhost:3000",
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, allowedOrigins []string, logger domain.Logger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"pdf-layout-annotator"}`))
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(AnnotatorMiddleware, RequestLogger(logger))

	api.HandleFunc("/tasks/{task}/datasets", h.Catalog.GetDatasets).Methods("GET")
	api.HandleFunc("/active/task", h.Catalog.GetActiveTask).Methods("GET")
	api.HandleFunc("/active/dataset", h.Catalog.GetActiveDataset).Methods("GET")
	api.HandleFunc("/active/{task}/{dataset}", h.Catalog.SetActive).Methods("PUT")

	api.HandleFunc("/tasks/{task}/labels", h.Labels.GetLabels).Methods("GET")
	api.HandleFunc("/tasks/{task}/labels", h.Labels.SaveLabels).Methods("PUT")

	api.HandleFunc("/documents/{name}/tokens", h.Source.GetTokens).Methods("GET")
	api.HandleFunc("/documents/{name}/pdf", h.Source.GetPDF).Methods("GET")

	dataset := api.PathPrefix("/tasks/{task}/datasets/{dataset}").Subrouter()
	dataset.HandleFunc("/documents", h.Catalog.GetDocuments).Methods("GET")
	dataset.HandleFunc("/junk", h.Catalog.DeleteAllJunk).Methods("DELETE")
	dataset.HandleFunc("/documents/{name}", h.Catalog.DeleteJunkDocument).Methods("DELETE")

	doc := dataset.PathPrefix("/documents/{name}").Subrouter()
	doc.HandleFunc("/annotations", h.Annotation.GetAnnotations).Methods("GET")
	doc.HandleFunc("/annotations", h.Annotation.SaveAnnotations).Methods("PUT")
	doc.HandleFunc("/reading-order", h.Annotation.ReorderRegion).Methods("POST")
	doc.HandleFunc("/reading-order/{position}", h.Annotation.ReorderToPosition).Methods("POST")
	doc.HandleFunc("/finished/{value}", h.Catalog.SetFinished).Methods("PUT")
	doc.HandleFunc("/junk/{value}", h.Catalog.SetJunk).Methods("PUT")

	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultAllowedOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			AnnotatorHeader,
		},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler(router)
}
