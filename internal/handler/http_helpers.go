package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"

	"github.com/gorilla/mux"
)

type contextKey string

const annotatorContextKey contextKey = "annotator"

// maxBodyBytes bounds JSON request bodies; large documents carry many
// thousands of token annotations.
const maxBodyBytes = 32 << 20

// GetAnnotatorFromContext returns the reviewer identity set by AnnotatorMiddleware.
func GetAnnotatorFromContext(r *http.Request) (string, bool) {
	annotator, ok := r.Context().Value(annotatorContextKey).(string)
	return annotator, ok
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps domain and application errors to a status code.
// Unexpected errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, logger domain.Logger, err error, message string) {
	var validation *domain.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, domain.ErrInvalidPosition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrTokensNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrDatasetNotFound),
		errors.Is(err, domain.ErrNoActiveTask):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotJunk):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &appErr):
		if appErr.StatusCode >= http.StatusInternalServerError {
			logger.Error(message, err)
		}
		writeError(w, appErr.StatusCode, appErr.Message)
	default:
		logger.Error(message, err)
		writeError(w, http.StatusInternalServerError, message)
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// documentRef reads the task, dataset and name path variables.
func documentRef(r *http.Request) domain.DocumentRef {
	vars := mux.Vars(r)
	return domain.DocumentRef{
		Task:    vars["task"],
		Dataset: vars["dataset"],
		Name:    vars["name"],
	}
}
