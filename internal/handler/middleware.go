package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pdf-layout-annotator/internal/domain"
)

// AnnotatorHeader carries the reviewer identity set by the auth proxy.
const AnnotatorHeader = "X-Auth-Request-Email"

// anonymousAnnotator is used when the proxy sends no identity.
const anonymousAnnotator = "anonymous"

// AnnotatorMiddleware stores the reviewer identity in the request context.
func AnnotatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotator := strings.TrimSpace(r.Header.Get(AnnotatorHeader))
		if annotator == "" {
			annotator = anonymousAnnotator
		}
		ctx := context.WithValue(r.Context(), annotatorContextKey, annotator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request.
func RequestLogger(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			annotator, _ := GetAnnotatorFromContext(r)
			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if annotator != "" {
				fields = append(fields, "annotator", annotator)
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Warn("Request failed", fields...)
				return
			}
			logger.Debug("Request served", fields...)
		})
	}
}
