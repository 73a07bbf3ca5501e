package handler

import (
	"io"
	"net/http"

	"pdf-layout-annotator/internal/domain"

	"github.com/gorilla/mux"
)

// SourceHandler serves a document's PDF and its page tokens.
type SourceHandler struct {
	sourceService domain.SourceService
	logger        domain.Logger
}

func NewSourceHandler(sourceService domain.SourceService, logger domain.Logger) *SourceHandler {
	return &SourceHandler{
		sourceService: sourceService,
		logger:        logger,
	}
}

func (h *SourceHandler) GetTokens(w http.ResponseWriter, r *http.Request) {
	pages, err := h.sourceService.Tokens(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load tokens")
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *SourceHandler) GetPDF(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	rc, err := h.sourceService.PDF(r.Context(), name)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to open document")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("PDF stream interrupted", "document", name, "error", err)
	}
}
