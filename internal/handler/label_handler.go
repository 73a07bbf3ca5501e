package handler

import (
	"net/http"

	"pdf-layout-annotator/internal/domain"

	"github.com/gorilla/mux"
)

// LabelHandler serves a task's label palette.
type LabelHandler struct {
	labelService domain.LabelService
	logger       domain.Logger
}

func NewLabelHandler(labelService domain.LabelService, logger domain.Logger) *LabelHandler {
	return &LabelHandler{
		labelService: labelService,
		logger:       logger,
	}
}

func (h *LabelHandler) GetLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.labelService.Labels(r.Context(), mux.Vars(r)["task"])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get labels")
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

func (h *LabelHandler) SaveLabels(w http.ResponseWriter, r *http.Request) {
	var labels []domain.Label
	if err := decodeJSON(w, r, &labels); err != nil {
		writeServiceError(w, h.logger, err, "Invalid labels")
		return
	}

	saved, err := h.labelService.SaveLabels(r.Context(), mux.Vars(r)["task"], labels)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to save labels")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
