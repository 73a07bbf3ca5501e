package handler

import (
	"net/http"
	"strconv"

	"pdf-layout-annotator/internal/domain"

	"github.com/gorilla/mux"
)

// AnnotationHandler serves a document's annotation set and its reading
// order operations.
type AnnotationHandler struct {
	annotationService   domain.AnnotationService
	readingOrderService domain.ReadingOrderService
	logger              domain.Logger
}

func NewAnnotationHandler(annotationService domain.AnnotationService, readingOrderService domain.ReadingOrderService, logger domain.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		annotationService:   annotationService,
		readingOrderService: readingOrderService,
		logger:              logger,
	}
}

func (h *AnnotationHandler) GetAnnotations(w http.ResponseWriter, r *http.Request) {
	set, err := h.annotationService.Annotations(r.Context(), documentRef(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load annotations")
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *AnnotationHandler) SaveAnnotations(w http.ResponseWriter, r *http.Request) {
	var set domain.PdfAnnotations
	if err := decodeJSON(w, r, &set); err != nil {
		writeServiceError(w, h.logger, err, "Invalid annotations")
		return
	}

	if err := h.annotationService.SaveAnnotations(r.Context(), documentRef(r), set); err != nil {
		writeServiceError(w, h.logger, err, "Failed to save annotations")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderRegion handles POST .../reading-order with the drawn region as body.
func (h *AnnotationHandler) ReorderRegion(w http.ResponseWriter, r *http.Request) {
	var region domain.Annotation
	if err := decodeJSON(w, r, &region); err != nil {
		writeServiceError(w, h.logger, err, "Invalid region")
		return
	}

	set, err := h.readingOrderService.ReorderRegion(r.Context(), documentRef(r), region)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to reorder")
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// ReorderToPosition handles POST .../reading-order/{position}.
func (h *AnnotationHandler) ReorderToPosition(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(mux.Vars(r)["position"])
	if err != nil {
		writeServiceError(w, h.logger, domain.ErrInvalidPosition, "Invalid position")
		return
	}

	var annotation domain.Annotation
	if err := decodeJSON(w, r, &annotation); err != nil {
		writeServiceError(w, h.logger, err, "Invalid annotation")
		return
	}

	set, err := h.readingOrderService.ReorderToPosition(r.Context(), documentRef(r), annotation, position)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to reorder")
		return
	}
	writeJSON(w, http.StatusOK, set)
}
