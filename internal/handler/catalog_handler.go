package handler

import (
	"net/http"
	"strconv"

	"pdf-layout-annotator/internal/domain"

	"github.com/gorilla/mux"
)

// CatalogHandler serves tasks, datasets, the active selection and document
// triage.
type CatalogHandler struct {
	catalogService domain.CatalogService
	logger         domain.Logger
}

func NewCatalogHandler(catalogService domain.CatalogService, logger domain.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

func (h *CatalogHandler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.catalogService.Datasets(r.Context(), mux.Vars(r)["task"])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list datasets")
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (h *CatalogHandler) GetActiveTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.catalogService.ActiveTask(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get active task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task": task})
}

func (h *CatalogHandler) GetActiveDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.catalogService.ActiveDataset(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get active dataset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dataset": dataset})
}

func (h *CatalogHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.catalogService.SetActive(r.Context(), vars["task"], vars["dataset"]); err != nil {
		writeServiceError(w, h.logger, err, "Failed to set active dataset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	docs, err := h.catalogService.Documents(r.Context(), vars["task"], vars["dataset"])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// SetFinished handles PUT .../finished/{value}.
func (h *CatalogHandler) SetFinished(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.StatusFinished)
}

// SetJunk handles PUT .../junk/{value}.
func (h *CatalogHandler) SetJunk(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.StatusJunk)
}

func (h *CatalogHandler) setStatus(w http.ResponseWriter, r *http.Request, flag domain.StatusFlag) {
	value, err := strconv.ParseBool(mux.Vars(r)["value"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Status value must be true or false")
		return
	}
	if err := h.catalogService.SetStatus(r.Context(), documentRef(r), flag, value); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteJunkDocument(w http.ResponseWriter, r *http.Request) {
	ref := documentRef(r)
	if err := h.catalogService.DeleteJunk(r.Context(), ref); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete document")
		return
	}
	annotator, _ := GetAnnotatorFromContext(r)
	h.logger.Info("Junk document deleted", "document", ref.String(), "annotator", annotator)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteAllJunk(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deleted, err := h.catalogService.DeleteAllJunk(r.Context(), vars["task"], vars["dataset"])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete junk documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
