package catalog_api

import (
	"errors"
	"fmt"
	"net/http"

	"rabbit-moon/internal/catalog"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Catalog *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(svc *catalog.Service, logger *logger.Logger) *Handler {
	return &Handler{Catalog: svc, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/templates", h.ListTemplates)
	r.Get("/template/{templateId}/info", h.GetTemplateInfo)
	r.Get("/template/{templateId}", h.GetTemplatePreview)
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Catalog.ListTemplates(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTemplates: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Gagal mengambil data template.")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"templates": templates,
	})
}

func (h *Handler) GetTemplateInfo(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")

	kind, err := catalog.ParseKeyKind(r.URL.Query().Get("by"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Parameter 'by' harus 'id' atau 'name'.")
		return
	}

	info, err := h.Catalog.GetTemplateInfo(r.Context(), catalog.LookupKey{Kind: kind, Value: templateID})
	if errors.Is(err, catalog.ErrTemplateNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Template tidak ditemukan.")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTemplateInfo: templateId=%s: %v", templateID, err))
		utils.WriteError(w, http.StatusInternalServerError, "Gagal mengambil info template.")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"template": info,
	})
}

func (h *Handler) GetTemplatePreview(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")

	body, err := h.Catalog.GetTemplateBody(r.Context(), templateID)
	if errors.Is(err, catalog.ErrTemplateNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Template tidak ditemukan.")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTemplatePreview: templateId=%s: %v", templateID, err))
		utils.WriteError(w, http.StatusInternalServerError, "Gagal memuat preview template.")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"template": body,
	})
}
