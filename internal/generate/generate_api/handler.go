package generate_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"rabbit-moon/internal/generate"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Generator *generate.Service
	Logger    *logger.Logger
}

func NewHandler(svc *generate.Service, logger *logger.Logger) *Handler {
	return &Handler{Generator: svc, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/generate", h.Generate)
}

// Generate answers 200 for every decodable request; business failures are
// carried in the body.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Generate: undecodable body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Format permintaan tidak valid.")
		return
	}
	if req.FormData == nil {
		req.FormData = map[string]interface{}{}
	}

	utils.WriteJSON(w, http.StatusOK, h.Generator.Generate(r.Context(), req))
}
