package invitation_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"rabbit-moon/internal/catalog"
	"rabbit-moon/internal/invitation"
	"rabbit-moon/internal/invitation/qr"
	"rabbit-moon/internal/invitation/render"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"
	"rabbit-moon/internal/utils"

	"github.com/go-chi/chi/v5"
)

type InvitationLookup interface {
	GetBySlug(ctx context.Context, slug string) (*models.Invitation, error)
}

type TemplateBodies interface {
	GetTemplateBody(ctx context.Context, id string) (string, error)
}

type Handler struct {
	Invitations InvitationLookup
	Templates   TemplateBodies
	QRGenerator *qr.QRGenerator
	Logger      *logger.Logger
}

func NewHandler(invitations InvitationLookup, templates TemplateBodies, qrGen *qr.QRGenerator, logger *logger.Logger) *Handler {
	return &Handler{Invitations: invitations, Templates: templates, QRGenerator: qrGen, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/invitation/{slug}", h.ShowInvitation)
	r.Get("/invitation/{slug}/qr.png", h.InvitationQR)
}

func (h *Handler) ShowInvitation(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	inv, err := h.Invitations.GetBySlug(r.Context(), slug)
	if errors.Is(err, invitation.ErrInvitationNotFound) {
		utils.WriteText(w, http.StatusNotFound, "Undangan tidak ditemukan.")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ShowInvitation: slug=%s: %v", slug, err))
		utils.WriteText(w, http.StatusInternalServerError, "Terjadi kesalahan saat menampilkan undangan.")
		return
	}

	body, err := h.Templates.GetTemplateBody(r.Context(), inv.TemplateID)
	if errors.Is(err, catalog.ErrTemplateNotFound) {
		h.Logger.Warn("INVITATION", fmt.Sprintf("Invitation %s references missing template %s", slug, inv.TemplateID))
		utils.WriteText(w, http.StatusNotFound, "Template tidak ditemukan.")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ShowInvitation: template=%s: %v", inv.TemplateID, err))
		utils.WriteText(w, http.StatusInternalServerError, "Terjadi kesalahan saat menampilkan undangan.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.Render(*inv, body)))
}

func (h *Handler) InvitationQR(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if _, err := h.Invitations.GetBySlug(r.Context(), slug); err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			utils.WriteText(w, http.StatusNotFound, "Undangan tidak ditemukan.")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("InvitationQR: slug=%s: %v", slug, err))
		utils.WriteText(w, http.StatusInternalServerError, "Terjadi kesalahan saat menampilkan undangan.")
		return
	}

	png, err := h.QRGenerator.InvitationPNG(slug)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("InvitationQR: encode %s: %v", slug, err))
		utils.WriteText(w, http.StatusInternalServerError, "Gagal membuat kode QR.")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
