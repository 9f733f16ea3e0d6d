// Package generate turns one form submission into a batch of per-guest
// invitations.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rabbit-moon/internal/catalog"
	"rabbit-moon/internal/invitation"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"
	"rabbit-moon/internal/payment"
)

const (
	msgPaymentRequired = "Pembayaran diperlukan untuk template premium"
	msgPaymentFailed   = "Verifikasi pembayaran gagal. Status: "
	msgPaymentMismatch = "Pembayaran tidak sesuai dengan template yang dipilih"
	msgTemplateMissing = "Template tidak ditemukan."
	msgTemplateError   = "Gagal memeriksa template atau pembayaran."
	msgNoGuests        = "Daftar tamu tidak boleh kosong"
	msgNoLinks         = "Tidak ada tautan yang dibuat. Pastikan daftar tamu tidak kosong dan ada minimal satu nama yang valid."

	basicTemplateName = "Basic Template"
)

type Templates interface {
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
}

type Payments interface {
	ResolveTransaction(ctx context.Context, orderID string) (*models.Transaction, error)
}

type Invitations interface {
	Create(ctx context.Context, req invitation.CreateRequest) (*invitation.Created, error)
}

type Mailer interface {
	SendInvitationLinks(ctx context.Context, to string, links []models.GuestLink, templateName string) bool
}

type EventPublisher interface {
	PublishInvitationBatch(ctx context.Context, ev models.InvitationBatchEvent) error
}

type Config struct {
	BaseURL           string
	DefaultTemplateID string
}

type Service struct {
	templates   Templates
	payments    Payments
	invitations Invitations
	mailer      Mailer
	events      EventPublisher
	cfg         Config
	logger      *logger.Logger
}

func NewService(templates Templates, payments Payments, invitations Invitations, mailer Mailer, events EventPublisher, cfg Config, log *logger.Logger) *Service {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{
		templates:   templates,
		payments:    payments,
		invitations: invitations,
		mailer:      mailer,
		events:      events,
		cfg:         cfg,
		logger:      log,
	}
}

type Request struct {
	TemplateID string                 `json:"templateId"`
	OrderID    string                 `json:"orderId"`
	FormData   map[string]interface{} `json:"formData"`
	MediaData  map[string]interface{} `json:"mediaData"`
	UserEmail  string                 `json:"userEmail"`
}

// Result is the body of the generate response. Business failures are
// reported with Success false and a Message, not as errors.
type Result struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message,omitempty"`
	Links        []models.GuestLink `json:"links,omitempty"`
	EmailSent    *bool              `json:"emailSent,omitempty"`
	EmailAddress *string            `json:"emailAddress,omitempty"`
}

func failure(message string) *Result {
	return &Result{Success: false, Message: message}
}

// Generate creates one invitation per guest and returns their links.
func (s *Service) Generate(ctx context.Context, req Request) *Result {
	template, res := s.resolveTemplate(ctx, req.TemplateID)
	if res != nil {
		return res
	}

	orderID := ""
	if template.IsPremium {
		if res := s.verifyPayment(ctx, template, req.OrderID); res != nil {
			return res
		}
		orderID = strings.TrimSpace(req.OrderID)
	}

	guests := NormalizeGuests(req.FormData["guests"])
	if len(guests) == 0 {
		s.logger.Warn("INVITATION", "Generate called with an empty guest list")
		return failure(msgNoGuests)
	}

	media := invitation.ParseMedia(req.MediaData)

	links := make([]models.GuestLink, 0, len(guests))
	for _, guest := range guests {
		created, err := s.invitations.Create(ctx, invitation.CreateRequest{
			Guest:      guest,
			TemplateID: template.ID,
			OrderID:    orderID,
			FormData:   req.FormData,
			Media:      media,
		})
		if err != nil {
			s.logger.Error("INVITATION", fmt.Sprintf("Skipping guest %q: %v", guest, err))
			continue
		}
		links = append(links, models.GuestLink{
			Guest: guest,
			Link:  fmt.Sprintf("%s/invitation/%s", s.cfg.BaseURL, created.Slug),
		})
	}

	if len(links) == 0 {
		s.logger.Warn("INVITATION", fmt.Sprintf("No invitations created for %d guests", len(guests)))
		return failure(msgNoLinks)
	}

	email := strings.TrimSpace(req.UserEmail)
	emailSent := false
	if email != "" {
		emailSent = s.mailer.SendInvitationLinks(ctx, email, links, template.Name)
	}

	s.logger.Info("INVITATION", fmt.Sprintf("Generated %d/%d invitations with template %s (email sent: %t)", len(links), len(guests), template.ID, emailSent))

	ev := models.InvitationBatchEvent{
		Type:       models.EventInvitationsGenerated,
		TemplateID: template.ID,
		OrderID:    orderID,
		GuestCount: len(guests),
		LinkCount:  len(links),
		EmailSent:  emailSent,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishInvitationBatch(ctx, ev); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("Publish %s failed: %v", ev.Type, err))
	}

	result := &Result{Success: true, Links: links, EmailSent: &emailSent}
	if email != "" {
		result.EmailAddress = &email
	}
	return result
}

func (s *Service) resolveTemplate(ctx context.Context, templateID string) (*models.Template, *Result) {
	templateID = strings.TrimSpace(templateID)
	explicit := templateID != ""
	if !explicit {
		templateID = s.cfg.DefaultTemplateID
	}

	template, err := s.templates.GetTemplate(ctx, templateID)
	switch {
	case err == nil:
		return template, nil
	case errors.Is(err, catalog.ErrTemplateNotFound) && !explicit:
		return &models.Template{ID: templateID, Name: basicTemplateName}, nil
	case errors.Is(err, catalog.ErrTemplateNotFound):
		s.logger.Warn("INVITATION", fmt.Sprintf("Generate requested unknown template %s", templateID))
		return nil, failure(msgTemplateMissing)
	default:
		s.logger.Error("INVITATION", fmt.Sprintf("Lookup template %s: %v", templateID, err))
		return nil, failure(msgTemplateError)
	}
}

func (s *Service) verifyPayment(ctx context.Context, template *models.Template, orderID string) *Result {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Premium template %s requested without an order id", template.ID))
		return failure(msgPaymentRequired)
	}

	tx, err := s.payments.ResolveTransaction(ctx, orderID)
	if errors.Is(err, payment.ErrTransactionNotFound) {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Order %s not found for premium template %s", orderID, template.ID))
		return failure(msgPaymentFailed + string(models.StatusFailed))
	}
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Resolve order %s: %v", orderID, err))
		return failure(msgTemplateError)
	}

	if tx.Status != models.StatusSuccess {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Order %s is %s, refusing premium template %s", orderID, tx.Status, template.ID))
		return failure(msgPaymentFailed + string(tx.Status))
	}
	if tx.TemplateID != template.ID {
		s.logger.LogSecurity("ORDER_TEMPLATE_MISMATCH", fmt.Sprintf("order %s paid for %s but requested %s", orderID, tx.TemplateID, template.ID))
		return failure(msgPaymentMismatch)
	}
	return nil
}
