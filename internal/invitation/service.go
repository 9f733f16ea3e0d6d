package invitation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	invitationdb "rabbit-moon/internal/invitation/db"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const maxSlugAttempts = 20

var (
	ErrInvitationNotFound = invitationdb.ErrInvitationNotFound
	// ErrSlugTaken is what a Store returns when the slug was inserted by
	// someone else first.
	ErrSlugTaken = invitationdb.ErrSlugTaken
)

type Store interface {
	CreateInvitation(ctx context.Context, inv models.Invitation) error
	GetInvitationBySlug(ctx context.Context, slug string) (*models.Invitation, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type Service struct {
	store  Store
	schema FieldSchema
	logger *logger.Logger
	now    func() time.Time
}

func NewService(store Store, schema FieldSchema, log *logger.Logger) *Service {
	return &Service{store: store, schema: schema, logger: log, now: time.Now}
}

// CreateRequest is one guest's invitation within a generation batch.
type CreateRequest struct {
	Guest      string
	TemplateID string
	OrderID    string
	FormData   map[string]interface{}
	Media      models.MediaLinks
}

type Created struct {
	ID   string
	Slug string
}

func (s *Service) Schema() FieldSchema {
	return s.schema
}

// Create stores an invitation under a fresh slug derived from the guest name.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Created, error) {
	guest := strings.TrimSpace(req.Guest)
	if guest == "" {
		return nil, errors.New("guest name is required")
	}

	fields, ignored := s.schema.Filter(req.FormData)
	if len(ignored) > 0 {
		s.logger.Warn("INVITATION", fmt.Sprintf("Ignoring form fields not in schema v%d: %s", s.schema.Version, strings.Join(ignored, ", ")))
	}

	inv := models.Invitation{
		ID:            uuid.NewString(),
		TemplateID:    req.TemplateID,
		GuestName:     guest,
		OrderID:       req.OrderID,
		SchemaVersion: s.schema.Version,
		FormFields:    fields,
		CreatedAt:     s.now().UTC(),
	}
	inv.SetMedia(req.Media)

	if err := s.insertWithFreeSlug(ctx, &inv); err != nil {
		return nil, err
	}
	s.logger.LogInvitation("CREATE", inv.Slug, fmt.Sprintf("guest=%q template=%s", guest, inv.TemplateID))

	return &Created{ID: inv.ID, Slug: inv.Slug}, nil
}

func (s *Service) GetBySlug(ctx context.Context, invSlug string) (*models.Invitation, error) {
	return s.store.GetInvitationBySlug(ctx, invSlug)
}

// insertWithFreeSlug stores inv under the first free slug of
// <guest>-<unix-ms>, <guest>-<unix-ms>-2, ... A slug taken by a concurrent
// insert after the existence check moves on to the next suffix.
func (s *Service) insertWithFreeSlug(ctx context.Context, inv *models.Invitation) error {
	base := slug.Make(fmt.Sprintf("%s-%d", inv.GuestName, s.now().UnixMilli()))

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}

		exists, err := s.store.SlugExists(ctx, candidate)
		if err != nil {
			return fmt.Errorf("check slug %s: %w", candidate, err)
		}
		if exists {
			continue
		}

		inv.Slug = candidate
		err = s.store.CreateInvitation(ctx, *inv)
		if errors.Is(err, ErrSlugTaken) {
			s.logger.Debug("INVITATION", fmt.Sprintf("Slug %s taken by a concurrent insert, trying the next one", candidate))
			continue
		}
		if err != nil {
			return fmt.Errorf("save invitation for %q: %w", inv.GuestName, err)
		}
		return nil
	}
	return fmt.Errorf("no free slug for %q after %d attempts", inv.GuestName, maxSlugAttempts)
}
