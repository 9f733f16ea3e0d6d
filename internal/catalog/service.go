package catalog

import (
	"context"
	"fmt"
	"strings"

	catalogdb "rabbit-moon/internal/catalog/db"
	"rabbit-moon/internal/models"
)

var ErrTemplateNotFound = catalogdb.ErrTemplateNotFound

type Store interface {
	ListTemplates(ctx context.Context) ([]models.Template, error)
	GetTemplateByID(ctx context.Context, id string) (*models.Template, error)
	GetTemplateByName(ctx context.Context, name string) (*models.Template, error)
}

// KeyKind says which template column a lookup value refers to.
type KeyKind int

const (
	ByID KeyKind = iota
	ByName
)

type LookupKey struct {
	Kind  KeyKind
	Value string
}

// ParseKeyKind maps the ?by= query value; empty means id.
func ParseKeyKind(s string) (KeyKind, error) {
	switch strings.ToLower(s) {
	case "", "id":
		return ByID, nil
	case "name":
		return ByName, nil
	default:
		return ByID, fmt.Errorf("unknown template key kind %q", s)
	}
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListTemplates(ctx context.Context) ([]models.TemplateInfo, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	infos := make([]models.TemplateInfo, 0, len(templates))
	for _, t := range templates {
		infos = append(infos, t.Info())
	}
	return infos, nil
}

func (s *Service) GetTemplateInfo(ctx context.Context, key LookupKey) (*models.TemplateInfo, error) {
	if strings.TrimSpace(key.Value) == "" {
		return nil, ErrTemplateNotFound
	}

	var (
		t   *models.Template
		err error
	)
	switch key.Kind {
	case ByName:
		t, err = s.store.GetTemplateByName(ctx, key.Value)
	default:
		t, err = s.store.GetTemplateByID(ctx, key.Value)
	}
	if err != nil {
		return nil, err
	}

	info := t.Info()
	return &info, nil
}

func (s *Service) GetTemplateBody(ctx context.Context, id string) (string, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return "", err
	}
	return t.HTMLBody, nil
}

// GetTemplate returns the full catalog entry, body included.
func (s *Service) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrTemplateNotFound
	}
	return s.store.GetTemplateByID(ctx, id)
}
