package invitation_api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rabbit-moon/internal/catalog"
	"rabbit-moon/internal/invitation"
	"rabbit-moon/internal/invitation/invitation_api"
	"rabbit-moon/internal/invitation/qr"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockInvitations struct {
	mock.Mock
}

func (m *MockInvitations) GetBySlug(ctx context.Context, slug string) (*models.Invitation, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

type MockTemplates struct {
	mock.Mock
}

func (m *MockTemplates) GetTemplateBody(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func setup() (chi.Router, *MockInvitations, *MockTemplates) {
	invitations := new(MockInvitations)
	templates := new(MockTemplates)
	h := invitation_api.NewHandler(invitations, templates, qr.NewQRGenerator("https://rabbit-moon.test", 128), logger.Discard())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, invitations, templates
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestShowInvitation(t *testing.T) {
	r, invitations, templates := setup()
	invitations.On("GetBySlug", mock.Anything, "budi-1").
		Return(&models.Invitation{Slug: "budi-1", TemplateID: "basic", GuestName: "Budi"}, nil)
	templates.On("GetTemplateBody", mock.Anything, "basic").Return("<h1>Halo {{guest}}</h1>", nil)

	rec := get(r, "/invitation/budi-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<h1>Halo Budi</h1>", rec.Body.String())
}

func TestShowInvitationErrors(t *testing.T) {
	r, invitations, templates := setup()
	invitations.On("GetBySlug", mock.Anything, "unknown-slug").Return(nil, invitation.ErrInvitationNotFound)
	invitations.On("GetBySlug", mock.Anything, "orphan").Return(&models.Invitation{Slug: "orphan", TemplateID: "gone"}, nil)
	invitations.On("GetBySlug", mock.Anything, "broken").Return(nil, errors.New("connection reset"))
	templates.On("GetTemplateBody", mock.Anything, "gone").Return("", catalog.ErrTemplateNotFound)

	rec := get(r, "/invitation/unknown-slug")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Undangan tidak ditemukan.", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = get(r, "/invitation/orphan")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Template tidak ditemukan.", rec.Body.String())

	rec = get(r, "/invitation/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Terjadi kesalahan saat menampilkan undangan.", rec.Body.String())
}

func TestInvitationQR(t *testing.T) {
	r, invitations, _ := setup()
	invitations.On("GetBySlug", mock.Anything, "budi-1").Return(&models.Invitation{Slug: "budi-1"}, nil)
	invitations.On("GetBySlug", mock.Anything, "nope").Return(nil, invitation.ErrInvitationNotFound)

	rec := get(r, "/invitation/budi-1/qr.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = get(r, "/invitation/nope/qr.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQRLink(t *testing.T) {
	gen := qr.NewQRGenerator("https://rabbit-moon.test/", 0)
	assert.Equal(t, "https://rabbit-moon.test/invitation/budi-1", gen.Link("budi-1"))
}
