package generate_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"rabbit-moon/internal/catalog"
	"rabbit-moon/internal/generate"
	"rabbit-moon/internal/invitation"
	invitationdb "rabbit-moon/internal/invitation/db"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"
	"rabbit-moon/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

type MockTemplates struct {
	mock.Mock
}

func (m *MockTemplates) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) ResolveTransaction(ctx context.Context, orderID string) (*models.Transaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

type fakeMailer struct {
	ok       bool
	to       string
	links    []models.GuestLink
	template string
}

func (f *fakeMailer) SendInvitationLinks(ctx context.Context, to string, links []models.GuestLink, templateName string) bool {
	f.to, f.links, f.template = to, links, templateName
	return f.ok
}

type recordingEvents struct {
	batches []models.InvitationBatchEvent
}

func (r *recordingEvents) PublishInvitationBatch(ctx context.Context, ev models.InvitationBatchEvent) error {
	r.batches = append(r.batches, ev)
	return nil
}

type fixture struct {
	svc       *generate.Service
	bun       *bun.DB
	templates *MockTemplates
	payments  *MockPayments
	mailer    *fakeMailer
	events    *recordingEvents
}

func newFixture(t *testing.T) *fixture {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	_, err = bunDB.NewCreateTable().Model((*models.Invitation)(nil)).Exec(context.Background())
	require.NoError(t, err)

	f := &fixture{
		bun:       bunDB,
		templates: new(MockTemplates),
		payments:  new(MockPayments),
		mailer:    &fakeMailer{ok: true},
		events:    &recordingEvents{},
	}
	invitations := invitation.NewService(&invitationdb.DB{Bun: bunDB}, invitation.SchemaV1, logger.Discard())
	f.svc = generate.NewService(f.templates, f.payments, invitations, f.mailer, f.events,
		generate.Config{BaseURL: "https://rabbit-moon.test/", DefaultTemplateID: "basic"}, logger.Discard())

	f.templates.On("GetTemplate", mock.Anything, "basic").Return(&models.Template{ID: "basic", Name: "Basic"}, nil).Maybe()
	f.templates.On("GetTemplate", mock.Anything, "royal").Return(&models.Template{ID: "royal", Name: "Royal", IsPremium: true, Price: 150000}, nil).Maybe()
	f.templates.On("GetTemplate", mock.Anything, "ghost").Return(nil, catalog.ErrTemplateNotFound).Maybe()
	return f
}

func (f *fixture) countInvitations(t *testing.T) int {
	n, err := f.bun.NewSelect().Model((*models.Invitation)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestGenerateFreeTemplate(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Generate(context.Background(), generate.Request{
		TemplateID: "basic",
		FormData: map[string]interface{}{
			"brideName": "Ayu",
			"guests":    []interface{}{"Budi", map[string]interface{}{"name": "Ani"}, "  ", "Citra"},
		},
		MediaData: map[string]interface{}{"mainPhoto": "main.jpg"},
	})

	require.True(t, res.Success, res.Message)
	require.Len(t, res.Links, 3)
	assert.Equal(t, "Budi", res.Links[0].Guest)
	assert.True(t, strings.HasPrefix(res.Links[0].Link, "https://rabbit-moon.test/invitation/budi-"))
	assert.Equal(t, "Ani", res.Links[1].Guest)
	assert.Equal(t, 3, f.countInvitations(t))
	require.NotNil(t, res.EmailSent)
	assert.False(t, *res.EmailSent)
	assert.Nil(t, res.EmailAddress)

	require.Len(t, f.events.batches, 1)
	assert.Equal(t, models.EventInvitationsGenerated, f.events.batches[0].Type)
	assert.Equal(t, 3, f.events.batches[0].GuestCount)
	assert.Equal(t, 3, f.events.batches[0].LinkCount)
}

func TestGenerateSameGuestNameDistinctSlugs(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Generate(context.Background(), generate.Request{
		FormData: map[string]interface{}{"guests": []interface{}{"Budi", "Budi"}},
	})

	require.True(t, res.Success)
	require.Len(t, res.Links, 2)
	assert.NotEqual(t, res.Links[0].Link, res.Links[1].Link)
}

func TestGenerateDefaultTemplateMissing(t *testing.T) {
	f := newFixture(t)
	templates := new(MockTemplates)
	templates.On("GetTemplate", mock.Anything, "basic").Return(nil, catalog.ErrTemplateNotFound)
	invitations := invitation.NewService(&invitationdb.DB{Bun: f.bun}, invitation.SchemaV1, logger.Discard())
	svc := generate.NewService(templates, f.payments, invitations, f.mailer, f.events,
		generate.Config{BaseURL: "https://rabbit-moon.test", DefaultTemplateID: "basic"}, logger.Discard())

	res := svc.Generate(context.Background(), generate.Request{
		FormData:  map[string]interface{}{"guests": "Budi"},
		UserEmail: "user@example.com",
	})

	require.True(t, res.Success)
	assert.Equal(t, "Basic Template", f.mailer.template)
	assert.True(t, *res.EmailSent)
	assert.Equal(t, "user@example.com", *res.EmailAddress)
}

func TestGenerateUnknownTemplate(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Generate(context.Background(), generate.Request{
		TemplateID: "ghost",
		FormData:   map[string]interface{}{"guests": []interface{}{"Budi"}},
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Template tidak ditemukan.", res.Message)
	assert.Equal(t, 0, f.countInvitations(t))
}

func TestGeneratePremiumRequiresPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("no order id", func(t *testing.T) {
		f := newFixture(t)
		res := f.svc.Generate(ctx, generate.Request{TemplateID: "royal", FormData: map[string]interface{}{"guests": "Budi"}})

		assert.False(t, res.Success)
		assert.Equal(t, "Pembayaran diperlukan untuk template premium", res.Message)
		assert.Equal(t, 0, f.countInvitations(t))
	})

	t.Run("pending order", func(t *testing.T) {
		f := newFixture(t)
		f.payments.On("ResolveTransaction", mock.Anything, "O1").
			Return(&models.Transaction{OrderID: "O1", TemplateID: "royal", Status: models.StatusPending}, nil)

		res := f.svc.Generate(ctx, generate.Request{TemplateID: "royal", OrderID: "O1", FormData: map[string]interface{}{"guests": "Budi"}})

		assert.False(t, res.Success)
		assert.Equal(t, "Verifikasi pembayaran gagal. Status: pending", res.Message)
		assert.Equal(t, 0, f.countInvitations(t))
		assert.Empty(t, f.events.batches)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)
		f.payments.On("ResolveTransaction", mock.Anything, "nope").Return(nil, payment.ErrTransactionNotFound)

		res := f.svc.Generate(ctx, generate.Request{TemplateID: "royal", OrderID: "nope", FormData: map[string]interface{}{"guests": "Budi"}})

		assert.False(t, res.Success)
		assert.Equal(t, "Verifikasi pembayaran gagal. Status: failed", res.Message)
	})

	t.Run("order paid for another template", func(t *testing.T) {
		f := newFixture(t)
		f.payments.On("ResolveTransaction", mock.Anything, "O2").
			Return(&models.Transaction{OrderID: "O2", TemplateID: "elegant", Status: models.StatusSuccess}, nil)

		res := f.svc.Generate(ctx, generate.Request{TemplateID: "royal", OrderID: "O2", FormData: map[string]interface{}{"guests": "Budi"}})

		assert.False(t, res.Success)
		assert.Equal(t, 0, f.countInvitations(t))
	})

	t.Run("paid order", func(t *testing.T) {
		f := newFixture(t)
		f.payments.On("ResolveTransaction", mock.Anything, "O3").
			Return(&models.Transaction{OrderID: "O3", TemplateID: "royal", Status: models.StatusSuccess}, nil)

		res := f.svc.Generate(ctx, generate.Request{TemplateID: "royal", OrderID: "O3", FormData: map[string]interface{}{"guests": `["Budi","Ani"]`}})

		require.True(t, res.Success)
		assert.Len(t, res.Links, 2)
		require.Len(t, f.events.batches, 1)
		assert.Equal(t, "O3", f.events.batches[0].OrderID)

		var orderIDs []string
		require.NoError(t, f.bun.NewSelect().Model((*models.Invitation)(nil)).Column("order_id").Scan(ctx, &orderIDs))
		assert.Equal(t, []string{"O3", "O3"}, orderIDs)
	})
}

func TestGenerateEmptyGuests(t *testing.T) {
	f := newFixture(t)

	for _, guests := range []interface{}{nil, "", []interface{}{}, []interface{}{" ", nil}} {
		res := f.svc.Generate(context.Background(), generate.Request{FormData: map[string]interface{}{"guests": guests}})
		assert.False(t, res.Success)
		assert.Equal(t, "Daftar tamu tidak boleh kosong", res.Message)
	}
}

type flakyInvitations struct {
	fail map[string]bool
	n    int
}

func (f *flakyInvitations) Create(ctx context.Context, req invitation.CreateRequest) (*invitation.Created, error) {
	if f.fail[req.Guest] {
		return nil, errors.New("insert failed")
	}
	f.n++
	return &invitation.Created{ID: "id", Slug: strings.ToLower(req.Guest)}, nil
}

func TestGenerateSkipsPersistenceFailures(t *testing.T) {
	f := newFixture(t)
	store := &flakyInvitations{fail: map[string]bool{"Ani": true}}
	svc := generate.NewService(f.templates, f.payments, store, f.mailer, f.events,
		generate.Config{BaseURL: "https://rabbit-moon.test", DefaultTemplateID: "basic"}, logger.Discard())

	res := svc.Generate(context.Background(), generate.Request{
		FormData:  map[string]interface{}{"guests": []interface{}{"Budi", "Ani"}},
		UserEmail: "user@example.com",
	})
	require.True(t, res.Success)
	require.Len(t, res.Links, 1)
	assert.Equal(t, "https://rabbit-moon.test/invitation/budi", res.Links[0].Link)
	assert.Equal(t, res.Links, f.mailer.links)
	assert.Equal(t, 2, f.events.batches[0].GuestCount)
	assert.Equal(t, 1, f.events.batches[0].LinkCount)

	allFail := &flakyInvitations{fail: map[string]bool{"Budi": true}}
	svc = generate.NewService(f.templates, f.payments, allFail, f.mailer, f.events,
		generate.Config{BaseURL: "https://rabbit-moon.test", DefaultTemplateID: "basic"}, logger.Discard())
	res = svc.Generate(context.Background(), generate.Request{FormData: map[string]interface{}{"guests": "Budi"}})
	assert.False(t, res.Success)
	assert.Equal(t, "Tidak ada tautan yang dibuat. Pastikan daftar tamu tidak kosong dan ada minimal satu nama yang valid.", res.Message)
}

func TestNormalizeGuests(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"array", []interface{}{"Budi", " Ani "}, []string{"Budi", "Ani"}},
		{"objects", []interface{}{map[string]interface{}{"name": "Budi"}, map[string]interface{}{"email": "x"}}, []string{"Budi"}},
		{"single object", map[string]interface{}{"name": "Citra"}, []string{"Citra"}},
		{"plain string", "Budi Santoso", []string{"Budi Santoso"}},
		{"json string", `["Budi","Ani"]`, []string{"Budi", "Ani"}},
		{"numbers", []interface{}{float64(7)}, []string{"7"}},
		{"blanks", []interface{}{"", "  ", nil}, []string{}},
		{"nil", nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := generate.NormalizeGuests(c.in)
			if len(c.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, c.want, got)
		})
	}
}
