package payment_api_test

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"
	"rabbit-moon/internal/payment"
	"rabbit-moon/internal/payment/payment_api"
	"rabbit-moon/internal/sse"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveTransaction(ctx context.Context, orderID string) (*models.Transaction, error) {
	args := m.Called(ctx, orderID)
	if tx := args.Get(0); tx != nil {
		return tx.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func streamServer(t *testing.T, resolver *MockResolver, broker *sse.StatusBroker) *httptest.Server {
	r := chi.NewRouter()
	r.Route("/api", payment_api.NewSSEHandler(resolver, broker, logger.Discard()).RegisterRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// readEvent returns the next "event:" name and its data line.
func readEvent(t *testing.T, rd *bufio.Reader) (string, string) {
	var name, data string
	for {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestStatusEventsStream(t *testing.T) {
	resolver := new(MockResolver)
	broker := sse.NewStatusBroker()
	resolver.On("ResolveTransaction", mock.Anything, "ORDER-1").
		Return(&models.Transaction{OrderID: "ORDER-1", TemplateID: "T1", Amount: 150000, Status: models.StatusPending}, nil)
	srv := streamServer(t, resolver, broker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/payment-status/ORDER-1/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	rd := bufio.NewReader(resp.Body)
	name, data := readEvent(t, rd)
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, `"status":"pending"`)

	require.Equal(t, 1, broker.ClientCount("ORDER-1"))
	require.NoError(t, broker.PublishTransactionEvent(ctx, models.TransactionEvent{
		Type: models.EventTransactionUpdated, OrderID: "ORDER-1", Status: models.StatusSuccess, PreviousStatus: models.StatusPending,
	}))

	name, data = readEvent(t, rd)
	assert.Equal(t, "status", name)
	assert.Contains(t, data, `"status":"success"`)
	assert.Contains(t, data, `"previous_status":"pending"`)
}

func TestStatusEventsKeepsTransitionDuringSnapshot(t *testing.T) {
	resolver := new(MockResolver)
	broker := sse.NewStatusBroker()
	resolver.On("ResolveTransaction", mock.Anything, "ORDER-2").
		Run(func(args mock.Arguments) {
			// a notification lands while the snapshot is being read
			_ = broker.PublishTransactionEvent(context.Background(), models.TransactionEvent{
				Type: models.EventTransactionUpdated, OrderID: "ORDER-2", Status: models.StatusSuccess, PreviousStatus: models.StatusPending,
			})
		}).
		Return(&models.Transaction{OrderID: "ORDER-2", Status: models.StatusPending}, nil)
	srv := streamServer(t, resolver, broker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/payment-status/ORDER-2/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	rd := bufio.NewReader(resp.Body)
	name, _ := readEvent(t, rd)
	assert.Equal(t, "connected", name)

	name, data := readEvent(t, rd)
	assert.Equal(t, "status", name)
	assert.Contains(t, data, `"status":"success"`)
}

func TestStatusEventsUnknownOrder(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("ResolveTransaction", mock.Anything, "NOPE").Return(nil, payment.ErrTransactionNotFound)
	resolver.On("ResolveTransaction", mock.Anything, "BROKEN").Return(nil, errors.New("db down"))
	srv := streamServer(t, resolver, sse.NewStatusBroker())

	resp, err := srv.Client().Get(srv.URL + "/api/payment-status/NOPE/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/api/payment-status/BROKEN/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
