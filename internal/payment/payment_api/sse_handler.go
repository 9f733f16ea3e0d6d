package payment_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"
	"rabbit-moon/internal/payment"

	"github.com/go-chi/chi/v5"
)

type StatusSubscriber interface {
	Subscribe(ctx context.Context, orderID string) <-chan models.TransactionEvent
}

type TransactionResolver interface {
	ResolveTransaction(ctx context.Context, orderID string) (*models.Transaction, error)
}

// SSEHandler streams status changes of one order to the payment page.
type SSEHandler struct {
	Logger       *logger.Logger
	Transactions TransactionResolver
	Broker       StatusSubscriber
}

func NewSSEHandler(transactions TransactionResolver, broker StatusSubscriber, logger *logger.Logger) *SSEHandler {
	return &SSEHandler{Logger: logger, Transactions: transactions, Broker: broker}
}

func (h *SSEHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payment-status/{orderId}/events", h.HandleStatusEvents)
}

// HandleStatusEvents sends a "connected" event carrying the current status,
// then one "status" event per applied transition.
func (h *SSEHandler) HandleStatusEvents(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Subscribe before reading the snapshot so a transition applied while it
	// is read still reaches the client. The subscription ends with ctx.
	ctx := r.Context()
	events := h.Broker.Subscribe(ctx, orderID)

	tx, err := h.Transactions.ResolveTransaction(ctx, orderID)
	if errors.Is(err, payment.ErrTransactionNotFound) {
		http.Error(w, "Transaksi tidak ditemukan", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Resolve %s: %v", orderID, err))
		http.Error(w, "Error fetching payment status", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)
	snapshot, _ := json.Marshal(models.NewTransactionEvent(models.EventTransactionUpdated, *tx, ""))
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", snapshot)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client watching payment status of %s", orderID))

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize status event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client left payment status of %s", orderID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
