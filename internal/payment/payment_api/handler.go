package payment_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/payment"
	"rabbit-moon/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Payments *payment.Service
	Logger   *logger.Logger
}

func NewHandler(svc *payment.Service, logger *logger.Logger) *Handler {
	return &Handler{Payments: svc, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/midtrans-client-key", h.ClientKey)
	r.Post("/create-payment", h.CreatePayment)
	r.Post("/payment-notification", h.Notification)
	r.Get("/payment-status/{orderId}", h.PaymentStatus)
}

type createPaymentRequest struct {
	TemplateID string             `json:"templateId"`
	Price      payment.FlexString `json:"price"`
}

func (h *Handler) ClientKey(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"clientKey": h.Payments.ClientKey()})
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Template ID dan harga wajib diisi.")
		return
	}

	price, ok := parsePrice(string(req.Price))
	if req.TemplateID == "" || !ok {
		utils.WriteError(w, http.StatusBadRequest, "Template ID dan harga wajib diisi.")
		return
	}

	session, err := h.Payments.CreateSession(r.Context(), req.TemplateID, price)
	if err != nil {
		var mismatch *payment.PriceMismatchError
		switch {
		case errors.Is(err, payment.ErrMissingFields):
			utils.WriteError(w, http.StatusBadRequest, "Template ID dan harga wajib diisi.")
		case errors.Is(err, payment.ErrPremiumTemplateMissing):
			utils.WriteError(w, http.StatusNotFound, "Template premium tidak ditemukan")
		case errors.As(err, &mismatch):
			utils.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success":       false,
				"message":       "Harga tidak sesuai",
				"expectedPrice": mismatch.Expected,
				"receivedPrice": mismatch.Received,
			})
		default:
			h.Logger.Error("API", fmt.Sprintf("CreatePayment: templateId=%s: %v", req.TemplateID, err))
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Internal Server Error saat create-payment",
				"error":   err.Error(),
			})
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"token":       session.Token,
		"orderId":     session.OrderID,
		"redirectUrl": session.RedirectURL,
	})
}

// Notification always acknowledges so Midtrans stops retrying; problems are
// only logged.
func (h *Handler) Notification(w http.ResponseWriter, r *http.Request) {
	var n payment.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		h.Logger.Warn("PAYMENT", fmt.Sprintf("Undecodable notification: %v", err))
		utils.WriteText(w, http.StatusOK, "OK")
		return
	}

	if err := h.Payments.ReceiveNotification(r.Context(), n); err != nil {
		var nerr *payment.NotificationError
		if errors.As(err, &nerr) {
			h.Logger.Warn("PAYMENT", fmt.Sprintf("Notification %s not applied [%s]: %s", n.OrderID, nerr.Category, nerr.InternalError))
		} else {
			h.Logger.Error("PAYMENT", fmt.Sprintf("Notification %s: %v", n.OrderID, err))
		}
	}
	utils.WriteText(w, http.StatusOK, "OK")
}

func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	view, err := h.Payments.PollStatus(r.Context(), orderID)
	if errors.Is(err, payment.ErrTransactionNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Transaksi tidak ditemukan")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaymentStatus: orderId=%s: %v", orderID, err))
		utils.WriteError(w, http.StatusInternalServerError, "Error fetching payment status")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    view,
	})
}

// parsePrice accepts whole rupiah amounts written as a number or a numeric
// string.
func parsePrice(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
