package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rabbit-moon/internal/catalog"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"
	paymentdb "rabbit-moon/internal/payment/db"
	"rabbit-moon/internal/payment/midtrans"
	"rabbit-moon/internal/utils"
)

const maxCASRetries = 5

type Ledger interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) error
	GetTransaction(ctx context.Context, orderID string) (*models.Transaction, error)
	CompareAndSetStatus(ctx context.Context, expected models.Transaction, status models.TransactionStatus, transactionID, paymentType string) (*models.Transaction, error)
}

type TemplateLookup interface {
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
}

type Gateway interface {
	CreateSnapTransaction(ctx context.Context, req midtrans.SnapRequest) (*midtrans.SnapResponse, error)
	TransactionStatus(ctx context.Context, orderID string) (*midtrans.StatusResponse, error)
}

type OrderLock interface {
	Acquire(ctx context.Context, orderID string) (string, bool, error)
	Release(ctx context.Context, orderID, token string) error
}

type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev models.TransactionEvent) error
}

type Config struct {
	ServerKey        string
	ClientKey        string
	BaseURL          string
	RequireSignature bool
}

type Service struct {
	ledger    Ledger
	templates TemplateLookup
	gateway   Gateway
	lock      OrderLock
	events    EventPublisher
	cfg       Config
	logger    *logger.Logger

	now        func() time.Time
	newOrderID func() string
}

func NewService(ledger Ledger, templates TemplateLookup, gateway Gateway, lock OrderLock, events EventPublisher, cfg Config, log *logger.Logger) *Service {
	return &Service{
		ledger:     ledger,
		templates:  templates,
		gateway:    gateway,
		lock:       lock,
		events:     events,
		cfg:        cfg,
		logger:     log,
		now:        time.Now,
		newOrderID: utils.GenerateOrderID,
	}
}

type Session struct {
	Token       string `json:"token"`
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl"`
}

// Notification is the server-to-server payload Midtrans posts.
type Notification struct {
	OrderID           string     `json:"order_id"`
	TransactionStatus string     `json:"transaction_status"`
	FraudStatus       string     `json:"fraud_status"`
	StatusCode        FlexString `json:"status_code"`
	TransactionID     string     `json:"transaction_id"`
	PaymentType       string     `json:"payment_type"`
	GrossAmount       FlexString `json:"gross_amount"`
	SignatureKey      string     `json:"signature_key"`
}

// StatusView is what the status endpoint returns: the stored transaction
// plus the gateway's raw status when it was reachable.
type StatusView struct {
	models.Transaction
	MidtransStatus string `json:"midtrans_status,omitempty"`
	StatusDetail   string `json:"statusDetail"`
}

func (s *Service) ClientKey() string {
	return s.cfg.ClientKey
}

// CreateSession validates the purchase against the catalog, records a pending
// transaction and opens a Snap checkout for it.
func (s *Service) CreateSession(ctx context.Context, templateID string, price int64) (*Session, error) {
	if strings.TrimSpace(templateID) == "" || price <= 0 {
		return nil, ErrMissingFields
	}

	template, err := s.templates.GetTemplate(ctx, templateID)
	if errors.Is(err, catalog.ErrTemplateNotFound) {
		return nil, ErrPremiumTemplateMissing
	}
	if err != nil {
		return nil, fmt.Errorf("lookup template %s: %w", templateID, err)
	}
	if !template.IsPremium {
		return nil, ErrPremiumTemplateMissing
	}
	if template.Price != price {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Price mismatch for %s: expected %d, received %d", templateID, template.Price, price))
		return nil, &PriceMismatchError{Expected: template.Price, Received: price}
	}

	tx := models.Transaction{
		OrderID:    s.newOrderID(),
		TemplateID: template.ID,
		Amount:     price,
		Status:     models.StatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	s.logger.LogPayment("CREATE", tx.OrderID, fmt.Sprintf("pending transaction for %s (IDR %d)", template.ID, price))

	req := midtrans.NewSnapRequest(midtrans.TemplatePurchase{
		OrderID:      tx.OrderID,
		TemplateID:   template.ID,
		TemplateName: template.Name,
		Amount:       price,
		BaseURL:      s.cfg.BaseURL,
	}, s.now())

	resp, err := s.gateway.CreateSnapTransaction(ctx, req)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Snap session for %s failed: %v", tx.OrderID, err))
		return nil, fmt.Errorf("create snap transaction: %w", err)
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}

	s.publish(ctx, models.NewTransactionEvent(models.EventTransactionCreated, tx, ""))

	return &Session{Token: resp.Token, OrderID: tx.OrderID, RedirectURL: resp.RedirectURL}, nil
}

// ReceiveNotification applies a gateway callback to the ledger.
func (s *Service) ReceiveNotification(ctx context.Context, n Notification) error {
	if n.OrderID == "" {
		return &NotificationError{Category: "validation", InternalError: "notification without order_id"}
	}

	switch {
	case n.SignatureKey != "":
		if !VerifySignature(n, s.cfg.ServerKey) {
			s.logger.LogSecurity("BAD_SIGNATURE", fmt.Sprintf("notification for %s has an invalid signature_key", n.OrderID))
			return &NotificationError{Category: "security", InternalError: fmt.Sprintf("invalid signature for %s", n.OrderID)}
		}
	case s.cfg.RequireSignature:
		s.logger.LogSecurity("MISSING_SIGNATURE", fmt.Sprintf("notification for %s carries no signature_key", n.OrderID))
		return &NotificationError{Category: "security", InternalError: fmt.Sprintf("missing signature for %s", n.OrderID)}
	}

	status := MapStatus(n.TransactionStatus, n.FraudStatus)
	s.logger.LogPayment("NOTIFY", n.OrderID, fmt.Sprintf("type=%s status=%s fraud=%s code=%s amount=%s -> %s",
		n.PaymentType, n.TransactionStatus, n.FraudStatus, n.StatusCode, n.GrossAmount, status))

	_, _, err := s.applyStatus(ctx, n.OrderID, status, n.TransactionID, n.PaymentType)
	if errors.Is(err, ErrTransactionNotFound) {
		return &NotificationError{Category: "not_found", InternalError: fmt.Sprintf("order %s not found", n.OrderID), OriginalErr: err}
	}
	if err != nil {
		return &NotificationError{Category: "processing", InternalError: fmt.Sprintf("update %s: %v", n.OrderID, err), OriginalErr: err}
	}
	return nil
}

// PollStatus refreshes an order from the gateway. Gateway failures and a
// busy lock fall back to the stored status.
func (s *Service) PollStatus(ctx context.Context, orderID string) (*StatusView, error) {
	stored, err := s.ledger.GetTransaction(ctx, orderID)
	if err != nil {
		return nil, err
	}

	token, ok, err := s.lock.Acquire(ctx, orderID)
	if err != nil {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Lock unavailable for %s, polling without it: %v", orderID, err))
	} else if !ok {
		s.logger.Debug("PAYMENT", fmt.Sprintf("Another poll of %s is running, using stored status", orderID))
		return newStatusView(*stored, ""), nil
	} else {
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), orderID, token); err != nil {
				s.logger.Warn("PAYMENT", fmt.Sprintf("Release lock for %s: %v", orderID, err))
			}
		}()
	}

	resp, err := s.gateway.TransactionStatus(ctx, orderID)
	if err != nil {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Midtrans status for %s failed, using stored status %s: %v", orderID, stored.Status, err))
		return newStatusView(*stored, ""), nil
	}

	mapped := MapStatus(resp.TransactionStatus, resp.FraudStatus)
	current, changed, err := s.applyStatus(ctx, orderID, mapped, resp.TransactionID, resp.PaymentType)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Apply polled status for %s: %v", orderID, err))
		current = stored
	}
	if changed {
		s.logger.LogPayment("POLL", orderID, fmt.Sprintf("status updated from %s to %s", stored.Status, current.Status))
	}

	view := newStatusView(*current, resp.TransactionStatus)
	if resp.PaymentType != "" {
		view.PaymentType = resp.PaymentType
	}
	return view, nil
}

// ResolveTransaction returns the stored transaction, refreshing it from the
// gateway while it is still pending.
func (s *Service) ResolveTransaction(ctx context.Context, orderID string) (*models.Transaction, error) {
	tx, err := s.ledger.GetTransaction(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.StatusPending {
		return tx, nil
	}

	view, err := s.PollStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &view.Transaction, nil
}

// applyStatus moves the order to status if it ranks above the stored one.
// Lost compare-and-set races are retried against a fresh read.
func (s *Service) applyStatus(ctx context.Context, orderID string, status models.TransactionStatus, transactionID, paymentType string) (*models.Transaction, bool, error) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		current, err := s.ledger.GetTransaction(ctx, orderID)
		if err != nil {
			return nil, false, err
		}

		if status.Rank() <= current.Status.Rank() {
			if status != current.Status {
				s.logger.Info("PAYMENT", fmt.Sprintf("Ignoring %s for %s, already %s", status, orderID, current.Status))
			}
			return current, false, nil
		}

		updated, err := s.ledger.CompareAndSetStatus(ctx, *current, status, transactionID, paymentType)
		if errors.Is(err, paymentdb.ErrVersionConflict) {
			s.logger.Debug("PAYMENT", fmt.Sprintf("Version conflict on %s, retrying (%d/%d)", orderID, attempt+1, maxCASRetries))
			continue
		}
		if err != nil {
			return nil, false, err
		}

		s.logger.LogPayment("STATUS", orderID, fmt.Sprintf("%s -> %s", current.Status, updated.Status))
		s.publish(ctx, models.NewTransactionEvent(models.EventTransactionUpdated, *updated, current.Status))
		return updated, true, nil
	}
	return nil, false, ErrTooManyConflicts
}

func (s *Service) publish(ctx context.Context, ev models.TransactionEvent) {
	if err := s.events.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("Publish %s for %s failed: %v", ev.Type, ev.OrderID, err))
	}
}

func newStatusView(tx models.Transaction, midtransStatus string) *StatusView {
	return &StatusView{
		Transaction:    tx,
		MidtransStatus: midtransStatus,
		StatusDetail:   tx.Status.Detail(),
	}
}
