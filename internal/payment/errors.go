package payment

import (
	"errors"
	"fmt"

	paymentdb "rabbit-moon/internal/payment/db"
)

var (
	ErrMissingFields          = errors.New("template id and price are required")
	ErrPremiumTemplateMissing = errors.New("premium template not found")
	ErrNoToken                = errors.New("no token received from midtrans")
	ErrTransactionNotFound    = paymentdb.ErrTransactionNotFound
	ErrTooManyConflicts       = errors.New("transaction kept changing while updating status")
)

type PriceMismatchError struct {
	Expected int64
	Received int64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: expected %d, received %d", e.Expected, e.Received)
}

// NotificationError describes why a gateway notification was not applied.
// The HTTP layer still acknowledges it.
type NotificationError struct {
	Category      string // "validation", "security", "not_found", "processing"
	InternalError string
	OriginalErr   error
}

func (e *NotificationError) Error() string {
	return e.InternalError
}

func (e *NotificationError) Unwrap() error {
	return e.OriginalErr
}
