package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusFailed  TransactionStatus = "failed"
	StatusFraud   TransactionStatus = "fraud"
	StatusSuccess TransactionStatus = "success"
)

// Rank orders statuses so that a status can only be replaced by a higher one.
// Unknown values rank below pending.
func (s TransactionStatus) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusFailed:
		return 2
	case StatusFraud:
		return 3
	case StatusSuccess:
		return 4
	default:
		return 0
	}
}

// Detail is the customer-facing description of the status.
func (s TransactionStatus) Detail() string {
	switch s {
	case StatusSuccess:
		return "Pembayaran berhasil dikonfirmasi"
	case StatusPending:
		return "Menunggu pembayaran"
	case StatusFailed:
		return "Pembayaran gagal atau dibatalkan"
	case StatusFraud:
		return "Pembayaran ditolak karena terindikasi fraud"
	default:
		return "Status tidak diketahui"
	}
}

type Transaction struct {
	bun.BaseModel `bun:"table:transactions"`

	OrderID       string            `bun:"order_id,pk" json:"order_id"`
	TemplateID    string            `bun:"template_id,notnull" json:"template_id"`
	Amount        int64             `bun:"amount,notnull" json:"amount"`
	Status        TransactionStatus `bun:"status,notnull" json:"status"`
	TransactionID string            `bun:"transaction_id,nullzero" json:"transaction_id,omitempty"`
	PaymentType   string            `bun:"payment_type,nullzero" json:"payment_type,omitempty"`
	Version       int64             `bun:"version,notnull" json:"-"`
	CreatedAt     time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time         `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}
