package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rabbit-moon/internal/models"

	"github.com/uptrace/bun"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// ErrVersionConflict means another writer changed the row since it was read.
var ErrVersionConflict = errors.New("transaction version conflict")

type DB struct {
	Bun *bun.DB
}

// CreateTransaction → insert a new transaction at version 0
func (d *DB) CreateTransaction(ctx context.Context, tx models.Transaction) error {
	tx.Version = 0
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := d.Bun.NewInsert().Model(&tx).Exec(ctx)
	return err
}

// GetTransaction → fetch one transaction by order id
func (d *DB) GetTransaction(ctx context.Context, orderID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := d.Bun.NewSelect().
		Model(&tx).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// CompareAndSetStatus writes the new status and payment details only if the
// row is still at expected.Version. Empty payment details keep stored values.
func (d *DB) CompareAndSetStatus(ctx context.Context, expected models.Transaction, status models.TransactionStatus, transactionID, paymentType string) (*models.Transaction, error) {
	updated := expected
	updated.Status = status
	updated.Version = expected.Version + 1
	updated.UpdatedAt = time.Now().UTC()
	if transactionID != "" {
		updated.TransactionID = transactionID
	}
	if paymentType != "" {
		updated.PaymentType = paymentType
	}

	res, err := d.Bun.NewUpdate().
		Model(&updated).
		Column("status", "transaction_id", "payment_type", "version", "updated_at").
		Where("order_id = ?", expected.OrderID).
		Where("version = ?", expected.Version).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrVersionConflict
	}
	return &updated, nil
}
