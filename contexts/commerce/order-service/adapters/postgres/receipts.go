package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"digitalhippo/contexts/commerce/order-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReceiptLedger records post-payment receipts. There is no outbound mail
// channel yet, so the ledger is the delivery record; the order_id primary
// key keeps a replayed confirmation from writing a second receipt.
type ReceiptLedger struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewReceiptLedger(db *gorm.DB, logger *slog.Logger) *ReceiptLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptLedger{
		db:     db,
		logger: logger,
	}
}

func (l *ReceiptLedger) Send(ctx context.Context, receipt ports.Receipt) error {
	row := receiptModel{
		OrderID:    strings.TrimSpace(receipt.OrderID),
		UserID:     strings.TrimSpace(receipt.UserID),
		TotalCents: receipt.TotalCents,
		SentAt:     receipt.SentAt.UTC(),
	}
	if row.SentAt.IsZero() {
		row.SentAt = time.Now().UTC()
	}

	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		l.logger.Info("receipt_already_recorded",
			"module", "order-service",
			"order_id", row.OrderID,
		)
	}
	return nil
}

type receiptModel struct {
	OrderID    string    `gorm:"column:order_id;primaryKey"`
	UserID     string    `gorm:"column:user_id"`
	TotalCents int64     `gorm:"column:total_cents"`
	SentAt     time.Time `gorm:"column:sent_at"`
}

func (receiptModel) TableName() string {
	return "order_receipts"
}
