package ports

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

// OrderProductRef is one product inside a paid order. Resolved reports
// whether the product's file relation could be expanded; unresolved refs
// carry the product id only and must never be guessed into a file id.
type OrderProductRef struct {
	OrderID   string
	ProductID string
	FileID    string
	Resolved  bool
}

// Repository reads ownership and purchase history for file entitlements.
type Repository interface {
	// ListOwnedFileIDs returns the file ids referenced by products the
	// user sells, plus files the user uploaded directly.
	ListOwnedFileIDs(ctx context.Context, userID string) ([]string, error)
	// ListPaidOrderProducts returns product refs from the user's paid
	// orders only; pending orders grant nothing.
	ListPaidOrderProducts(ctx context.Context, userID string) ([]OrderProductRef, error)
}

// DecisionCache holds the computed accessible-file set per user. Purchases
// only ever grow the set, so a short TTL plus eviction on payment keeps it
// correct.
type DecisionCache interface {
	GetFileIDs(ctx context.Context, userID string, now time.Time) ([]string, bool, error)
	SetFileIDs(ctx context.Context, userID string, fileIDs []string, expiresAt time.Time) error
	Invalidate(ctx context.Context, userID string) error
}

// PaidOrderEvent notifies the evaluator that an order finished payment.
type PaidOrderEvent struct {
	EventID    string
	OrderID    string
	UserID     string
	OccurredAt time.Time
}

// Subscriber delivers paid-order events from the platform bus.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(context.Context, PaidOrderEvent) error) error
}
