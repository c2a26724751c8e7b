package ports

import (
	"context"
	"time"

	contractsv1 "digitalhippo/contracts/gen/events/v1"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OrderLine snapshots one product at checkout time. Orders keep working
// after the product is edited or deleted; nothing here is re-resolved.
type OrderLine struct {
	ProductID  string
	FileID     string
	Name       string
	PriceCents int64
	PriceRef   string
}

// Order is the payment aggregate. Buyer and lines are fixed at creation;
// the paid flag is the only mutable field and it only ever flips to true.
type Order struct {
	OrderID    string
	UserID     string
	Lines      []OrderLine
	FeeCents   int64
	TotalCents int64
	Paid       bool
	SessionID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	PaidAt     *time.Time
}

func (o Order) Status() string {
	if o.Paid {
		return "paid"
	}
	return "pending"
}

// PaidLine is the projection the entitlement evaluator reads: which file
// each paid order line unlocked.
type PaidLine struct {
	OrderID   string
	ProductID string
	FileID    string
}

type Repository interface {
	CreateOrder(ctx context.Context, order Order) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	SetOrderSession(ctx context.Context, orderID string, sessionID string, now time.Time) error
	// MarkOrderPaid performs the atomic conditional transition
	// (paid=false -> true) and reports whether THIS call made it. A call
	// on an already-paid order returns false with no error.
	MarkOrderPaid(ctx context.Context, orderID string, now time.Time) (bool, error)
	ListOrdersByBuyer(ctx context.Context, userID string) ([]Order, error)
	ListPaidLines(ctx context.Context, userID string) ([]PaidLine, error)
	// ListPendingWithSession returns unpaid orders that already have a
	// hosted session, oldest first. The reconciliation poller works off it.
	ListPendingWithSession(ctx context.Context, limit int) ([]Order, error)
}

// CatalogProduct is the purchasable view of a product. PriceRef is the
// payment processor's price handle; a product without one cannot be sold.
type CatalogProduct struct {
	ProductID  string
	Name       string
	FileID     string
	PriceCents int64
	PriceRef   string
}

type ProductCatalog interface {
	ListByIDs(ctx context.Context, productIDs []string) ([]CatalogProduct, error)
}

// LineItem is one row of the hosted checkout page.
type LineItem struct {
	Name        string
	PriceRef    string
	AmountCents int64
	Quantity    int
}

type SessionRequest struct {
	OrderID    string
	UserID     string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
}

type SessionResult struct {
	SessionID string
	URL       string
}

// PaymentGateway creates hosted checkout sessions with the external
// payment processor.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (SessionResult, error)
}

// SessionStatus is the processor's current view of a hosted session.
type SessionStatus struct {
	SessionID string
	OrderID   string
	UserID    string
	Completed bool
}

// PaymentStatusChecker reads a hosted session back from the processor.
// The poll-side reconciliation worker uses it to catch completions whose
// webhook was lost.
type PaymentStatusChecker interface {
	GetSessionStatus(ctx context.Context, sessionID string) (SessionStatus, error)
}

// PaymentEvent is a verified payment-completion signal. Signature
// verification happens at the transport boundary before this type exists.
type PaymentEvent struct {
	EventID    string
	Type       string
	SessionID  string
	OrderID    string
	UserID     string
	OccurredAt time.Time
}

type Receipt struct {
	OrderID    string
	UserID     string
	TotalCents int64
	SentAt     time.Time
}

// ReceiptSender delivers the one post-payment receipt. Implementations
// must tolerate being called at most once per order; the service only
// calls it on an actual pending->paid transition.
type ReceiptSender interface {
	Send(ctx context.Context, receipt Receipt) error
}

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	Status    string
	CreatedAt time.Time
	SentAt    *time.Time
}

type OutboxRepository interface {
	AppendOutbox(ctx context.Context, message OutboxMessage) error
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, now time.Time) error
}

// EventEnvelope is the wire shape handed to the platform bus.
type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}
