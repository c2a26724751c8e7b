package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	"digitalhippo/contexts/commerce/order-service/ports"
)

const transactionFeeName = "Transaction Fee"

// Service owns the order lifecycle: checkout session creation, the
// pending->paid transition, and buyer-scoped status reads.
type Service struct {
	Repo           ports.Repository
	Outbox         ports.OutboxRepository
	Catalog        ports.ProductCatalog
	Gateway        ports.PaymentGateway
	Receipts       ports.ReceiptSender
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Logger         *slog.Logger
	PublicURL      string
	FeeCents       int64
	IdempotencyTTL time.Duration
}

// CheckoutSession is what the storefront needs to redirect the buyer.
// CheckoutURL is empty when the payment processor refused the session; the
// order exists either way and stays pending.
type CheckoutSession struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// ConfirmResult reports what a payment-completion signal did.
type ConfirmResult struct {
	OrderID      string
	Found        bool
	Transitioned bool
	AlreadyPaid  bool
}

func (s Service) CreateCheckoutSession(
	ctx context.Context,
	idempotencyKey string,
	buyerID string,
	productIDs []string,
) (CheckoutSession, error) {
	var out CheckoutSession
	if strings.TrimSpace(buyerID) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	distinct := dedupe(productIDs)
	if len(distinct) == 0 {
		return out, domainerrors.ErrEmptyCart
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return out, domainerrors.ErrIdempotencyKeyRequired
	}

	requestHash := hashStrings("create_checkout_session", buyerID, strings.Join(distinct, ","))
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			session, err := s.createSession(ctx, buyerID, distinct)
			if err != nil {
				// A gateway refusal still created the pending order; persist
				// the partial session so the caller gets the order id and a
				// same-key retry does not mint a second order.
				if errors.Is(err, domainerrors.ErrPaymentSessionFailed) {
					raw, marshalErr := json.Marshal(session)
					if marshalErr != nil {
						return nil, marshalErr
					}
					return raw, err
				}
				return nil, err
			}
			return json.Marshal(session)
		},
	)
	if err != nil {
		return out, err
	}
	if out.SessionID == "" {
		// Replayed record from an attempt the processor refused: same key,
		// same pending order, still no checkout URL.
		return out, domainerrors.ErrPaymentSessionFailed
	}
	return out, nil
}

func (s Service) createSession(ctx context.Context, buyerID string, productIDs []string) (CheckoutSession, error) {
	logger := ResolveLogger(s.Logger)
	now := s.now()

	products, err := s.Catalog.ListByIDs(ctx, productIDs)
	if err != nil {
		return CheckoutSession{}, err
	}

	// A product without a processor price handle is not purchasable.
	// Drop it rather than failing the whole cart.
	purchasable := make([]ports.CatalogProduct, 0, len(products))
	for _, product := range products {
		if strings.TrimSpace(product.PriceRef) == "" {
			logger.Warn("dropping product without price reference",
				"event", "checkout_product_dropped",
				"module", "commerce/order-service",
				"layer", "application",
				"product_id", product.ProductID,
				"user_id", buyerID,
			)
			continue
		}
		purchasable = append(purchasable, product)
	}
	if len(purchasable) == 0 {
		return CheckoutSession{}, domainerrors.ErrNoPurchasableProducts
	}

	orderID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return CheckoutSession{}, err
	}

	order := ports.Order{
		OrderID:   orderID,
		UserID:    buyerID,
		FeeCents:  s.feeCents(),
		Paid:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, product := range purchasable {
		order.Lines = append(order.Lines, ports.OrderLine{
			ProductID:  product.ProductID,
			FileID:     product.FileID,
			Name:       product.Name,
			PriceCents: product.PriceCents,
			PriceRef:   product.PriceRef,
		})
		order.TotalCents += product.PriceCents
	}
	order.TotalCents += order.FeeCents

	created, err := s.Repo.CreateOrder(ctx, order)
	if err != nil {
		return CheckoutSession{}, err
	}

	lineItems := make([]ports.LineItem, 0, len(purchasable)+1)
	for _, product := range purchasable {
		lineItems = append(lineItems, ports.LineItem{
			Name:        product.Name,
			PriceRef:    product.PriceRef,
			AmountCents: product.PriceCents,
			Quantity:    1,
		})
	}
	lineItems = append(lineItems, ports.LineItem{
		Name:        transactionFeeName,
		AmountCents: order.FeeCents,
		Quantity:    1,
	})

	result, err := s.Gateway.CreateCheckoutSession(ctx, ports.SessionRequest{
		OrderID:    created.OrderID,
		UserID:     buyerID,
		LineItems:  lineItems,
		SuccessURL: s.PublicURL + "/thank-you?orderId=" + created.OrderID,
		CancelURL:  s.PublicURL + "/cart",
	})
	if err != nil {
		// The pending order is kept so the buyer can retry; only the
		// hosted session failed.
		logger.Error("payment session creation failed",
			"event", "checkout_session_failed",
			"module", "commerce/order-service",
			"layer", "application",
			"order_id", created.OrderID,
			"user_id", buyerID,
			"error", err.Error(),
		)
		return CheckoutSession{OrderID: created.OrderID}, domainerrors.ErrPaymentSessionFailed
	}

	if err := s.Repo.SetOrderSession(ctx, created.OrderID, result.SessionID, s.now()); err != nil {
		return CheckoutSession{}, err
	}

	logger.Info("checkout session created",
		"event", "checkout_session_created",
		"module", "commerce/order-service",
		"layer", "application",
		"order_id", created.OrderID,
		"session_id", result.SessionID,
		"user_id", buyerID,
		"total_cents", order.TotalCents,
	)
	return CheckoutSession{
		OrderID:     created.OrderID,
		SessionID:   result.SessionID,
		CheckoutURL: result.URL,
	}, nil
}

// PollOrderStatus is the read-only status check behind the thank-you page
// poller. Only the buyer or an admin may ask.
func (s Service) PollOrderStatus(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	orderID string,
) (bool, error) {
	if strings.TrimSpace(orderID) == "" {
		return false, domainerrors.ErrInvalidRequest
	}
	order, err := s.Repo.GetOrder(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return false, err
	}
	if !actorIsAdmin && order.UserID != strings.TrimSpace(actorID) {
		return false, domainerrors.ErrUnauthorized
	}
	return order.Paid, nil
}

// ConfirmPayment applies a verified payment-completion signal. Unknown
// orders and repeat deliveries are logged no-ops: the signal source is an
// automated retrier, not a user.
func (s Service) ConfirmPayment(ctx context.Context, event ports.PaymentEvent) (ConfirmResult, error) {
	logger := ResolveLogger(s.Logger)
	orderID := strings.TrimSpace(event.OrderID)
	if orderID == "" {
		logger.Warn("payment event without order id ignored",
			"event", "payment_event_unmatched",
			"module", "commerce/order-service",
			"layer", "application",
			"event_id", event.EventID,
			"session_id", event.SessionID,
		)
		return ConfirmResult{}, nil
	}

	now := s.now()
	transitioned, err := s.Repo.MarkOrderPaid(ctx, orderID, now)
	if err != nil {
		if errors.Is(err, domainerrors.ErrOrderNotFound) {
			logger.Warn("payment event for unknown order ignored",
				"event", "payment_event_order_missing",
				"module", "commerce/order-service",
				"layer", "application",
				"event_id", event.EventID,
				"order_id", orderID,
			)
			return ConfirmResult{OrderID: orderID}, nil
		}
		return ConfirmResult{}, err
	}

	if !transitioned {
		logger.Info("order already paid, duplicate confirmation ignored",
			"event", "payment_event_duplicate",
			"module", "commerce/order-service",
			"layer", "application",
			"event_id", event.EventID,
			"order_id", orderID,
		)
		return ConfirmResult{OrderID: orderID, Found: true, AlreadyPaid: true}, nil
	}

	// Side effects fire exactly once: only the call that won the atomic
	// pending->paid update reaches this point.
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return ConfirmResult{}, err
	}

	if s.Receipts != nil {
		if err := s.Receipts.Send(ctx, ports.Receipt{
			OrderID:    order.OrderID,
			UserID:     order.UserID,
			TotalCents: order.TotalCents,
			SentAt:     now,
		}); err != nil {
			logger.Error("receipt send failed",
				"event", "receipt_send_failed",
				"module", "commerce/order-service",
				"layer", "application",
				"order_id", order.OrderID,
				"error", err.Error(),
			)
		}
	}

	if s.Outbox != nil {
		if err := s.appendPaidEvent(ctx, order, now); err != nil {
			logger.Error("order paid outbox append failed",
				"event", "order_paid_outbox_failed",
				"module", "commerce/order-service",
				"layer", "application",
				"order_id", order.OrderID,
				"error", err.Error(),
			)
		}
	}

	logger.Info("order marked paid",
		"event", "order_paid",
		"module", "commerce/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"user_id", order.UserID,
		"total_cents", order.TotalCents,
	)
	return ConfirmResult{OrderID: orderID, Found: true, Transitioned: true}, nil
}

// ListPaidLines exposes paid purchase history to the entitlement wiring.
func (s Service) ListPaidLines(ctx context.Context, userID string) ([]ports.PaidLine, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	return s.Repo.ListPaidLines(ctx, strings.TrimSpace(userID))
}

func (s Service) appendPaidEvent(ctx context.Context, order ports.Order, now time.Time) error {
	eventID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"order_id":    order.OrderID,
		"user_id":     order.UserID,
		"total_cents": order.TotalCents,
	})
	if err != nil {
		return err
	}

	envelope := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     "order.paid",
		OccurredAt:    now,
		SourceService: "commerce-order-service",
		SchemaVersion: 1,
		EntityType:    "order",
		EntityID:      order.OrderID,
		Data:          payload,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return s.Outbox.AppendOutbox(ctx, ports.OutboxMessage{
		OutboxID:  eventID,
		EventType: envelope.EventType,
		Payload:   raw,
		Status:    "pending",
		CreatedAt: now,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) feeCents() int64 {
	if s.FeeCents <= 0 {
		return 100
	}
	return s.FeeCents
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}

	// An exec error with a non-nil payload means durable state was created
	// before the failure; the record is stored and the error surfaced after
	// decoding, so the caller still sees what exists.
	payload, execErr := exec()
	if execErr != nil && payload == nil {
		return execErr
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	if err := decode(payload); err != nil {
		return err
	}
	return execErr
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}
