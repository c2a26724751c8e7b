package unit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	order "digitalhippo/contexts/commerce/order-service"
	domainerrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	"digitalhippo/contexts/commerce/order-service/ports"
	httptransport "digitalhippo/contexts/commerce/order-service/transport/http"
)

func newOrderModule() order.Module {
	return order.NewInMemoryModule(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOrderCheckoutSessionLifecycle(t *testing.T) {
	module := newOrderModule()
	ctx := context.Background()

	session, err := module.Handler.CreateSessionHandler(ctx, "user_buyer", "unit-sess-1", httptransport.CreateSessionRequest{
		ProductIDs: []string{"prod_001", "prod_002"},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.CheckoutURL == nil || *session.CheckoutURL == "" {
		t.Fatalf("session response missing checkout url")
	}

	status, err := module.Handler.OrderStatusHandler(ctx, "user_buyer", false, session.OrderID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.IsPaid {
		t.Fatalf("order must start pending")
	}

	ack, outcome, err := module.Handler.ConfirmPaymentHandler(ctx, ports.PaymentEvent{
		EventID:    "evt_1",
		Type:       "checkout.session.completed",
		SessionID:  session.SessionID,
		OrderID:    session.OrderID,
		UserID:     "user_buyer",
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !ack.Received || !outcome.Transitioned {
		t.Fatalf("first confirmation should transition, got %+v", outcome)
	}

	status, err = module.Handler.OrderStatusHandler(ctx, "user_buyer", false, session.OrderID)
	if err != nil {
		t.Fatalf("status after payment failed: %v", err)
	}
	if !status.IsPaid {
		t.Fatalf("order should be paid after confirmation")
	}
}

func TestOrderDuplicateConfirmationIsAcknowledged(t *testing.T) {
	module := newOrderModule()
	ctx := context.Background()

	session, err := module.Handler.CreateSessionHandler(ctx, "user_buyer", "unit-sess-2", httptransport.CreateSessionRequest{
		ProductIDs: []string{"prod_001"},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	event := ports.PaymentEvent{
		EventID:   "evt_2",
		Type:      "checkout.session.completed",
		SessionID: session.SessionID,
		OrderID:   session.OrderID,
		UserID:    "user_buyer",
	}
	if _, _, err := module.Handler.ConfirmPaymentHandler(ctx, event); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	ack, outcome, err := module.Handler.ConfirmPaymentHandler(ctx, event)
	if err != nil {
		t.Fatalf("duplicate confirm failed: %v", err)
	}
	if !ack.Received || outcome.Transitioned || !outcome.AlreadyPaid {
		t.Fatalf("duplicate should acknowledge without transitioning, got %+v", outcome)
	}
	if got := len(module.Store.Receipts()); got != 1 {
		t.Fatalf("receipts = %d, want exactly 1", got)
	}
}

func TestOrderUnknownConfirmationIsAcknowledged(t *testing.T) {
	module := newOrderModule()
	ctx := context.Background()

	ack, outcome, err := module.Handler.ConfirmPaymentHandler(ctx, ports.PaymentEvent{
		EventID: "evt_3",
		Type:    "checkout.session.completed",
		OrderID: "order_missing",
	})
	if err != nil {
		t.Fatalf("unknown order confirmation must not error: %v", err)
	}
	if !ack.Received || outcome.Found {
		t.Fatalf("unknown order should be acknowledged as not found, got %+v", outcome)
	}
}

func TestOrderStatusRequiresBuyerOrAdmin(t *testing.T) {
	module := newOrderModule()
	ctx := context.Background()

	session, err := module.Handler.CreateSessionHandler(ctx, "user_buyer", "unit-sess-3", httptransport.CreateSessionRequest{
		ProductIDs: []string{"prod_002"},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if _, err := module.Handler.OrderStatusHandler(ctx, "user_other", false, session.OrderID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("stranger should get ErrUnauthorized, got %v", err)
	}
	if _, err := module.Handler.OrderStatusHandler(ctx, "user_admin", true, session.OrderID); err != nil {
		t.Fatalf("admin status read failed: %v", err)
	}
}
