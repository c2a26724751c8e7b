package workers_test

import (
	"context"
	"sync"
	"testing"

	"digitalhippo/contexts/commerce/order-service/adapters/memory"
	"digitalhippo/contexts/commerce/order-service/application"
	"digitalhippo/contexts/commerce/order-service/application/workers"
	"digitalhippo/contexts/commerce/order-service/ports"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestOutboxRelayDrainsPaidEvents(t *testing.T) {
	store := memory.NewStore()
	service := application.Service{
		Repo:        store,
		Outbox:      store,
		Catalog:     store,
		Gateway:     memory.NewGateway(),
		Receipts:    store,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
		PublicURL:   "http://localhost:3000",
	}

	session, err := service.CreateCheckoutSession(context.Background(), "key-relay", "buyer_1", []string{"prod_001"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := service.ConfirmPayment(context.Background(), ports.PaymentEvent{
		EventID: "evt_relay",
		OrderID: session.OrderID,
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.events))
	}
	if publisher.events[0].EventType != "order.paid" {
		t.Fatalf("event type = %q", publisher.events[0].EventType)
	}
	if publisher.events[0].EntityID != session.OrderID {
		t.Fatalf("entity id = %q, want %q", publisher.events[0].EntityID, session.OrderID)
	}
	if pending := store.PendingOutboxCount(); pending != 0 {
		t.Fatalf("pending outbox = %d, want 0", pending)
	}

	// A second cycle finds nothing to publish.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay run: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("relay republished events: %d", len(publisher.events))
	}
}
