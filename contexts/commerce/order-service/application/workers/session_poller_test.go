package workers_test

import (
	"context"
	"encoding/json"
	"testing"

	"digitalhippo/contexts/commerce/order-service/adapters/memory"
	"digitalhippo/contexts/commerce/order-service/application"
	"digitalhippo/contexts/commerce/order-service/application/workers"
	"digitalhippo/contexts/commerce/order-service/ports"
)

type immediateSubscriber struct {
	handler func(context.Context, ports.EventEnvelope) error
}

func (s *immediateSubscriber) Subscribe(
	_ context.Context,
	_ string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	s.handler = handler
	return nil
}

func newPollerService(store *memory.Store, gateway *memory.Gateway) application.Service {
	return application.Service{
		Repo:        store,
		Outbox:      store,
		Catalog:     store,
		Gateway:     gateway,
		Receipts:    store,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
		PublicURL:   "http://localhost:3000",
	}
}

func TestSessionPollerPublishesCompletedSessions(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	service := newPollerService(store, gateway)

	session, err := service.CreateCheckoutSession(context.Background(), "key-poll", "buyer_1", []string{"prod_001"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	publisher := &capturingPublisher{}
	poller := workers.SessionPoller{
		Repo:        store,
		Checker:     gateway,
		Publisher:   publisher,
		Clock:       store,
		IDGenerator: store,
	}

	// Session not completed at the processor yet: nothing to publish.
	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll run: %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("published %d events before completion", len(publisher.events))
	}

	gateway.CompleteSession(session.SessionID)
	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll run after completion: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.EventType != "payment.completed" {
		t.Fatalf("event type = %q", event.EventType)
	}
	var payload struct {
		SessionID string `json:"session_id"`
		OrderID   string `json:"order_id"`
		UserID    string `json:"user_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.OrderID != session.OrderID || payload.SessionID != session.SessionID {
		t.Fatalf("payload = %+v, want order %q session %q", payload, session.OrderID, session.SessionID)
	}
	if payload.UserID != "buyer_1" {
		t.Fatalf("payload user = %q", payload.UserID)
	}
}

func TestSessionPollerSkipsPaidOrders(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	service := newPollerService(store, gateway)

	session, err := service.CreateCheckoutSession(context.Background(), "key-poll-paid", "buyer_1", []string{"prod_001"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	gateway.CompleteSession(session.SessionID)
	if _, err := service.ConfirmPayment(context.Background(), ports.PaymentEvent{
		EventID: "evt_poll",
		OrderID: session.OrderID,
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	publisher := &capturingPublisher{}
	poller := workers.SessionPoller{
		Repo:        store,
		Checker:     gateway,
		Publisher:   publisher,
		Clock:       store,
		IDGenerator: store,
	}
	if err := poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll run: %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("paid order was republished: %d events", len(publisher.events))
	}
}

func TestPaymentEventConsumerAppliesPollSourcedCompletion(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	service := newPollerService(store, gateway)

	session, err := service.CreateCheckoutSession(context.Background(), "key-consume", "buyer_1", []string{"prod_001"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	subscriber := &immediateSubscriber{}
	consumer := workers.PaymentEventConsumer{
		Subscriber: subscriber,
		Service:    service,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start: %v", err)
	}

	payload, err := json.Marshal(map[string]string{
		"session_id": session.SessionID,
		"order_id":   session.OrderID,
		"user_id":    "buyer_1",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := ports.EventEnvelope{
		EventID:   "evt_consume",
		EventType: "payment.completed",
		EntityID:  session.OrderID,
		Data:      payload,
	}
	if err := subscriber.handler(context.Background(), envelope); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	order, err := store.GetOrder(context.Background(), session.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !order.Paid {
		t.Fatalf("order must be paid after the completion event")
	}
	if receipts := store.Receipts(); len(receipts) != 1 {
		t.Fatalf("receipts = %d, want 1", len(receipts))
	}

	// Redelivery is a no-op: the confirmation path is idempotent.
	if err := subscriber.handler(context.Background(), envelope); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if receipts := store.Receipts(); len(receipts) != 1 {
		t.Fatalf("redelivery duplicated receipts: %d", len(receipts))
	}
}
