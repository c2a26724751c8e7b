package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	"digitalhippo/contexts/commerce/order-service/application"
	"digitalhippo/contexts/commerce/order-service/ports"
)

// PaymentEventConsumer applies payment-completion events arriving over the
// bus (poll-sourced confirmations take this path; direct webhooks go
// straight to the service). Deliveries may repeat; ConfirmPayment is
// idempotent.
type PaymentEventConsumer struct {
	Subscriber    ports.EventSubscriber
	Service       application.Service
	Topic         string
	ConsumerGroup string
	Logger        *slog.Logger
}

type paymentPayload struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
}

func (c PaymentEventConsumer) Start(ctx context.Context) error {
	topic := c.Topic
	if topic == "" {
		topic = "payment.completed"
	}
	group := c.ConsumerGroup
	if group == "" {
		group = "order-service-payment-cg"
	}
	return c.Subscriber.Subscribe(ctx, topic, group, c.handle)
}

func (c PaymentEventConsumer) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload paymentPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("payment event decode failed",
			"event", "payment_consumer_decode_failed",
			"module", "commerce/order-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	_, err := c.Service.ConfirmPayment(ctx, ports.PaymentEvent{
		EventID:    event.EventID,
		Type:       event.EventType,
		SessionID:  payload.SessionID,
		OrderID:    payload.OrderID,
		UserID:     payload.UserID,
		OccurredAt: event.OccurredAt,
	})
	return err
}
