package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"digitalhippo/contexts/commerce/order-service/application"
	"digitalhippo/contexts/commerce/order-service/ports"
)

// SessionPoller reconciles pending orders against the payment processor.
// A session that completed without its webhook arriving is published as a
// payment.completed event; PaymentEventConsumer applies it through the
// same idempotent confirmation path the webhook uses.
type SessionPoller struct {
	Repo        ports.Repository
	Checker     ports.PaymentStatusChecker
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Topic       string
	BatchSize   int
	Logger      *slog.Logger
}

func (p SessionPoller) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	limit := p.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := p.Topic
	if topic == "" {
		topic = "payment.completed"
	}

	pending, err := p.Repo.ListPendingWithSession(ctx, limit)
	if err != nil {
		logger.Error("pending session list failed",
			"event", "session_poll_list_failed",
			"module", "commerce/order-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if p.Clock != nil {
		now = p.Clock.Now().UTC()
	}

	published := 0
	for _, order := range pending {
		status, err := p.Checker.GetSessionStatus(ctx, order.SessionID)
		if err != nil {
			// One unreachable session must not stall the rest of the batch.
			logger.Warn("session status lookup failed",
				"event", "session_poll_lookup_failed",
				"module", "commerce/order-service",
				"layer", "worker",
				"order_id", order.OrderID,
				"session_id", order.SessionID,
				"error", err.Error(),
			)
			continue
		}
		if !status.Completed {
			continue
		}

		eventID, err := p.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{
			"session_id": order.SessionID,
			"order_id":   order.OrderID,
			"user_id":    order.UserID,
		})
		if err != nil {
			return err
		}
		envelope := ports.EventEnvelope{
			EventID:       eventID,
			EventType:     "payment.completed",
			OccurredAt:    now,
			SourceService: "commerce-order-service",
			SchemaVersion: 1,
			EntityType:    "order",
			EntityID:      order.OrderID,
			Data:          payload,
		}
		if err := p.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("payment completion publish failed",
				"event", "session_poll_publish_failed",
				"module", "commerce/order-service",
				"layer", "worker",
				"order_id", order.OrderID,
				"event_id", eventID,
				"error", err.Error(),
			)
			return err
		}
		published++
	}

	if published > 0 {
		logger.Info("session poll cycle completed",
			"event", "session_poll_completed",
			"module", "commerce/order-service",
			"layer", "worker",
			"published_count", published,
		)
	}
	return nil
}
