package workers

import (
	"context"
	"log/slog"

	"digitalhippo/contexts/identity-access/entitlement-service/application"
	"digitalhippo/contexts/identity-access/entitlement-service/ports"
)

// PaidOrderConsumer evicts the buyer's cached file entitlements when an
// order finishes payment, so the freshly purchased files become readable
// without waiting out the cache TTL.
type PaidOrderConsumer struct {
	Subscriber ports.Subscriber
	Service    application.Service
	Logger     *slog.Logger
}

func (c PaidOrderConsumer) Start(ctx context.Context) error {
	return c.Subscriber.Subscribe(ctx, c.handle)
}

func (c PaidOrderConsumer) handle(ctx context.Context, event ports.PaidOrderEvent) error {
	if err := c.Service.InvalidateUser(ctx, event.UserID); err != nil {
		if c.Logger != nil {
			c.Logger.Error("entitlement cache eviction failed",
				"event", "entitlement_eviction_failed",
				"module", "identity-access/entitlement-service",
				"layer", "worker",
				"event_id", event.EventID,
				"order_id", event.OrderID,
				"user_id", event.UserID,
				"error", err.Error(),
			)
		}
		return err
	}

	if c.Logger != nil {
		c.Logger.Debug("entitlement cache evicted after payment",
			"event", "entitlement_cache_evicted",
			"module", "identity-access/entitlement-service",
			"layer", "worker",
			"event_id", event.EventID,
			"order_id", event.OrderID,
			"user_id", event.UserID,
		)
	}
	return nil
}
