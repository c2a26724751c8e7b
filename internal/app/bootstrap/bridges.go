package bootstrap

import (
	"context"
	"encoding/json"

	productapp "digitalhippo/contexts/catalog/product-service/application"
	orderapp "digitalhippo/contexts/commerce/order-service/application"
	orderports "digitalhippo/contexts/commerce/order-service/ports"
	entitlementports "digitalhippo/contexts/identity-access/entitlement-service/ports"
	"digitalhippo/internal/platform/messaging"
)

// Cross-context bridges live here so the contexts themselves stay
// decoupled: each module talks to its own ports and the composition root
// supplies the other side.

// catalogBridge answers the order service's purchasable-product lookups
// from the catalog service.
type catalogBridge struct {
	products productapp.Service
}

func (b catalogBridge) ListByIDs(ctx context.Context, productIDs []string) ([]orderports.CatalogProduct, error) {
	items, err := b.products.ListPurchasableByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	out := make([]orderports.CatalogProduct, 0, len(items))
	for _, item := range items {
		out = append(out, orderports.CatalogProduct{
			ProductID:  item.ProductID,
			Name:       item.Name,
			FileID:     item.FileID,
			PriceCents: item.PriceCents,
			PriceRef:   item.PriceRef,
		})
	}
	return out, nil
}

// entitlementBridge feeds the evaluator's file union from the catalog
// (ownership) and order (purchases) services.
type entitlementBridge struct {
	products productapp.Service
	orders   orderapp.Service
}

func (b entitlementBridge) ListOwnedFileIDs(ctx context.Context, userID string) ([]string, error) {
	return b.products.ListOwnedFileIDs(ctx, userID)
}

func (b entitlementBridge) ListPaidOrderProducts(ctx context.Context, userID string) ([]entitlementports.OrderProductRef, error) {
	lines, err := b.orders.ListPaidLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	refs := make([]entitlementports.OrderProductRef, 0, len(lines))
	for _, line := range lines {
		refs = append(refs, entitlementports.OrderProductRef{
			OrderID:   line.OrderID,
			ProductID: line.ProductID,
			FileID:    line.FileID,
			Resolved:  line.FileID != "",
		})
	}
	return refs, nil
}

// paidOrderSubscriber adapts order.paid bus envelopes into the typed
// events the entitlement eviction worker consumes.
type paidOrderSubscriber struct {
	bus           *messaging.Bus
	topic         string
	consumerGroup string
}

type paidOrderPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

func (s paidOrderSubscriber) Subscribe(
	ctx context.Context,
	handler func(context.Context, entitlementports.PaidOrderEvent) error,
) error {
	return s.bus.Subscribe(ctx, s.topic, s.consumerGroup, func(ctx context.Context, envelope orderports.EventEnvelope) error {
		var payload paidOrderPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return handler(ctx, entitlementports.PaidOrderEvent{
			EventID:    envelope.EventID,
			OrderID:    payload.OrderID,
			UserID:     payload.UserID,
			OccurredAt: envelope.OccurredAt,
		})
	})
}
