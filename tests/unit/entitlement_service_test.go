package unit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	entitlement "digitalhippo/contexts/identity-access/entitlement-service"
	"digitalhippo/contexts/identity-access/entitlement-service/domain/entities"
	domainerrors "digitalhippo/contexts/identity-access/entitlement-service/domain/errors"
	httptransport "digitalhippo/contexts/identity-access/entitlement-service/transport/http"
)

func newEntitlementModule() entitlement.Module {
	return entitlement.NewInMemoryModule(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEntitlementPurchasedFileBecomesReadable(t *testing.T) {
	module := newEntitlementModule()
	ctx := context.Background()
	buyer := entities.Actor{ID: "user_buyer", Role: entities.RoleCustomer}

	module.Store.SeedOrderProduct("user_buyer", "order_1", "prod_001", "file_001", false, true)

	allowed, err := module.Service.CanReadProductFile(ctx, buyer, "file_001")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if allowed {
		t.Fatalf("pending order must not grant the file")
	}

	module.Store.MarkOrderPaid("order_1")
	if err := module.Service.InvalidateUser(ctx, "user_buyer"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	allowed, err = module.Service.CanReadProductFile(ctx, buyer, "file_001")
	if err != nil {
		t.Fatalf("check after payment failed: %v", err)
	}
	if !allowed {
		t.Fatalf("paid order must grant the file")
	}
}

func TestEntitlementUnresolvedLineGrantsNothing(t *testing.T) {
	module := newEntitlementModule()
	ctx := context.Background()
	buyer := entities.Actor{ID: "user_buyer", Role: entities.RoleCustomer}

	// The paid order's file relation was never expanded; the evaluator must
	// not guess an id from the product.
	module.Store.SeedOrderProduct("user_buyer", "order_2", "prod_002", "", true, false)

	allowed, err := module.Service.CanReadProductFile(ctx, buyer, "file_002")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if allowed {
		t.Fatalf("unresolved line must not grant any file")
	}
}

func TestEntitlementCheckHandlerFilters(t *testing.T) {
	module := newEntitlementModule()
	ctx := context.Background()
	seller := entities.Actor{ID: "user_seller", Role: entities.RoleCustomer}

	resp, err := module.Handler.CheckAccessHandler(ctx, seller, httptransport.CheckAccessRequest{
		Collection: "products",
		Operation:  "read",
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if resp.Effect != "filter" {
		t.Fatalf("customer product read effect = %q, want filter", resp.Effect)
	}
	if len(resp.Filter) != 2 {
		t.Fatalf("expected own-or-approved clauses, got %+v", resp.Filter)
	}
}

func TestEntitlementUnknownCollectionRejected(t *testing.T) {
	module := newEntitlementModule()
	ctx := context.Background()

	_, err := module.Handler.CheckAccessHandler(ctx, entities.Actor{}, httptransport.CheckAccessRequest{
		Collection: "gadgets",
		Operation:  "read",
	})
	if !errors.Is(err, domainerrors.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}
