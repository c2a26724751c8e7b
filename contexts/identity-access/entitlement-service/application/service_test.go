package application

import (
	"context"
	"testing"
	"time"

	"digitalhippo/contexts/identity-access/entitlement-service/adapters/memory"
	"digitalhippo/contexts/identity-access/entitlement-service/domain/entities"
)

func newService(store *memory.Store) Service {
	return Service{
		Repo:     store,
		Cache:    store,
		Clock:    store,
		CacheTTL: 5 * time.Minute,
	}
}

func TestOwnerCanReadOwnFileWithoutPurchase(t *testing.T) {
	store := memory.NewStore()
	store.SeedOwnedFile("seller_1", "file_1")
	service := newService(store)

	ok, err := service.CanReadProductFile(context.Background(), entities.Actor{ID: "seller_1", Role: entities.RoleCustomer}, "file_1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !ok {
		t.Fatal("owner should read their own file regardless of purchases")
	}
}

func TestPaidOrderGrantsFileAccessPendingDoesNot(t *testing.T) {
	store := memory.NewStore()
	store.SeedOrderProduct("buyer_1", "order_1", "prod_1", "file_1", false, true)
	service := newService(store)
	buyer := entities.Actor{ID: "buyer_1", Role: entities.RoleCustomer}

	ok, err := service.CanReadProductFile(context.Background(), buyer, "file_1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if ok {
		t.Fatal("pending order must not grant file access")
	}

	store.MarkOrderPaid("order_1")
	if err := service.InvalidateUser(context.Background(), "buyer_1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	ok, err = service.CanReadProductFile(context.Background(), buyer, "file_1")
	if err != nil {
		t.Fatalf("check after payment failed: %v", err)
	}
	if !ok {
		t.Fatal("paid order must grant file access")
	}
}

func TestUnresolvedOrderProductIsSkippedNotGuessed(t *testing.T) {
	store := memory.NewStore()
	store.SeedOrderProduct("buyer_2", "order_2", "prod_2", "", true, false)
	store.SeedOrderProduct("buyer_2", "order_2", "prod_3", "file_3", true, true)
	service := newService(store)
	buyer := entities.Actor{ID: "buyer_2", Role: entities.RoleCustomer}

	decision, err := service.EvaluateAccess(context.Background(), buyer, entities.CollectionProductFiles, entities.OperationRead)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Effect != entities.EffectFilter {
		t.Fatalf("expected filter, got %s", decision.Effect)
	}
	if !decision.PermitsID("file_3") {
		t.Fatal("resolved purchase should be in the union")
	}
	if decision.PermitsID("prod_2") || decision.PermitsID("") {
		t.Fatal("unresolved purchase must be excluded, never guessed")
	}
}

func TestEmptyUnionDenies(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	decision, err := service.EvaluateAccess(
		context.Background(),
		entities.Actor{ID: "buyer_3", Role: entities.RoleCustomer},
		entities.CollectionProductFiles,
		entities.OperationRead,
	)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if decision.Effect != entities.EffectDeny {
		t.Fatalf("expected deny for empty union, got %s", decision.Effect)
	}
}

func TestStrangerCannotReadAnotherBuyersFile(t *testing.T) {
	store := memory.NewStore()
	store.SeedOrderProduct("buyer_1", "order_1", "prod_1", "file_1", true, true)
	service := newService(store)

	ok, err := service.CanReadProductFile(context.Background(), entities.Actor{ID: "user_c", Role: entities.RoleCustomer}, "file_1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if ok {
		t.Fatal("unrelated customer must not read a purchased file")
	}
}

func TestCacheServesRepeatedChecks(t *testing.T) {
	store := memory.NewStore()
	store.SeedOwnedFile("seller_9", "file_9")
	service := newService(store)
	actor := entities.Actor{ID: "seller_9", Role: entities.RoleCustomer}

	if _, err := service.CanReadProductFile(context.Background(), actor, "file_9"); err != nil {
		t.Fatalf("first check failed: %v", err)
	}

	cached, hit, err := store.GetFileIDs(context.Background(), "seller_9", time.Now().UTC())
	if err != nil || !hit {
		t.Fatalf("expected cache hit, err=%v hit=%v", err, hit)
	}
	if len(cached) != 1 || cached[0] != "file_9" {
		t.Fatalf("unexpected cached set: %v", cached)
	}
}
