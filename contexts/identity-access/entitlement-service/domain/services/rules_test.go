package services

import (
	"testing"

	"digitalhippo/contexts/identity-access/entitlement-service/domain/entities"
)

func TestAdminAllowedEverywhere(t *testing.T) {
	admin := entities.Actor{ID: "admin_1", Role: entities.RoleAdmin}
	collections := []entities.Collection{
		entities.CollectionUsers,
		entities.CollectionProducts,
		entities.CollectionProductFiles,
		entities.CollectionOrders,
		entities.CollectionMedia,
	}
	operations := []entities.Operation{
		entities.OperationRead,
		entities.OperationCreate,
		entities.OperationUpdate,
		entities.OperationDelete,
	}

	for _, collection := range collections {
		for _, operation := range operations {
			decision, handled := Evaluate(admin, collection, operation)
			if !handled {
				t.Fatalf("admin %s/%s not handled statically", collection, operation)
			}
			if !decision.Allowed() {
				t.Fatalf("admin denied on %s/%s: %+v", collection, operation, decision)
			}
		}
	}
}

func TestAnonymousProductReadIsApprovedOnly(t *testing.T) {
	decision, handled := Evaluate(entities.Actor{}, entities.CollectionProducts, entities.OperationRead)
	if !handled {
		t.Fatal("anonymous product read not handled")
	}
	if decision.Effect != entities.EffectFilter {
		t.Fatalf("expected filter, got %s", decision.Effect)
	}
	if len(decision.Filter) != 1 || decision.Filter[0].Field != "approved_for_sale" {
		t.Fatalf("expected approved_for_sale clause, got %+v", decision.Filter)
	}
}

func TestAnonymousWritesDenied(t *testing.T) {
	for _, operation := range []entities.Operation{
		entities.OperationCreate,
		entities.OperationUpdate,
		entities.OperationDelete,
	} {
		decision, _ := Evaluate(entities.Actor{}, entities.CollectionProducts, operation)
		if decision.Effect != entities.EffectDeny {
			t.Fatalf("expected deny for anonymous %s, got %s", operation, decision.Effect)
		}
	}
}

func TestCustomerOrderReadScopedToOwner(t *testing.T) {
	customer := entities.Actor{ID: "user_7", Role: entities.RoleCustomer}
	decision, _ := Evaluate(customer, entities.CollectionOrders, entities.OperationRead)
	if decision.Effect != entities.EffectFilter {
		t.Fatalf("expected filter, got %s", decision.Effect)
	}
	if decision.Filter[0].Field != "user" || decision.Filter[0].Values[0] != "user_7" {
		t.Fatalf("expected owner clause, got %+v", decision.Filter)
	}
}

func TestCustomerOrderWriteDenied(t *testing.T) {
	customer := entities.Actor{ID: "user_7", Role: entities.RoleCustomer}
	decision, _ := Evaluate(customer, entities.CollectionOrders, entities.OperationCreate)
	if decision.Effect != entities.EffectDeny {
		t.Fatalf("expected deny, got %s", decision.Effect)
	}
}

func TestCustomerMediaWriteScopedToOwner(t *testing.T) {
	customer := entities.Actor{ID: "user_7", Role: entities.RoleCustomer}
	for _, operation := range []entities.Operation{
		entities.OperationUpdate,
		entities.OperationDelete,
	} {
		decision, _ := Evaluate(customer, entities.CollectionMedia, operation)
		if decision.Effect != entities.EffectFilter {
			t.Fatalf("expected owner filter for media %s, got %s", operation, decision.Effect)
		}
		if decision.Filter[0].Field != "user" || decision.Filter[0].Values[0] != "user_7" {
			t.Fatalf("expected owner clause, got %+v", decision.Filter)
		}
	}

	decision, _ := Evaluate(entities.Actor{}, entities.CollectionMedia, entities.OperationDelete)
	if decision.Effect != entities.EffectDeny {
		t.Fatalf("anonymous media delete must deny, got %s", decision.Effect)
	}
}

func TestCustomerProductFileReadNeedsData(t *testing.T) {
	customer := entities.Actor{ID: "user_7", Role: entities.RoleCustomer}
	_, handled := Evaluate(customer, entities.CollectionProductFiles, entities.OperationRead)
	if handled {
		t.Fatal("customer product-file read must defer to the union computation")
	}
}

func TestFileUnionDecision(t *testing.T) {
	if got := FileUnionDecision(nil); got.Effect != entities.EffectDeny {
		t.Fatalf("empty union should deny, got %s", got.Effect)
	}

	decision := FileUnionDecision([]string{"file_1", "file_2"})
	if decision.Effect != entities.EffectFilter {
		t.Fatalf("expected filter, got %s", decision.Effect)
	}
	if !decision.PermitsID("file_1") || decision.PermitsID("file_9") {
		t.Fatalf("unexpected membership results: %+v", decision.Filter)
	}
}
