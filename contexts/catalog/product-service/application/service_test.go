package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"digitalhippo/contexts/catalog/product-service/adapters/memory"
	"digitalhippo/contexts/catalog/product-service/application"
	"digitalhippo/contexts/catalog/product-service/domain/entities"
	domainerrors "digitalhippo/contexts/catalog/product-service/domain/errors"
	"digitalhippo/contexts/catalog/product-service/ports"
)

func newTestService(t *testing.T) (application.Service, *memory.Store, *memory.Registrar, *memory.ObjectStore) {
	t.Helper()
	store := memory.NewStore()
	registrar := memory.NewRegistrar()
	objects := memory.NewObjectStore()
	service := application.Service{
		Repo:        store,
		Registrar:   registrar,
		Objects:     objects,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
	}
	return service, store, registrar, objects
}

func uploadFile(t *testing.T, service application.Service, ownerID string) entities.ProductFile {
	t.Helper()
	file, err := service.UploadProductFile(
		context.Background(),
		ownerID,
		"kit.zip",
		"application/zip",
		6,
		strings.NewReader("sample"),
	)
	if err != nil {
		t.Fatalf("upload file: %v", err)
	}
	return file
}

func validInput(fileID string) application.CreateProductInput {
	return application.CreateProductInput{
		Name:        "Minimalist UI Kit",
		Description: "Clean component library",
		PriceCents:  1000,
		Category:    entities.CategoryUIKits,
		FileID:      fileID,
		ImageIDs:    []string{"img_1"},
	}
}

func TestCreateProductRegistersWithGateway(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	product, err := service.CreateProduct(context.Background(), "key-1", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.ApprovalStatus != entities.ApprovalPending {
		t.Fatalf("status = %q, want pending", product.ApprovalStatus)
	}
	if product.ProcessorProductID == "" || product.PriceRef == "" {
		t.Fatalf("gateway handles missing: %+v", product)
	}
	if product.FileID != file.ID {
		t.Fatalf("file id = %q, want %q", product.FileID, file.ID)
	}
}

func TestCreateProductValidation(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	cases := []struct {
		name   string
		mutate func(*application.CreateProductInput)
	}{
		{"empty name", func(in *application.CreateProductInput) { in.Name = " " }},
		{"negative price", func(in *application.CreateProductInput) { in.PriceCents = -1 }},
		{"price above cap", func(in *application.CreateProductInput) { in.PriceCents = 100_001 }},
		{"bad category", func(in *application.CreateProductInput) { in.Category = "gadgets" }},
		{"no images", func(in *application.CreateProductInput) { in.ImageIDs = nil }},
		{"too many images", func(in *application.CreateProductInput) {
			in.ImageIDs = []string{"a", "b", "c", "d", "e"}
		}},
	}
	for _, tc := range cases {
		input := validInput(file.ID)
		tc.mutate(&input)
		if _, err := service.CreateProduct(context.Background(), "key-"+tc.name, "seller_1", input); !errors.Is(err, domainerrors.ErrInvalidProductInput) {
			t.Fatalf("%s: expected ErrInvalidProductInput, got %v", tc.name, err)
		}
	}

	// Price boundaries are inclusive.
	free := validInput(file.ID)
	free.PriceCents = 0
	if _, err := service.CreateProduct(context.Background(), "key-free", "seller_1", free); err != nil {
		t.Fatalf("zero price must be allowed: %v", err)
	}
	max := validInput(file.ID)
	max.PriceCents = 100_000
	if _, err := service.CreateProduct(context.Background(), "key-max", "seller_1", max); err != nil {
		t.Fatalf("max price must be allowed: %v", err)
	}
}

func TestCreateProductForeignFileForbidden(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	if _, err := service.CreateProduct(context.Background(), "key-foreign", "seller_2", validInput(file.ID)); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateProductGatewayFailureFailsCreate(t *testing.T) {
	service, store, registrar, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")
	registrar.FailNext()

	_, err := service.CreateProduct(context.Background(), "key-gwfail", "seller_1", validInput(file.ID))
	if !errors.Is(err, domainerrors.ErrGatewayRegistration) {
		t.Fatalf("expected ErrGatewayRegistration, got %v", err)
	}

	items, err := store.ListProducts(context.Background(), ports.ProductFilter{Scope: ports.ListScope{All: true}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("no product should exist after gateway failure, got %d", len(items))
	}
}

func TestCreateProductIdempotentReplay(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	first, err := service.CreateProduct(context.Background(), "key-replay", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := service.CreateProduct(context.Background(), "key-replay", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("replay create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay created a second product")
	}

	other := validInput(file.ID)
	other.Name = "Different Kit"
	if _, err := service.CreateProduct(context.Background(), "key-replay", "seller_1", other); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestUpdateProductOwnershipAndGatewaySync(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	product, err := service.CreateProduct(context.Background(), "key-up", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	originalPriceRef := product.PriceRef

	newPrice := int64(2500)
	if _, err := service.UpdateProduct(context.Background(), "stranger", false, product.ID, application.UpdateProductInput{PriceCents: &newPrice}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}

	updated, err := service.UpdateProduct(context.Background(), "seller_1", false, product.ID, application.UpdateProductInput{PriceCents: &newPrice})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.PriceCents != 2500 {
		t.Fatalf("price = %d, want 2500", updated.PriceCents)
	}
	if updated.PriceRef == originalPriceRef {
		t.Fatalf("price change must produce a fresh gateway price ref")
	}

	// Description-only edits skip the gateway round trip.
	description := "Updated copy"
	after, err := service.UpdateProduct(context.Background(), "admin", true, product.ID, application.UpdateProductInput{Description: &description})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if after.PriceRef != updated.PriceRef {
		t.Fatalf("description edit must not touch the price ref")
	}
}

func TestSetApprovalStatusAdminOnly(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	product, err := service.CreateProduct(context.Background(), "key-appr", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.SetApprovalStatus(context.Background(), false, product.ID, entities.ApprovalApproved); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if _, err := service.SetApprovalStatus(context.Background(), true, product.ID, entities.ApprovalStatus("published")); !errors.Is(err, domainerrors.ErrInvalidProductInput) {
		t.Fatalf("expected ErrInvalidProductInput for bad status, got %v", err)
	}

	approved, err := service.SetApprovalStatus(context.Background(), true, product.ID, entities.ApprovalApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.ApprovalStatus != entities.ApprovalApproved {
		t.Fatalf("status = %q", approved.ApprovalStatus)
	}
}

func TestVisibilityScopes(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	pending, err := service.CreateProduct(context.Background(), "key-vis", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Anonymous scope: pending products read as not found, not forbidden.
	anonymous := ports.ListScope{ApprovedOnly: true}
	if _, err := service.GetProduct(context.Background(), anonymous, pending.ID); !errors.Is(err, domainerrors.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for anonymous, got %v", err)
	}

	// The owner sees their own pending listing; admins see everything.
	if _, err := service.GetProduct(context.Background(), ports.ListScope{OwnerID: "seller_1"}, pending.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := service.GetProduct(context.Background(), ports.ListScope{All: true}, pending.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}

	if _, err := service.SetApprovalStatus(context.Background(), true, pending.ID, entities.ApprovalApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := service.GetProduct(context.Background(), anonymous, pending.ID); err != nil {
		t.Fatalf("approved product must be public: %v", err)
	}

	items, err := service.ListProducts(context.Background(), ports.ProductFilter{Scope: anonymous})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("anonymous list = %d items, want 1", len(items))
	}
}

func TestListPurchasableByIDsFiltersUnapproved(t *testing.T) {
	service, _, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	pending, err := service.CreateProduct(context.Background(), "key-p1", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}
	approvedInput := validInput(file.ID)
	approvedInput.Name = "Approved Kit"
	approved, err := service.CreateProduct(context.Background(), "key-p2", "seller_1", approvedInput)
	if err != nil {
		t.Fatalf("create approved: %v", err)
	}
	if _, err := service.SetApprovalStatus(context.Background(), true, approved.ID, entities.ApprovalApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	items, err := service.ListPurchasableByIDs(context.Background(), []string{pending.ID, approved.ID, "prod_missing"})
	if err != nil {
		t.Fatalf("list purchasable: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != approved.ID {
		t.Fatalf("unexpected purchasable set %+v", items)
	}
	if items[0].PriceRef == "" {
		t.Fatalf("purchasable snapshot must carry the price ref")
	}
}

func TestUploadAndPresignDownload(t *testing.T) {
	service, _, _, objects := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	if _, ok := objects.Object(file.Key); !ok {
		t.Fatalf("upload did not reach object storage")
	}

	url, err := service.PresignDownload(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, file.Key) {
		t.Fatalf("url %q does not reference the object key", url)
	}

	if _, err := service.PresignDownload(context.Background(), "file_missing"); !errors.Is(err, domainerrors.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestDeleteProductKeepsOwnershipRules(t *testing.T) {
	service, store, _, _ := newTestService(t)
	file := uploadFile(t, service, "seller_1")

	product, err := service.CreateProduct(context.Background(), "key-del", "seller_1", validInput(file.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.DeleteProduct(context.Background(), "stranger", false, product.ID); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := service.DeleteProduct(context.Background(), "seller_1", false, product.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := store.GetProduct(context.Background(), product.ID); !errors.Is(err, domainerrors.ErrProductNotFound) {
		t.Fatalf("product must be gone, got %v", err)
	}

	// The file record survives; paid orders reference it by snapshot.
	if _, err := store.GetProductFile(context.Background(), file.ID); err != nil {
		t.Fatalf("file must survive product deletion: %v", err)
	}
}

func TestListOwnedFileIDs(t *testing.T) {
	service, _, _, _ := newTestService(t)
	first := uploadFile(t, service, "seller_1")
	second := uploadFile(t, service, "seller_1")
	uploadFile(t, service, "seller_2")

	ids, err := service.ListOwnedFileIDs(context.Background(), "seller_1")
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("owned ids = %v, want 2 entries", ids)
	}
	want := map[string]bool{first.ID: true, second.ID: true}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected id %q in %v", id, ids)
		}
	}
}
