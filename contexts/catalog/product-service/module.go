package product

import (
	"log/slog"
	"time"

	httpadapter "digitalhippo/contexts/catalog/product-service/adapters/http"
	"digitalhippo/contexts/catalog/product-service/adapters/memory"
	"digitalhippo/contexts/catalog/product-service/application"
	"digitalhippo/contexts/catalog/product-service/domain/entities"
	"digitalhippo/contexts/catalog/product-service/ports"
)

// Module is the product-service composition root exposed to runtime
// wiring.
type Module struct {
	Handler   httpadapter.Handler
	Service   application.Service
	Store     *memory.Store
	Registrar *memory.Registrar
	Objects   *memory.ObjectStore
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository     ports.Repository
	Registrar      ports.PaymentRegistrar
	Objects        ports.ObjectStore
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	DownloadTTL    time.Duration
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// NewModule wires the catalog service and its transport handler using
// explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:           deps.Repository,
		Registrar:      deps.Registrar,
		Objects:        deps.Objects,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		Logger:         deps.Logger,
		DownloadTTL:    deps.DownloadTTL,
		IdempotencyTTL: deps.IdempotencyTTL,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters and a seeded catalog matching the storefront fixtures.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	registrar := memory.NewRegistrar()
	objects := memory.NewObjectStore()

	now := time.Now().UTC()
	objects.SeedObject("product-files/file_001/ui-kit.zip", []byte("ui-kit"))
	objects.SeedObject("product-files/file_002/icons.zip", []byte("icons"))
	objects.SeedObject("product-files/file_003/draft.zip", []byte("draft"))
	store.SeedProductFile(entities.ProductFile{
		ID:          "file_001",
		OwnerID:     "user_seller",
		Key:         "product-files/file_001/ui-kit.zip",
		ContentType: "application/zip",
		SizeBytes:   2048,
		CreatedAt:   now,
	})
	store.SeedProductFile(entities.ProductFile{
		ID:          "file_002",
		OwnerID:     "user_seller",
		Key:         "product-files/file_002/icons.zip",
		ContentType: "application/zip",
		SizeBytes:   1024,
		CreatedAt:   now,
	})
	store.SeedProductFile(entities.ProductFile{
		ID:          "file_003",
		OwnerID:     "user_seller",
		Key:         "product-files/file_003/draft.zip",
		ContentType: "application/zip",
		SizeBytes:   512,
		CreatedAt:   now,
	})
	store.SeedProduct(entities.Product{
		ID:                 "prod_001",
		SellerID:           "user_seller",
		Name:               "Minimalist UI Kit",
		Description:        "Clean component library",
		PriceCents:         1000,
		Category:           entities.CategoryUIKits,
		FileID:             "file_001",
		ImageIDs:           []string{"img_001"},
		ApprovalStatus:     entities.ApprovalApproved,
		ProcessorProductID: "prod_gw_seed_1",
		PriceRef:           "price_001",
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	store.SeedProduct(entities.Product{
		ID:                 "prod_002",
		SellerID:           "user_seller",
		Name:               "Icon Pack Vol. 2",
		Description:        "Outline icon set",
		PriceCents:         2000,
		Category:           entities.CategoryIcons,
		FileID:             "file_002",
		ImageIDs:           []string{"img_002"},
		ApprovalStatus:     entities.ApprovalApproved,
		ProcessorProductID: "prod_gw_seed_2",
		PriceRef:           "price_002",
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	// An approved listing the processor never priced; checkout drops it.
	store.SeedProduct(entities.Product{
		ID:             "prod_003",
		SellerID:       "user_seller",
		Name:           "Unpriced Draft",
		Description:    "Pending gateway sync",
		PriceCents:     500,
		Category:       entities.CategoryTemplates,
		FileID:         "file_003",
		ImageIDs:       []string{"img_003"},
		ApprovalStatus: entities.ApprovalApproved,
		CreatedAt:      now,
		UpdatedAt:      now,
	})

	module := NewModule(Dependencies{
		Repository:  store,
		Registrar:   registrar,
		Objects:     objects,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	module.Registrar = registrar
	module.Objects = objects
	return module
}
