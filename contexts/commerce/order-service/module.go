package order

import (
	"log/slog"
	"time"

	httpadapter "digitalhippo/contexts/commerce/order-service/adapters/http"
	"digitalhippo/contexts/commerce/order-service/adapters/memory"
	"digitalhippo/contexts/commerce/order-service/application"
	"digitalhippo/contexts/commerce/order-service/application/workers"
	"digitalhippo/contexts/commerce/order-service/ports"
)

// Module is the order-service composition root exposed to runtime wiring.
type Module struct {
	Handler     httpadapter.Handler
	Service     application.Service
	OutboxRelay *workers.OutboxRelay
	Store       *memory.Store
	Gateway     *memory.Gateway
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository     ports.Repository
	Outbox         ports.OutboxRepository
	Catalog        ports.ProductCatalog
	Gateway        ports.PaymentGateway
	Receipts       ports.ReceiptSender
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Publisher      ports.EventPublisher
	PublicURL      string
	FeeCents       int64
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// NewModule wires the order lifecycle service, its transport handler, and
// the outbox relay using explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:           deps.Repository,
		Outbox:         deps.Outbox,
		Catalog:        deps.Catalog,
		Gateway:        deps.Gateway,
		Receipts:       deps.Receipts,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		Logger:         deps.Logger,
		PublicURL:      deps.PublicURL,
		FeeCents:       deps.FeeCents,
		IdempotencyTTL: deps.IdempotencyTTL,
	}
	module := Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
	if deps.Outbox != nil && deps.Publisher != nil {
		module.OutboxRelay = &workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		}
	}
	return module
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters and a fake payment gateway.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	module := NewModule(Dependencies{
		Repository:  store,
		Outbox:      store,
		Catalog:     store,
		Gateway:     gateway,
		Receipts:    store,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
		PublicURL:   "http://localhost:3000",
		Logger:      logger,
	})
	module.Store = store
	module.Gateway = gateway
	return module
}
