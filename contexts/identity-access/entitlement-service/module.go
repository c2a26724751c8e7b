package entitlement

import (
	"log/slog"
	"time"

	httpadapter "digitalhippo/contexts/identity-access/entitlement-service/adapters/http"
	"digitalhippo/contexts/identity-access/entitlement-service/adapters/memory"
	"digitalhippo/contexts/identity-access/entitlement-service/application"
	"digitalhippo/contexts/identity-access/entitlement-service/ports"
)

// Module is the entitlement-service composition root exposed to runtime
// wiring.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository ports.Repository
	Cache      ports.DecisionCache
	Clock      ports.Clock
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

// NewModule wires the evaluator and its transport handler using explicit
// ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:     deps.Repository,
		Cache:    deps.Cache,
		Clock:    deps.Clock,
		CacheTTL: deps.CacheTTL,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Cache:      store,
		Clock:      store,
		CacheTTL:   5 * time.Minute,
		Logger:     logger,
	})
	module.Store = store
	return module
}
