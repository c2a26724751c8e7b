package user

import (
	"log/slog"
	"time"

	httpadapter "digitalhippo/contexts/identity-access/user-service/adapters/http"
	"digitalhippo/contexts/identity-access/user-service/adapters/memory"
	passwordadapter "digitalhippo/contexts/identity-access/user-service/adapters/password"
	tokenadapter "digitalhippo/contexts/identity-access/user-service/adapters/token"
	"digitalhippo/contexts/identity-access/user-service/application"
	"digitalhippo/contexts/identity-access/user-service/domain/entities"
	"digitalhippo/contexts/identity-access/user-service/ports"
)

// Module is the user-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Signer  ports.TokenSigner
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Hasher      ports.PasswordHasher
	Signer      ports.TokenSigner
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// NewModule wires the identity service and its transport handler using
// explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:        deps.Repository,
		Hasher:      deps.Hasher,
		Signer:      deps.Signer,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
		Signer:  deps.Signer,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters and a seeded admin account.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	hasher := passwordadapter.BcryptHasher{}
	signer := tokenadapter.NewJWTSigner("local-dev-secret", 24*time.Hour)

	adminHash, _ := hasher.Hash("admin-password")
	now := time.Now().UTC()
	store.SeedUser(entities.User{
		ID:           "user_admin",
		Email:        "admin@digitalhippo.local",
		PasswordHash: adminHash,
		Role:         entities.RoleAdmin,
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	module := NewModule(Dependencies{
		Repository:  store,
		Hasher:      hasher,
		Signer:      signer,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
