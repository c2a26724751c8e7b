package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	product "digitalhippo/contexts/catalog/product-service"
	productmemory "digitalhippo/contexts/catalog/product-service/adapters/memory"
	productpg "digitalhippo/contexts/catalog/product-service/adapters/postgres"
	productstripe "digitalhippo/contexts/catalog/product-service/adapters/stripe"
	productports "digitalhippo/contexts/catalog/product-service/ports"
	order "digitalhippo/contexts/commerce/order-service"
	ordermemory "digitalhippo/contexts/commerce/order-service/adapters/memory"
	orderpg "digitalhippo/contexts/commerce/order-service/adapters/postgres"
	orderstripe "digitalhippo/contexts/commerce/order-service/adapters/stripe"
	orderworkers "digitalhippo/contexts/commerce/order-service/application/workers"
	orderports "digitalhippo/contexts/commerce/order-service/ports"
	entitlement "digitalhippo/contexts/identity-access/entitlement-service"
	entitlementmemory "digitalhippo/contexts/identity-access/entitlement-service/adapters/memory"
	entitlementpg "digitalhippo/contexts/identity-access/entitlement-service/adapters/postgres"
	entitlementredis "digitalhippo/contexts/identity-access/entitlement-service/adapters/redis"
	entitlementworkers "digitalhippo/contexts/identity-access/entitlement-service/application/workers"
	entitlementports "digitalhippo/contexts/identity-access/entitlement-service/ports"
	user "digitalhippo/contexts/identity-access/user-service"
	passwordadapter "digitalhippo/contexts/identity-access/user-service/adapters/password"
	userpg "digitalhippo/contexts/identity-access/user-service/adapters/postgres"
	tokenadapter "digitalhippo/contexts/identity-access/user-service/adapters/token"
	"digitalhippo/internal/platform/config"
	"digitalhippo/internal/platform/db"
	"digitalhippo/internal/platform/httpserver"
	"digitalhippo/internal/platform/messaging"
	"digitalhippo/internal/platform/storage"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	outboxRelay   *orderworkers.OutboxRelay
	sessionPoller *orderworkers.SessionPoller
	payments      *orderworkers.PaymentEventConsumer
	eviction      *entitlementworkers.PaidOrderConsumer
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	verifier := webhookVerifier(cfg, logger)

	// Without a database the process runs fully in memory: seeded catalog,
	// fake gateway, per-process state. Useful for storefront development.
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("no POSTGRES_DSN set, running with in-memory state",
			"event", "bootstrap_memory_mode",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		users, catalog, commerce, entitlements := buildMemoryModules(cfg, logger)
		server := httpserver.New(users, catalog, commerce, entitlements, verifier, logger, normalizeAddr(cfg.HTTPPort))
		return &APIApp{server: server, logger: logger}, nil
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	users := user.NewModule(user.Dependencies{
		Repository:  userpg.NewRepository(pg.DB, logger),
		Hasher:      passwordadapter.BcryptHasher{},
		Signer:      tokenadapter.NewJWTSigner(cfg.JWTSecret, cfg.JWTTokenTTL),
		Clock:       userpg.SystemClock{},
		IDGenerator: userpg.UUIDGenerator{},
		Logger:      logger,
	})

	catalog := product.NewModule(product.Dependencies{
		Repository:     productpg.NewRepository(pg.DB, logger),
		Registrar:      paymentRegistrar(cfg, logger),
		Objects:        objectStore(cfg, logger),
		Idempotency:    productpg.NewRepository(pg.DB, logger),
		Clock:          productpg.SystemClock{},
		IDGenerator:    productpg.UUIDGenerator{},
		DownloadTTL:    cfg.DownloadURLTTL,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})

	orderRepo := orderpg.NewRepository(pg.DB, logger)
	commerce := order.NewModule(order.Dependencies{
		Repository:     orderRepo,
		Outbox:         orderRepo,
		Catalog:        orderpg.NewCatalog(pg.DB),
		Gateway:        paymentGateway(cfg, logger),
		Receipts:       receiptSender(cfg, pg, logger),
		Idempotency:    orderRepo,
		Clock:          orderpg.SystemClock{},
		IDGenerator:    orderpg.UUIDGenerator{},
		PublicURL:      cfg.PublicURL,
		FeeCents:       cfg.TransactionFeeCents,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	entitlements := entitlement.NewModule(entitlement.Dependencies{
		Repository: entitlementpg.NewRepository(pg.DB, logger),
		Cache:      entitlementCache(cfg),
		Clock:      entitlementpg.SystemClock{},
		CacheTTL:   5 * time.Minute,
		Logger:     logger,
	})

	server := httpserver.New(users, catalog, commerce, entitlements, verifier, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	orderRepo := orderpg.NewRepository(pg.DB, logger)

	app := &WorkerApp{
		postgres:     pg,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}

	if cfg.EnableOrderPaidRelay {
		app.outboxRelay = &orderworkers.OutboxRelay{
			Outbox:    orderRepo,
			Publisher: bus,
			Clock:     orderpg.SystemClock{},
			Logger:    logger,
		}
	}

	if cfg.EnablePaymentConsumer {
		service := order.NewModule(order.Dependencies{
			Repository:  orderRepo,
			Outbox:      orderRepo,
			Receipts:    receiptSender(cfg, pg, logger),
			Idempotency: orderRepo,
			Clock:       orderpg.SystemClock{},
			IDGenerator: orderpg.UUIDGenerator{},
			Logger:      logger,
		}).Service
		app.payments = &orderworkers.PaymentEventConsumer{
			Subscriber: bus,
			Service:    service,
			Logger:     logger,
		}

		// The poller is the consumer's producer: it asks the processor about
		// pending sessions and publishes completions onto the bus. Without a
		// processor key there is nothing to ask.
		if strings.TrimSpace(cfg.StripeSecretKey) == "" {
			logger.Warn("no STRIPE_SECRET_KEY set, session reconciliation disabled",
				"event", "bootstrap_session_poller_disabled",
				"module", "internal/app/bootstrap",
				"layer", "platform",
			)
		} else {
			app.sessionPoller = &orderworkers.SessionPoller{
				Repo: orderRepo,
				Checker: orderstripe.NewGateway(orderstripe.Options{
					SecretKey: cfg.StripeSecretKey,
					BaseURL:   cfg.StripeBaseURL,
					Timeout:   cfg.StripeTimeout,
					Logger:    logger,
				}),
				Publisher:   bus,
				Clock:       orderpg.SystemClock{},
				IDGenerator: orderpg.UUIDGenerator{},
				Logger:      logger,
			}
		}
	}

	// Without redis each process holds its own cache; evicting the worker's
	// copy would leave the API serving stale entries until TTL expiry.
	if cfg.EnableEntitlementEviction && !sharedEvictionCache(cfg) {
		logger.Warn("no REDIS_ADDR set, entitlement eviction disabled",
			"event", "bootstrap_eviction_disabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	if cfg.EnableEntitlementEviction && sharedEvictionCache(cfg) {
		service := entitlement.NewModule(entitlement.Dependencies{
			Repository: entitlementpg.NewRepository(pg.DB, logger),
			Cache:      entitlementCache(cfg),
			Clock:      entitlementpg.SystemClock{},
			Logger:     logger,
		}).Service
		app.eviction = &entitlementworkers.PaidOrderConsumer{
			Subscriber: paidOrderSubscriber{
				bus:           bus,
				topic:         "order.paid",
				consumerGroup: "entitlement-eviction-cg",
			},
			Service: service,
			Logger:  logger,
		}
	}

	return app, nil
}

func buildMemoryModules(cfg config.Config, logger *slog.Logger) (user.Module, product.Module, order.Module, entitlement.Module) {
	users := user.NewInMemoryModule(logger)
	catalog := product.NewInMemoryModule(logger)

	store := ordermemory.NewStore()
	commerce := order.NewModule(order.Dependencies{
		Repository:  store,
		Outbox:      store,
		Catalog:     catalogBridge{products: catalog.Service},
		Gateway:     ordermemory.NewGateway(),
		Receipts:    store,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
		PublicURL:   cfg.PublicURL,
		FeeCents:    cfg.TransactionFeeCents,
		Logger:      logger,
	})

	entitlements := entitlement.NewModule(entitlement.Dependencies{
		Repository: entitlementBridge{
			products: catalog.Service,
			orders:   commerce.Service,
		},
		Cache:  entitlementmemory.NewStore(),
		Clock:  store,
		Logger: logger,
	})

	return users, catalog, commerce, entitlements
}

func webhookVerifier(cfg config.Config, logger *slog.Logger) *orderstripe.WebhookVerifier {
	if strings.TrimSpace(cfg.StripeWebhookSecret) == "" {
		logger.Warn("no STRIPE_WEBHOOK_SECRET set, webhook signatures are not verified",
			"event", "bootstrap_webhook_unverified",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return nil
	}
	return orderstripe.NewWebhookVerifier(cfg.StripeWebhookSecret)
}

func paymentGateway(cfg config.Config, logger *slog.Logger) orderports.PaymentGateway {
	if strings.TrimSpace(cfg.StripeSecretKey) == "" {
		logger.Warn("no STRIPE_SECRET_KEY set, using the fake payment gateway",
			"event", "bootstrap_fake_gateway",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return ordermemory.NewGateway()
	}
	return orderstripe.NewGateway(orderstripe.Options{
		SecretKey: cfg.StripeSecretKey,
		BaseURL:   cfg.StripeBaseURL,
		Timeout:   cfg.StripeTimeout,
		Logger:    logger,
	})
}

func paymentRegistrar(cfg config.Config, logger *slog.Logger) productports.PaymentRegistrar {
	if strings.TrimSpace(cfg.StripeSecretKey) == "" {
		return productmemory.NewRegistrar()
	}
	return productstripe.NewRegistrar(productstripe.Options{
		SecretKey: cfg.StripeSecretKey,
		BaseURL:   cfg.StripeBaseURL,
		Timeout:   cfg.StripeTimeout,
		Logger:    logger,
	})
}

func objectStore(cfg config.Config, logger *slog.Logger) productports.ObjectStore {
	if strings.TrimSpace(cfg.S3Bucket) == "" {
		logger.Warn("no S3_BUCKET set, storing objects in memory",
			"event", "bootstrap_memory_objects",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return productmemory.NewObjectStore()
	}

	objects, err := storage.NewObjectStore(context.Background(), storage.Options{
		Bucket:   cfg.S3Bucket,
		Region:   cfg.S3Region,
		Key:      cfg.S3Key,
		Secret:   cfg.S3Secret,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		logger.Error("object store unavailable, falling back to memory",
			"event", "bootstrap_object_store_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
		return productmemory.NewObjectStore()
	}
	return objects
}

func receiptSender(cfg config.Config, pg *db.Postgres, logger *slog.Logger) orderports.ReceiptSender {
	if !cfg.EnableReceiptSender {
		return nil
	}
	return orderpg.NewReceiptLedger(pg.DB, logger)
}

func entitlementCache(cfg config.Config) entitlementports.DecisionCache {
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		return entitlementredis.NewCache(cfg.RedisAddr)
	}
	return entitlementmemory.NewStore()
}

// sharedEvictionCache reports whether the worker's eviction reaches the
// cache the API reads. Only redis is shared across processes.
func sharedEvictionCache(cfg config.Config) bool {
	return strings.TrimSpace(cfg.RedisAddr) != ""
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.payments != nil {
		if err := w.payments.Start(ctx); err != nil {
			return err
		}
	}
	if w.eviction != nil {
		if err := w.eviction.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.outboxRelay != nil {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.sessionPoller != nil {
			if err := w.sessionPoller.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
