package ports

import (
	"context"
	"io"
	"time"

	"digitalhippo/contexts/catalog/product-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// ListScope narrows ListProducts to what the caller's entitlement decision
// permits. Zero value lists approved products only.
type ListScope struct {
	All          bool
	ApprovedOnly bool
	OwnerID      string
}

type ProductFilter struct {
	Scope    ListScope
	Category entities.Category
	Limit    int
}

type Repository interface {
	CreateProduct(ctx context.Context, product entities.Product) error
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	UpdateProduct(ctx context.Context, product entities.Product) error
	DeleteProduct(ctx context.Context, productID string) error
	ListProducts(ctx context.Context, filter ProductFilter) ([]entities.Product, error)
	ListProductsByIDs(ctx context.Context, productIDs []string) ([]entities.Product, error)

	CreateProductFile(ctx context.Context, file entities.ProductFile) error
	GetProductFile(ctx context.Context, fileID string) (entities.ProductFile, error)
	ListOwnedFileIDs(ctx context.Context, ownerID string) ([]string, error)

	CreateMedia(ctx context.Context, media entities.Media) error
	GetMedia(ctx context.Context, mediaID string) (entities.Media, error)
}

// GatewayProduct is what the payment processor hands back after a product
// is registered or re-synced.
type GatewayProduct struct {
	ProcessorProductID string
	PriceRef           string
}

// PaymentRegistrar mirrors the processor's product catalog. Registration
// failure fails the product write; a product the processor does not know
// cannot be priced and therefore cannot be sold.
type PaymentRegistrar interface {
	RegisterProduct(ctx context.Context, name string, priceCents int64) (GatewayProduct, error)
	UpdateProduct(ctx context.Context, processorProductID string, name string, priceCents int64) (GatewayProduct, error)
}

// ObjectStore abstracts the blob side of uploads and downloads.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) error
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}
