package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"digitalhippo/contexts/catalog/product-service/domain/entities"
	domainerrors "digitalhippo/contexts/catalog/product-service/domain/errors"
	"digitalhippo/contexts/catalog/product-service/ports"
)

// Service owns the product catalog: listings, the files and images behind
// them, approval state, and the payment-processor mirror.
type Service struct {
	Repo           ports.Repository
	Registrar      ports.PaymentRegistrar
	Objects        ports.ObjectStore
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Logger         *slog.Logger
	DownloadTTL    time.Duration
	IdempotencyTTL time.Duration
}

type CreateProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	Category    entities.Category
	FileID      string
	ImageIDs    []string
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Category    *entities.Category
	ImageIDs    *[]string
}

// PurchasableProduct is the snapshot view checkout consumes: approved
// listings with their processor price handles.
type PurchasableProduct struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	FileID     string `json:"file_id"`
	PriceCents int64  `json:"price_cents"`
	PriceRef   string `json:"price_ref"`
}

func (s Service) CreateProduct(
	ctx context.Context,
	idempotencyKey string,
	sellerID string,
	input CreateProductInput,
) (entities.Product, error) {
	var out entities.Product
	if strings.TrimSpace(sellerID) == "" {
		return out, domainerrors.ErrInvalidProductInput
	}
	if err := validateProductInput(input.Name, input.PriceCents, input.Category, input.ImageIDs); err != nil {
		return out, err
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return out, domainerrors.ErrIdempotencyKeyRequired
	}

	requestHash := hashStrings(
		"create_product",
		sellerID,
		input.Name,
		strconv.FormatInt(input.PriceCents, 10),
		string(input.Category),
		input.FileID,
		strings.Join(input.ImageIDs, ","),
	)
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			product, err := s.createProduct(ctx, sellerID, input)
			if err != nil {
				return nil, err
			}
			return json.Marshal(product)
		},
	)
	return out, err
}

func (s Service) createProduct(ctx context.Context, sellerID string, input CreateProductInput) (entities.Product, error) {
	logger := resolveLogger(s.Logger)

	file, err := s.Repo.GetProductFile(ctx, strings.TrimSpace(input.FileID))
	if err != nil {
		return entities.Product{}, err
	}
	if file.OwnerID != sellerID {
		return entities.Product{}, domainerrors.ErrForbidden
	}

	registered, err := s.Registrar.RegisterProduct(ctx, strings.TrimSpace(input.Name), input.PriceCents)
	if err != nil {
		logger.Error("gateway product registration failed",
			"event", "product_gateway_register_failed",
			"module", "catalog/product-service",
			"layer", "application",
			"seller_id", sellerID,
			"error", err.Error(),
		)
		return entities.Product{}, fmt.Errorf("%w: %v", domainerrors.ErrGatewayRegistration, err)
	}

	productID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Product{}, err
	}

	now := s.now()
	product := entities.Product{
		ID:                 productID,
		SellerID:           sellerID,
		Name:               strings.TrimSpace(input.Name),
		Description:        strings.TrimSpace(input.Description),
		PriceCents:         input.PriceCents,
		Category:           input.Category,
		FileID:             file.ID,
		ImageIDs:           append([]string(nil), input.ImageIDs...),
		ApprovalStatus:     entities.ApprovalPending,
		ProcessorProductID: registered.ProcessorProductID,
		PriceRef:           registered.PriceRef,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return entities.Product{}, err
	}

	logger.Info("product created",
		"event", "product_created",
		"module", "catalog/product-service",
		"layer", "application",
		"product_id", product.ID,
		"seller_id", sellerID,
		"price_cents", product.PriceCents,
	)
	return product, nil
}

func (s Service) UpdateProduct(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	productID string,
	input UpdateProductInput,
) (entities.Product, error) {
	product, err := s.Repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return entities.Product{}, err
	}
	if !actorIsAdmin && product.SellerID != actorID {
		return entities.Product{}, domainerrors.ErrForbidden
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.ImageIDs != nil {
		product.ImageIDs = append([]string(nil), (*input.ImageIDs)...)
	}
	if err := validateProductInput(product.Name, product.PriceCents, product.Category, product.ImageIDs); err != nil {
		return entities.Product{}, err
	}

	// Price and name changes must reach the processor, otherwise checkout
	// would charge the stale amount.
	if input.Name != nil || input.PriceCents != nil {
		synced, err := s.Registrar.UpdateProduct(ctx, product.ProcessorProductID, product.Name, product.PriceCents)
		if err != nil {
			return entities.Product{}, fmt.Errorf("%w: %v", domainerrors.ErrGatewayRegistration, err)
		}
		product.ProcessorProductID = synced.ProcessorProductID
		product.PriceRef = synced.PriceRef
	}

	product.UpdatedAt = s.now()
	if err := s.Repo.UpdateProduct(ctx, product); err != nil {
		return entities.Product{}, err
	}
	return product, nil
}

// SetApprovalStatus is admin only; sellers cannot approve themselves.
func (s Service) SetApprovalStatus(
	ctx context.Context,
	actorIsAdmin bool,
	productID string,
	status entities.ApprovalStatus,
) (entities.Product, error) {
	if !actorIsAdmin {
		return entities.Product{}, domainerrors.ErrForbidden
	}
	if !status.Valid() {
		return entities.Product{}, domainerrors.ErrInvalidProductInput
	}

	product, err := s.Repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return entities.Product{}, err
	}
	product.ApprovalStatus = status
	product.UpdatedAt = s.now()
	if err := s.Repo.UpdateProduct(ctx, product); err != nil {
		return entities.Product{}, err
	}

	resolveLogger(s.Logger).Info("product approval changed",
		"event", "product_approval_changed",
		"module", "catalog/product-service",
		"layer", "application",
		"product_id", product.ID,
		"status", string(status),
	)
	return product, nil
}

// GetProduct answers within the caller's scope. An out-of-scope product
// reads as not found rather than forbidden; listings must not leak.
func (s Service) GetProduct(ctx context.Context, scope ports.ListScope, productID string) (entities.Product, error) {
	product, err := s.Repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return entities.Product{}, err
	}
	if !scopePermits(scope, product) {
		return entities.Product{}, domainerrors.ErrProductNotFound
	}
	return product, nil
}

func (s Service) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]entities.Product, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domainerrors.ErrInvalidProductInput
	}
	return s.Repo.ListProducts(ctx, filter)
}

func (s Service) DeleteProduct(ctx context.Context, actorID string, actorIsAdmin bool, productID string) error {
	product, err := s.Repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	if !actorIsAdmin && product.SellerID != actorID {
		return domainerrors.ErrForbidden
	}
	// Paid orders carry their own snapshot of this product; deleting the
	// listing does not touch them.
	return s.Repo.DeleteProduct(ctx, product.ID)
}

func (s Service) UploadProductFile(
	ctx context.Context,
	ownerID string,
	filename string,
	contentType string,
	sizeBytes int64,
	body io.Reader,
) (entities.ProductFile, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(filename) == "" || sizeBytes <= 0 {
		return entities.ProductFile{}, domainerrors.ErrInvalidProductInput
	}

	fileID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.ProductFile{}, err
	}
	key := "product-files/" + fileID + "/" + path.Base(filename)
	if err := s.Objects.Put(ctx, key, contentType, body); err != nil {
		return entities.ProductFile{}, err
	}

	file := entities.ProductFile{
		ID:          fileID,
		OwnerID:     strings.TrimSpace(ownerID),
		Key:         key,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.CreateProductFile(ctx, file); err != nil {
		return entities.ProductFile{}, err
	}
	return file, nil
}

func (s Service) UploadImage(
	ctx context.Context,
	ownerID string,
	filename string,
	contentType string,
	body io.Reader,
) (entities.Media, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(filename) == "" {
		return entities.Media{}, domainerrors.ErrInvalidProductInput
	}

	mediaID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Media{}, err
	}
	key := "media/" + mediaID + "/" + path.Base(filename)
	if err := s.Objects.Put(ctx, key, contentType, body); err != nil {
		return entities.Media{}, err
	}

	media := entities.Media{
		ID:          mediaID,
		OwnerID:     strings.TrimSpace(ownerID),
		Key:         key,
		ContentType: contentType,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.CreateMedia(ctx, media); err != nil {
		return entities.Media{}, err
	}
	return media, nil
}

// PresignDownload turns a file id into a short-lived download URL. The
// entitlement check happens at the transport boundary before this runs.
func (s Service) PresignDownload(ctx context.Context, fileID string) (string, error) {
	file, err := s.Repo.GetProductFile(ctx, strings.TrimSpace(fileID))
	if err != nil {
		return "", err
	}
	ttl := s.DownloadTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return s.Objects.PresignDownload(ctx, file.Key, ttl)
}

// ListOwnedFileIDs feeds the entitlement evaluator's ownership side of the
// file union.
func (s Service) ListOwnedFileIDs(ctx context.Context, ownerID string) ([]string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domainerrors.ErrInvalidProductInput
	}
	return s.Repo.ListOwnedFileIDs(ctx, strings.TrimSpace(ownerID))
}

// ListPurchasableByIDs resolves cart product ids into checkout snapshots.
// Unapproved listings and listings without a processor price fall out; the
// checkout flow decides what an empty result means.
func (s Service) ListPurchasableByIDs(ctx context.Context, productIDs []string) ([]PurchasableProduct, error) {
	products, err := s.Repo.ListProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	items := make([]PurchasableProduct, 0, len(products))
	for _, product := range products {
		if product.ApprovalStatus != entities.ApprovalApproved {
			continue
		}
		items = append(items, PurchasableProduct{
			ProductID:  product.ID,
			Name:       product.Name,
			FileID:     product.FileID,
			PriceCents: product.PriceCents,
			PriceRef:   product.PriceRef,
		})
	}
	return items, nil
}

func scopePermits(scope ports.ListScope, product entities.Product) bool {
	if scope.All {
		return true
	}
	if scope.OwnerID != "" && product.SellerID == scope.OwnerID {
		return true
	}
	return product.ApprovalStatus == entities.ApprovalApproved
}

func validateProductInput(name string, priceCents int64, category entities.Category, imageIDs []string) error {
	if strings.TrimSpace(name) == "" {
		return domainerrors.ErrInvalidProductInput
	}
	if priceCents < entities.MinPriceCents || priceCents > entities.MaxPriceCents {
		return domainerrors.ErrInvalidProductInput
	}
	if !category.Valid() {
		return domainerrors.ErrInvalidProductInput
	}
	if len(imageIDs) < entities.MinImages || len(imageIDs) > entities.MaxImages {
		return domainerrors.ErrInvalidProductInput
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}

	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}
