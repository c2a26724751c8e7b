package postgresadapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"digitalhippo/contexts/catalog/product-service/domain/entities"
	domainerrors "digitalhippo/contexts/catalog/product-service/domain/errors"
	"digitalhippo/contexts/catalog/product-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateProduct(ctx context.Context, product entities.Product) error {
	row := productModelFromEntity(product)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidProductInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	var row productModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", strings.TrimSpace(productID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Product{}, domainerrors.ErrProductNotFound
		}
		return entities.Product{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product entities.Product) error {
	row := productModelFromEntity(product)
	result := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("product_id = ?", row.ProductID).
		Updates(map[string]any{
			"name":                 row.Name,
			"description":          row.Description,
			"price_cents":          row.PriceCents,
			"category":             row.Category,
			"file_id":              row.FileID,
			"image_ids":            row.ImageIDs,
			"approval_status":      row.ApprovalStatus,
			"processor_product_id": row.ProcessorProductID,
			"price_ref":            row.PriceRef,
			"updated_at":           row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProductNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, productID string) error {
	result := r.db.WithContext(ctx).
		Where("product_id = ?", strings.TrimSpace(productID)).
		Delete(&productModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProductNotFound
	}
	return nil
}

func (r *Repository) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]entities.Product, error) {
	tx := r.db.WithContext(ctx).Model(&productModel{})
	switch {
	case filter.Scope.All:
		// no narrowing
	case filter.Scope.OwnerID != "":
		tx = tx.Where(
			"seller_id = ? OR approval_status = ?",
			strings.TrimSpace(filter.Scope.OwnerID),
			string(entities.ApprovalApproved),
		)
	default:
		tx = tx.Where("approval_status = ?", string(entities.ApprovalApproved))
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", string(filter.Category))
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}

	var rows []productModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListProductsByIDs(ctx context.Context, productIDs []string) ([]entities.Product, error) {
	trimmed := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if value := strings.TrimSpace(id); value != "" {
			trimmed = append(trimmed, value)
		}
	}
	if len(trimmed) == 0 {
		return []entities.Product{}, nil
	}

	var rows []productModel
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", trimmed).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateProductFile(ctx context.Context, file entities.ProductFile) error {
	row := productFileModel{
		FileID:      strings.TrimSpace(file.ID),
		OwnerID:     strings.TrimSpace(file.OwnerID),
		Key:         strings.TrimSpace(file.Key),
		ContentType: strings.TrimSpace(file.ContentType),
		SizeBytes:   file.SizeBytes,
		CreatedAt:   file.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidProductInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetProductFile(ctx context.Context, fileID string) (entities.ProductFile, error) {
	var row productFileModel
	err := r.db.WithContext(ctx).
		Where("file_id = ?", strings.TrimSpace(fileID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ProductFile{}, domainerrors.ErrFileNotFound
		}
		return entities.ProductFile{}, err
	}
	return entities.ProductFile{
		ID:          row.FileID,
		OwnerID:     row.OwnerID,
		Key:         row.Key,
		ContentType: row.ContentType,
		SizeBytes:   row.SizeBytes,
		CreatedAt:   row.CreatedAt.UTC(),
	}, nil
}

func (r *Repository) ListOwnedFileIDs(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&productFileModel{}).
		Where("owner_id = ?", strings.TrimSpace(ownerID)).
		Order("file_id ASC").
		Pluck("file_id", &ids).
		Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) CreateMedia(ctx context.Context, media entities.Media) error {
	row := mediaModel{
		MediaID:     strings.TrimSpace(media.ID),
		OwnerID:     strings.TrimSpace(media.OwnerID),
		Key:         strings.TrimSpace(media.Key),
		ContentType: strings.TrimSpace(media.ContentType),
		CreatedAt:   media.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidProductInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, mediaID string) (entities.Media, error) {
	var row mediaModel
	err := r.db.WithContext(ctx).
		Where("media_id = ?", strings.TrimSpace(mediaID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Media{}, domainerrors.ErrMediaNotFound
		}
		return entities.Media{}, err
	}
	return entities.Media{
		ID:          row.MediaID,
		OwnerID:     row.OwnerID,
		Key:         row.Key,
		ContentType: row.ContentType,
		CreatedAt:   row.CreatedAt.UTC(),
	}, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: record.RequestHash,
		Payload:     append([]byte(nil), record.Payload...),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != row.RequestHash || !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

type productModel struct {
	ProductID          string    `gorm:"column:product_id;primaryKey"`
	SellerID           string    `gorm:"column:seller_id"`
	Name               string    `gorm:"column:name"`
	Description        string    `gorm:"column:description"`
	PriceCents         int64     `gorm:"column:price_cents"`
	Category           string    `gorm:"column:category"`
	FileID             string    `gorm:"column:file_id"`
	ImageIDs           []string  `gorm:"column:image_ids;type:text[]"`
	ApprovalStatus     string    `gorm:"column:approval_status"`
	ProcessorProductID string    `gorm:"column:processor_product_id"`
	PriceRef           string    `gorm:"column:price_ref"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string {
	return "catalog_products"
}

func productModelFromEntity(item entities.Product) productModel {
	return productModel{
		ProductID:          strings.TrimSpace(item.ID),
		SellerID:           strings.TrimSpace(item.SellerID),
		Name:               strings.TrimSpace(item.Name),
		Description:        strings.TrimSpace(item.Description),
		PriceCents:         item.PriceCents,
		Category:           string(item.Category),
		FileID:             strings.TrimSpace(item.FileID),
		ImageIDs:           copyOrEmpty(item.ImageIDs),
		ApprovalStatus:     string(item.ApprovalStatus),
		ProcessorProductID: strings.TrimSpace(item.ProcessorProductID),
		PriceRef:           strings.TrimSpace(item.PriceRef),
		CreatedAt:          item.CreatedAt.UTC(),
		UpdatedAt:          item.UpdatedAt.UTC(),
	}
}

func (m productModel) toEntity() entities.Product {
	return entities.Product{
		ID:                 m.ProductID,
		SellerID:           m.SellerID,
		Name:               m.Name,
		Description:        m.Description,
		PriceCents:         m.PriceCents,
		Category:           entities.Category(m.Category),
		FileID:             m.FileID,
		ImageIDs:           copyOrEmpty(m.ImageIDs),
		ApprovalStatus:     entities.ApprovalStatus(m.ApprovalStatus),
		ProcessorProductID: m.ProcessorProductID,
		PriceRef:           m.PriceRef,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type productFileModel struct {
	FileID      string    `gorm:"column:file_id;primaryKey"`
	OwnerID     string    `gorm:"column:owner_id"`
	Key         string    `gorm:"column:object_key"`
	ContentType string    `gorm:"column:content_type"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (productFileModel) TableName() string {
	return "product_files"
}

type mediaModel struct {
	MediaID     string    `gorm:"column:media_id;primaryKey"`
	OwnerID     string    `gorm:"column:owner_id"`
	Key         string    `gorm:"column:object_key"`
	ContentType string    `gorm:"column:content_type"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (mediaModel) TableName() string {
	return "media"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "catalog_idempotency"
}

func copyOrEmpty(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return append([]string(nil), items...)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
