package postgresadapter

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"digitalhippo/contexts/identity-access/entitlement-service/ports"
)

// Repository reads ownership and purchase history straight from the catalog
// and order tables. Order lines snapshot the product's file id at checkout;
// a line with an empty file_id is an unresolved relation and is reported as
// such, never guessed.
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

func (r *Repository) ListOwnedFileIDs(ctx context.Context, userID string) ([]string, error) {
	var soldFileIDs []string
	if err := r.db.WithContext(ctx).
		Table("catalog_products").
		Where("seller_id = ?", userID).
		Pluck("file_id", &soldFileIDs).
		Error; err != nil {
		return nil, err
	}

	var uploadedFileIDs []string
	if err := r.db.WithContext(ctx).
		Table("product_files").
		Where("owner_id = ?", userID).
		Pluck("file_id", &uploadedFileIDs).
		Error; err != nil {
		return nil, err
	}

	return append(soldFileIDs, uploadedFileIDs...), nil
}

type orderLineRow struct {
	OrderID   string `gorm:"column:order_id"`
	ProductID string `gorm:"column:product_id"`
	FileID    string `gorm:"column:file_id"`
}

func (r *Repository) ListPaidOrderProducts(ctx context.Context, userID string) ([]ports.OrderProductRef, error) {
	var rows []orderLineRow
	if err := r.db.WithContext(ctx).
		Table("order_lines").
		Select("order_lines.order_id, order_lines.product_id, order_lines.file_id").
		Joins("JOIN orders ON orders.order_id = order_lines.order_id").
		Where("orders.user_id = ? AND orders.paid = ?", userID, true).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	refs := make([]ports.OrderProductRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, ports.OrderProductRef{
			OrderID:   row.OrderID,
			ProductID: row.ProductID,
			FileID:    row.FileID,
			Resolved:  row.FileID != "",
		})
	}
	return refs, nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
