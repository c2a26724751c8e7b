package postgresadapter

import (
	"context"
	"strings"

	"digitalhippo/contexts/commerce/order-service/ports"

	"gorm.io/gorm"
)

// Catalog reads the purchasable product view maintained by the catalog
// context. Checkout only needs the snapshot columns, never the full
// product row.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) ListByIDs(ctx context.Context, productIDs []string) ([]ports.CatalogProduct, error) {
	if len(productIDs) == 0 {
		return []ports.CatalogProduct{}, nil
	}

	trimmed := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if value := strings.TrimSpace(id); value != "" {
			trimmed = append(trimmed, value)
		}
	}

	var rows []catalogProductModel
	if err := c.db.WithContext(ctx).
		Where("product_id IN ?", trimmed).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.CatalogProduct, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.CatalogProduct{
			ProductID:  row.ProductID,
			Name:       row.Name,
			FileID:     row.FileID,
			PriceCents: row.PriceCents,
			PriceRef:   row.PriceRef,
		})
	}
	return items, nil
}

type catalogProductModel struct {
	ProductID  string `gorm:"column:product_id;primaryKey"`
	Name       string `gorm:"column:name"`
	FileID     string `gorm:"column:file_id"`
	PriceCents int64  `gorm:"column:price_cents"`
	PriceRef   string `gorm:"column:price_ref"`
}

func (catalogProductModel) TableName() string {
	return "catalog_products"
}
