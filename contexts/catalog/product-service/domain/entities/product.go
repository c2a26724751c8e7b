package entities

import "time"

type Category string

const (
	CategoryUIKits        Category = "ui_kits"
	CategoryIcons         Category = "icons"
	CategoryFonts         Category = "fonts"
	CategoryTemplates     Category = "templates"
	CategoryIllustrations Category = "illustrations"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryUIKits, CategoryIcons, CategoryFonts, CategoryTemplates, CategoryIllustrations:
		return true
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

func (s ApprovalStatus) Valid() bool {
	return s == ApprovalPending || s == ApprovalApproved || s == ApprovalDenied
}

const (
	MinPriceCents = 0
	MaxPriceCents = 100_000

	MinImages = 1
	MaxImages = 4
)

// Product is a digital asset listing. ProcessorProductID and PriceRef are
// the payment processor's handles, written by the gateway sync and never
// by sellers.
type Product struct {
	ID                 string
	SellerID           string
	Name               string
	Description        string
	PriceCents         int64
	Category           Category
	FileID             string
	ImageIDs           []string
	ApprovalStatus     ApprovalStatus
	ProcessorProductID string
	PriceRef           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProductFile is the downloadable asset behind a product. Bytes live in
// object storage under Key; this is metadata only.
type ProductFile struct {
	ID          string
	OwnerID     string
	Key         string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Media is a product image.
type Media struct {
	ID          string
	OwnerID     string
	Key         string
	ContentType string
	CreatedAt   time.Time
}
