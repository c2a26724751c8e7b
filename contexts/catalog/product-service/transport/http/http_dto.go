package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProductDTO struct {
	ID             string    `json:"id"`
	SellerID       string    `json:"seller_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PriceCents     int64     `json:"price_cents"`
	Category       string    `json:"category"`
	FileID         string    `json:"file_id"`
	ImageIDs       []string  `json:"image_ids"`
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Category    string   `json:"category"`
	FileID      string   `json:"file_id"`
	ImageIDs    []string `json:"image_ids"`
}

type CreateProductResponse struct {
	Product ProductDTO `json:"product"`
}

type UpdateProductRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	PriceCents  *int64    `json:"price_cents"`
	Category    *string   `json:"category"`
	ImageIDs    *[]string `json:"image_ids"`
}

type UpdateProductResponse struct {
	Product ProductDTO `json:"product"`
}

type SetApprovalRequest struct {
	Status string `json:"status"`
}

type SetApprovalResponse struct {
	Product ProductDTO `json:"product"`
}

type GetProductResponse struct {
	Product ProductDTO `json:"product"`
}

type ListProductsResponse struct {
	Items []ProductDTO `json:"items"`
}

type UploadFileResponse struct {
	FileID      string `json:"file_id"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type UploadImageResponse struct {
	MediaID     string `json:"media_id"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}
