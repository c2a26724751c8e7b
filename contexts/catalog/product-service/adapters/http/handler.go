package httpadapter

import (
	"context"
	"io"
	"log/slog"

	"digitalhippo/contexts/catalog/product-service/application"
	"digitalhippo/contexts/catalog/product-service/domain/entities"
	"digitalhippo/contexts/catalog/product-service/ports"
	httptransport "digitalhippo/contexts/catalog/product-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateProductHandler(
	ctx context.Context,
	sellerID string,
	idempotencyKey string,
	req httptransport.CreateProductRequest,
) (httptransport.CreateProductResponse, error) {
	product, err := h.Service.CreateProduct(ctx, idempotencyKey, sellerID, application.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    entities.Category(req.Category),
		FileID:      req.FileID,
		ImageIDs:    append([]string(nil), req.ImageIDs...),
	})
	if err != nil {
		return httptransport.CreateProductResponse{}, err
	}
	return httptransport.CreateProductResponse{Product: mapProduct(product)}, nil
}

func (h Handler) UpdateProductHandler(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	productID string,
	req httptransport.UpdateProductRequest,
) (httptransport.UpdateProductResponse, error) {
	input := application.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageIDs:    req.ImageIDs,
	}
	if req.Category != nil {
		category := entities.Category(*req.Category)
		input.Category = &category
	}
	product, err := h.Service.UpdateProduct(ctx, actorID, actorIsAdmin, productID, input)
	if err != nil {
		return httptransport.UpdateProductResponse{}, err
	}
	return httptransport.UpdateProductResponse{Product: mapProduct(product)}, nil
}

func (h Handler) SetApprovalHandler(
	ctx context.Context,
	actorIsAdmin bool,
	productID string,
	req httptransport.SetApprovalRequest,
) (httptransport.SetApprovalResponse, error) {
	product, err := h.Service.SetApprovalStatus(ctx, actorIsAdmin, productID, entities.ApprovalStatus(req.Status))
	if err != nil {
		return httptransport.SetApprovalResponse{}, err
	}
	return httptransport.SetApprovalResponse{Product: mapProduct(product)}, nil
}

func (h Handler) GetProductHandler(ctx context.Context, scope ports.ListScope, productID string) (httptransport.GetProductResponse, error) {
	product, err := h.Service.GetProduct(ctx, scope, productID)
	if err != nil {
		return httptransport.GetProductResponse{}, err
	}
	return httptransport.GetProductResponse{Product: mapProduct(product)}, nil
}

func (h Handler) ListProductsHandler(
	ctx context.Context,
	scope ports.ListScope,
	category string,
	limit int,
) (httptransport.ListProductsResponse, error) {
	items, err := h.Service.ListProducts(ctx, ports.ProductFilter{
		Scope:    scope,
		Category: entities.Category(category),
		Limit:    limit,
	})
	if err != nil {
		return httptransport.ListProductsResponse{}, err
	}
	result := make([]httptransport.ProductDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapProduct(item))
	}
	return httptransport.ListProductsResponse{Items: result}, nil
}

func (h Handler) DeleteProductHandler(ctx context.Context, actorID string, actorIsAdmin bool, productID string) error {
	return h.Service.DeleteProduct(ctx, actorID, actorIsAdmin, productID)
}

func (h Handler) UploadFileHandler(
	ctx context.Context,
	ownerID string,
	filename string,
	contentType string,
	sizeBytes int64,
	body io.Reader,
) (httptransport.UploadFileResponse, error) {
	file, err := h.Service.UploadProductFile(ctx, ownerID, filename, contentType, sizeBytes, body)
	if err != nil {
		return httptransport.UploadFileResponse{}, err
	}
	return httptransport.UploadFileResponse{
		FileID:      file.ID,
		Key:         file.Key,
		ContentType: file.ContentType,
		SizeBytes:   file.SizeBytes,
	}, nil
}

func (h Handler) UploadImageHandler(
	ctx context.Context,
	ownerID string,
	filename string,
	contentType string,
	body io.Reader,
) (httptransport.UploadImageResponse, error) {
	media, err := h.Service.UploadImage(ctx, ownerID, filename, contentType, body)
	if err != nil {
		return httptransport.UploadImageResponse{}, err
	}
	return httptransport.UploadImageResponse{
		MediaID:     media.ID,
		Key:         media.Key,
		ContentType: media.ContentType,
	}, nil
}

func (h Handler) DownloadURLHandler(ctx context.Context, fileID string) (httptransport.DownloadURLResponse, error) {
	url, err := h.Service.PresignDownload(ctx, fileID)
	if err != nil {
		return httptransport.DownloadURLResponse{}, err
	}
	return httptransport.DownloadURLResponse{URL: url}, nil
}

func mapProduct(product entities.Product) httptransport.ProductDTO {
	return httptransport.ProductDTO{
		ID:             product.ID,
		SellerID:       product.SellerID,
		Name:           product.Name,
		Description:    product.Description,
		PriceCents:     product.PriceCents,
		Category:       string(product.Category),
		FileID:         product.FileID,
		ImageIDs:       append([]string(nil), product.ImageIDs...),
		ApprovalStatus: string(product.ApprovalStatus),
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}
