package stripeadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"digitalhippo/contexts/catalog/product-service/ports"
)

const defaultBaseURL = "https://api.stripe.com"

// Registrar mirrors catalog products into the Stripe product/price
// catalog so checkout can reference a price handle instead of inline
// amounts.
type Registrar struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	logger     *slog.Logger
}

type Options struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
	Logger    *slog.Logger
}

func NewRegistrar(options Options) *Registrar {
	baseURL := strings.TrimRight(strings.TrimSpace(options.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		secretKey:  strings.TrimSpace(options.SecretKey),
		logger:     logger,
	}
}

func (r *Registrar) RegisterProduct(ctx context.Context, name string, priceCents int64) (ports.GatewayProduct, error) {
	productForm := url.Values{}
	productForm.Set("name", name)

	var product struct {
		ID string `json:"id"`
	}
	if err := r.post(ctx, "/v1/products", productForm, &product); err != nil {
		return ports.GatewayProduct{}, err
	}

	priceRef, err := r.createPrice(ctx, product.ID, priceCents)
	if err != nil {
		return ports.GatewayProduct{}, err
	}
	return ports.GatewayProduct{
		ProcessorProductID: product.ID,
		PriceRef:           priceRef,
	}, nil
}

func (r *Registrar) UpdateProduct(ctx context.Context, processorProductID string, name string, priceCents int64) (ports.GatewayProduct, error) {
	productForm := url.Values{}
	productForm.Set("name", name)

	var product struct {
		ID string `json:"id"`
	}
	if err := r.post(ctx, "/v1/products/"+url.PathEscape(processorProductID), productForm, &product); err != nil {
		return ports.GatewayProduct{}, err
	}

	// Stripe prices are immutable; a price change means a fresh price
	// object pointing at the same product.
	priceRef, err := r.createPrice(ctx, processorProductID, priceCents)
	if err != nil {
		return ports.GatewayProduct{}, err
	}
	return ports.GatewayProduct{
		ProcessorProductID: processorProductID,
		PriceRef:           priceRef,
	}, nil
}

func (r *Registrar) createPrice(ctx context.Context, processorProductID string, priceCents int64) (string, error) {
	priceForm := url.Values{}
	priceForm.Set("product", processorProductID)
	priceForm.Set("currency", "usd")
	priceForm.Set("unit_amount", strconv.FormatInt(priceCents, 10))

	var price struct {
		ID string `json:"id"`
	}
	if err := r.post(ctx, "/v1/prices", priceForm, &price); err != nil {
		return "", err
	}
	return price.ID, nil
}

func (r *Registrar) post(ctx context.Context, endpoint string, form url.Values, out any) error {
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+r.secretKey)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := r.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		r.logger.Error("stripe catalog request rejected",
			"event", "stripe_catalog_rejected",
			"module", "catalog/product-service",
			"endpoint", endpoint,
			"status", response.StatusCode,
		)
		return fmt.Errorf("stripe %s: status %d", endpoint, response.StatusCode)
	}
	return json.Unmarshal(body, out)
}
