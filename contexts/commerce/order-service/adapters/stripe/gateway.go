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

	domainerrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	"digitalhippo/contexts/commerce/order-service/ports"
)

const defaultBaseURL = "https://api.stripe.com"

// Gateway creates hosted checkout sessions against the Stripe REST API.
// Stripe speaks form-encoded requests, not JSON.
type Gateway struct {
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

func NewGateway(options Options) *Gateway {
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
	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		secretKey:  strings.TrimSpace(options.SecretKey),
		logger:     logger,
	}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, request ports.SessionRequest) (ports.SessionResult, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", request.SuccessURL)
	form.Set("cancel_url", request.CancelURL)
	form.Set("metadata[order_id]", request.OrderID)
	form.Set("metadata[user_id]", request.UserID)

	for i, item := range request.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		if item.PriceRef != "" {
			form.Set(prefix+"[price]", item.PriceRef)
			continue
		}
		// Ad-hoc lines, such as the transaction fee, carry inline price
		// data instead of a pre-registered price.
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}

	httpRequest, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.baseURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return ports.SessionResult{}, err
	}
	httpRequest.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := g.httpClient.Do(httpRequest)
	if err != nil {
		g.logger.Error("stripe_session_request_failed",
			"module", "order-service",
			"order_id", request.OrderID,
			"error", err.Error(),
		)
		return ports.SessionResult{}, fmt.Errorf("%w: %v", domainerrors.ErrPaymentSessionFailed, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return ports.SessionResult{}, fmt.Errorf("%w: %v", domainerrors.ErrPaymentSessionFailed, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		g.logger.Error("stripe_session_rejected",
			"module", "order-service",
			"order_id", request.OrderID,
			"status", response.StatusCode,
		)
		return ports.SessionResult{}, fmt.Errorf("%w: status %d", domainerrors.ErrPaymentSessionFailed, response.StatusCode)
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return ports.SessionResult{}, fmt.Errorf("%w: %v", domainerrors.ErrPaymentSessionFailed, err)
	}
	if session.ID == "" {
		return ports.SessionResult{}, fmt.Errorf("%w: missing session id", domainerrors.ErrPaymentSessionFailed)
	}
	return ports.SessionResult{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (g *Gateway) GetSessionStatus(ctx context.Context, sessionID string) (ports.SessionStatus, error) {
	httpRequest, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		g.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID),
		nil,
	)
	if err != nil {
		return ports.SessionStatus{}, err
	}
	httpRequest.Header.Set("Authorization", "Bearer "+g.secretKey)

	response, err := g.httpClient.Do(httpRequest)
	if err != nil {
		return ports.SessionStatus{}, err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return ports.SessionStatus{}, domainerrors.ErrSessionNotFound
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return ports.SessionStatus{}, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return ports.SessionStatus{}, fmt.Errorf("session status lookup: status %d", response.StatusCode)
	}

	var session struct {
		ID            string `json:"id"`
		PaymentStatus string `json:"payment_status"`
		Metadata      struct {
			OrderID string `json:"order_id"`
			UserID  string `json:"user_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return ports.SessionStatus{}, err
	}
	return ports.SessionStatus{
		SessionID: session.ID,
		OrderID:   session.Metadata.OrderID,
		UserID:    session.Metadata.UserID,
		Completed: session.PaymentStatus == "paid",
	}, nil
}
