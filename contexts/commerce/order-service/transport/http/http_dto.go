package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSessionRequest struct {
	ProductIDs []string `json:"product_ids"`
}

type CreateSessionResponse struct {
	OrderID     string  `json:"order_id"`
	SessionID   string  `json:"session_id,omitempty"`
	CheckoutURL *string `json:"url"`
}

type OrderStatusResponse struct {
	IsPaid bool `json:"is_paid"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}
