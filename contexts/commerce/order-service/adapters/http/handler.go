package httpadapter

import (
	"context"
	"errors"
	"log/slog"

	"digitalhippo/contexts/commerce/order-service/application"
	domainerrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	"digitalhippo/contexts/commerce/order-service/ports"
	httptransport "digitalhippo/contexts/commerce/order-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateSessionHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.CreateSessionRequest,
) (httptransport.CreateSessionResponse, error) {
	session, err := h.Service.CreateCheckoutSession(ctx, idempotencyKey, userID, req.ProductIDs)
	if err != nil {
		// The storefront treats a gateway refusal as url:null, not as a
		// failed request; the pending order already exists.
		if errors.Is(err, domainerrors.ErrPaymentSessionFailed) {
			return httptransport.CreateSessionResponse{
				OrderID:     session.OrderID,
				CheckoutURL: nil,
			}, err
		}
		return httptransport.CreateSessionResponse{}, err
	}
	url := session.CheckoutURL
	return httptransport.CreateSessionResponse{
		OrderID:     session.OrderID,
		SessionID:   session.SessionID,
		CheckoutURL: &url,
	}, nil
}

func (h Handler) OrderStatusHandler(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	orderID string,
) (httptransport.OrderStatusResponse, error) {
	paid, err := h.Service.PollOrderStatus(ctx, actorID, actorIsAdmin, orderID)
	if err != nil {
		return httptransport.OrderStatusResponse{}, err
	}
	return httptransport.OrderStatusResponse{IsPaid: paid}, nil
}

// ConfirmOutcome tells the transport layer what the confirmation did, so
// it can count deliveries without leaking that detail onto the wire.
type ConfirmOutcome struct {
	Found        bool
	Transitioned bool
	AlreadyPaid  bool
}

func (h Handler) ConfirmPaymentHandler(ctx context.Context, event ports.PaymentEvent) (httptransport.WebhookAckResponse, ConfirmOutcome, error) {
	result, err := h.Service.ConfirmPayment(ctx, event)
	if err != nil {
		return httptransport.WebhookAckResponse{}, ConfirmOutcome{}, err
	}
	outcome := ConfirmOutcome{
		Found:        result.Found,
		Transitioned: result.Transitioned,
		AlreadyPaid:  result.AlreadyPaid,
	}
	return httptransport.WebhookAckResponse{Received: true}, outcome, nil
}
