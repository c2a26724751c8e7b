package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	stripeadapter "digitalhippo/contexts/commerce/order-service/adapters/stripe"
	checkouterrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	checkouthttp "digitalhippo/contexts/commerce/order-service/transport/http"
	"digitalhippo/internal/platform/metrics"
)

const maxWebhookBytes = 1 << 20

// checkoutSessionCompleted is the only payment event the webhook acts on.
const checkoutSessionCompleted = "checkout.session.completed"

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req checkouthttp.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCheckoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.commerce.Handler.CreateSessionHandler(
		r.Context(),
		actor.ID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		// A gateway refusal still produced a pending order; the storefront
		// reads url:null and retries, so answer 200 with the order id.
		if errors.Is(err, checkouterrors.ErrPaymentSessionFailed) {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		writeCheckoutDomainError(w, err)
		return
	}

	metrics.CheckoutSessionsCreated.Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	resp, err := s.commerce.Handler.OrderStatusHandler(
		r.Context(),
		actor.ID,
		actor.IsAdmin(),
		r.PathValue("order_id"),
	)
	if err != nil {
		writeCheckoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		writeCheckoutError(w, http.StatusBadRequest, "invalid_payload", "webhook payload could not be read")
		return
	}

	if s.webhooks != nil {
		if err := s.webhooks.Verify(body, r.Header.Get("Stripe-Signature")); err != nil {
			metrics.WebhookEvents.WithLabelValues("invalid_signature").Inc()
			s.logger.Warn("webhook signature rejected",
				"event", "webhook_signature_rejected",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"error", err.Error(),
			)
			writeCheckoutError(w, http.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
			return
		}
	}

	event, err := stripeadapter.ParseEvent(body)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		writeCheckoutError(w, http.StatusBadRequest, "malformed_event", "webhook event could not be parsed")
		return
	}

	// Unrelated event types are acknowledged so the gateway stops
	// redelivering them.
	if event.Type != checkoutSessionCompleted {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		writeJSON(w, http.StatusOK, checkouthttp.WebhookAckResponse{Received: true})
		return
	}

	resp, outcome, err := s.commerce.Handler.ConfirmPaymentHandler(r.Context(), event)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		writeCheckoutDomainError(w, err)
		return
	}

	switch {
	case outcome.Transitioned:
		metrics.WebhookEvents.WithLabelValues("paid").Inc()
		metrics.OrdersPaid.Inc()
	case outcome.AlreadyPaid:
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
	case !outcome.Found:
		metrics.WebhookEvents.WithLabelValues("unknown_order").Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}
