package httpserver

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	userentities "digitalhippo/contexts/identity-access/user-service/domain/entities"
)

func stripeSignature(secret string, payload []byte, at time.Time) string {
	timestamp := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + string(payload)))
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestCreateSessionRequiresAuthorizationHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/checkout/v1/sessions",
		bytes.NewReader([]byte(`{"product_ids":["prod_001"]}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "sess-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestOrderStatusHiddenFromStrangers(t *testing.T) {
	server := newTestServer()
	orderID := createSession(t, server, "user_buyer", "status-1")

	req := httptest.NewRequest(http.MethodGet, "/api/checkout/v1/orders/"+orderID+"/status", nil)
	req.Header.Set("Authorization", bearerFor(t, server, "user_stranger", userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	server := newTestServer()
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/v1/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSignature("whsec_other", payload, time.Now()))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookAcknowledgesUnrelatedEvents(t *testing.T) {
	server := newTestServer()
	payload := []byte(`{"id":"evt_2","type":"invoice.created","data":{"object":{"id":"in_1"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/v1/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSignature(testWebhookSecret, payload, time.Now()))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCheckoutFlowMarksOrderPaid(t *testing.T) {
	server := newTestServer()
	orderID := createSession(t, server, "user_buyer", "flow-1")

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"id":"cs_1","metadata":{"order_id":%q,"user_id":"user_buyer"}}}}`,
		orderID,
	))
	webhook := httptest.NewRequest(http.MethodPost, "/api/checkout/v1/webhook", bytes.NewReader(payload))
	webhook.Header.Set("Stripe-Signature", stripeSignature(testWebhookSecret, payload, time.Now()))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, webhook)
	if rr.Code != http.StatusOK {
		t.Fatalf("webhook: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	status := httptest.NewRequest(http.MethodGet, "/api/checkout/v1/orders/"+orderID+"/status", nil)
	status.Header.Set("Authorization", bearerFor(t, server, "user_buyer", userentities.RoleCustomer))

	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, status)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		IsPaid bool `json:"is_paid"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if !resp.IsPaid {
		t.Fatalf("order should be paid after the webhook")
	}
}

func createSession(t *testing.T, server *Server, buyerID string, idempotencyKey string) string {
	t.Helper()

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/checkout/v1/sessions",
		bytes.NewReader([]byte(`{"product_ids":["prod_001","prod_002"]}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	req.Header.Set("Authorization", bearerFor(t, server, buyerID, userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("create session: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	if resp.OrderID == "" {
		t.Fatalf("session response did not include an order id")
	}
	return resp.OrderID
}
