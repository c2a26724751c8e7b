package stripeadapter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

const testSecret = "whsec_test_secret"

func signPayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	verifier := NewWebhookVerifier(testSecret)
	now := time.Now().UTC()
	verifier.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	timestamp := now.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", timestamp, signPayload(testSecret, timestamp, payload))

	if err := verifier.Verify(payload, header); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	verifier := NewWebhookVerifier(testSecret)
	now := time.Now().UTC()
	verifier.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1"}`)
	timestamp := now.Unix()

	cases := map[string]string{
		"wrong secret":    fmt.Sprintf("t=%d,v1=%s", timestamp, signPayload("whsec_other", timestamp, payload)),
		"missing v1":      fmt.Sprintf("t=%d", timestamp),
		"missing t":       "v1=" + signPayload(testSecret, timestamp, payload),
		"garbage":         "not-a-header",
		"bad timestamp":   fmt.Sprintf("t=notanumber,v1=%s", signPayload(testSecret, timestamp, payload)),
		"tampered body":   fmt.Sprintf("t=%d,v1=%s", timestamp, signPayload(testSecret, timestamp, []byte(`{"id":"evt_2"}`))),
	}
	for name, header := range cases {
		if err := verifier.Verify(payload, header); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	verifier := NewWebhookVerifier(testSecret)
	now := time.Now().UTC()
	verifier.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1"}`)
	stale := now.Add(-10 * time.Minute).Unix()
	header := fmt.Sprintf("t=%d,v1=%s", stale, signPayload(testSecret, stale, payload))

	if err := verifier.Verify(payload, header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for stale timestamp, got %v", err)
	}
}

func TestParseEventExtractsOrderMetadata(t *testing.T) {
	payload := []byte(`{
		"id": "evt_42",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {
			"object": {
				"id": "cs_test_42",
				"metadata": {"order_id": "order_42", "user_id": "user_42"}
			}
		}
	}`)

	event, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.EventID != "evt_42" || event.Type != "checkout.session.completed" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.SessionID != "cs_test_42" || event.OrderID != "order_42" || event.UserID != "user_42" {
		t.Fatalf("metadata not extracted: %+v", event)
	}
}

func TestParseEventRejectsMalformedPayload(t *testing.T) {
	if _, err := ParseEvent([]byte("{")); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
	if _, err := ParseEvent([]byte(`{"id":"evt_1"}`)); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent for missing type, got %v", err)
	}
}
