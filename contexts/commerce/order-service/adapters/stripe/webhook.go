package stripeadapter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"digitalhippo/contexts/commerce/order-service/ports"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

const signatureTolerance = 5 * time.Minute

// WebhookVerifier checks the Stripe-Signature header before any payload
// field is trusted. The header carries a timestamp and one or more v1
// HMAC-SHA256 signatures over "<timestamp>.<payload>".
type WebhookVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret: []byte(strings.TrimSpace(secret)),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) error {
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, signature := range signatures {
		candidate, err := hex.DecodeString(signature)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, candidate) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64
	var signatures []string
	seenTimestamp := false

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			timestamp = parsed
			seenTimestamp = true
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if !seenTimestamp || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

// ParseEvent maps a verified webhook body onto the payment event the
// service consumes. Unknown event types come back with their type intact
// so the caller can no-op them.
func ParseEvent(payload []byte) (ports.PaymentEvent, error) {
	var raw struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Created int64  `json:"created"`
		Data    struct {
			Object struct {
				ID       string `json:"id"`
				Metadata struct {
					OrderID string `json:"order_id"`
					UserID  string `json:"user_id"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ports.PaymentEvent{}, ErrMalformedEvent
	}
	if raw.Type == "" {
		return ports.PaymentEvent{}, ErrMalformedEvent
	}
	return ports.PaymentEvent{
		EventID:    raw.ID,
		Type:       raw.Type,
		SessionID:  raw.Data.Object.ID,
		OrderID:    raw.Data.Object.Metadata.OrderID,
		UserID:     raw.Data.Object.Metadata.UserID,
		OccurredAt: time.Unix(raw.Created, 0).UTC(),
	}, nil
}
