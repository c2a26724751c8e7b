package httpserver

import (
	"io"
	"log/slog"
	"testing"
	"time"

	product "digitalhippo/contexts/catalog/product-service"
	order "digitalhippo/contexts/commerce/order-service"
	stripeadapter "digitalhippo/contexts/commerce/order-service/adapters/stripe"
	entitlement "digitalhippo/contexts/identity-access/entitlement-service"
	user "digitalhippo/contexts/identity-access/user-service"
	userentities "digitalhippo/contexts/identity-access/user-service/domain/entities"
	userports "digitalhippo/contexts/identity-access/user-service/ports"
)

const testWebhookSecret = "whsec_test"

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(
		user.NewInMemoryModule(logger),
		product.NewInMemoryModule(logger),
		order.NewInMemoryModule(logger),
		entitlement.NewInMemoryModule(logger),
		stripeadapter.NewWebhookVerifier(testWebhookSecret),
		logger,
		":0",
	)
}

func bearerFor(t *testing.T, server *Server, userID string, role userentities.Role) string {
	t.Helper()
	token, err := server.users.Signer.Sign(userports.SessionClaims{
		UserID: userID,
		Role:   role,
	}, time.Now())
	if err != nil {
		t.Fatalf("sign session token: %v", err)
	}
	return "Bearer " + token
}
