package tokenadapter

import (
	"errors"
	"testing"
	"time"

	"digitalhippo/contexts/identity-access/user-service/domain/entities"
	"digitalhippo/contexts/identity-access/user-service/ports"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := NewJWTSigner("secret-a", time.Hour)

	token, err := signer.Sign(ports.SessionClaims{UserID: "user_1", Role: entities.RoleCustomer}, time.Now().UTC())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user_1" || claims.Role != entities.RoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	signer := NewJWTSigner("secret-a", time.Hour)
	other := NewJWTSigner("secret-b", time.Hour)

	foreign, err := other.Sign(ports.SessionClaims{UserID: "user_1", Role: entities.RoleAdmin}, time.Now().UTC())
	if err != nil {
		t.Fatalf("sign foreign: %v", err)
	}
	if _, err := signer.Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}

	expired, err := signer.Sign(ports.SessionClaims{UserID: "user_1", Role: entities.RoleCustomer}, time.Now().UTC().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	if _, err := signer.Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := signer.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
