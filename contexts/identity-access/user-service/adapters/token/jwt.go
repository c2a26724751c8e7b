package tokenadapter

import (
	"errors"
	"strings"
	"time"

	"digitalhippo/contexts/identity-access/user-service/domain/entities"
	"digitalhippo/contexts/identity-access/user-service/ports"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims is the typed JWT payload for storefront sessions.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTSigner issues and verifies HS256 session tokens.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTSigner(secret string, ttl time.Duration) *JWTSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTSigner{
		secret: []byte(strings.TrimSpace(secret)),
		ttl:    ttl,
	}
}

func (s *JWTSigner) Sign(claims ports.SessionClaims, now time.Time) (string, error) {
	payload := Claims{
		UserID: claims.UserID,
		Role:   string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(s.secret)
}

func (s *JWTSigner) Verify(token string) (ports.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return ports.SessionClaims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return ports.SessionClaims{}, ErrInvalidToken
	}
	return ports.SessionClaims{
		UserID: claims.UserID,
		Role:   entities.Role(claims.Role),
	}, nil
}
