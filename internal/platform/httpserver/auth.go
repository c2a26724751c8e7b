package httpserver

import (
	"net/http"
	"strings"

	entitlemententities "digitalhippo/contexts/identity-access/entitlement-service/domain/entities"
)

// resolveActor turns a bearer token into the actor the request runs as.
// A missing or invalid token degrades to the anonymous actor; each route
// decides whether anonymous access is acceptable.
func (s *Server) resolveActor(r *http.Request) entitlemententities.Actor {
	header := r.Header.Get("Authorization")
	if header == "" {
		return entitlemententities.Actor{}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return entitlemententities.Actor{}
	}

	claims, err := s.users.Signer.Verify(token)
	if err != nil {
		s.logger.Warn("session token rejected",
			"event", "session_token_rejected",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		return entitlemententities.Actor{}
	}
	return entitlemententities.Actor{
		ID:   claims.UserID,
		Role: entitlemententities.Role(claims.Role),
	}
}

// requireActor is resolveActor plus a 401 for anonymous callers.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (entitlemententities.Actor, bool) {
	actor := s.resolveActor(r)
	if actor.IsAnonymous() {
		writeUserError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
		return entitlemententities.Actor{}, false
	}
	return actor, true
}
