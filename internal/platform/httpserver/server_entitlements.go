package httpserver

import (
	"encoding/json"
	"net/http"

	entitlementhttp "digitalhippo/contexts/identity-access/entitlement-service/transport/http"
)

// handleCheckAccess answers what the calling actor may do with a
// collection. Anonymous callers are evaluated as the anonymous actor;
// the evaluator itself decides what that means.
func (s *Server) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	var req entitlementhttp.CheckAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEntitlementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	actor := s.resolveActor(r)
	resp, err := s.entitlements.Handler.CheckAccessHandler(r.Context(), actor, req)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
