package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	userentities "digitalhippo/contexts/identity-access/user-service/domain/entities"
)

func TestCreateProductRequiresAuthorizationHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/catalog/v1/products",
		bytes.NewReader([]byte(`{"name":"Kit"}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "create-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAnonymousListSeesOnlyApprovedProducts(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/catalog/v1/products", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Items []struct {
			ApprovalStatus string `json:"approval_status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(resp.Items) == 0 {
		t.Fatalf("seeded catalog should list approved products")
	}
	for _, item := range resp.Items {
		if item.ApprovalStatus != "approved" {
			t.Fatalf("anonymous list leaked %q product", item.ApprovalStatus)
		}
	}
}

func TestApprovalRequiresAdmin(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/catalog/v1/products/prod_001/approval",
		bytes.NewReader([]byte(`{"status":"approved"}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, server, "user_seller", userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDownloadRequiresAuthorizationHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/catalog/v1/files/file_001/download", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDownloadDeniedWithoutEntitlement(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/catalog/v1/files/file_001/download", nil)
	req.Header.Set("Authorization", bearerFor(t, server, "user_freeloader", userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDownloadAllowedForOwnedFile(t *testing.T) {
	server := newTestServer()
	server.entitlements.Store.SeedOwnedFile("user_seller", "file_001")

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/v1/files/file_001/download", nil)
	req.Header.Set("Authorization", bearerFor(t, server, "user_seller", userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode download response: %v", err)
	}
	if resp.URL == "" {
		t.Fatalf("download response did not include a url")
	}
}

func TestDeleteProductForbiddenForStrangers(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodDelete, "/api/catalog/v1/products/prod_001", nil)
	req.Header.Set("Authorization", bearerFor(t, server, "user_stranger", userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}
