package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	userentities "digitalhippo/contexts/identity-access/user-service/domain/entities"
)

func TestGetUserRequiresAuthorizationHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/users/v1/users/user_admin", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetUserRejectsGarbageToken(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/users/v1/users/user_admin", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetUserForbiddenForStrangers(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/users/v1/users/user_admin", nil)
	req.Header.Set("Authorization", bearerFor(t, server, "user_stranger", userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestChangeRoleRequiresAdmin(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"role":"admin"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/users/v1/users/user_admin/role", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, server, "user_customer", userentities.RoleCustomer))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	server := newTestServer()

	register := httptest.NewRequest(
		http.MethodPost,
		"/api/users/v1/register",
		bytes.NewReader([]byte(`{"email":"buyer@example.com","password":"hunter2hunter2"}`)),
	)
	register.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, register)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	login := httptest.NewRequest(
		http.MethodPost,
		"/api/users/v1/login",
		bytes.NewReader([]byte(`{"email":"buyer@example.com","password":"hunter2hunter2"}`)),
	)
	login.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, login)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("login response did not include a token")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/users/v1/login",
		bytes.NewReader([]byte(`{"email":"admin@digitalhippo.local","password":"wrong"}`)),
	)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}
