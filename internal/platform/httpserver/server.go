package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	product "digitalhippo/contexts/catalog/product-service"
	catalogerrors "digitalhippo/contexts/catalog/product-service/domain/errors"
	cataloghttp "digitalhippo/contexts/catalog/product-service/transport/http"
	order "digitalhippo/contexts/commerce/order-service"
	stripeadapter "digitalhippo/contexts/commerce/order-service/adapters/stripe"
	checkouterrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	checkouthttp "digitalhippo/contexts/commerce/order-service/transport/http"
	entitlement "digitalhippo/contexts/identity-access/entitlement-service"
	entitlementerrors "digitalhippo/contexts/identity-access/entitlement-service/domain/errors"
	entitlementhttp "digitalhippo/contexts/identity-access/entitlement-service/transport/http"
	user "digitalhippo/contexts/identity-access/user-service"
	usererrors "digitalhippo/contexts/identity-access/user-service/domain/errors"
	userhttp "digitalhippo/contexts/identity-access/user-service/transport/http"
	"digitalhippo/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "digitalhippo/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	users        user.Module
	catalog      product.Module
	commerce     order.Module
	entitlements entitlement.Module
	webhooks     *stripeadapter.WebhookVerifier
}

func New(
	users user.Module,
	catalog product.Module,
	commerce order.Module,
	entitlements entitlement.Module,
	webhooks *stripeadapter.WebhookVerifier,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		users:        users,
		catalog:      catalog,
		commerce:     commerce,
		entitlements: entitlements,
		webhooks:     webhooks,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", metrics.Handler())

	s.handle("POST /api/users/v1/register", s.handleRegister)
	s.handle("GET /api/users/v1/verify-email", s.handleVerifyEmail)
	s.handle("POST /api/users/v1/login", s.handleLogin)
	s.handle("GET /api/users/v1/users/{user_id}", s.handleGetUser)
	s.handle("POST /api/users/v1/users/{user_id}/role", s.handleChangeRole)

	s.handle("GET /api/catalog/v1/products", s.handleListProducts)
	s.handle("POST /api/catalog/v1/products", s.handleCreateProduct)
	s.handle("GET /api/catalog/v1/products/{product_id}", s.handleGetProduct)
	s.handle("PATCH /api/catalog/v1/products/{product_id}", s.handleUpdateProduct)
	s.handle("DELETE /api/catalog/v1/products/{product_id}", s.handleDeleteProduct)
	s.handle("POST /api/catalog/v1/products/{product_id}/approval", s.handleSetApproval)
	s.handle("POST /api/catalog/v1/files", s.handleUploadFile)
	s.handle("POST /api/catalog/v1/media", s.handleUploadImage)
	s.handle("GET /api/catalog/v1/files/{file_id}/download", s.handleDownloadFile)

	s.handle("POST /api/checkout/v1/sessions", s.handleCreateSession)
	s.handle("GET /api/checkout/v1/orders/{order_id}/status", s.handleOrderStatus)
	s.handle("POST /api/checkout/v1/webhook", s.handleWebhook)

	s.handle("POST /api/entitlements/v1/check", s.handleCheckAccess)
}

func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, metrics.Middleware(pattern, handler))
}

func writeUserDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usererrors.ErrInvalidUserInput):
		writeUserError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, usererrors.ErrEmailTaken):
		writeUserError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, usererrors.ErrInvalidCredentials):
		writeUserError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, usererrors.ErrVerificationInvalid):
		writeUserError(w, http.StatusBadRequest, "verification_invalid", err.Error())
	case errors.Is(err, usererrors.ErrUserNotFound):
		writeUserError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, usererrors.ErrForbidden):
		writeUserError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeUserError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCatalogDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogerrors.ErrInvalidProductInput):
		writeCatalogError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, catalogerrors.ErrIdempotencyKeyRequired):
		writeCatalogError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, catalogerrors.ErrIdempotencyConflict):
		writeCatalogError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		writeCatalogError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, catalogerrors.ErrFileNotFound):
		writeCatalogError(w, http.StatusNotFound, "file_not_found", err.Error())
	case errors.Is(err, catalogerrors.ErrMediaNotFound):
		writeCatalogError(w, http.StatusNotFound, "media_not_found", err.Error())
	case errors.Is(err, catalogerrors.ErrForbidden):
		writeCatalogError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, catalogerrors.ErrGatewayRegistration):
		writeCatalogError(w, http.StatusBadGateway, "gateway_registration_failed", err.Error())
	default:
		writeCatalogError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCheckoutDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkouterrors.ErrInvalidRequest),
		errors.Is(err, checkouterrors.ErrEmptyCart),
		errors.Is(err, checkouterrors.ErrNoPurchasableProducts):
		writeCheckoutError(w, http.StatusBadRequest, "invalid_cart", err.Error())
	case errors.Is(err, checkouterrors.ErrIdempotencyKeyRequired):
		writeCheckoutError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, checkouterrors.ErrIdempotencyConflict):
		writeCheckoutError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, checkouterrors.ErrOrderNotFound):
		writeCheckoutError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, checkouterrors.ErrUnauthorized):
		writeCheckoutError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, checkouterrors.ErrPaymentSessionFailed):
		writeCheckoutError(w, http.StatusBadGateway, "payment_session_failed", err.Error())
	default:
		writeCheckoutError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEntitlementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entitlementerrors.ErrInvalidRequest),
		errors.Is(err, entitlementerrors.ErrUnknownCollection),
		errors.Is(err, entitlementerrors.ErrUnknownOperation):
		writeEntitlementError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, entitlementerrors.ErrLookupFailed):
		writeEntitlementError(w, http.StatusBadGateway, "lookup_failed", err.Error())
	default:
		writeEntitlementError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeUserError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, userhttp.ErrorResponse{Code: code, Message: message})
}

func writeCatalogError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, cataloghttp.ErrorResponse{Code: code, Message: message})
}

func writeCheckoutError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, checkouthttp.ErrorResponse{Code: code, Message: message})
}

func writeEntitlementError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, entitlementhttp.ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
