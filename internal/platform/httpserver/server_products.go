package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	productports "digitalhippo/contexts/catalog/product-service/ports"
	cataloghttp "digitalhippo/contexts/catalog/product-service/transport/http"
	entitlemententities "digitalhippo/contexts/identity-access/entitlement-service/domain/entities"
	entitlementhttp "digitalhippo/contexts/identity-access/entitlement-service/transport/http"
)

const maxUploadBytes = 64 << 20

// catalogScope narrows reads to what the actor may see: admins read all
// listings, sellers additionally read their own pending ones, everyone
// else reads approved listings only.
func catalogScope(actor entitlemententities.Actor) productports.ListScope {
	switch {
	case actor.IsAdmin():
		return productports.ListScope{All: true}
	case !actor.IsAnonymous():
		return productports.ListScope{OwnerID: actor.ID}
	default:
		return productports.ListScope{ApprovedOnly: true}
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeCatalogError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	scope := catalogScope(s.resolveActor(r))
	resp, err := s.catalog.Handler.ListProductsHandler(r.Context(), scope, query.Get("category"), limit)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req cataloghttp.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCatalogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.catalog.Handler.CreateProductHandler(
		r.Context(),
		actor.ID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	scope := catalogScope(s.resolveActor(r))
	resp, err := s.catalog.Handler.GetProductHandler(r.Context(), scope, r.PathValue("product_id"))
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req cataloghttp.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCatalogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.catalog.Handler.UpdateProductHandler(
		r.Context(),
		actor.ID,
		actor.IsAdmin(),
		r.PathValue("product_id"),
		req,
	)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	if err := s.catalog.Handler.DeleteProductHandler(r.Context(), actor.ID, actor.IsAdmin(), r.PathValue("product_id")); err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetApproval(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req cataloghttp.SetApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCatalogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.catalog.Handler.SetApprovalHandler(r.Context(), actor.IsAdmin(), r.PathValue("product_id"), req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeCatalogError(w, http.StatusBadRequest, "invalid_upload", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	resp, err := s.catalog.Handler.UploadFileHandler(
		r.Context(),
		actor.ID,
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeCatalogError(w, http.StatusBadRequest, "invalid_upload", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	resp, err := s.catalog.Handler.UploadImageHandler(
		r.Context(),
		actor.ID,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	fileID := r.PathValue("file_id")
	check, err := s.entitlements.Handler.CheckAccessHandler(r.Context(), actor, entitlementhttp.CheckAccessRequest{
		Collection: string(entitlemententities.CollectionProductFiles),
		Operation:  string(entitlemententities.OperationRead),
		TargetID:   fileID,
	})
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	allowed := check.Effect == string(entitlemententities.EffectAllow)
	if check.TargetAllowed != nil {
		allowed = *check.TargetAllowed
	}
	if !allowed {
		writeCatalogError(w, http.StatusForbidden, "entitlement_denied", "you do not have access to this file")
		return
	}

	resp, err := s.catalog.Handler.DownloadURLHandler(r.Context(), fileID)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
