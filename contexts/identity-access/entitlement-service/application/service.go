package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"digitalhippo/contexts/identity-access/entitlement-service/domain/entities"
	domainerrors "digitalhippo/contexts/identity-access/entitlement-service/domain/errors"
	"digitalhippo/contexts/identity-access/entitlement-service/domain/services"
	"digitalhippo/contexts/identity-access/entitlement-service/ports"
)

// Service is the entitlement evaluator. Static rules live in
// domain/services; this layer adds the data-dependent product-file union
// and its cache.
type Service struct {
	Repo     ports.Repository
	Cache    ports.DecisionCache
	Clock    ports.Clock
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// EvaluateAccess computes the entitlement for one actor-collection-operation
// triple.
func (s Service) EvaluateAccess(
	ctx context.Context,
	actor entities.Actor,
	collection entities.Collection,
	operation entities.Operation,
) (entities.Decision, error) {
	if !validCollection(collection) {
		return entities.Decision{}, domainerrors.ErrUnknownCollection
	}
	if !validOperation(operation) {
		return entities.Decision{}, domainerrors.ErrUnknownOperation
	}

	if decision, handled := services.Evaluate(actor, collection, operation); handled {
		return decision, nil
	}

	// Customer reading product files: union of owned and purchased files.
	fileIDs, err := s.accessibleFileIDs(ctx, actor.ID)
	if err != nil {
		resolveLogger(s.Logger).Error("file entitlement lookup failed, denying",
			"event", "entitlement_lookup_failed",
			"module", "identity-access/entitlement-service",
			"layer", "application",
			"user_id", actor.ID,
			"error", err.Error(),
		)
		return entities.Deny("lookup_failed"), nil
	}
	return services.FileUnionDecision(fileIDs), nil
}

// CanReadProductFile is the point check used by the download endpoint.
func (s Service) CanReadProductFile(
	ctx context.Context,
	actor entities.Actor,
	fileID string,
) (bool, error) {
	if strings.TrimSpace(fileID) == "" {
		return false, domainerrors.ErrInvalidRequest
	}
	decision, err := s.EvaluateAccess(ctx, actor, entities.CollectionProductFiles, entities.OperationRead)
	if err != nil {
		return false, err
	}
	return decision.PermitsID(strings.TrimSpace(fileID)), nil
}

// InvalidateUser drops the cached accessible-file set, typically after the
// user's order was marked paid.
func (s Service) InvalidateUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Invalidate(ctx, strings.TrimSpace(userID))
}

func (s Service) accessibleFileIDs(ctx context.Context, userID string) ([]string, error) {
	now := s.now()
	if s.Cache != nil {
		cached, hit, err := s.Cache.GetFileIDs(ctx, userID, now)
		if err == nil && hit {
			return cached, nil
		}
	}

	logger := resolveLogger(s.Logger)

	owned, err := s.Repo.ListOwnedFileIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	purchased, err := s.Repo.ListPaidOrderProducts(ctx, userID)
	if err != nil {
		return nil, err
	}

	union := make(map[string]struct{}, len(owned)+len(purchased))
	for _, id := range owned {
		if id = strings.TrimSpace(id); id != "" {
			union[id] = struct{}{}
		}
	}
	for _, ref := range purchased {
		if !ref.Resolved || strings.TrimSpace(ref.FileID) == "" {
			// Shallow fetch left the file relation unexpanded. Skip the
			// entry rather than guess an id, but never silently.
			logger.Warn("purchased product file unresolved, skipping",
				"event", "entitlement_file_unresolved",
				"module", "identity-access/entitlement-service",
				"layer", "application",
				"user_id", userID,
				"order_id", ref.OrderID,
				"product_id", ref.ProductID,
			)
			continue
		}
		union[strings.TrimSpace(ref.FileID)] = struct{}{}
	}

	fileIDs := make([]string, 0, len(union))
	for id := range union {
		fileIDs = append(fileIDs, id)
	}
	sort.Strings(fileIDs)

	if s.Cache != nil {
		_ = s.Cache.SetFileIDs(ctx, userID, fileIDs, now.Add(s.cacheTTL()))
	}
	return fileIDs, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) cacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return 5 * time.Minute
	}
	return s.CacheTTL
}

func validCollection(collection entities.Collection) bool {
	switch collection {
	case entities.CollectionUsers,
		entities.CollectionProducts,
		entities.CollectionProductFiles,
		entities.CollectionOrders,
		entities.CollectionMedia:
		return true
	}
	return false
}

func validOperation(operation entities.Operation) bool {
	switch operation {
	case entities.OperationRead,
		entities.OperationCreate,
		entities.OperationUpdate,
		entities.OperationDelete:
		return true
	}
	return false
}
