package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"digitalhippo/contexts/catalog/product-service/domain/entities"
	domainerrors "digitalhippo/contexts/catalog/product-service/domain/errors"
	"digitalhippo/contexts/catalog/product-service/ports"
)

// Store is the in-memory catalog repository used by tests and the local
// runtime.
type Store struct {
	mu sync.RWMutex

	productsByID map[string]entities.Product
	filesByID    map[string]entities.ProductFile
	mediaByID    map[string]entities.Media
	idempotency  map[string]ports.IdempotencyRecord
	sequence     uint64
}

func NewStore() *Store {
	return &Store{
		productsByID: make(map[string]entities.Product),
		filesByID:    make(map[string]entities.ProductFile),
		mediaByID:    make(map[string]entities.Media),
		idempotency:  make(map[string]ports.IdempotencyRecord),
	}
}

func (s *Store) SeedProduct(product entities.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productsByID[product.ID] = cloneProduct(product)
}

func (s *Store) SeedProductFile(file entities.ProductFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesByID[file.ID] = file
}

func (s *Store) CreateProduct(_ context.Context, product entities.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		return domainerrors.ErrInvalidProductInput
	}
	s.productsByID[product.ID] = cloneProduct(product)
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID string) (entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.productsByID[productID]
	if !ok {
		return entities.Product{}, domainerrors.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

func (s *Store) UpdateProduct(_ context.Context, product entities.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productsByID[product.ID]; !ok {
		return domainerrors.ErrProductNotFound
	}
	s.productsByID[product.ID] = cloneProduct(product)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productsByID[productID]; !ok {
		return domainerrors.ErrProductNotFound
	}
	delete(s.productsByID, productID)
	return nil
}

func (s *Store) ListProducts(_ context.Context, filter ports.ProductFilter) ([]entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []entities.Product
	for _, product := range s.productsByID {
		if !matchesScope(filter.Scope, product) {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		items = append(items, cloneProduct(product))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) ListProductsByIDs(_ context.Context, productIDs []string) ([]entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Product, 0, len(productIDs))
	for _, id := range productIDs {
		if product, ok := s.productsByID[strings.TrimSpace(id)]; ok {
			items = append(items, cloneProduct(product))
		}
	}
	return items, nil
}

func (s *Store) CreateProductFile(_ context.Context, file entities.ProductFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesByID[file.ID] = file
	return nil
}

func (s *Store) GetProductFile(_ context.Context, fileID string) (entities.ProductFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.filesByID[fileID]
	if !ok {
		return entities.ProductFile{}, domainerrors.ErrFileNotFound
	}
	return file, nil
}

func (s *Store) ListOwnedFileIDs(_ context.Context, ownerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, file := range s.filesByID {
		if file.OwnerID == ownerID {
			ids = append(ids, file.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) CreateMedia(_ context.Context, media entities.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaByID[media.ID] = media
	return nil
}

func (s *Store) GetMedia(_ context.Context, mediaID string) (entities.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	media, ok := s.mediaByID[mediaID]
	if !ok {
		return entities.Media{}, domainerrors.ErrMediaNotFound
	}
	return media, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.idempotency[key]
	if !ok || now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	next := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("cat_%d", next), nil
}

func matchesScope(scope ports.ListScope, product entities.Product) bool {
	if scope.All {
		return true
	}
	if scope.OwnerID != "" && product.SellerID == scope.OwnerID {
		return true
	}
	if scope.ApprovedOnly || scope.OwnerID == "" {
		return product.ApprovalStatus == entities.ApprovalApproved
	}
	return false
}

func cloneProduct(product entities.Product) entities.Product {
	clone := product
	clone.ImageIDs = append([]string(nil), product.ImageIDs...)
	return clone
}
