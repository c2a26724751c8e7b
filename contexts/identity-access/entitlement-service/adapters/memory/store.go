package memory

import (
	"context"
	"sync"
	"time"

	"digitalhippo/contexts/identity-access/entitlement-service/ports"
)

type orderProductRecord struct {
	ref  ports.OrderProductRef
	paid bool
}

type cacheRecord struct {
	fileIDs   []string
	expiresAt time.Time
}

// Store backs the evaluator with in-memory ownership and purchase data.
// Production wiring reads the catalog and order tables instead; tests and
// the in-memory runtime seed this store directly.
type Store struct {
	mu sync.RWMutex

	ownedFilesByUser    map[string][]string
	orderProductsByUser map[string][]orderProductRecord
	cache               map[string]cacheRecord
}

func NewStore() *Store {
	return &Store{
		ownedFilesByUser:    make(map[string][]string),
		orderProductsByUser: make(map[string][]orderProductRecord),
		cache:               make(map[string]cacheRecord),
	}
}

// SeedOwnedFile registers a file uploaded or sold by the user.
func (s *Store) SeedOwnedFile(userID string, fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownedFilesByUser[userID] = append(s.ownedFilesByUser[userID], fileID)
}

// SeedOrderProduct registers a product inside one of the user's orders.
// Pass resolved=false to simulate a shallow fetch that left the file
// relation unexpanded.
func (s *Store) SeedOrderProduct(userID string, orderID string, productID string, fileID string, paid bool, resolved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderProductsByUser[userID] = append(s.orderProductsByUser[userID], orderProductRecord{
		ref: ports.OrderProductRef{
			OrderID:   orderID,
			ProductID: productID,
			FileID:    fileID,
			Resolved:  resolved,
		},
		paid: paid,
	})
}

// MarkOrderPaid flips every seeded entry of the order to paid.
func (s *Store) MarkOrderPaid(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, records := range s.orderProductsByUser {
		for i := range records {
			if records[i].ref.OrderID == orderID {
				records[i].paid = true
			}
		}
		s.orderProductsByUser[userID] = records
	}
}

func (s *Store) ListOwnedFileIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ownedFilesByUser[userID]...), nil
}

func (s *Store) ListPaidOrderProducts(_ context.Context, userID string) ([]ports.OrderProductRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []ports.OrderProductRef
	for _, record := range s.orderProductsByUser[userID] {
		if record.paid {
			refs = append(refs, record.ref)
		}
	}
	return refs, nil
}

func (s *Store) GetFileIDs(_ context.Context, userID string, now time.Time) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.cache[userID]
	if !ok || now.After(record.expiresAt) {
		return nil, false, nil
	}
	return append([]string(nil), record.fileIDs...), true, nil
}

func (s *Store) SetFileIDs(_ context.Context, userID string, fileIDs []string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[userID] = cacheRecord{
		fileIDs:   append([]string(nil), fileIDs...),
		expiresAt: expiresAt,
	}
	return nil
}

func (s *Store) Invalidate(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, userID)
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
