package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	domainerrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	"digitalhippo/contexts/commerce/order-service/ports"
)

// Store is the in-memory order repository used by tests and the local
// runtime. The paid transition mirrors the SQL adapter's conditional
// update: the check and the flip happen under one lock.
type Store struct {
	mu sync.Mutex

	ordersByID   map[string]ports.Order
	catalog      map[string]ports.CatalogProduct
	catalogOrder []string
	outbox       []ports.OutboxMessage
	idempotency  map[string]ports.IdempotencyRecord
	receipts     []ports.Receipt
	sequence     uint64
}

func NewStore() *Store {
	store := &Store{
		ordersByID:  make(map[string]ports.Order),
		catalog:     make(map[string]ports.CatalogProduct),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
	// Seed products matching the storefront fixtures: two purchasable,
	// one without a processor price handle.
	store.SeedProduct(ports.CatalogProduct{
		ProductID:  "prod_001",
		Name:       "Minimalist UI Kit",
		FileID:     "file_001",
		PriceCents: 1000,
		PriceRef:   "price_001",
	})
	store.SeedProduct(ports.CatalogProduct{
		ProductID:  "prod_002",
		Name:       "Icon Pack Vol. 2",
		FileID:     "file_002",
		PriceCents: 2000,
		PriceRef:   "price_002",
	})
	store.SeedProduct(ports.CatalogProduct{
		ProductID:  "prod_003",
		Name:       "Unpriced Draft",
		FileID:     "file_003",
		PriceCents: 500,
	})
	return store
}

func (s *Store) SeedProduct(product ports.CatalogProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalog[product.ProductID]; !ok {
		s.catalogOrder = append(s.catalogOrder, product.ProductID)
	}
	s.catalog[product.ProductID] = product
}

func (s *Store) ListByIDs(_ context.Context, productIDs []string) ([]ports.CatalogProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]ports.CatalogProduct, 0, len(productIDs))
	for _, id := range productIDs {
		if product, ok := s.catalog[id]; ok {
			items = append(items, product)
		}
	}
	return items, nil
}

func (s *Store) CreateOrder(_ context.Context, order ports.Order) (ports.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.OrderID == "" {
		return ports.Order{}, domainerrors.ErrInvalidRequest
	}
	s.ordersByID[order.OrderID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (s *Store) GetOrder(_ context.Context, orderID string) (ports.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[orderID]
	if !ok {
		return ports.Order{}, domainerrors.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) SetOrderSession(_ context.Context, orderID string, sessionID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[orderID]
	if !ok {
		return domainerrors.ErrOrderNotFound
	}
	order.SessionID = sessionID
	order.UpdatedAt = now.UTC()
	s.ordersByID[orderID] = order
	return nil
}

func (s *Store) MarkOrderPaid(_ context.Context, orderID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[orderID]
	if !ok {
		return false, domainerrors.ErrOrderNotFound
	}
	if order.Paid {
		return false, nil
	}
	paidAt := now.UTC()
	order.Paid = true
	order.PaidAt = &paidAt
	order.UpdatedAt = paidAt
	s.ordersByID[orderID] = order
	return true, nil
}

func (s *Store) ListOrdersByBuyer(_ context.Context, userID string) ([]ports.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []ports.Order
	for _, order := range s.ordersByID {
		if order.UserID == userID {
			orders = append(orders, cloneOrder(order))
		}
	}
	return orders, nil
}

func (s *Store) ListPendingWithSession(_ context.Context, limit int) ([]ports.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []ports.Order
	for _, order := range s.ordersByID {
		if order.Paid || order.SessionID == "" {
			continue
		}
		orders = append(orders, cloneOrder(order))
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) ListPaidLines(_ context.Context, userID string) ([]ports.PaidLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []ports.PaidLine
	for _, order := range s.ordersByID {
		if order.UserID != userID || !order.Paid {
			continue
		}
		for _, line := range order.Lines {
			lines = append(lines, ports.PaidLine{
				OrderID:   order.OrderID,
				ProductID: line.ProductID,
				FileID:    line.FileID,
			})
		}
	}
	return lines, nil
}

func (s *Store) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, message)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []ports.OutboxMessage
	for _, message := range s.outbox {
		if message.Status == "pending" {
			pending = append(pending, message)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			sentAt := now.UTC()
			s.outbox[i].Status = "sent"
			s.outbox[i].SentAt = &sentAt
			return nil
		}
	}
	return nil
}

func (s *Store) Send(_ context.Context, receipt ports.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, receipt)
	return nil
}

// Receipts exposes sent receipts to tests checking single-fire semantics.
func (s *Store) Receipts() []ports.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Receipt(nil), s.receipts...)
}

// PendingOutboxCount exposes outbox depth to tests.
func (s *Store) PendingOutboxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, message := range s.outbox {
		if message.Status == "pending" {
			count++
		}
	}
	return count
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	return fmt.Sprintf("order_%d", next), nil
}

func cloneOrder(order ports.Order) ports.Order {
	clone := order
	clone.Lines = append([]ports.OrderLine(nil), order.Lines...)
	if order.PaidAt != nil {
		paidAt := *order.PaidAt
		clone.PaidAt = &paidAt
	}
	return clone
}
