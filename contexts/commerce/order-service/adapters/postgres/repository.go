package postgresadapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	"digitalhippo/contexts/commerce/order-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateOrder(ctx context.Context, order ports.Order) (ports.Order, error) {
	if strings.TrimSpace(order.OrderID) == "" {
		return ports.Order{}, domainerrors.ErrInvalidRequest
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := orderModelFromEntity(order)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidRequest
			}
			return err
		}
		for position, line := range order.Lines {
			lineRow := orderLineModel{
				OrderID:    row.OrderID,
				Position:   position,
				ProductID:  strings.TrimSpace(line.ProductID),
				FileID:     strings.TrimSpace(line.FileID),
				Name:       line.Name,
				PriceCents: line.PriceCents,
				PriceRef:   strings.TrimSpace(line.PriceRef),
			}
			if err := tx.Create(&lineRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ports.Order{}, err
	}
	return order, nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (ports.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Order{}, domainerrors.ErrOrderNotFound
		}
		return ports.Order{}, err
	}

	lines, err := r.loadLines(ctx, []string{row.OrderID})
	if err != nil {
		return ports.Order{}, err
	}
	return row.toEntity(lines[row.OrderID]), nil
}

func (r *Repository) SetOrderSession(ctx context.Context, orderID string, sessionID string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		Updates(map[string]any{
			"session_id": strings.TrimSpace(sessionID),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOrderNotFound
	}
	return nil
}

// MarkOrderPaid flips paid in one conditional UPDATE so concurrent
// confirmations cannot both observe the transition.
func (r *Repository) MarkOrderPaid(ctx context.Context, orderID string, now time.Time) (bool, error) {
	timestamp := now.UTC()
	result := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("order_id = ? AND paid = ?", strings.TrimSpace(orderID), false).
		Updates(map[string]any{
			"paid":       true,
			"paid_at":    timestamp,
			"updated_at": timestamp,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, domainerrors.ErrOrderNotFound
	}
	return false, nil
}

func (r *Repository) ListOrdersByBuyer(ctx context.Context, userID string) ([]ports.Order, error) {
	var rows []orderModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	orderIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		orderIDs = append(orderIDs, row.OrderID)
	}
	lines, err := r.loadLines(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	items := make([]ports.Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(lines[row.OrderID]))
	}
	return items, nil
}

func (r *Repository) ListPendingWithSession(ctx context.Context, limit int) ([]ports.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []orderModel
	if err := r.db.WithContext(ctx).
		Where("paid = ? AND session_id <> ''", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	orderIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		orderIDs = append(orderIDs, row.OrderID)
	}
	lines, err := r.loadLines(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	items := make([]ports.Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(lines[row.OrderID]))
	}
	return items, nil
}

func (r *Repository) ListPaidLines(ctx context.Context, userID string) ([]ports.PaidLine, error) {
	var rows []orderLineModel
	if err := r.db.WithContext(ctx).
		Model(&orderLineModel{}).
		Joins("JOIN orders ON orders.order_id = order_lines.order_id").
		Where("orders.user_id = ? AND orders.paid = ?", strings.TrimSpace(userID), true).
		Order("order_lines.order_id ASC, order_lines.position ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.PaidLine, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.PaidLine{
			OrderID:   row.OrderID,
			ProductID: row.ProductID,
			FileID:    row.FileID,
		})
	}
	return items, nil
}

func (r *Repository) loadLines(ctx context.Context, orderIDs []string) (map[string][]ports.OrderLine, error) {
	grouped := make(map[string][]ports.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	var rows []orderLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id ASC, position ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		grouped[row.OrderID] = append(grouped[row.OrderID], ports.OrderLine{
			ProductID:  row.ProductID,
			FileID:     row.FileID,
			Name:       row.Name,
			PriceCents: row.PriceCents,
			PriceRef:   row.PriceRef,
		})
	}
	return grouped, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, message ports.OutboxMessage) error {
	row := outboxModel{
		OutboxID:  strings.TrimSpace(message.OutboxID),
		EventType: strings.TrimSpace(message.EventType),
		Payload:   append([]byte(nil), message.Payload...),
		Status:    outboxStatusPending,
		CreatedAt: message.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			Status:    row.Status,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: record.RequestHash,
		Payload:     append([]byte(nil), record.Payload...),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != row.RequestHash || !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

type orderModel struct {
	OrderID    string     `gorm:"column:order_id;primaryKey"`
	UserID     string     `gorm:"column:user_id"`
	FeeCents   int64      `gorm:"column:fee_cents"`
	TotalCents int64      `gorm:"column:total_cents"`
	Paid       bool       `gorm:"column:paid"`
	SessionID  string     `gorm:"column:session_id"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
	PaidAt     *time.Time `gorm:"column:paid_at"`
}

func (orderModel) TableName() string {
	return "orders"
}

func orderModelFromEntity(item ports.Order) orderModel {
	return orderModel{
		OrderID:    strings.TrimSpace(item.OrderID),
		UserID:     strings.TrimSpace(item.UserID),
		FeeCents:   item.FeeCents,
		TotalCents: item.TotalCents,
		Paid:       item.Paid,
		SessionID:  strings.TrimSpace(item.SessionID),
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
		PaidAt:     normalizeOptionalTime(item.PaidAt),
	}
}

func (m orderModel) toEntity(lines []ports.OrderLine) ports.Order {
	return ports.Order{
		OrderID:    m.OrderID,
		UserID:     m.UserID,
		Lines:      append([]ports.OrderLine(nil), lines...),
		FeeCents:   m.FeeCents,
		TotalCents: m.TotalCents,
		Paid:       m.Paid,
		SessionID:  m.SessionID,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
		PaidAt:     normalizeOptionalTime(m.PaidAt),
	}
}

type orderLineModel struct {
	OrderID    string `gorm:"column:order_id;primaryKey"`
	Position   int    `gorm:"column:position;primaryKey"`
	ProductID  string `gorm:"column:product_id"`
	FileID     string `gorm:"column:file_id"`
	Name       string `gorm:"column:name"`
	PriceCents int64  `gorm:"column:price_cents"`
	PriceRef   string `gorm:"column:price_ref"`
}

func (orderLineModel) TableName() string {
	return "order_lines"
}

type outboxModel struct {
	OutboxID  string     `gorm:"column:outbox_id;primaryKey"`
	EventType string     `gorm:"column:event_type"`
	Payload   []byte     `gorm:"column:payload"`
	Status    string     `gorm:"column:status"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "commerce_outbox"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "commerce_idempotency"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
