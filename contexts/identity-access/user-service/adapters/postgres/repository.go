package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"digitalhippo/contexts/identity-access/user-service/domain/entities"
	domainerrors "digitalhippo/contexts/identity-access/user-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreateUser(ctx context.Context, user entities.User) error {
	row := userModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetUserByVerificationToken(ctx context.Context, token string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("verification_token = ?", strings.TrimSpace(token)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrVerificationInvalid
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateUser(ctx context.Context, user entities.User) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", strings.TrimSpace(user.ID)).
		Updates(map[string]any{
			"role":               string(user.Role),
			"verified":           user.Verified,
			"verification_token": strings.TrimSpace(user.VerificationToken),
			"updated_at":         user.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

type userModel struct {
	UserID            string    `gorm:"column:user_id;primaryKey"`
	Email             string    `gorm:"column:email"`
	PasswordHash      string    `gorm:"column:password_hash"`
	Role              string    `gorm:"column:role"`
	Verified          bool      `gorm:"column:verified"`
	VerificationToken string    `gorm:"column:verification_token"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string {
	return "users"
}

func userModelFromEntity(item entities.User) userModel {
	return userModel{
		UserID:            strings.TrimSpace(item.ID),
		Email:             strings.ToLower(strings.TrimSpace(item.Email)),
		PasswordHash:      item.PasswordHash,
		Role:              string(item.Role),
		Verified:          item.Verified,
		VerificationToken: strings.TrimSpace(item.VerificationToken),
		CreatedAt:         item.CreatedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
	}
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		ID:                m.UserID,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              entities.Role(m.Role),
		Verified:          m.Verified,
		VerificationToken: m.VerificationToken,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
