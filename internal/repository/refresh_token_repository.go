package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reserveme/internal/model"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	// Найти токен. Если его нет — (nil, nil).
	Get(ctx context.Context, token uuid.UUID) (*model.RefreshToken, error)
	// Удалить токен. ErrNotFound, если его уже использовали.
	Delete(ctx context.Context, token uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type GormRefreshTokenRepository struct {
	db *gorm.DB
}

func NewGormRefreshTokenRepository(db *gorm.DB) *GormRefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

func (r *GormRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return translateError(conn(ctx, r.db).Create(token).Error)
}

func (r *GormRefreshTokenRepository) Get(ctx context.Context, token uuid.UUID) (*model.RefreshToken, error) {
	var found []model.RefreshToken
	if err := conn(ctx, r.db).Where("token = ?", token).Limit(1).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *GormRefreshTokenRepository) Delete(ctx context.Context, token uuid.UUID) error {
	res := conn(ctx, r.db).Where("token = ?", token).Delete(&model.RefreshToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRefreshTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}
