package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reserveme/internal/model"
)

type SlotRepository interface {
	// Создать слот.
	Create(ctx context.Context, slot *model.AvailabilitySlot) error
	// Найти слот по ID. Если слота нет — (nil, nil).
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySlot, error)
	// Все слоты в порядке создания.
	List(ctx context.Context) ([]model.AvailabilitySlot, error)
	// Слоты владельца в порядке создания.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.AvailabilitySlot, error)
	// Удалить слот. ErrNotFound, если удалять нечего.
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	return translateError(conn(ctx, r.db).Create(slot).Error)
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySlot, error) {
	var slots []model.AvailabilitySlot
	if err := conn(ctx, r.db).Where("id = ?", id).Limit(1).Find(&slots).Error; err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}
	return &slots[0], nil
}

func (r *GormSlotRepository) List(ctx context.Context) ([]model.AvailabilitySlot, error) {
	var slots []model.AvailabilitySlot
	err := conn(ctx, r.db).
		Order("created_at ASC, id ASC").
		Find(&slots).Error
	return slots, err
}

func (r *GormSlotRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.AvailabilitySlot, error) {
	var slots []model.AvailabilitySlot
	err := conn(ctx, r.db).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&slots).Error
	return slots, err
}

func (r *GormSlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&model.AvailabilitySlot{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
