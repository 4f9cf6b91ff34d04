package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reserveme/internal/model"
)

type ReservationRepository interface {
	// Создать бронирование. ErrDuplicate, если на слоте уже есть живое.
	Create(ctx context.Context, reservation *model.Reservation) error
	// Найти бронирование по ID. Если его нет — (nil, nil).
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// Сменить статус. ErrNotFound, если строки уже нет.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) error
	// Удалить бронирование. ErrNotFound, если строки уже нет.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context) ([]model.Reservation, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]model.Reservation, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]model.Reservation, error)
}

// Реализация на GORM.
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return translateError(conn(ctx, r.db).Create(reservation).Error)
}

func (r *GormReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var found []model.Reservation
	if err := conn(ctx, r.db).Where("id = ?", id).Limit(1).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *GormReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) error {
	res := conn(ctx, r.db).
		Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&model.Reservation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormReservationRepository) List(ctx context.Context) ([]model.Reservation, error) {
	return r.list(conn(ctx, r.db))
}

func (r *GormReservationRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]model.Reservation, error) {
	return r.list(conn(ctx, r.db).Where("requester_id = ?", requesterID))
}

func (r *GormReservationRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]model.Reservation, error) {
	return r.list(conn(ctx, r.db).Where("slot_id = ?", slotID))
}

func (r *GormReservationRepository) list(q *gorm.DB) ([]model.Reservation, error) {
	var out []model.Reservation
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}
