package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reserveme/internal/model"
)

// EventRepository — журнал аудита переходов слотов и бронирований.
type EventRepository interface {
	Record(ctx context.Context, event *model.Event) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Event, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Record(ctx context.Context, event *model.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return conn(ctx, r.db).Create(event).Error
}

func (r *GormEventRepository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := conn(ctx, r.db).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *GormEventRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := conn(ctx, r.db).
		Where("slot_id = ?", slotID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}
