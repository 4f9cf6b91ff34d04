package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Тип события аудита.
type EventType string

const (
	EventTypeSlotCreated          EventType = "slot_created"
	EventTypeSlotDeleted          EventType = "slot_deleted"
	EventTypeReservationCreated   EventType = "reservation_created"
	EventTypeReservationConfirmed EventType = "reservation_confirmed"
	EventTypeReservationDeleted   EventType = "reservation_deleted"
)

// Причины удаления бронирования, пишутся в Details.
const (
	DeleteReasonCancelled   = "cancelled"
	DeleteReasonRejected    = "rejected"
	DeleteReasonSlotDeleted = "slot_deleted"
)

// events — журнал переходов. Бронирование удаляется физически,
// поэтому история отмен сохраняется только здесь.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	ActorID       *uuid.UUID `gorm:"type:uuid;index"`
	SlotID        *uuid.UUID `gorm:"type:uuid;index"`
	ReservationID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSONMap
}
