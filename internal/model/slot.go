package model

import (
	"time"

	"github.com/google/uuid"
)

// availability_slots — окно времени, которое владелец выставляет для бронирования.
// После создания слот не меняется; единственная мутация — удаление.
type AvailabilitySlot struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartTime time.Time `gorm:"type:timestamp with time zone;not null"`
	EndTime   time.Time `gorm:"type:timestamp with time zone;not null"`

	CreatedAt time.Time `gorm:"not null"`
}

// OwnedBy сообщает, принадлежит ли слот пользователю userID.
func (s *AvailabilitySlot) OwnedBy(userID uuid.UUID) bool {
	return s != nil && s.OwnerID == userID
}
