package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReservationStatus — закрытое перечисление статусов бронирования.
// Отменённого статуса нет: отмена физически удаляет строку.
type ReservationStatus uint8

const (
	ReservationStatusUnknown ReservationStatus = iota
	ReservationStatusActive
	ReservationStatusConfirmed
)

func (s ReservationStatus) String() string {
	switch s {
	case ReservationStatusActive:
		return "ACTIVE"
	case ReservationStatusConfirmed:
		return "CONFIRMED"
	default:
		return "UNKNOWN"
	}
}

// Live — статус занимает слот (ACTIVE или CONFIRMED).
func (s ReservationStatus) Live() bool {
	return s == ReservationStatusActive || s == ReservationStatusConfirmed
}

// ParseReservationStatus разбирает строковое представление без учёта регистра.
// Используется только на границе (БД, транспорт).
func ParseReservationStatus(v string) (ReservationStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ACTIVE":
		return ReservationStatusActive, nil
	case "CONFIRMED":
		return ReservationStatusConfirmed, nil
	default:
		return ReservationStatusUnknown, fmt.Errorf("unknown reservation status %q", v)
	}
}

func (s ReservationStatus) MarshalText() ([]byte, error) {
	if s == ReservationStatusUnknown {
		return nil, fmt.Errorf("cannot marshal unknown reservation status")
	}
	return []byte(s.String()), nil
}

func (s *ReservationStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseReservationStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value хранит статус строкой ("ACTIVE"/"CONFIRMED").
func (s ReservationStatus) Value() (driver.Value, error) {
	if s == ReservationStatusUnknown {
		return nil, fmt.Errorf("cannot store unknown reservation status")
	}
	return s.String(), nil
}

func (s *ReservationStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	case nil:
		return fmt.Errorf("reservation status is NULL")
	default:
		return fmt.Errorf("unsupported reservation status type %T", src)
	}
}

// reservations
type Reservation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Ссылка на слот по идентификатору, слот загружается отдельно.
	SlotID      uuid.UUID `gorm:"type:uuid;not null;index"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index"`

	Status ReservationStatus `gorm:"type:varchar(16);not null"`

	CreatedAt time.Time `gorm:"not null"`
}
