package service

import (
	"errors"
	"fmt"
)

// Виды ошибок. Транспорт выбирает код ответа через errors.Is по этим значениям.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error — конкретная ошибка сервиса с видом Kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrInvalidTimeRange = newError(ErrValidation, "start time must be before end time")
	ErrIDsRequired      = newError(ErrValidation, "requester id and slot id are required")
	ErrUnknownOwner     = newError(ErrValidation, "owner does not exist")

	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrSlotNotFound        = newError(ErrNotFound, "slot not found")
	ErrReservationNotFound = newError(ErrNotFound, "reservation not found")

	ErrSlotAlreadyReserved = newError(ErrConflict, "slot already reserved")
	ErrSlotHasReservation  = newError(ErrConflict, "slot has a live reservation")

	ErrNotSlotOwner        = newError(ErrForbidden, "only the slot owner can do this")
	ErrNotReservationParty = newError(ErrForbidden, "only the requester or the slot owner can do this")

	ErrEmailRequired       = newError(ErrValidation, "email and password are required")
	ErrEmailTaken          = newError(ErrConflict, "email already registered")
	ErrInvalidCredentials  = newError(ErrUnauthenticated, "invalid email or password")
	ErrInvalidToken        = newError(ErrUnauthenticated, "invalid or expired token")
	ErrRefreshTokenExpired = newError(ErrUnauthenticated, "refresh token expired")
)

// storeError оборачивает сбой хранилища; вид у него не выставлен, транспорт отдаёт 500.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
