package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Leganyst/reserveme/internal/calendar"
	"github.com/Leganyst/reserveme/internal/model"
)

// validateSlotModel проверяет слот перед сохранением: владелец задан, интервал корректный.
// Интервал приводится к UTC.
func validateSlotModel(slot *model.AvailabilitySlot) error {
	if slot.OwnerID == uuid.Nil {
		return ErrUnknownOwner
	}
	tr, err := calendar.NewTimeRange(slot.StartTime, slot.EndTime)
	if err != nil {
		if errors.Is(err, calendar.ErrInvalidTimeRange) {
			return ErrInvalidTimeRange
		}
		return err
	}
	slot.StartTime, slot.EndTime = tr.Start, tr.End
	return nil
}

// canDeleteReservation: отменить может заявитель, отклонить — владелец слота.
// Отсутствующий слот (slot == nil) просто не даёт прав владельца.
func canDeleteReservation(r *model.Reservation, slot *model.AvailabilitySlot, callerID uuid.UUID) bool {
	return r.RequesterID == callerID || slot.OwnedBy(callerID)
}

// hasLiveReservation — на слоте уже есть ACTIVE или CONFIRMED бронирование.
func hasLiveReservation(reservations []model.Reservation) bool {
	for _, r := range reservations {
		if r.Status.Live() {
			return true
		}
	}
	return false
}

// mergeReservations объединяет списки без дублей по id: порядок первого появления,
// элементы из первых списков идут раньше.
func mergeReservations(lists ...[]model.Reservation) []model.Reservation {
	seen := make(map[uuid.UUID]struct{})
	out := make([]model.Reservation, 0)
	for _, list := range lists {
		for _, r := range list {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
