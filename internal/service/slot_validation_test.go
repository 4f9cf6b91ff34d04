package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reserveme/internal/model"
)

func TestValidateSlotModel_OK(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	slot := &model.AvailabilitySlot{
		OwnerID:   uuid.New(),
		StartTime: time.Date(2025, 1, 1, 13, 0, 0, 0, msk),
		EndTime:   time.Date(2025, 1, 1, 14, 0, 0, 0, msk),
	}

	if err := validateSlotModel(slot); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if slot.StartTime.Location() != time.UTC || slot.StartTime.Hour() != 10 {
		t.Fatalf("expected start converted to UTC, got %v", slot.StartTime)
	}
}

func TestValidateSlotModel_InvalidRange(t *testing.T) {
	slot := &model.AvailabilitySlot{
		OwnerID:   uuid.New(),
		StartTime: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}

	err := validateSlotModel(slot)
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected %v, got %v", ErrInvalidTimeRange, err)
	}
	if err.Error() != "start time must be before end time" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestValidateSlotModel_NoOwner(t *testing.T) {
	slot := &model.AvailabilitySlot{
		StartTime: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC),
	}

	if err := validateSlotModel(slot); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCanDeleteReservation(t *testing.T) {
	owner, requester, stranger := uuid.New(), uuid.New(), uuid.New()
	r := &model.Reservation{ID: uuid.New(), RequesterID: requester}
	slot := &model.AvailabilitySlot{OwnerID: owner}

	if !canDeleteReservation(r, slot, requester) {
		t.Fatalf("requester must be allowed")
	}
	if !canDeleteReservation(r, slot, owner) {
		t.Fatalf("owner must be allowed")
	}
	if canDeleteReservation(r, slot, stranger) {
		t.Fatalf("stranger must not be allowed")
	}
	if canDeleteReservation(r, nil, owner) {
		t.Fatalf("missing slot must not grant owner rights")
	}
	if !canDeleteReservation(r, nil, requester) {
		t.Fatalf("missing slot must not block the requester")
	}
}

func TestMergeReservations_DedupOutgoingFirst(t *testing.T) {
	r1 := model.Reservation{ID: uuid.New()}
	r2 := model.Reservation{ID: uuid.New()}
	r3 := model.Reservation{ID: uuid.New()}

	got := mergeReservations(
		[]model.Reservation{r2, r1},
		[]model.Reservation{r1, r3},
		[]model.Reservation{r3},
	)
	want := []uuid.UUID{r2.ID, r1.ID, r3.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestHasLiveReservation(t *testing.T) {
	if hasLiveReservation(nil) {
		t.Fatalf("empty list has no live reservation")
	}
	list := []model.Reservation{{Status: model.ReservationStatusUnknown}}
	if hasLiveReservation(list) {
		t.Fatalf("unknown status is not live")
	}
	list = append(list, model.Reservation{Status: model.ReservationStatusConfirmed})
	if !hasLiveReservation(list) {
		t.Fatalf("confirmed reservation is live")
	}
}
