package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reserveme/internal/clock"
	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/repository"
	"github.com/Leganyst/reserveme/internal/testutil"
)

func newGormBookingService(t *testing.T, db *gorm.DB, opts ...Option) *BookingService {
	t.Helper()
	opts = append([]Option{
		WithClock(clock.NewStepping(t0, time.Second)),
		WithAuditLog(repository.NewGormEventRepository(db)),
	}, opts...)
	return NewBookingService(
		repository.NewGormSlotRepository(db),
		repository.NewGormReservationRepository(db),
		repository.NewGormUserRepository(db),
		repository.NewGormTxManager(db),
		nil,
		opts...,
	)
}

func TestBookingService_Gorm_Lifecycle(t *testing.T) {
	db := testutil.NewSQLite(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a@example.com").ID
	b := testutil.CreateUser(t, db, "b@example.com").ID
	c := testutil.CreateUser(t, db, "c@example.com").ID
	svc := newGormBookingService(t, db)

	slot, err := svc.CreateSlot(ctx, a, t0, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	r, err := svc.CreateReservation(ctx, b, slot.ID)
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if _, err := svc.CreateReservation(ctx, c, slot.ID); !errors.Is(err, ErrSlotAlreadyReserved) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := svc.ConfirmReservation(ctx, r.ID, b); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	confirmed, err := svc.ConfirmReservation(ctx, r.ID, a)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != model.ReservationStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", confirmed.Status)
	}
	stored, err := svc.GetReservation(ctx, r.ID)
	if err != nil || stored.Status != model.ReservationStatusConfirmed {
		t.Fatalf("status not persisted: %+v %v", stored, err)
	}

	mine, err := svc.ListReservationsForUser(ctx, a)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != r.ID {
		t.Fatalf("expected single entry, got %+v", mine)
	}

	if err := svc.DeleteReservation(ctx, r.ID, c); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.DeleteReservation(ctx, r.ID, b); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.CreateReservation(ctx, c, slot.ID); err != nil {
		t.Fatalf("slot must be free after cancel: %v", err)
	}

	history, err := svc.ReservationHistory(ctx, r.ID, a)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected created/confirmed/deleted, got %d events", len(history))
	}
	if history[2].Details["reason"] != model.DeleteReasonCancelled {
		t.Fatalf("unexpected reason: %+v", history[2].Details)
	}
}

func TestBookingService_Gorm_CascadeDeleteIsAtomic(t *testing.T) {
	db := testutil.NewSQLite(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a@example.com").ID
	b := testutil.CreateUser(t, db, "b@example.com").ID
	svc := newGormBookingService(t, db, WithSlotDeletePolicy(SlotDeleteCascade))

	slot, err := svc.CreateSlot(ctx, a, t0, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	r, err := svc.CreateReservation(ctx, b, slot.ID)
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	if err := svc.DeleteSlot(ctx, slot.ID, b); !errors.Is(err, ErrNotSlotOwner) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.DeleteSlot(ctx, slot.ID, a); err != nil {
		t.Fatalf("delete slot: %v", err)
	}

	var left int64
	if err := db.Model(&model.Reservation{}).Where("slot_id = ?", slot.ID).Count(&left).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if left != 0 {
		t.Fatalf("expected reservations to be deleted, %d left", left)
	}

	var events []model.Event
	if err := db.Where("reservation_id = ?", r.ID).Order("created_at").Find(&events).Error; err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[1].Details["reason"] != model.DeleteReasonSlotDeleted {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestBookingService_Gorm_RejectPolicyKeepsEverything(t *testing.T) {
	db := testutil.NewSQLite(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a@example.com").ID
	b := testutil.CreateUser(t, db, "b@example.com").ID
	svc := newGormBookingService(t, db)

	slot, _ := svc.CreateSlot(ctx, a, t0, t0.Add(time.Hour))
	if _, err := svc.CreateReservation(ctx, b, slot.ID); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	if err := svc.DeleteSlot(ctx, slot.ID, a); !errors.Is(err, ErrSlotHasReservation) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.GetSlot(ctx, slot.ID); err != nil {
		t.Fatalf("slot must survive: %v", err)
	}
}

func TestBookingService_Gorm_ConcurrentReservationsOneWins(t *testing.T) {
	db := testutil.NewSQLite(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner@example.com").ID
	svc := newGormBookingService(t, db)

	slot, err := svc.CreateSlot(ctx, owner, t0, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	const n = 8
	requesters := make([]uuid.UUID, n)
	for i := range requesters {
		requesters[i] = testutil.CreateUser(t, db, uuid.NewString()+"@example.com").ID
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, id := range requesters {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.CreateReservation(ctx, id, slot.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			if !errors.Is(err, ErrSlotAlreadyReserved) {
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
