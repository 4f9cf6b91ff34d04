package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/reserveme/internal/calendar"
	"github.com/Leganyst/reserveme/internal/clock"
	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/repository"
)

// UserDirectory — всё, что движку бронирований нужно знать о пользователях.
type UserDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuditLog — журнал переходов. Пишется в той же единице работы, что и сам переход.
type AuditLog interface {
	Record(ctx context.Context, event *model.Event) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Event, error)
}

// SlotDeletePolicy — что делать с бронированиями удаляемого слота.
type SlotDeletePolicy int

const (
	// SlotDeleteReject запрещает удалять слот, пока на нём есть бронирование.
	SlotDeleteReject SlotDeletePolicy = iota
	// SlotDeleteCascade удаляет бронирования вместе со слотом.
	SlotDeleteCascade
)

func ParseSlotDeletePolicy(v string) (SlotDeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "reject":
		return SlotDeleteReject, nil
	case "cascade":
		return SlotDeleteCascade, nil
	default:
		return SlotDeleteReject, fmt.Errorf("unknown slot delete policy %q", v)
	}
}

func (p SlotDeletePolicy) String() string {
	if p == SlotDeleteCascade {
		return "cascade"
	}
	return "reject"
}

type Option func(*BookingService)

func WithClock(c clock.Clock) Option {
	return func(s *BookingService) { s.clock = c }
}

func WithSlotDeletePolicy(p SlotDeletePolicy) Option {
	return func(s *BookingService) { s.deletePolicy = p }
}

func WithAuditLog(a AuditLog) Option {
	return func(s *BookingService) { s.audit = a }
}

// BookingService — движок бронирований: слоты, жизненный цикл бронирования
// и сводный список "мои бронирования".
//
// Любая операция, меняющая состояние слота или его бронирований, выполняется
// внутри SlotLocker.WithSlotLock по этому слоту: проверка и запись идут одной единицей.
type BookingService struct {
	slots        repository.SlotRepository
	reservations repository.ReservationRepository
	users        UserDirectory
	locker       repository.SlotLocker
	audit        AuditLog
	clock        clock.Clock
	deletePolicy SlotDeletePolicy
	logger       *zap.Logger
}

func NewBookingService(
	slots repository.SlotRepository,
	reservations repository.ReservationRepository,
	users UserDirectory,
	locker repository.SlotLocker,
	logger *zap.Logger,
	opts ...Option,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BookingService{
		slots:        slots,
		reservations: reservations,
		users:        users,
		locker:       locker,
		clock:        clock.NewSystem(),
		deletePolicy: SlotDeleteReject,
		logger:       logger.Named("booking"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSlot выставляет новое окно владельца ownerID.
func (s *BookingService) CreateSlot(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (*model.AvailabilitySlot, error) {
	slot := &model.AvailabilitySlot{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		StartTime: start,
		EndTime:   end,
	}
	if err := validateSlotModel(slot); err != nil {
		return nil, err
	}

	err := s.locker.WithSlotLock(ctx, slot.ID, func(ctx context.Context) error {
		ok, err := s.users.Exists(ctx, ownerID)
		if err != nil {
			return storeError("check owner", err)
		}
		if !ok {
			return ErrUnknownOwner
		}

		slot.CreatedAt = s.clock.Now()
		if err := s.slots.Create(ctx, slot); err != nil {
			return storeError("create slot", err)
		}
		return s.record(ctx, model.EventTypeSlotCreated, ownerID, &slot.ID, nil, map[string]any{
			"start_time": slot.StartTime.Format(time.RFC3339),
			"end_time":   slot.EndTime.Format(time.RFC3339),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot created",
		zap.Stringer("slot_id", slot.ID),
		zap.Stringer("owner_id", ownerID),
		zap.Stringer("window", calendar.TimeRange{Start: slot.StartTime, End: slot.EndTime}),
	)
	return slot, nil
}

// DeleteSlot удаляет слот. Что станет с его бронированиями, решает SlotDeletePolicy.
func (s *BookingService) DeleteSlot(ctx context.Context, slotID, callerID uuid.UUID) error {
	var cascaded int
	err := s.locker.WithSlotLock(ctx, slotID, func(ctx context.Context) error {
		slot, err := s.slots.GetByID(ctx, slotID)
		if err != nil {
			return storeError("get slot", err)
		}
		if slot == nil {
			return ErrSlotNotFound
		}
		if !slot.OwnedBy(callerID) {
			return ErrNotSlotOwner
		}

		attached, err := s.reservations.ListBySlot(ctx, slotID)
		if err != nil {
			return storeError("list reservations", err)
		}
		if len(attached) > 0 {
			if s.deletePolicy != SlotDeleteCascade {
				return ErrSlotHasReservation
			}
			for _, r := range attached {
				r := r
				if err := s.reservations.Delete(ctx, r.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
					return storeError("delete reservation", err)
				}
				if err := s.record(ctx, model.EventTypeReservationDeleted, callerID, &slotID, &r.ID, map[string]any{
					"reason":        model.DeleteReasonSlotDeleted,
					"requester_id":  r.RequesterID.String(),
					"slot_owner_id": slot.OwnerID.String(),
				}); err != nil {
					return err
				}
			}
			cascaded = len(attached)
		}

		if err := s.slots.Delete(ctx, slotID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSlotNotFound
			}
			return storeError("delete slot", err)
		}
		return s.record(ctx, model.EventTypeSlotDeleted, callerID, &slotID, nil, nil)
	})
	if err != nil {
		s.logRejected("delete slot", err, zap.Stringer("slot_id", slotID), zap.Stringer("caller_id", callerID))
		return err
	}

	s.logger.Info("slot deleted",
		zap.Stringer("slot_id", slotID),
		zap.Int("cascaded_reservations", cascaded),
	)
	return nil
}

func (s *BookingService) ListSlots(ctx context.Context) ([]model.AvailabilitySlot, error) {
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, storeError("list slots", err)
	}
	return slots, nil
}

func (s *BookingService) ListSlotsByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.AvailabilitySlot, error) {
	slots, err := s.slots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError("list slots by owner", err)
	}
	return slots, nil
}

func (s *BookingService) GetSlot(ctx context.Context, slotID uuid.UUID) (*model.AvailabilitySlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, storeError("get slot", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// CreateReservation занимает слот от имени requesterID. На слоте может быть
// не больше одного живого бронирования.
func (s *BookingService) CreateReservation(ctx context.Context, requesterID, slotID uuid.UUID) (*model.Reservation, error) {
	if requesterID == uuid.Nil || slotID == uuid.Nil {
		return nil, ErrIDsRequired
	}

	var created *model.Reservation
	err := s.locker.WithSlotLock(ctx, slotID, func(ctx context.Context) error {
		ok, err := s.users.Exists(ctx, requesterID)
		if err != nil {
			return storeError("check requester", err)
		}
		if !ok {
			return ErrUserNotFound
		}

		slot, err := s.slots.GetByID(ctx, slotID)
		if err != nil {
			return storeError("get slot", err)
		}
		if slot == nil {
			return ErrSlotNotFound
		}

		existing, err := s.reservations.ListBySlot(ctx, slotID)
		if err != nil {
			return storeError("list reservations", err)
		}
		if hasLiveReservation(existing) {
			return ErrSlotAlreadyReserved
		}

		r := &model.Reservation{
			ID:          uuid.New(),
			SlotID:      slotID,
			RequesterID: requesterID,
			Status:      model.ReservationStatusActive,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.reservations.Create(ctx, r); err != nil {
			// уникальный индекс по живым бронированиям слота
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrSlotAlreadyReserved
			}
			return storeError("create reservation", err)
		}
		created = r

		return s.record(ctx, model.EventTypeReservationCreated, requesterID, &slotID, &r.ID, map[string]any{
			"slot_owner_id": slot.OwnerID.String(),
		})
	})
	if err != nil {
		s.logRejected("create reservation", err, zap.Stringer("slot_id", slotID), zap.Stringer("requester_id", requesterID))
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.Stringer("reservation_id", created.ID),
		zap.Stringer("slot_id", slotID),
		zap.Stringer("requester_id", requesterID),
	)
	return created, nil
}

// ConfirmReservation переводит ACTIVE в CONFIRMED. Подтверждать может только владелец слота.
// Повторное подтверждение ничего не пишет и возвращает бронирование как есть.
func (s *BookingService) ConfirmReservation(ctx context.Context, reservationID, callerID uuid.UUID) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, storeError("get reservation", err)
	}
	if r == nil {
		return nil, ErrReservationNotFound
	}

	var (
		confirmed *model.Reservation
		changed   bool
	)
	err = s.locker.WithSlotLock(ctx, r.SlotID, func(ctx context.Context) error {
		// перечитываем под блокировкой: бронирование могли удалить
		current, err := s.reservations.GetByID(ctx, reservationID)
		if err != nil {
			return storeError("get reservation", err)
		}
		if current == nil {
			return ErrReservationNotFound
		}

		slot, err := s.slots.GetByID(ctx, current.SlotID)
		if err != nil {
			return storeError("get slot", err)
		}
		if slot == nil {
			return ErrSlotNotFound
		}
		if !slot.OwnedBy(callerID) {
			return ErrNotSlotOwner
		}

		if current.Status == model.ReservationStatusConfirmed {
			confirmed = current
			return nil
		}

		if err := s.reservations.UpdateStatus(ctx, current.ID, model.ReservationStatusConfirmed); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReservationNotFound
			}
			return storeError("confirm reservation", err)
		}
		current.Status = model.ReservationStatusConfirmed
		confirmed, changed = current, true

		return s.record(ctx, model.EventTypeReservationConfirmed, callerID, &current.SlotID, &current.ID, map[string]any{
			"requester_id":  current.RequesterID.String(),
			"slot_owner_id": slot.OwnerID.String(),
		})
	})
	if err != nil {
		s.logRejected("confirm reservation", err, zap.Stringer("reservation_id", reservationID), zap.Stringer("caller_id", callerID))
		return nil, err
	}

	if changed {
		s.logger.Info("reservation confirmed",
			zap.Stringer("reservation_id", confirmed.ID),
			zap.Stringer("slot_id", confirmed.SlotID),
		)
	}
	return confirmed, nil
}

// DeleteReservation отменяет (заявитель) или отклоняет (владелец слота) бронирование.
// Строка удаляется физически, след остаётся только в журнале.
func (s *BookingService) DeleteReservation(ctx context.Context, reservationID, callerID uuid.UUID) error {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return storeError("get reservation", err)
	}
	if r == nil {
		return ErrReservationNotFound
	}

	var reason string
	err = s.locker.WithSlotLock(ctx, r.SlotID, func(ctx context.Context) error {
		current, err := s.reservations.GetByID(ctx, reservationID)
		if err != nil {
			return storeError("get reservation", err)
		}
		if current == nil {
			return ErrReservationNotFound
		}

		slot, err := s.slots.GetByID(ctx, current.SlotID)
		if err != nil {
			return storeError("get slot", err)
		}
		if !canDeleteReservation(current, slot, callerID) {
			return ErrNotReservationParty
		}

		if err := s.reservations.Delete(ctx, current.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReservationNotFound
			}
			return storeError("delete reservation", err)
		}

		reason = model.DeleteReasonRejected
		if current.RequesterID == callerID {
			reason = model.DeleteReasonCancelled
		}
		details := map[string]any{
			"reason":       reason,
			"requester_id": current.RequesterID.String(),
		}
		if slot != nil {
			details["slot_owner_id"] = slot.OwnerID.String()
		}
		return s.record(ctx, model.EventTypeReservationDeleted, callerID, &current.SlotID, &current.ID, details)
	})
	if err != nil {
		s.logRejected("delete reservation", err, zap.Stringer("reservation_id", reservationID), zap.Stringer("caller_id", callerID))
		return err
	}

	s.logger.Info("reservation deleted",
		zap.Stringer("reservation_id", reservationID),
		zap.Stringer("slot_id", r.SlotID),
		zap.String("reason", reason),
	)
	return nil
}

func (s *BookingService) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	out, err := s.reservations.List(ctx)
	if err != nil {
		return nil, storeError("list reservations", err)
	}
	return out, nil
}

func (s *BookingService) ListReservationsForSlot(ctx context.Context, slotID uuid.UUID) ([]model.Reservation, error) {
	out, err := s.reservations.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, storeError("list reservations by slot", err)
	}
	return out, nil
}

func (s *BookingService) GetReservation(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, storeError("get reservation", err)
	}
	if r == nil {
		return nil, ErrReservationNotFound
	}
	return r, nil
}

// ListReservationsForUser — "мои бронирования": сначала исходящие (userID — заявитель),
// затем входящие (на слотах userID). Каждое бронирование встречается один раз.
func (s *BookingService) ListReservationsForUser(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	outgoing, err := s.reservations.ListByRequester(ctx, userID)
	if err != nil {
		return nil, storeError("list outgoing reservations", err)
	}

	owned, err := s.slots.ListByOwner(ctx, userID)
	if err != nil {
		return nil, storeError("list owned slots", err)
	}

	lists := make([][]model.Reservation, 0, len(owned)+1)
	lists = append(lists, outgoing)
	for _, slot := range owned {
		incoming, err := s.reservations.ListBySlot(ctx, slot.ID)
		if err != nil {
			return nil, storeError("list incoming reservations", err)
		}
		lists = append(lists, incoming)
	}

	return mergeReservations(lists...), nil
}

// ReservationHistory возвращает журнал бронирования, в том числе уже удалённого.
// Доступ есть у участников: заявителя и владельца слота на момент перехода.
func (s *BookingService) ReservationHistory(ctx context.Context, reservationID, callerID uuid.UUID) ([]model.Event, error) {
	if s.audit == nil {
		return nil, ErrReservationNotFound
	}

	events, err := s.audit.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, storeError("list events", err)
	}
	if len(events) == 0 {
		return nil, ErrReservationNotFound
	}

	caller := callerID.String()
	for _, e := range events {
		if e.ActorID != nil && *e.ActorID == callerID {
			return events, nil
		}
		if e.Details["requester_id"] == caller || e.Details["slot_owner_id"] == caller {
			return events, nil
		}
	}
	return nil, ErrNotReservationParty
}

func (s *BookingService) record(
	ctx context.Context,
	typ model.EventType,
	actorID uuid.UUID,
	slotID, reservationID *uuid.UUID,
	details map[string]any,
) error {
	if s.audit == nil {
		return nil
	}
	e := &model.Event{
		ID:            uuid.New(),
		EventType:     typ,
		CreatedAt:     s.clock.Now(),
		ActorID:       &actorID,
		SlotID:        slotID,
		ReservationID: reservationID,
		Details:       details,
	}
	if err := s.audit.Record(ctx, e); err != nil {
		return storeError("record event", err)
	}
	return nil
}

// logRejected пишет отказ: ожидаемые ошибки на Warn, сбои хранилища на Error.
func (s *BookingService) logRejected(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var svcErr *Error
	if errors.As(err, &svcErr) {
		s.logger.Warn(op+" rejected", fields...)
		return
	}
	s.logger.Error(op+" failed", fields...)
}
