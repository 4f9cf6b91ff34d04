// Package memstore — хранилище в памяти процесса: для тестов и локального запуска без БД.
// Семантика ошибок та же, что у GORM-реализаций (repository.ErrNotFound, repository.ErrDuplicate).
// Транзакций нет: WithSlotLock только сериализует операции над слотом,
// и сбой посреди операции не откатывает уже сделанные записи.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/repository"
)

// Store собирает все in-memory репозитории вместе.
type Store struct {
	Slots        *SlotStore
	Reservations *ReservationStore
	Users        *UserStore
	Events       *EventStore
	Locks        *SlotLocks
}

func New() *Store {
	return &Store{
		Slots:        &SlotStore{byID: map[uuid.UUID]model.AvailabilitySlot{}},
		Reservations: &ReservationStore{byID: map[uuid.UUID]model.Reservation{}},
		Users:        &UserStore{byID: map[uuid.UUID]model.User{}},
		Events:       &EventStore{},
		Locks:        &SlotLocks{locks: map[uuid.UUID]*slotLock{}},
	}
}

var (
	_ repository.SlotRepository        = (*SlotStore)(nil)
	_ repository.ReservationRepository = (*ReservationStore)(nil)
	_ repository.UserRepository        = (*UserStore)(nil)
	_ repository.SlotLocker            = (*SlotLocks)(nil)
)

// SlotStore
type SlotStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]model.AvailabilitySlot
	order []uuid.UUID
}

func (s *SlotStore) Create(_ context.Context, slot *model.AvailabilitySlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[slot.ID]; ok {
		return fmt.Errorf("%w: slot %s", repository.ErrDuplicate, slot.ID)
	}
	s.byID[slot.ID] = *slot
	s.order = append(s.order, slot.ID)
	return nil
}

func (s *SlotStore) GetByID(_ context.Context, id uuid.UUID) (*model.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (s *SlotStore) List(_ context.Context) ([]model.AvailabilitySlot, error) {
	return s.filter(func(model.AvailabilitySlot) bool { return true }), nil
}

func (s *SlotStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.AvailabilitySlot, error) {
	return s.filter(func(slot model.AvailabilitySlot) bool { return slot.OwnerID == ownerID }), nil
}

func (s *SlotStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	s.order = without(s.order, id)
	return nil
}

func (s *SlotStore) filter(keep func(model.AvailabilitySlot) bool) []model.AvailabilitySlot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AvailabilitySlot, 0, len(s.order))
	for _, id := range s.order {
		if slot := s.byID[id]; keep(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// ReservationStore держит то же ограничение, что и уникальный индекс в БД:
// не больше одного живого бронирования на слот.
type ReservationStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]model.Reservation
	order []uuid.UUID
}

func (s *ReservationStore) Create(_ context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; ok {
		return fmt.Errorf("%w: reservation %s", repository.ErrDuplicate, r.ID)
	}
	if r.Status.Live() {
		for _, existing := range s.byID {
			if existing.SlotID == r.SlotID && existing.Status.Live() {
				return fmt.Errorf("%w: live reservation for slot %s", repository.ErrDuplicate, r.SlotID)
			}
		}
	}
	s.byID[r.ID] = *r
	s.order = append(s.order, r.ID)
	return nil
}

func (s *ReservationStore) GetByID(_ context.Context, id uuid.UUID) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *ReservationStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	s.byID[id] = r
	return nil
}

func (s *ReservationStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	s.order = without(s.order, id)
	return nil
}

func (s *ReservationStore) List(_ context.Context) ([]model.Reservation, error) {
	return s.filter(func(model.Reservation) bool { return true }), nil
}

func (s *ReservationStore) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool { return r.RequesterID == requesterID }), nil
}

func (s *ReservationStore) ListBySlot(_ context.Context, slotID uuid.UUID) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool { return r.SlotID == slotID }), nil
}

func (s *ReservationStore) filter(keep func(model.Reservation) bool) []model.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Reservation, 0, len(s.order))
	for _, id := range s.order {
		if r := s.byID[id]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// UserStore
type UserStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]model.User
	order []uuid.UUID
}

func (s *UserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = repository.NormalizeEmail(u.Email)
	for _, existing := range s.byID {
		if existing.ID == u.ID || existing.Email == u.Email {
			return fmt.Errorf("%w: user %s", repository.ErrDuplicate, u.Email)
		}
	}
	s.byID[u.ID] = *u
	s.order = append(s.order, u.ID)
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := repository.NormalizeEmail(email)
	for _, u := range s.byID {
		if n != "" && u.Email == n {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *UserStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byID[id]
	return ok, nil
}

func (s *UserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// SlotLocks — мьютекс на каждый слот. Запись живёт, пока её кто-то держит или ждёт.
type SlotLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func (l *SlotLocks) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	sl, ok := l.locks[slotID]
	if !ok {
		sl = &slotLock{}
		l.locks[slotID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	defer func() {
		sl.mu.Unlock()

		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, slotID)
		}
		l.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
