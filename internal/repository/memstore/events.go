package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/repository"
)

var _ repository.EventRepository = (*EventStore)(nil)

// EventStore — журнал аудита в памяти, только дописывается.
type EventStore struct {
	mu     sync.RWMutex
	events []model.Event
}

func (s *EventStore) Record(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *EventStore) ListByReservation(_ context.Context, reservationID uuid.UUID) ([]model.Event, error) {
	return s.filter(func(e model.Event) bool {
		return e.ReservationID != nil && *e.ReservationID == reservationID
	}), nil
}

func (s *EventStore) ListBySlot(_ context.Context, slotID uuid.UUID) ([]model.Event, error) {
	return s.filter(func(e model.Event) bool {
		return e.SlotID != nil && *e.SlotID == slotID
	}), nil
}

func (s *EventStore) filter(keep func(model.Event) bool) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0)
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
