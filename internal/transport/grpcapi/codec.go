package grpcapi

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/reserveme/internal/model"
)

// Время в сообщениях — строки RFC 3339 в UTC.

func slotToMap(s *model.AvailabilitySlot) map[string]any {
	return map[string]any{
		"id":        s.ID.String(),
		"ownerId":   s.OwnerID.String(),
		"startTime": s.StartTime.UTC().Format(time.RFC3339Nano),
		"endTime":   s.EndTime.UTC().Format(time.RFC3339Nano),
		"createdAt": s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func reservationToMap(r *model.Reservation) map[string]any {
	return map[string]any{
		"id":          r.ID.String(),
		"slotId":      r.SlotID.String(),
		"requesterId": r.RequesterID.String(),
		"status":      r.Status.String(),
		"createdAt":   r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func slotFromStruct(s *structpb.Struct) (*model.AvailabilitySlot, error) {
	var (
		out model.AvailabilitySlot
		err error
	)
	f := fields{s: s}
	out.ID = f.uuid("id", &err)
	out.OwnerID = f.uuid("ownerId", &err)
	out.StartTime = f.time("startTime", &err)
	out.EndTime = f.time("endTime", &err)
	out.CreatedAt = f.time("createdAt", &err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func reservationFromStruct(s *structpb.Struct) (*model.Reservation, error) {
	var (
		out model.Reservation
		err error
	)
	f := fields{s: s}
	out.ID = f.uuid("id", &err)
	out.SlotID = f.uuid("slotId", &err)
	out.RequesterID = f.uuid("requesterId", &err)
	out.CreatedAt = f.time("createdAt", &err)
	if err != nil {
		return nil, err
	}
	if out.Status, err = model.ParseReservationStatus(f.str("status")); err != nil {
		return nil, err
	}
	return &out, nil
}

// fields — чтение полей Struct; первая ошибка сохраняется в *err.
type fields struct {
	s *structpb.Struct
}

func (f fields) str(key string) string {
	return f.s.GetFields()[key].GetStringValue()
}

func (f fields) uuid(key string, err *error) uuid.UUID {
	if *err != nil {
		return uuid.Nil
	}
	id, perr := uuid.Parse(f.str(key))
	if perr != nil {
		*err = fmt.Errorf("field %s: invalid uuid", key)
		return uuid.Nil
	}
	return id
}

func (f fields) time(key string, err *error) time.Time {
	if *err != nil {
		return time.Time{}
	}
	v := f.str(key)
	if v == "" {
		// пустое значение оставляем нулевым, его отклонит валидация
		return time.Time{}
	}
	t, perr := time.Parse(time.RFC3339Nano, v)
	if perr != nil {
		*err = fmt.Errorf("field %s: expected RFC 3339 time", key)
		return time.Time{}
	}
	return t
}

func (f fields) list(key string) []*structpb.Struct {
	values := f.s.GetFields()[key].GetListValue().GetValues()
	out := make([]*structpb.Struct, 0, len(values))
	for _, v := range values {
		if st := v.GetStructValue(); st != nil {
			out = append(out, st)
		}
	}
	return out
}
