package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/service"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func toAuthResponse(t *service.Tokens) authResponse {
	return authResponse{
		AccessToken:      t.AccessToken,
		AccessExpiresAt:  t.AccessExpiresAt,
		RefreshToken:     t.RefreshToken,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.Name(),
		CreatedAt:   u.CreatedAt,
	}
}

type createSlotRequest struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type slotResponse struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSlotResponse(s *model.AvailabilitySlot) slotResponse {
	return slotResponse{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		CreatedAt: s.CreatedAt,
	}
}

func toSlotResponses(slots []model.AvailabilitySlot) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, toSlotResponse(&slots[i]))
	}
	return out
}

type createReservationRequest struct {
	SlotID uuid.UUID `json:"slotId"`
}

type reservationResponse struct {
	ID          uuid.UUID     `json:"id"`
	SlotID      uuid.UUID     `json:"slotId"`
	RequesterID uuid.UUID     `json:"requesterId"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	Slot        *slotResponse `json:"slot,omitempty"`
}

func toReservationResponse(r *model.Reservation, slot *model.AvailabilitySlot) reservationResponse {
	resp := reservationResponse{
		ID:          r.ID,
		SlotID:      r.SlotID,
		RequesterID: r.RequesterID,
		Status:      r.Status.String(),
		CreatedAt:   r.CreatedAt,
	}
	if slot != nil {
		s := toSlotResponse(slot)
		resp.Slot = &s
	}
	return resp
}

type eventResponse struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"`
	ActorID   *uuid.UUID     `json:"actorId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Details   map[string]any `json:"details,omitempty"`
}

func toEventResponses(events []model.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:        e.ID,
			Type:      string(e.EventType),
			ActorID:   e.ActorID,
			CreatedAt: e.CreatedAt,
			Details:   e.Details,
		})
	}
	return out
}
