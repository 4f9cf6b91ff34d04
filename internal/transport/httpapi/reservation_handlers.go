package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/service"
)

// POST /api/reservations — заявитель всегда вызывающий.
func (h *Handler) createReservation(c *gin.Context) {
	var in createReservationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	r, err := h.booking.CreateReservation(c.Request.Context(), callerID(c), in.SlotID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReservation(c, http.StatusCreated, r)
}

// PUT /api/reservations/:id/confirm
func (h *Handler) confirmReservation(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	r, err := h.booking.ConfirmReservation(c.Request.Context(), id, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReservation(c, http.StatusOK, r)
}

// DELETE /api/reservations/:id
func (h *Handler) deleteReservation(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.booking.DeleteReservation(c.Request.Context(), id, callerID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/reservations/:id
func (h *Handler) getReservation(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	r, err := h.booking.GetReservation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReservation(c, http.StatusOK, r)
}

// GET /api/reservations[?userId=] — без userId все бронирования,
// с userId сводный список этого пользователя.
func (h *Handler) listReservations(c *gin.Context) {
	var (
		list []model.Reservation
		err  error
	)
	if c.Query("userId") != "" {
		userID, ok := queryUUID(c, "userId")
		if !ok {
			return
		}
		list, err = h.booking.ListReservationsForUser(c.Request.Context(), userID)
	} else {
		list, err = h.booking.ListReservations(c.Request.Context())
	}
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReservations(c, list)
}

// GET /api/reservations/mine
func (h *Handler) myReservations(c *gin.Context) {
	list, err := h.booking.ListReservationsForUser(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReservations(c, list)
}

// GET /api/reservations/bySlot?slotId=
func (h *Handler) listReservationsBySlot(c *gin.Context) {
	slotID, ok := queryUUID(c, "slotId")
	if !ok {
		return
	}
	list, err := h.booking.ListReservationsForSlot(c.Request.Context(), slotID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReservations(c, list)
}

// GET /api/reservations/:id/events
func (h *Handler) reservationEvents(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	events, err := h.booking.ReservationHistory(c.Request.Context(), id, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponses(events))
}

func (h *Handler) respondReservation(c *gin.Context, status int, r *model.Reservation) {
	slots := map[uuid.UUID]*model.AvailabilitySlot{}
	slot, err := h.lookupSlot(c.Request.Context(), slots, r.SlotID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, toReservationResponse(r, slot))
}

func (h *Handler) respondReservations(c *gin.Context, list []model.Reservation) {
	slots := map[uuid.UUID]*model.AvailabilitySlot{}
	out := make([]reservationResponse, 0, len(list))
	for i := range list {
		slot, err := h.lookupSlot(c.Request.Context(), slots, list[i].SlotID)
		if err != nil {
			writeError(c, err)
			return
		}
		out = append(out, toReservationResponse(&list[i], slot))
	}
	c.JSON(http.StatusOK, out)
}

// lookupSlot подгружает слот для ответа; удалённый слот — не ошибка, просто nil.
func (h *Handler) lookupSlot(ctx context.Context, cache map[uuid.UUID]*model.AvailabilitySlot, id uuid.UUID) (*model.AvailabilitySlot, error) {
	if slot, ok := cache[id]; ok {
		return slot, nil
	}
	slot, err := h.booking.GetSlot(ctx, id)
	if err != nil && !errors.Is(err, service.ErrSlotNotFound) {
		return nil, err
	}
	cache[id] = slot
	return slot, nil
}
