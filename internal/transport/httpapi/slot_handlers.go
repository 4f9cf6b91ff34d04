package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/slots — владелец слота всегда вызывающий.
func (h *Handler) createSlot(c *gin.Context) {
	var in createSlotRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	slot, err := h.booking.CreateSlot(c.Request.Context(), callerID(c), in.StartTime, in.EndTime)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSlotResponse(slot))
}

// GET /api/slots
func (h *Handler) listSlots(c *gin.Context) {
	slots, err := h.booking.ListSlots(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSlotResponses(slots))
}

// GET /api/slots/byOwner?ownerId=
func (h *Handler) listSlotsByOwner(c *gin.Context) {
	ownerID, ok := queryUUID(c, "ownerId")
	if !ok {
		return
	}
	slots, err := h.booking.ListSlotsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSlotResponses(slots))
}

// GET /api/slots/:id
func (h *Handler) getSlot(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	slot, err := h.booking.GetSlot(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSlotResponse(slot))
}

// DELETE /api/slots/:id
func (h *Handler) deleteSlot(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.booking.DeleteSlot(c.Request.Context(), id, callerID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		badRequest(c, "invalid or missing "+name)
		return uuid.Nil, false
	}
	return id, true
}
