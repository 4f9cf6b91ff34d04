// Package httpapi — REST API поверх gin. Все маршруты под /api, кроме /healthz.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/service"
)

// Booking — операции движка бронирований, которые нужны HTTP-слою.
type Booking interface {
	CreateSlot(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (*model.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, slotID, callerID uuid.UUID) error
	ListSlots(ctx context.Context) ([]model.AvailabilitySlot, error)
	ListSlotsByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.AvailabilitySlot, error)
	GetSlot(ctx context.Context, slotID uuid.UUID) (*model.AvailabilitySlot, error)

	CreateReservation(ctx context.Context, requesterID, slotID uuid.UUID) (*model.Reservation, error)
	ConfirmReservation(ctx context.Context, reservationID, callerID uuid.UUID) (*model.Reservation, error)
	DeleteReservation(ctx context.Context, reservationID, callerID uuid.UUID) error
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ListReservationsForSlot(ctx context.Context, slotID uuid.UUID) ([]model.Reservation, error)
	ListReservationsForUser(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error)
	GetReservation(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error)
	ReservationHistory(ctx context.Context, reservationID, callerID uuid.UUID) ([]model.Event, error)
}

// Identity — регистрация, вход и проверка токенов.
type Identity interface {
	Register(ctx context.Context, email, password, displayName string) (*model.User, *service.Tokens, error)
	Login(ctx context.Context, email, password string) (*model.User, *service.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*service.Tokens, error)
	Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type Handler struct {
	booking  Booking
	identity Identity
	logger   *zap.Logger
}

// NewRouter собирает gin.Engine со всеми маршрутами.
func NewRouter(booking Booking, identity Identity, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{booking: booking, identity: identity, logger: logger.Named("http")}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/refresh", h.refresh)

	secured := api.Group("")
	secured.Use(authRequired(identity))

	secured.GET("/users/me", h.me)
	secured.GET("/users", h.listUsers)

	secured.POST("/slots", h.createSlot)
	secured.GET("/slots", h.listSlots)
	secured.GET("/slots/byOwner", h.listSlotsByOwner)
	secured.GET("/slots/:id", h.getSlot)
	secured.DELETE("/slots/:id", h.deleteSlot)

	secured.POST("/reservations", h.createReservation)
	secured.GET("/reservations", h.listReservations)
	secured.GET("/reservations/mine", h.myReservations)
	secured.GET("/reservations/bySlot", h.listReservationsBySlot)
	secured.GET("/reservations/:id", h.getReservation)
	secured.GET("/reservations/:id/events", h.reservationEvents)
	secured.PUT("/reservations/:id/confirm", h.confirmReservation)
	secured.DELETE("/reservations/:id", h.deleteReservation)

	return r
}
