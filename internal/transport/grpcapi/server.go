package grpcapi

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/service"
)

// Booking — операции движка, доступные по gRPC.
type Booking interface {
	CreateSlot(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (*model.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, slotID, callerID uuid.UUID) error
	ListSlots(ctx context.Context) ([]model.AvailabilitySlot, error)
	ListSlotsByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.AvailabilitySlot, error)
	CreateReservation(ctx context.Context, requesterID, slotID uuid.UUID) (*model.Reservation, error)
	ConfirmReservation(ctx context.Context, reservationID, callerID uuid.UUID) (*model.Reservation, error)
	DeleteReservation(ctx context.Context, reservationID, callerID uuid.UUID) error
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ListReservationsForSlot(ctx context.Context, slotID uuid.UUID) ([]model.Reservation, error)
	ListReservationsForUser(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error)
}

type Server struct {
	booking Booking
	logger  *zap.Logger
}

func (*Server) isBookingServer() {}

// NewServer собирает gRPC-сервер: BookingService, health и reflection.
func NewServer(booking Booking, identity Authenticator, logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger.Named("grpc")),
			authInterceptor(identity),
		),
	)
	gs.RegisterService(&serviceDesc, &Server{booking: booking, logger: logger.Named("grpc")})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	reflection.Register(gs)
	return gs
}

func (s *Server) createSlot(ctx context.Context, in *structpb.Struct) (proto.Message, error) {
	var err error
	f := fields{s: in}
	start := f.time("startTime", &err)
	end := f.time("endTime", &err)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	slot, err := s.booking.CreateSlot(ctx, mustCaller(ctx), start, end)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(slotToMap(slot))
}

func (s *Server) deleteSlot(ctx context.Context, in *structpb.Struct) (proto.Message, error) {
	id, err := requiredUUID(in, "id")
	if err != nil {
		return nil, err
	}
	if err := s.booking.DeleteSlot(ctx, id, mustCaller(ctx)); err != nil {
		return nil, s.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// listSlots: без ownerId — все слоты.
func (s *Server) listSlots(ctx context.Context, in *structpb.Struct) (proto.Message, error) {
	var (
		slots []model.AvailabilitySlot
		err   error
	)
	if (fields{s: in}).str("ownerId") != "" {
		ownerID, perr := requiredUUID(in, "ownerId")
		if perr != nil {
			return nil, perr
		}
		slots, err = s.booking.ListSlotsByOwner(ctx, ownerID)
	} else {
		slots, err = s.booking.ListSlots(ctx)
	}
	if err != nil {
		return nil, s.toStatus(err)
	}

	items := make([]any, 0, len(slots))
	for i := range slots {
		items = append(items, slotToMap(&slots[i]))
	}
	return structpb.NewStruct(map[string]any{"slots": items})
}

func (s *Server) createReservation(ctx context.Context, in *structpb.Struct) (proto.Message, error) {
	slotID, err := requiredUUID(in, "slotId")
	if err != nil {
		return nil, err
	}
	r, err := s.booking.CreateReservation(ctx, mustCaller(ctx), slotID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(reservationToMap(r))
}

func (s *Server) confirmReservation(ctx context.Context, in *structpb.Struct) (proto.Message, error) {
	id, err := requiredUUID(in, "id")
	if err != nil {
		return nil, err
	}
	r, err := s.booking.ConfirmReservation(ctx, id, mustCaller(ctx))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(reservationToMap(r))
}

func (s *Server) deleteReservation(ctx context.Context, in *structpb.Struct) (proto.Message, error) {
	id, err := requiredUUID(in, "id")
	if err != nil {
		return nil, err
	}
	if err := s.booking.DeleteReservation(ctx, id, mustCaller(ctx)); err != nil {
		return nil, s.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// listReservations: scope = all (по умолчанию) | mine | slot (нужен slotId).
func (s *Server) listReservations(ctx context.Context, in *structpb.Struct) (proto.Message, error) {
	var (
		list []model.Reservation
		err  error
	)
	switch scope := (fields{s: in}).str("scope"); scope {
	case "", ScopeAll:
		list, err = s.booking.ListReservations(ctx)
	case ScopeMine:
		list, err = s.booking.ListReservationsForUser(ctx, mustCaller(ctx))
	case ScopeSlot:
		slotID, perr := requiredUUID(in, "slotId")
		if perr != nil {
			return nil, perr
		}
		list, err = s.booking.ListReservationsForSlot(ctx, slotID)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown scope %q", scope)
	}
	if err != nil {
		return nil, s.toStatus(err)
	}

	items := make([]any, 0, len(list))
	for i := range list {
		items = append(items, reservationToMap(&list[i]))
	}
	return structpb.NewStruct(map[string]any{"reservations": items})
}

const (
	ScopeAll  = "all"
	ScopeMine = "mine"
	ScopeSlot = "slot"
)

func requiredUUID(in *structpb.Struct, key string) (uuid.UUID, error) {
	var err error
	id := (fields{s: in}).uuid(key, &err)
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return id, nil
}

// toStatus — единственное место, где вид ошибки превращается в gRPC-код.
func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		s.logger.Error("booking call failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
