package grpcapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/reserveme/internal/model"
)

// Client — типизированная обёртка над BookingService.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewClient(cc grpc.ClientConnInterface, accessToken string) *Client {
	return &Client{cc: cc, token: accessToken}
}

// WithToken возвращает клиента с другим access-токеном поверх того же соединения.
func (c *Client) WithToken(accessToken string) *Client {
	return &Client{cc: c.cc, token: accessToken}
}

func (c *Client) invoke(ctx context.Context, method string, in map[string]any, out proto.Message) error {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return c.cc.Invoke(ctx, fullMethod(method), req, out)
}

func (c *Client) CreateSlot(ctx context.Context, start, end time.Time) (*model.AvailabilitySlot, error) {
	out := new(structpb.Struct)
	err := c.invoke(ctx, MethodCreateSlot, map[string]any{
		"startTime": start.UTC().Format(time.RFC3339Nano),
		"endTime":   end.UTC().Format(time.RFC3339Nano),
	}, out)
	if err != nil {
		return nil, err
	}
	return slotFromStruct(out)
}

func (c *Client) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	return c.invoke(ctx, MethodDeleteSlot, map[string]any{"id": slotID.String()}, new(emptypb.Empty))
}

// ListSlots: ownerID == uuid.Nil — все слоты.
func (c *Client) ListSlots(ctx context.Context, ownerID uuid.UUID) ([]model.AvailabilitySlot, error) {
	in := map[string]any{}
	if ownerID != uuid.Nil {
		in["ownerId"] = ownerID.String()
	}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, MethodListSlots, in, out); err != nil {
		return nil, err
	}

	items := (fields{s: out}).list("slots")
	slots := make([]model.AvailabilitySlot, 0, len(items))
	for _, item := range items {
		s, err := slotFromStruct(item)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, nil
}

func (c *Client) CreateReservation(ctx context.Context, slotID uuid.UUID) (*model.Reservation, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, MethodCreateReservation, map[string]any{"slotId": slotID.String()}, out); err != nil {
		return nil, err
	}
	return reservationFromStruct(out)
}

func (c *Client) ConfirmReservation(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, MethodConfirmReservation, map[string]any{"id": reservationID.String()}, out); err != nil {
		return nil, err
	}
	return reservationFromStruct(out)
}

func (c *Client) DeleteReservation(ctx context.Context, reservationID uuid.UUID) error {
	return c.invoke(ctx, MethodDeleteReservation, map[string]any{"id": reservationID.String()}, new(emptypb.Empty))
}

// ListReservations: scope — ScopeAll, ScopeMine или ScopeSlot (тогда нужен slotID).
func (c *Client) ListReservations(ctx context.Context, scope string, slotID uuid.UUID) ([]model.Reservation, error) {
	in := map[string]any{"scope": scope}
	if slotID != uuid.Nil {
		in["slotId"] = slotID.String()
	}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, MethodListReservations, in, out); err != nil {
		return nil, err
	}

	items := (fields{s: out}).list("reservations")
	list := make([]model.Reservation, 0, len(items))
	for _, item := range items {
		r, err := reservationFromStruct(item)
		if err != nil {
			return nil, err
		}
		list = append(list, *r)
	}
	return list, nil
}
