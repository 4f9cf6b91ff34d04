// Package grpcapi — gRPC-фасад движка бронирований.
//
// Сервис описан вручную через grpc.ServiceDesc, сообщения — google.protobuf.Struct
// и google.protobuf.Empty, поэтому сгенерированные стабы не нужны.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "reserveme.v1.BookingService"

const (
	MethodCreateSlot         = "CreateSlot"
	MethodDeleteSlot         = "DeleteSlot"
	MethodListSlots          = "ListSlots"
	MethodCreateReservation  = "CreateReservation"
	MethodConfirmReservation = "ConfirmReservation"
	MethodDeleteReservation  = "DeleteReservation"
	MethodListReservations   = "ListReservations"
)

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// bookingServer — маркер для HandlerType.
type bookingServer interface {
	isBookingServer()
}

type unaryCall func(s *Server, ctx context.Context, in *structpb.Struct) (proto.Message, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*bookingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCreateSlot, (*Server).createSlot),
		unary(MethodDeleteSlot, (*Server).deleteSlot),
		unary(MethodListSlots, (*Server).listSlots),
		unary(MethodCreateReservation, (*Server).createReservation),
		unary(MethodConfirmReservation, (*Server).confirmReservation),
		unary(MethodDeleteReservation, (*Server).deleteReservation),
		unary(MethodListReservations, (*Server).listReservations),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reserveme/v1/booking.proto",
}
