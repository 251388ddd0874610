package service

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-core/internal/logger"
)

type structMethod func(context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary adapts a Struct-in, Struct-out method to a grpc.MethodHandler,
// the same shape protoc-gen-go-grpc emits.
func unary(fullMethod string, pick func(srv any) structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := pick(srv)
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(ctx, req.(*structpb.Struct))
		})
	}
}

const (
	CalendarServiceName = "scheduling.v1.CalendarService"
	AdminServiceName    = "scheduling.v1.AdminService"
)

var CalendarServiceDesc = grpc.ServiceDesc{
	ServiceName: CalendarServiceName,
	HandlerType: (*CalendarServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Reserve", Handler: unary("/"+CalendarServiceName+"/Reserve", func(srv any) structMethod { return srv.(CalendarServer).Reserve })},
		{MethodName: "Confirm", Handler: unary("/"+CalendarServiceName+"/Confirm", func(srv any) structMethod { return srv.(CalendarServer).Confirm })},
		{MethodName: "Cancel", Handler: unary("/"+CalendarServiceName+"/Cancel", func(srv any) structMethod { return srv.(CalendarServer).Cancel })},
		{MethodName: "GetBooking", Handler: unary("/"+CalendarServiceName+"/GetBooking", func(srv any) structMethod { return srv.(CalendarServer).GetBooking })},
		{MethodName: "ListBookings", Handler: unary("/"+CalendarServiceName+"/ListBookings", func(srv any) structMethod { return srv.(CalendarServer).ListBookings })},
		{MethodName: "ListWindows", Handler: unary("/"+CalendarServiceName+"/ListWindows", func(srv any) structMethod { return srv.(CalendarServer).ListWindows })},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduling/v1/calendar.proto",
}

var AdminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateResource", Handler: unary("/"+AdminServiceName+"/CreateResource", func(srv any) structMethod { return srv.(AdminServer).CreateResource })},
		{MethodName: "DeactivateResource", Handler: unary("/"+AdminServiceName+"/DeactivateResource", func(srv any) structMethod { return srv.(AdminServer).DeactivateResource })},
		{MethodName: "AddRule", Handler: unary("/"+AdminServiceName+"/AddRule", func(srv any) structMethod { return srv.(AdminServer).AddRule })},
		{MethodName: "AddOverride", Handler: unary("/"+AdminServiceName+"/AddOverride", func(srv any) structMethod { return srv.(AdminServer).AddOverride })},
		{MethodName: "LinkVariantResource", Handler: unary("/"+AdminServiceName+"/LinkVariantResource", func(srv any) structMethod { return srv.(AdminServer).LinkVariantResource })},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduling/v1/admin.proto",
}

func RegisterCalendarServer(s grpc.ServiceRegistrar, srv CalendarServer) {
	s.RegisterService(&CalendarServiceDesc, srv)
}

func RegisterAdminServer(s grpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&AdminServiceDesc, srv)
}

type ServerOptions struct {
	Reflection bool
	Logger     *zap.Logger
}

// NewServer builds a gRPC server with both services, health and optionally
// reflection registered. The returned health server reports SERVING until
// the caller flips it during shutdown.
func NewServer(cal CalendarServer, admin AdminServer, opts ServerOptions) (*grpc.Server, *health.Server) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		recoveryInterceptor(log),
		loggingInterceptor(log),
	))
	RegisterCalendarServer(srv, cal)
	RegisterAdminServer(srv, admin)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(CalendarServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(AdminServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	if opts.Reflection {
		reflection.Register(srv)
	}
	return srv, hs
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		l := logger.WithTrace(ctx, log)
		switch code {
		case codes.OK:
			l.Debug("grpc request", fields...)
		case codes.Internal, codes.Unknown, codes.DataLoss:
			l.Error("grpc request", append(fields, zap.Error(err))...)
		default:
			l.Info("grpc request", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

func recoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
