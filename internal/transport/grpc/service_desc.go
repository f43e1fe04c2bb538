package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "medagenda.v1.AgendaService"

type AgendaServiceServer interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, req *Empty) (*Empty, error)
	ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*CreateAppointmentResponse, error)
	UpdateAttendance(ctx context.Context, req *UpdateAttendanceRequest) (*Empty, error)
	MarkAbsent(ctx context.Context, req *MarkAbsentRequest) (*Empty, error)
	SyncAppointment(ctx context.Context, req *SyncAppointmentRequest) (*SyncStatusEvent, error)
	ListPendingSync(ctx context.Context, req *Empty) (*ListAppointmentsResponse, error)
	GetSyncStatus(ctx context.Context, req *Empty) (*SyncStatusEvent, error)
	ValidateCustomer(ctx context.Context, req *ValidateCustomerRequest) (*ValidateCustomerResponse, error)
	AvailableTimeSlots(ctx context.Context, req *AvailableTimeSlotsRequest) (*AvailableTimeSlotsResponse, error)
	GetSettings(ctx context.Context, req *Empty) (*Settings, error)
	UpdateSettings(ctx context.Context, req *Settings) (*Settings, error)
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
	WatchSyncStatus(req *Empty, stream SyncStatusStream) error
}

type SyncStatusStream interface {
	Send(*SyncStatusEvent) error
	Context() context.Context
}

func RegisterAgendaServiceServer(s grpc.ServiceRegistrar, srv AgendaServiceServer) {
	s.RegisterService(&AgendaServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(AgendaServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AgendaServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

type syncStatusServerStream struct {
	grpc.ServerStream
}

func (s *syncStatusServerStream) Send(ev *SyncStatusEvent) error {
	return s.ServerStream.SendMsg(ev)
}

func watchSyncStatusHandler(srv any, stream grpc.ServerStream) error {
	in := new(Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AgendaServiceServer).WatchSyncStatus(in, &syncStatusServerStream{stream})
}

var AgendaServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgendaServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", AgendaServiceServer.Login),
		unary("Logout", AgendaServiceServer.Logout),
		unary("ListAppointments", AgendaServiceServer.ListAppointments),
		unary("CreateAppointment", AgendaServiceServer.CreateAppointment),
		unary("UpdateAttendance", AgendaServiceServer.UpdateAttendance),
		unary("MarkAbsent", AgendaServiceServer.MarkAbsent),
		unary("SyncAppointment", AgendaServiceServer.SyncAppointment),
		unary("ListPendingSync", AgendaServiceServer.ListPendingSync),
		unary("GetSyncStatus", AgendaServiceServer.GetSyncStatus),
		unary("ValidateCustomer", AgendaServiceServer.ValidateCustomer),
		unary("AvailableTimeSlots", AgendaServiceServer.AvailableTimeSlots),
		unary("GetSettings", AgendaServiceServer.GetSettings),
		unary("UpdateSettings", AgendaServiceServer.UpdateSettings),
		unary("GetStats", AgendaServiceServer.GetStats),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchSyncStatus",
			Handler:       watchSyncStatusHandler,
			ServerStreams: true,
		},
	},
	Metadata: "medagenda/v1/agenda",
}
