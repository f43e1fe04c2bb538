package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// AgendaClient calls AgendaService over an existing connection using the
// JSON codec.
type AgendaClient struct {
	cc grpc.ClientConnInterface
}

func NewAgendaClient(cc grpc.ClientConnInterface) *AgendaClient {
	return &AgendaClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *AgendaClient, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(ContentSubtype)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AgendaClient) Login(ctx context.Context, req *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c, "Login", req, opts)
}

func (c *AgendaClient) Logout(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c, "Logout", &Empty{}, opts)
	return err
}

func (c *AgendaClient) ListAppointments(ctx context.Context, req *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c, "ListAppointments", req, opts)
}

func (c *AgendaClient) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest, opts ...grpc.CallOption) (*CreateAppointmentResponse, error) {
	return invoke[CreateAppointmentResponse](ctx, c, "CreateAppointment", req, opts)
}

func (c *AgendaClient) UpdateAttendance(ctx context.Context, req *UpdateAttendanceRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c, "UpdateAttendance", req, opts)
	return err
}

func (c *AgendaClient) MarkAbsent(ctx context.Context, req *MarkAbsentRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c, "MarkAbsent", req, opts)
	return err
}

func (c *AgendaClient) SyncAppointment(ctx context.Context, req *SyncAppointmentRequest, opts ...grpc.CallOption) (*SyncStatusEvent, error) {
	return invoke[SyncStatusEvent](ctx, c, "SyncAppointment", req, opts)
}

func (c *AgendaClient) ListPendingSync(ctx context.Context, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c, "ListPendingSync", &Empty{}, opts)
}

func (c *AgendaClient) GetSyncStatus(ctx context.Context, opts ...grpc.CallOption) (*SyncStatusEvent, error) {
	return invoke[SyncStatusEvent](ctx, c, "GetSyncStatus", &Empty{}, opts)
}

func (c *AgendaClient) ValidateCustomer(ctx context.Context, req *ValidateCustomerRequest, opts ...grpc.CallOption) (*ValidateCustomerResponse, error) {
	return invoke[ValidateCustomerResponse](ctx, c, "ValidateCustomer", req, opts)
}

func (c *AgendaClient) AvailableTimeSlots(ctx context.Context, req *AvailableTimeSlotsRequest, opts ...grpc.CallOption) (*AvailableTimeSlotsResponse, error) {
	return invoke[AvailableTimeSlotsResponse](ctx, c, "AvailableTimeSlots", req, opts)
}

func (c *AgendaClient) GetSettings(ctx context.Context, opts ...grpc.CallOption) (*Settings, error) {
	return invoke[Settings](ctx, c, "GetSettings", &Empty{}, opts)
}

func (c *AgendaClient) UpdateSettings(ctx context.Context, req *Settings, opts ...grpc.CallOption) (*Settings, error) {
	return invoke[Settings](ctx, c, "UpdateSettings", req, opts)
}

func (c *AgendaClient) GetStats(ctx context.Context, req *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	return invoke[GetStatsResponse](ctx, c, "GetStats", req, opts)
}

// SyncStatusReceiver yields events from WatchSyncStatus until the server
// ends the stream or ctx is cancelled.
type SyncStatusReceiver interface {
	Recv() (*SyncStatusEvent, error)
}

type syncStatusClientStream struct {
	grpc.ClientStream
}

func (s *syncStatusClientStream) Recv() (*SyncStatusEvent, error) {
	ev := new(SyncStatusEvent)
	if err := s.ClientStream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (c *AgendaClient) WatchSyncStatus(ctx context.Context, opts ...grpc.CallOption) (SyncStatusReceiver, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(ContentSubtype)}, opts...)
	stream, err := c.cc.NewStream(ctx, &AgendaServiceDesc.Streams[0], fullMethod("WatchSyncStatus"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &syncStatusClientStream{stream}, nil
}
