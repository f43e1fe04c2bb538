package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"medagenda/internal/domain"
	"medagenda/internal/remote"
	"medagenda/internal/service/appointments"
	"medagenda/internal/service/stats"
	"medagenda/internal/store"
)

type AgendaServer struct {
	svc   appointmentsService
	stats statsService
	log   *slog.Logger
}

type appointmentsService interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
	Logout(ctx context.Context) error
	GetAppointments(ctx context.Context, date string) []domain.Appointment
	CreateAppointment(ctx context.Context, req domain.CreateAppointmentRequest) (domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, attended bool) error
	MarkAbsent(ctx context.Context, id int64, absent bool) error
	SyncAppointment(ctx context.Context, appt domain.Appointment) error
	GetPendingSyncAppointments(ctx context.Context) ([]domain.Appointment, error)
	ValidateCustomer(ctx context.Context, identification string) (domain.CustomerValidation, error)
	AvailableTimeSlots(ctx context.Context, date string) ([]string, error)
	Settings(ctx context.Context) (appointments.Settings, error)
	UpdateSettings(ctx context.Context, in appointments.Settings) (appointments.Settings, error)
	SyncStatus() domain.SyncState
	SubscribeSyncStatus(buffer int) (<-chan domain.SyncState, func())
}

type statsService interface {
	Summary(ctx context.Context, f stats.Filter) (stats.Summary, error)
}

func NewAgendaServer(svc appointmentsService, st statsService, log *slog.Logger) *AgendaServer {
	if log == nil {
		log = slog.Default()
	}
	return &AgendaServer{
		svc:   svc,
		stats: st,
		log:   log.With(slog.String("component", "grpc.agenda")),
	}
}

func (s *AgendaServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	log := s.log.With(slog.String("rpc", "Login"))

	res, err := s.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(log, "login failed", err)
	}
	return &LoginResponse{AccessToken: res.AccessToken, ExpiresAt: res.ExpiresAt}, nil
}

func (s *AgendaServer) Logout(ctx context.Context, _ *Empty) (*Empty, error) {
	log := s.log.With(slog.String("rpc", "Logout"))

	if err := s.svc.Logout(ctx); err != nil {
		return nil, toStatus(log, "logout failed", err)
	}
	log.Info("session cleared")
	return &Empty{}, nil
}

func (s *AgendaServer) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	if _, err := domain.ParseDay(req.Date); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_date"), slog.String("date", req.Date))
		return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
	}
	appts := s.svc.GetAppointments(ctx, req.Date)
	kept := make([]domain.Appointment, 0, len(appts))
	for _, a := range appts {
		if req.shows(a.Status()) {
			kept = append(kept, a)
		}
	}
	return &ListAppointmentsResponse{Appointments: toAppointments(kept)}, nil
}

func (s *AgendaServer) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateAppointment"))

	appt, err := s.svc.CreateAppointment(ctx, domain.CreateAppointmentRequest{
		CustomerID:  req.CustomerID,
		InitDate:    req.InitDate,
		InitTime:    req.InitTime,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return nil, toStatus(log, "appointment create failed", err, slog.Int64("customer_id", req.CustomerID))
	}

	log.Info(
		"appointment created",
		slog.Int64("appointment_id", appt.ID),
		slog.Int64("customer_id", appt.CustomerID),
		slog.String("init_date", appt.InitDate),
		slog.String("init_time", appt.InitTime),
	)
	return &CreateAppointmentResponse{Appointment: toAppointment(appt)}, nil
}

func (s *AgendaServer) UpdateAttendance(ctx context.Context, req *UpdateAttendanceRequest) (*Empty, error) {
	log := s.log.With(slog.String("rpc", "UpdateAttendance"))

	if err := s.svc.UpdateAppointmentStatus(ctx, req.ID, req.Attended); err != nil {
		return nil, toStatus(log, "attendance update failed", err, slog.Int64("appointment_id", req.ID))
	}
	return &Empty{}, nil
}

func (s *AgendaServer) MarkAbsent(ctx context.Context, req *MarkAbsentRequest) (*Empty, error) {
	log := s.log.With(slog.String("rpc", "MarkAbsent"))

	if err := s.svc.MarkAbsent(ctx, req.ID, req.Absent); err != nil {
		return nil, toStatus(log, "absent update failed", err, slog.Int64("appointment_id", req.ID))
	}
	return &Empty{}, nil
}

func (s *AgendaServer) SyncAppointment(ctx context.Context, req *SyncAppointmentRequest) (*SyncStatusEvent, error) {
	log := s.log.With(slog.String("rpc", "SyncAppointment"))

	if req.Appointment.ID <= 0 {
		log.Warn("invalid request", slog.String("reason", "missing_id"))
		return nil, status.Error(codes.InvalidArgument, "appointment id is required")
	}
	if err := s.svc.SyncAppointment(ctx, fromAppointment(req.Appointment)); err != nil {
		return nil, toStatus(log, "sync flag write failed", err, slog.Int64("appointment_id", req.Appointment.ID))
	}
	return toSyncStatus(s.svc.SyncStatus()), nil
}

func (s *AgendaServer) ListPendingSync(ctx context.Context, _ *Empty) (*ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListPendingSync"))

	appts, err := s.svc.GetPendingSyncAppointments(ctx)
	if err != nil {
		return nil, toStatus(log, "pending list failed", err)
	}
	return &ListAppointmentsResponse{Appointments: toAppointments(appts)}, nil
}

func (s *AgendaServer) GetSyncStatus(ctx context.Context, _ *Empty) (*SyncStatusEvent, error) {
	return toSyncStatus(s.svc.SyncStatus()), nil
}

func (s *AgendaServer) ValidateCustomer(ctx context.Context, req *ValidateCustomerRequest) (*ValidateCustomerResponse, error) {
	log := s.log.With(slog.String("rpc", "ValidateCustomer"))

	v, err := s.svc.ValidateCustomer(ctx, req.Identification)
	if err != nil {
		return nil, toStatus(log, "customer validation failed", err)
	}
	return &ValidateCustomerResponse{
		Name:               v.Name,
		IdentificationType: v.IdentificationType,
		State:              v.TaxStatus.State,
		Message:            v.TaxStatus.Message,
	}, nil
}

func (s *AgendaServer) AvailableTimeSlots(ctx context.Context, req *AvailableTimeSlotsRequest) (*AvailableTimeSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "AvailableTimeSlots"))

	slots, err := s.svc.AvailableTimeSlots(ctx, req.Date)
	if err != nil {
		return nil, toStatus(log, "slot lookup failed", err, slog.String("date", req.Date))
	}
	return &AvailableTimeSlotsResponse{Date: req.Date, Slots: slots}, nil
}

func (s *AgendaServer) GetSettings(ctx context.Context, _ *Empty) (*Settings, error) {
	log := s.log.With(slog.String("rpc", "GetSettings"))

	st, err := s.svc.Settings(ctx)
	if err != nil {
		return nil, toStatus(log, "settings read failed", err)
	}
	return toSettings(st), nil
}

func (s *AgendaServer) UpdateSettings(ctx context.Context, req *Settings) (*Settings, error) {
	log := s.log.With(slog.String("rpc", "UpdateSettings"))

	st, err := s.svc.UpdateSettings(ctx, appointments.Settings{
		WeekendEnabled: req.WeekendEnabled,
		BlockedTimes:   req.BlockedTimes,
	})
	if err != nil {
		return nil, toStatus(log, "settings update failed", err)
	}
	return toSettings(st), nil
}

func (s *AgendaServer) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	log := s.log.With(slog.String("rpc", "GetStats"))

	sum, err := s.stats.Summary(ctx, toStatsFilter(req))
	if err != nil {
		return nil, toStatus(log, "stats failed", err)
	}
	return &GetStatsResponse{
		From:     sum.From,
		To:       sum.To,
		Stats:    sum.Stats,
		Insights: stats.Analyze(sum.Stats),
	}, nil
}

// WatchSyncStatus sends the current state, then every transition until
// the client goes away.
func (s *AgendaServer) WatchSyncStatus(_ *Empty, stream SyncStatusStream) error {
	log := s.log.With(slog.String("rpc", "WatchSyncStatus"))

	updates, cancel := s.svc.SubscribeSyncStatus(8)
	defer cancel()

	if err := stream.Send(toSyncStatus(s.svc.SyncStatus())); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("watcher left", slog.Any("err", ctx.Err()))
			return nil
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			if err := stream.Send(toSyncStatus(st)); err != nil {
				return err
			}
		}
	}
}

// toStatus maps service errors onto gRPC codes. Remote failures keep their
// message so the UI can show it inline.
func toStatus(log *slog.Logger, msg string, err error, args ...any) error {
	args = append([]any{slog.Any("err", err)}, args...)

	var vErr *appointments.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", args...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	}
	var sErr *stats.ValidationError
	if errors.As(err, &sErr) {
		log.Warn("invalid request", args...)
		return status.Error(codes.InvalidArgument, sErr.Error())
	}
	if errors.Is(err, store.ErrNotFound) {
		log.Info(msg, args...)
		return status.Error(codes.NotFound, "appointment not found")
	}
	if errors.Is(err, appointments.ErrNoSession) {
		log.Info(msg, args...)
		return status.Error(codes.Unauthenticated, "Sign in to continue.")
	}
	if errors.Is(err, remote.ErrUnauthorized) {
		log.Info(msg, args...)
		return status.Error(codes.Unauthenticated, remoteMessage(err))
	}
	var rErr *remote.StatusError
	if errors.As(err, &rErr) {
		log.Warn(msg, args...)
		if rErr.StatusCode >= 500 {
			return status.Error(codes.Unavailable, remoteMessage(err))
		}
		return status.Error(codes.FailedPrecondition, remoteMessage(err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn(msg, args...)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	var uErr *url.Error
	var nErr net.Error
	if errors.As(err, &uErr) || errors.As(err, &nErr) {
		log.Warn(msg, args...)
		return status.Error(codes.Unavailable, "The office server is unreachable. Try again later.")
	}
	log.Error(msg, args...)
	return status.Error(codes.Internal, "internal error")
}

func remoteMessage(err error) string {
	var rErr *remote.StatusError
	if errors.As(err, &rErr) && rErr.Message != "" {
		return rErr.Message
	}
	return err.Error()
}
