package appointments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"medagenda/internal/connectivity"
	"medagenda/internal/domain"
	"medagenda/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ErrNoSession is returned when a remote call needs a token and none is stored.
var ErrNoSession = errors.New("no active session")

type Cache interface {
	Get(dateKey string) ([]domain.Appointment, bool)
	Put(dateKey string, appts []domain.Appointment)
	Invalidate(dateKey string)
	Update(id int64, fn func(*domain.Appointment))
	Clear()
}

type Remote interface {
	Login(ctx context.Context, email, password string) (string, error)
	GetAppointments(ctx context.Context, token string) ([]domain.Appointment, error)
	CreateAppointment(ctx context.Context, token string, req domain.CreateAppointmentRequest) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, token string, appt domain.Appointment) error
	ValidateCustomer(ctx context.Context, identification string) (domain.CustomerValidation, error)
}

type Preferences interface {
	SaveToken(ctx context.Context, token string, expiresAt *time.Time) error
	Token(ctx context.Context) (string, error)
	ClearSession(ctx context.Context) error
	WeekendEnabled(ctx context.Context) (bool, error)
	SetWeekendEnabled(ctx context.Context, enabled bool) error
	BlockedTimes(ctx context.Context) ([]string, error)
	SetBlockedTimes(ctx context.Context, times []string) ([]string, error)
}

type Deps struct {
	Cache        Cache
	Remote       Remote
	Appointments store.AppointmentStore
	Customers    store.CustomerStore
	Preferences  Preferences
	Connectivity connectivity.Checker
	Log          *slog.Logger
	Now          func() time.Time
}

// Service is the single entry point for appointment data. Reads go cache,
// then remote, then the local store; writes go to the remote service and
// attendance changes stay local until pushed by the sync path.
type Service struct {
	cache  Cache
	remote Remote
	appts  store.AppointmentStore
	custs  store.CustomerStore
	prefs  Preferences
	conn   connectivity.Checker
	log    *slog.Logger
	now    func() time.Time
	tracer trace.Tracer
	status *statusHub
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	conn := d.Connectivity
	if conn == nil {
		conn = connectivity.Static(true)
	}
	return &Service{
		cache:  d.Cache,
		remote: d.Remote,
		appts:  d.Appointments,
		custs:  d.Customers,
		prefs:  d.Preferences,
		conn:   conn,
		log:    log.With(slog.String("component", "service.appointments")),
		now:    now,
		tracer: otel.Tracer("medagenda/service/appointments"),
		status: newStatusHub(now),
	}
}

func (s *Service) Today() string {
	return domain.FormatDay(s.now())
}

// GetAppointments never fails. When neither the cache nor the remote service
// can answer, the local copy is returned, possibly stale or empty.
func (s *Service) GetAppointments(ctx context.Context, date string) []domain.Appointment {
	ctx, span := s.tracer.Start(ctx, "appointments.Get", trace.WithAttributes(attribute.String("date", date)))
	defer span.End()

	if _, err := domain.ParseDay(date); err != nil {
		s.log.Warn("invalid date", slog.String("date", date))
		return []domain.Appointment{}
	}

	if cached, ok := s.cache.Get(date); ok {
		span.SetAttributes(attribute.String("source", "cache"))
		return cached
	}

	if s.conn.Reachable(ctx) {
		appts, err := s.fetchRemote(ctx, date)
		if err == nil {
			span.SetAttributes(attribute.String("source", "remote"))
			return appts
		}
		s.log.Warn("remote fetch failed; using local store", slog.String("date", date), slog.Any("err", err))
	}

	span.SetAttributes(attribute.String("source", "local"))
	local, err := s.appts.ListByDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		s.log.Error("local store read failed", slog.String("date", date), slog.Any("err", err))
		return []domain.Appointment{}
	}
	if local == nil {
		local = []domain.Appointment{}
	}
	return local
}

func (s *Service) fetchRemote(ctx context.Context, date string) ([]domain.Appointment, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.remote.GetAppointments(ctx, token)
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}

	if customers := embeddedCustomers(appts); len(customers) > 0 {
		if err := s.custs.UpsertAll(ctx, customers); err != nil {
			s.log.Error("customer persist failed", slog.Any("err", err))
		}
	}
	if err := s.appts.UpsertAll(ctx, appts); err != nil {
		s.log.Error("appointment persist failed", slog.String("date", date), slog.Int("count", len(appts)), slog.Any("err", err))
	}

	pending, err := s.appts.ListPendingSync(ctx)
	if err != nil {
		s.log.Error("pending sync read failed", slog.String("date", date), slog.Any("err", err))
	}
	appts = overlayPending(appts, pending)

	s.cache.Put(date, appts)
	return appts, nil
}

// overlayPending keeps unsynced local attendance and absent values over
// whatever the remote service returned for the same appointment.
func overlayPending(appts, pending []domain.Appointment) []domain.Appointment {
	if len(pending) == 0 {
		return appts
	}
	byID := make(map[int64]domain.Appointment, len(pending))
	for _, p := range pending {
		byID[p.ID] = p
	}
	for i := range appts {
		p, ok := byID[appts[i].ID]
		if !ok {
			continue
		}
		appts[i].Attendance = p.Attendance
		appts[i].Absent = p.Absent
		appts[i].NeedsSync = true
	}
	return appts
}

func (s *Service) CreateAppointment(ctx context.Context, req domain.CreateAppointmentRequest) (domain.Appointment, error) {
	if req.CustomerID <= 0 {
		return domain.Appointment{}, validationError("customer_id is required")
	}
	if _, err := domain.ParseDay(req.InitDate); err != nil {
		return domain.Appointment{}, validationError("init_date must be YYYY-MM-DD")
	}
	slot, err := domain.ParseSlot(req.InitTime)
	if err != nil {
		return domain.Appointment{}, validationError("init_time must be HH:MM")
	}
	req.InitDate = strings.TrimSpace(req.InitDate)
	req.InitTime = slot
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		req.Title = &t
	}

	token, err := s.token(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	appt, err := s.remote.CreateAppointment(ctx, token, req)
	if err != nil {
		return domain.Appointment{}, err
	}

	s.cache.Invalidate(req.InitDate)
	if appt.InitDate != "" && appt.InitDate != req.InitDate {
		s.cache.Invalidate(appt.InitDate)
	}
	return appt, nil
}

// UpdateAppointmentStatus records attendance locally and flags the row so
// the next sync pushes it.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id int64, attended bool) error {
	if id <= 0 {
		return validationError("appointment id is required")
	}
	if err := s.appts.UpdateAttendance(ctx, id, attended); err != nil {
		return err
	}
	s.cache.Update(id, func(a *domain.Appointment) {
		a.Attendance = attended
		a.NeedsSync = true
	})
	return nil
}

func (s *Service) MarkAbsent(ctx context.Context, id int64, absent bool) error {
	if id <= 0 {
		return validationError("appointment id is required")
	}
	if err := s.appts.UpdateAbsent(ctx, id, absent); err != nil {
		return err
	}
	s.cache.Update(id, func(a *domain.Appointment) {
		a.Absent = absent
		a.NeedsSync = true
	})
	return nil
}

// SyncAppointment pushes one appointment. Remote failures are reported
// through the sync status and the persisted flag, not the returned error,
// which only carries local store failures.
func (s *Service) SyncAppointment(ctx context.Context, appt domain.Appointment) error {
	_, err := s.SyncOne(ctx, appt)
	return err
}

// SyncOne is SyncAppointment for callers that need to know whether the
// push reached the remote service. pushed is false when offline or when the
// remote call failed and the row stays flagged.
func (s *Service) SyncOne(ctx context.Context, appt domain.Appointment) (pushed bool, err error) {
	ctx, span := s.tracer.Start(ctx, "appointments.Sync", trace.WithAttributes(attribute.Int64("appointment_id", appt.ID)))
	defer span.End()

	log := s.log.With(slog.Int64("appointment_id", appt.ID))

	if !s.conn.Reachable(ctx) {
		log.Info("offline; appointment flagged for sync")
		return false, s.markForSync(ctx, appt)
	}

	s.status.publish(domain.SyncState{Phase: domain.SyncPhaseSyncing, AppointmentID: appt.ID})

	if pushErr := s.pushAppointment(ctx, appt); pushErr != nil {
		span.RecordError(pushErr)
		span.SetStatus(codes.Error, "sync failed")
		log.Warn("sync failed", slog.Any("err", pushErr))
		s.status.publish(domain.SyncState{Phase: domain.SyncPhaseError, Message: pushErr.Error(), AppointmentID: appt.ID})
		return false, s.markForSync(ctx, appt)
	}

	if err := s.appts.ClearSyncFlag(ctx, appt.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return true, err
	}
	s.status.publish(domain.SyncState{Phase: domain.SyncPhaseSuccess, AppointmentID: appt.ID})
	return true, nil
}

func (s *Service) pushAppointment(ctx context.Context, appt domain.Appointment) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.remote.UpdateAppointment(ctx, token, appt)
}

// markForSync flags the row, inserting it first if the local store has
// never seen it.
func (s *Service) markForSync(ctx context.Context, appt domain.Appointment) error {
	err := s.appts.MarkForSync(ctx, appt.ID)
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	appt.NeedsSync = true
	appt.Customer = nil
	return s.appts.UpsertAll(ctx, []domain.Appointment{appt})
}

func (s *Service) GetPendingSyncAppointments(ctx context.Context) ([]domain.Appointment, error) {
	return s.appts.ListPendingSync(ctx)
}

func (s *Service) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.LoginResult{}, validationError("email is required")
	}
	if password == "" {
		return domain.LoginResult{}, validationError("password is required")
	}

	token, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return domain.LoginResult{}, err
	}

	res := domain.LoginResult{AccessToken: token, ExpiresAt: tokenExpiry(token)}
	if err := s.prefs.SaveToken(ctx, token, res.ExpiresAt); err != nil {
		return domain.LoginResult{}, err
	}
	s.log.Info("logged in", slog.Bool("has_expiry", res.ExpiresAt != nil))
	return res, nil
}

// Logout drops the session and every cached date.
func (s *Service) Logout(ctx context.Context) error {
	s.cache.Clear()
	return s.prefs.ClearSession(ctx)
}

func (s *Service) ValidateCustomer(ctx context.Context, identification string) (domain.CustomerValidation, error) {
	identification = strings.TrimSpace(identification)
	if identification == "" {
		return domain.CustomerValidation{}, validationError("identification is required")
	}
	return s.remote.ValidateCustomer(ctx, identification)
}

func (s *Service) SyncStatus() domain.SyncState {
	return s.status.current()
}

// SubscribeSyncStatus streams status transitions. The returned cancel func
// must be called to release the subscription.
func (s *Service) SubscribeSyncStatus(buffer int) (<-chan domain.SyncState, func()) {
	return s.status.subscribe(buffer)
}

func (s *Service) token(ctx context.Context) (string, error) {
	token, err := s.prefs.Token(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// agent never holds the signing key.
func tokenExpiry(token string) *time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	t := claims.ExpiresAt.Time.UTC()
	return &t
}

func embeddedCustomers(appts []domain.Appointment) []domain.Customer {
	seen := make(map[int64]struct{})
	var out []domain.Customer
	for _, a := range appts {
		if a.Customer == nil || a.Customer.ID <= 0 {
			continue
		}
		if _, ok := seen[a.Customer.ID]; ok {
			continue
		}
		seen[a.Customer.ID] = struct{}{}
		out = append(out, *a.Customer)
	}
	return out
}
