package grpc

import (
	"time"

	"google.golang.org/protobuf/types/known/emptypb"

	"medagenda/internal/domain"
	"medagenda/internal/service/appointments"
	"medagenda/internal/service/stats"
)

// Empty is the well-known google.protobuf.Empty, used by RPCs without
// arguments or results.
type Empty = emptypb.Empty

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type Customer struct {
	ID       int64   `json:"id"`
	Card     string  `json:"card"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	Address  *string `json:"address,omitempty"`
}

type Appointment struct {
	ID          int64     `json:"id"`
	CustomerID  int64     `json:"customer_id"`
	InitDate    string    `json:"init_date"`
	InitTime    string    `json:"init_time"`
	EndDate     *string   `json:"end_date,omitempty"`
	EndTime     *string   `json:"end_time,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Attendance  bool      `json:"attendance"`
	Absent      bool      `json:"absent"`
	Status      string    `json:"status"`
	NeedsSync   bool      `json:"needs_sync"`
	Customer    *Customer `json:"customer,omitempty"`
}

// ListAppointmentsRequest show_* fields default to true when omitted.
type ListAppointmentsRequest struct {
	Date         string `json:"date"`
	ShowAttended *bool  `json:"show_attended,omitempty"`
	ShowPending  *bool  `json:"show_pending,omitempty"`
	ShowAbsent   *bool  `json:"show_absent,omitempty"`
}

func (r *ListAppointmentsRequest) shows(st domain.AppointmentStatus) bool {
	flag := r.ShowPending
	switch st {
	case domain.AppointmentStatusAttended:
		flag = r.ShowAttended
	case domain.AppointmentStatusAbsent:
		flag = r.ShowAbsent
	}
	return flag == nil || *flag
}

type ListAppointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
}

type CreateAppointmentRequest struct {
	CustomerID  int64   `json:"customer_id"`
	InitDate    string  `json:"init_date"`
	InitTime    string  `json:"init_time"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateAppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
}

type UpdateAttendanceRequest struct {
	ID       int64 `json:"id"`
	Attended bool  `json:"attended"`
}

type MarkAbsentRequest struct {
	ID     int64 `json:"id"`
	Absent bool  `json:"absent"`
}

type SyncAppointmentRequest struct {
	Appointment Appointment `json:"appointment"`
}

type SyncStatusEvent struct {
	Phase         string    `json:"phase"`
	Message       string    `json:"message,omitempty"`
	AppointmentID int64     `json:"appointment_id,omitempty"`
	At            time.Time `json:"at"`
}

type ValidateCustomerRequest struct {
	Identification string `json:"identification"`
}

type ValidateCustomerResponse struct {
	Name               string `json:"name"`
	IdentificationType string `json:"identification_type"`
	State              string `json:"state"`
	Message            string `json:"message"`
}

type AvailableTimeSlotsRequest struct {
	Date string `json:"date"`
}

type AvailableTimeSlotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type Settings struct {
	WeekendEnabled bool     `json:"weekend_enabled"`
	BlockedTimes   []string `json:"blocked_times"`
}

// GetStatsRequest show_* fields default to true when omitted.
type GetStatsRequest struct {
	Range        string `json:"range"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	ShowAttended *bool  `json:"show_attended,omitempty"`
	ShowPending  *bool  `json:"show_pending,omitempty"`
	ShowAbsent   *bool  `json:"show_absent,omitempty"`
}

type GetStatsResponse struct {
	From     string                  `json:"from"`
	To       string                  `json:"to"`
	Stats    domain.AppointmentStats `json:"stats"`
	Insights stats.Insights          `json:"insights"`
}

func toAppointment(a domain.Appointment) Appointment {
	out := Appointment{
		ID:          a.ID,
		CustomerID:  a.CustomerID,
		InitDate:    a.InitDate,
		InitTime:    a.InitTime,
		EndDate:     a.EndDate,
		EndTime:     a.EndTime,
		Title:       a.Title,
		Description: a.Description,
		Attendance:  a.Attendance,
		Absent:      a.Absent,
		Status:      string(a.Status()),
		NeedsSync:   a.NeedsSync,
	}
	if a.Customer != nil {
		c := Customer{
			ID:       a.Customer.ID,
			Card:     a.Customer.Card,
			Name:     a.Customer.Name,
			Phone:    a.Customer.Phone,
			Email:    a.Customer.Email,
			Birthday: a.Customer.Birthday,
			Gender:   a.Customer.Gender,
			Address:  a.Customer.Address,
		}
		out.Customer = &c
	}
	return out
}

func toAppointments(in []domain.Appointment) []Appointment {
	out := make([]Appointment, 0, len(in))
	for _, a := range in {
		out = append(out, toAppointment(a))
	}
	return out
}

func fromAppointment(a Appointment) domain.Appointment {
	return domain.Appointment{
		ID:          a.ID,
		CustomerID:  a.CustomerID,
		InitDate:    a.InitDate,
		InitTime:    a.InitTime,
		EndDate:     a.EndDate,
		EndTime:     a.EndTime,
		Title:       a.Title,
		Description: a.Description,
		Attendance:  a.Attendance,
		Absent:      a.Absent,
	}
}

func toSyncStatus(st domain.SyncState) *SyncStatusEvent {
	return &SyncStatusEvent{
		Phase:         string(st.Phase),
		Message:       st.Message,
		AppointmentID: st.AppointmentID,
		At:            st.At,
	}
}

func toSettings(s appointments.Settings) *Settings {
	return &Settings{WeekendEnabled: s.WeekendEnabled, BlockedTimes: s.BlockedTimes}
}

func toStatsFilter(req *GetStatsRequest) stats.Filter {
	f := stats.DefaultFilter()
	if req.Range != "" {
		f.Range = stats.Range(req.Range)
	}
	f.From, f.To = req.From, req.To
	if req.ShowAttended != nil {
		f.ShowAttended = *req.ShowAttended
	}
	if req.ShowPending != nil {
		f.ShowPending = *req.ShowPending
	}
	if req.ShowAbsent != nil {
		f.ShowAbsent = *req.ShowAbsent
	}
	return f
}
