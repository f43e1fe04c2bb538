package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "pending"
	AppointmentStatusAttended AppointmentStatus = "attended"
	AppointmentStatusAbsent   AppointmentStatus = "absent"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID          int64     `bun:"id,pk" json:"id"`
	CustomerID  int64     `bun:"customer_id,notnull" json:"customer_id"`
	InitDate    string    `bun:"init_date,notnull" json:"init_date"`
	InitTime    string    `bun:"init_time,notnull" json:"init_time"`
	EndDate     *string   `bun:"end_date" json:"end_date"`
	EndTime     *string   `bun:"end_time" json:"end_time"`
	Title       *string   `bun:"title" json:"title"`
	Description *string   `bun:"description" json:"description"`
	Attendance  bool      `bun:"attendance,notnull" json:"attendance"`
	Absent      bool      `bun:"absent,notnull" json:"absent"`
	NeedsSync   bool      `bun:"needs_sync,notnull" json:"-"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"-"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"-"`

	Customer *Customer `bun:"-" json:"customer"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// Status projects the two stored flags onto a single state. A no-show wins
// over attendance when both are set.
func (a Appointment) Status() AppointmentStatus {
	switch {
	case a.Absent:
		return AppointmentStatusAbsent
	case a.Attendance:
		return AppointmentStatusAttended
	default:
		return AppointmentStatusPending
	}
}

// SlotTime is the HH:MM prefix of InitTime.
func (a Appointment) SlotTime() string {
	if len(a.InitTime) >= 5 {
		return a.InitTime[:5]
	}
	return a.InitTime
}

type Customer struct {
	bun.BaseModel `bun:"table:customers"`

	ID       int64   `bun:"id,pk" json:"id"`
	Card     string  `bun:"card,notnull" json:"card"`
	Name     string  `bun:"name,notnull" json:"name"`
	Phone    string  `bun:"phone" json:"phone"`
	Email    *string `bun:"email" json:"email"`
	Birthday *string `bun:"birthday" json:"birthday"`
	Gender   string  `bun:"gender" json:"gender"`
	Address  *string `bun:"address" json:"address"`
}

type CreateAppointmentRequest struct {
	CustomerID  int64   `json:"customer_id"`
	InitDate    string  `json:"init_date"`
	InitTime    string  `json:"init_time"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CustomerValidation struct {
	Name               string    `json:"nombre"`
	IdentificationType string    `json:"tipoIdentificacion"`
	TaxStatus          TaxStatus `json:"situacion"`
}

type TaxStatus struct {
	State   string `json:"estado"`
	Message string `json:"mensaje"`
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   *time.Time
}
