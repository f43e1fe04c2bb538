package store

import (
	"context"

	"medagenda/internal/domain"
)

// AppointmentStore is the durable local copy of appointments. Dates are
// YYYY-MM-DD strings compared lexically. UpdateAttendance and UpdateAbsent
// also set needs_sync; UpsertAll keeps attendance, absent and needs_sync of
// rows already flagged.
type AppointmentStore interface {
	ListByDate(ctx context.Context, date string) ([]domain.Appointment, error)
	UpsertAll(ctx context.Context, appts []domain.Appointment) error
	UpdateAttendance(ctx context.Context, id int64, attended bool) error
	UpdateAbsent(ctx context.Context, id int64, absent bool) error
	MarkForSync(ctx context.Context, id int64) error
	ClearSyncFlag(ctx context.Context, id int64) error
	ListPendingSync(ctx context.Context) ([]domain.Appointment, error)
	DeleteOlderThan(ctx context.Context, date string) (int, error)
}

type CustomerStore interface {
	UpsertAll(ctx context.Context, customers []domain.Customer) error
	GetByID(ctx context.Context, id int64) (domain.Customer, error)
	GetByCard(ctx context.Context, card string) (domain.Customer, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error)
}

type PreferencesStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// StatsStore aggregates appointments whose init_date lies in [from, to].
// today decides which unattended appointments still count as pending.
type StatsStore interface {
	AppointmentStats(ctx context.Context, from, to, today string) (domain.AppointmentStats, error)
}
