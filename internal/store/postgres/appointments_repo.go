package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/uptrace/bun"

	"medagenda/internal/domain"
	"medagenda/internal/store"
)

type AppointmentRepo struct {
	db bun.IDB
}

func NewAppointmentRepo(db bun.IDB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("init_date = ?", date).
		OrderExpr("init_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.withCustomers(ctx, rows)
}

// UpsertAll replaces rows by id. A row flagged for sync keeps its local
// attendance and absent values and its flag until the push succeeds.
func (r *AppointmentRepo) UpsertAll(ctx context.Context, appts []domain.Appointment) error {
	if len(appts) == 0 {
		return nil
	}
	rows := make([]domain.Appointment, len(appts))
	copy(rows, appts)

	_, err := r.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("customer_id = EXCLUDED.customer_id").
		Set("init_date = EXCLUDED.init_date").
		Set("init_time = EXCLUDED.init_time").
		Set("end_date = EXCLUDED.end_date").
		Set("end_time = EXCLUDED.end_time").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("attendance = CASE WHEN ?TableAlias.needs_sync THEN ?TableAlias.attendance ELSE EXCLUDED.attendance END").
		Set("absent = CASE WHEN ?TableAlias.needs_sync THEN ?TableAlias.absent ELSE EXCLUDED.absent END").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// UpdateAttendance and UpdateAbsent flag the row for sync in the same
// statement, so a later refresh cannot overwrite the local value.
func (r *AppointmentRepo) UpdateAttendance(ctx context.Context, id int64, attended bool) error {
	return r.updateFlag(ctx, id, "attendance = ?, needs_sync = TRUE", attended)
}

func (r *AppointmentRepo) UpdateAbsent(ctx context.Context, id int64, absent bool) error {
	return r.updateFlag(ctx, id, "absent = ?, needs_sync = TRUE", absent)
}

func (r *AppointmentRepo) MarkForSync(ctx context.Context, id int64) error {
	return r.updateFlag(ctx, id, "needs_sync = ?", true)
}

func (r *AppointmentRepo) ClearSyncFlag(ctx context.Context, id int64) error {
	return r.updateFlag(ctx, id, "needs_sync = ?", false)
}

func (r *AppointmentRepo) updateFlag(ctx context.Context, id int64, set string, value bool) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set(set, value).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *AppointmentRepo) ListPendingSync(ctx context.Context) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("needs_sync").
		OrderExpr("init_date ASC, init_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.withCustomers(ctx, rows)
}

// DeleteOlderThan removes appointments before date. Rows still waiting for
// sync are kept.
func (r *AppointmentRepo) DeleteOlderThan(ctx context.Context, date string) (int, error) {
	res, err := r.db.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("init_date < ?", date).
		Where("NOT needs_sync").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *AppointmentRepo) withCustomers(ctx context.Context, rows []domain.Appointment) ([]domain.Appointment, error) {
	ids := customerIDs(rows)
	if len(ids) == 0 {
		return rows, nil
	}
	customers, err := NewCustomerRepo(r.db).ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return attachCustomers(rows, customers), nil
}

func customerIDs(rows []domain.Appointment) []int64 {
	seen := make(map[int64]struct{}, len(rows))
	out := make([]int64, 0, len(rows))
	for _, a := range rows {
		if a.CustomerID <= 0 {
			continue
		}
		if _, ok := seen[a.CustomerID]; ok {
			continue
		}
		seen[a.CustomerID] = struct{}{}
		out = append(out, a.CustomerID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func attachCustomers(rows []domain.Appointment, customers []domain.Customer) []domain.Appointment {
	byID := make(map[int64]domain.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	for i := range rows {
		c, ok := byID[rows[i].CustomerID]
		if !ok {
			continue
		}
		rows[i].Customer = &c
	}
	return rows
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
