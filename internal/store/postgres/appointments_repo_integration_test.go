package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"medagenda/internal/domain"
	"medagenda/internal/store"
)

func TestPostgresIntegration_AppointmentsUpsertSyncFlagsAndStats(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("MEDAGENDA_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("MEDAGENDA_TEST_DATABASE_URL not set")
	}

	db, err := Open(context.Background(), databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "medagenda_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := Migrate(ctx, tx); err != nil {
			return err
		}

		appts := NewAppointmentRepo(tx)
		customers := NewCustomerRepo(tx)
		prefs := NewPreferencesRepo(tx)
		stats := NewStatsRepo(tx)

		if err := customers.UpsertAll(ctx, []domain.Customer{{ID: 3, Card: "0102", Name: "Ana", Gender: "F"}}); err != nil {
			return err
		}

		err := appts.UpsertAll(ctx, []domain.Appointment{
			{ID: 1, CustomerID: 3, InitDate: "2026-01-05", InitTime: "09:00:00"},
			{ID: 2, CustomerID: 3, InitDate: "2026-01-05", InitTime: "08:30:00"},
			{ID: 3, CustomerID: 4, InitDate: "2026-01-06", InitTime: "10:00:00", Absent: true},
			{ID: 4, CustomerID: 4, InitDate: "2025-12-01", InitTime: "10:00:00", Attendance: true},
		})
		if err != nil {
			return err
		}

		rows, err := appts.ListByDate(ctx, "2026-01-05")
		if err != nil {
			return err
		}
		if len(rows) != 2 || rows[0].ID != 2 || rows[1].ID != 1 {
			return fmt.Errorf("ListByDate = %+v, want ids [2 1]", rows)
		}
		if rows[0].Customer == nil || rows[0].Customer.Name != "Ana" {
			return fmt.Errorf("customer not attached: %+v", rows[0].Customer)
		}

		if err := appts.UpdateAttendance(ctx, 1, true); err != nil {
			return err
		}
		if err := appts.UpdateAttendance(ctx, 999, true); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("UpdateAttendance unknown err = %v, want %v", err, store.ErrNotFound)
		}

		// A refresh from the remote must not overwrite the pending local change.
		err = appts.UpsertAll(ctx, []domain.Appointment{
			{ID: 1, CustomerID: 3, InitDate: "2026-01-05", InitTime: "09:15:00", Attendance: false},
			{ID: 2, CustomerID: 3, InitDate: "2026-01-05", InitTime: "08:30:00", Attendance: true},
		})
		if err != nil {
			return err
		}
		rows, err = appts.ListByDate(ctx, "2026-01-05")
		if err != nil {
			return err
		}
		if !rows[0].Attendance {
			return fmt.Errorf("unflagged row was not replaced: %+v", rows[0])
		}
		if !rows[1].Attendance || !rows[1].NeedsSync || rows[1].InitTime != "09:15:00" {
			return fmt.Errorf("flagged row = %+v, want attendance kept and time replaced", rows[1])
		}

		pending, err := appts.ListPendingSync(ctx)
		if err != nil {
			return err
		}
		if len(pending) != 1 || pending[0].ID != 1 {
			return fmt.Errorf("ListPendingSync = %+v, want [1]", pending)
		}
		if err := appts.ClearSyncFlag(ctx, 1); err != nil {
			return err
		}
		pending, err = appts.ListPendingSync(ctx)
		if err != nil {
			return err
		}
		if len(pending) != 0 {
			return fmt.Errorf("ListPendingSync after clear = %+v, want empty", pending)
		}

		s, err := stats.AppointmentStats(ctx, "2026-01-01", "2026-01-31", "2026-01-06")
		if err != nil {
			return err
		}
		if s.Total != 3 || s.Attended != 2 || s.Absent != 1 || s.Pending != 1 {
			return fmt.Errorf("stats = %+v", s)
		}
		if s.ByDay["2026-01-05"] != 2 || s.ByHour["08:30"] != 1 {
			return fmt.Errorf("stats buckets = %v %v", s.ByDay, s.ByHour)
		}

		n, err := appts.DeleteOlderThan(ctx, "2026-01-01")
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("DeleteOlderThan = %d, want 1", n)
		}

		if err := prefs.Set(ctx, "access_token", "tok"); err != nil {
			return err
		}
		if err := prefs.Set(ctx, "access_token", "tok2"); err != nil {
			return err
		}
		v, err := prefs.Get(ctx, "access_token")
		if err != nil {
			return err
		}
		if v != "tok2" {
			return fmt.Errorf("preference = %q, want tok2", v)
		}
		if err := prefs.Clear(ctx); err != nil {
			return err
		}
		if _, err := prefs.Get(ctx, "access_token"); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("Get after Clear err = %v, want %v", err, store.ErrNotFound)
		}

		c, err := customers.GetByCard(ctx, "0102")
		if err != nil {
			return err
		}
		if c.ID != 3 {
			return fmt.Errorf("GetByCard id = %d, want 3", c.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
