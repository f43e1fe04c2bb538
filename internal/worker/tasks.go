package worker

import (
	"context"
	"log/slog"
	"time"

	"medagenda/internal/domain"
	"medagenda/internal/service/appointments"
)

type Repository interface {
	GetPendingSyncAppointments(ctx context.Context) ([]domain.Appointment, error)
	SyncOne(ctx context.Context, appt domain.Appointment) (pushed bool, err error)
	GetAppointments(ctx context.Context, date string) []domain.Appointment
	Today() string
}

// SyncTask pushes every flagged appointment, then refreshes today.
type SyncTask struct {
	repo Repository
	log  *slog.Logger
}

func NewSyncTask(repo Repository, log *slog.Logger) *SyncTask {
	if log == nil {
		log = slog.Default()
	}
	return &SyncTask{repo: repo, log: log.With(slog.String("task", "sync"))}
}

func (t *SyncTask) Name() string { return "sync" }

func (t *SyncTask) RunNow(ctx context.Context) Outcome {
	pending, err := t.repo.GetPendingSyncAppointments(ctx)
	if err != nil {
		t.log.Error("pending list failed", slog.Any("err", err))
		return Retry
	}

	failed := 0
	for _, appt := range pending {
		pushed, err := t.repo.SyncOne(ctx, appt)
		if err != nil {
			t.log.Error("sync flag write failed", slog.Int64("appointment_id", appt.ID), slog.Any("err", err))
			failed++
			continue
		}
		if !pushed {
			failed++
		}
	}

	t.repo.GetAppointments(ctx, t.repo.Today())

	if failed > 0 {
		t.log.Warn("sync incomplete", slog.Int("pending", len(pending)), slog.Int("failed", failed))
		return Retry
	}
	return Success
}

// RefreshTask keeps today's list warm for widgets and other readers.
type RefreshTask struct {
	repo Repository
	log  *slog.Logger
}

func NewRefreshTask(repo Repository, log *slog.Logger) *RefreshTask {
	if log == nil {
		log = slog.Default()
	}
	return &RefreshTask{repo: repo, log: log.With(slog.String("task", "refresh"))}
}

func (t *RefreshTask) Name() string { return "refresh" }

func (t *RefreshTask) RunNow(ctx context.Context) Outcome {
	today := t.repo.Today()
	appts := t.repo.GetAppointments(ctx, today)
	t.log.Info("today refreshed", slog.String("date", today), slog.Int("count", len(appts)))
	return Success
}

type Pruner interface {
	DeleteOlderThan(ctx context.Context, date string) (int, error)
}

// RetentionTask drops local appointments older than the retention window.
type RetentionTask struct {
	store Pruner
	days  int
	now   func() time.Time
	log   *slog.Logger
}

func NewRetentionTask(store Pruner, days int, now func() time.Time, log *slog.Logger) *RetentionTask {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &RetentionTask{store: store, days: days, now: now, log: log.With(slog.String("task", "retention"))}
}

func (t *RetentionTask) Name() string { return "retention" }

func (t *RetentionTask) RunNow(ctx context.Context) Outcome {
	if t.days <= 0 {
		t.log.Error("retention days must be positive", slog.Int("days", t.days))
		return Fatal
	}
	cutoff := domain.FormatDay(t.now().AddDate(0, 0, -t.days))
	n, err := t.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.log.Error("retention sweep failed", slog.String("cutoff", cutoff), slog.Any("err", err))
		return Retry
	}
	t.log.Info("retention sweep done", slog.String("cutoff", cutoff), slog.Int("deleted", n))
	return Success
}

var _ Repository = (*appointments.Service)(nil)
