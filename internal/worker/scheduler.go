package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"medagenda/internal/connectivity"
)

type Outcome int

const (
	Success Outcome = iota
	Retry
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retry:
		return "retry"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Task is one unit of periodic work. RunNow must be safe to call again after
// it returned Retry.
type Task interface {
	Name() string
	RunNow(ctx context.Context) Outcome
}

type Options struct {
	RequireNetwork bool
	RunAtStart     bool
	// MaxRetries bounds the backoff retries inside one tick. Zero means 3.
	MaxRetries int
	// InitialBackoff and MaxBackoff tune the retry schedule.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type job struct {
	task     Task
	interval time.Duration
	opts     Options
}

type Scheduler struct {
	conn connectivity.Checker
	log  *slog.Logger
	jobs []job

	// after is swapped in tests.
	after func(d time.Duration) <-chan time.Time
}

func NewScheduler(conn connectivity.Checker, log *slog.Logger) *Scheduler {
	if conn == nil {
		conn = connectivity.Static(true)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		conn:  conn,
		log:   log.With(slog.String("component", "worker")),
		after: time.After,
	}
}

func (s *Scheduler) Every(interval time.Duration, task Task, opts Options) {
	s.jobs = append(s.jobs, job{task: task, interval: interval, opts: opts})
}

// Run blocks until ctx is done, driving every registered task on its own
// ticker.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	log := s.log.With(slog.String("task", j.task.Name()))
	if j.interval <= 0 {
		log.Warn("task disabled", slog.Duration("interval", j.interval))
		return
	}

	if j.opts.RunAtStart {
		if s.tick(ctx, j, log) == Fatal {
			return
		}
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.tick(ctx, j, log) == Fatal {
				log.Error("task stopped after fatal outcome")
				return
			}
		}
	}
}

// tick runs the task once, retrying Retry outcomes with exponential backoff.
func (s *Scheduler) tick(ctx context.Context, j job, log *slog.Logger) Outcome {
	if j.opts.RequireNetwork && !s.conn.Reachable(ctx) {
		log.Debug("skipped; network unreachable")
		return Retry
	}

	b := backoff.NewExponentialBackOff()
	if j.opts.InitialBackoff > 0 {
		b.InitialInterval = j.opts.InitialBackoff
	}
	if j.opts.MaxBackoff > 0 {
		b.MaxInterval = j.opts.MaxBackoff
	}
	maxRetries := j.opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	for attempt := 0; ; attempt++ {
		start := time.Now()
		out := j.task.RunNow(ctx)
		log.Info("task ran",
			slog.String("outcome", out.String()),
			slog.Int("attempt", attempt+1),
			slog.Duration("elapsed", time.Since(start)),
		)
		if out != Retry {
			return out
		}
		if attempt >= maxRetries {
			return Retry
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return Retry
		}
		select {
		case <-ctx.Done():
			return Retry
		case <-s.after(wait):
		}
		if j.opts.RequireNetwork && !s.conn.Reachable(ctx) {
			return Retry
		}
	}
}
