package connectivity

import (
	"context"
	"sync"
	"time"
)

type Checker interface {
	Reachable(ctx context.Context) bool
}

// Func adapts a plain function to Checker.
type Func func(ctx context.Context) bool

func (f Func) Reachable(ctx context.Context) bool { return f(ctx) }

// Static always gives the same answer.
type Static bool

func (s Static) Reachable(context.Context) bool { return bool(s) }

// ProbeChecker asks a probe and remembers the answer for a short window.
type ProbeChecker struct {
	probe   func(ctx context.Context) error
	timeout time.Duration
	window  time.Duration
	now     func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	last      bool
}

func NewProbeChecker(probe func(ctx context.Context) error, timeout, window time.Duration) *ProbeChecker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ProbeChecker{
		probe:   probe,
		timeout: timeout,
		window:  window,
		now:     time.Now,
	}
}

func (p *ProbeChecker) Reachable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.window > 0 && !p.checkedAt.IsZero() && now.Sub(p.checkedAt) < p.window {
		return p.last
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.last = p.probe(ctx) == nil
	p.checkedAt = now
	return p.last
}

// Forget drops the remembered answer so the next call probes again.
func (p *ProbeChecker) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkedAt = time.Time{}
}
