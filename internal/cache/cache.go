package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"medagenda/internal/domain"
)

const (
	DefaultSize = 7
	DefaultTTL  = 30 * time.Minute
)

// Appointments is a small date-keyed cache. Entries expire after the TTL and
// the least recently used date is evicted once the capacity is reached.
type Appointments struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, []domain.Appointment]
	storedAt map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*options)

type options struct {
	size int
	ttl  time.Duration
	now  func() time.Time
}

func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(opts ...Option) (*Appointments, error) {
	o := options{size: DefaultSize, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.size <= 0 {
		o.size = DefaultSize
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}

	c := &Appointments{
		storedAt: make(map[string]time.Time, o.size),
		ttl:      o.ttl,
		now:      o.now,
	}
	// The callback runs under c.mu because every mutating lru call below
	// happens with the lock held.
	entries, err := lru.NewWithEvict[string, []domain.Appointment](o.size, func(key string, _ []domain.Appointment) {
		delete(c.storedAt, key)
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

func (c *Appointments) Put(dateKey string, appts []domain.Appointment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(dateKey, clone(appts))
	c.storedAt[dateKey] = c.now()
}

func (c *Appointments) Get(dateKey string) ([]domain.Appointment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.storedAt[dateKey]
	if !ok {
		return nil, false
	}
	if c.now().Sub(at) > c.ttl {
		c.entries.Remove(dateKey)
		delete(c.storedAt, dateKey)
		return nil, false
	}
	appts, ok := c.entries.Get(dateKey)
	if !ok {
		delete(c.storedAt, dateKey)
		return nil, false
	}
	return clone(appts), true
}

// Invalidate drops one date without touching the rest.
func (c *Appointments) Invalidate(dateKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(dateKey)
	delete(c.storedAt, dateKey)
}

// Update applies fn to every cached copy of the appointment with the given
// id. It does not refresh the entry's timestamp.
func (c *Appointments) Update(id int64, fn func(*domain.Appointment)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.entries.Keys() {
		appts, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		for i := range appts {
			if appts[i].ID == id {
				fn(&appts[i])
			}
		}
	}
}

func (c *Appointments) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	clear(c.storedAt)
}

func (c *Appointments) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func clone(in []domain.Appointment) []domain.Appointment {
	if in == nil {
		return nil
	}
	out := make([]domain.Appointment, len(in))
	copy(out, in)
	return out
}
