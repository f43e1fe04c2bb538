package cache

import (
	"fmt"
	"testing"
	"time"

	"medagenda/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(t *testing.T, clock *fakeClock) *Appointments {
	t.Helper()
	c, err := New(WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c
}

func TestAppointments_PutThenGet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)

	c.Put("2026-01-05", []domain.Appointment{{ID: 1}, {ID: 2}})
	got, ok := c.Get("2026-01-05")
	if !ok {
		t.Fatalf("expected hit")
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("Get = %+v", got)
	}
}

func TestAppointments_ReturnsCopies(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)

	in := []domain.Appointment{{ID: 1}}
	c.Put("2026-01-05", in)
	in[0].ID = 99

	got, _ := c.Get("2026-01-05")
	got[0].Attendance = true

	again, _ := c.Get("2026-01-05")
	if again[0].ID != 1 || again[0].Attendance {
		t.Fatalf("cached entry was mutated: %+v", again[0])
	}
}

func TestAppointments_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)

	c.Put("2026-01-05", []domain.Appointment{{ID: 1}})

	clock.Advance(30 * time.Minute)
	if _, ok := c.Get("2026-01-05"); !ok {
		t.Fatalf("expected hit at exactly the ttl")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("2026-01-05"); ok {
		t.Fatalf("expected miss after ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after expiry", c.Len())
	}
}

func TestAppointments_EvictsLeastRecentlyUsed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)

	for i := 1; i <= DefaultSize; i++ {
		c.Put(fmt.Sprintf("2026-01-%02d", i), []domain.Appointment{{ID: int64(i)}})
	}
	// Touch the oldest key so the second one becomes the eviction victim.
	if _, ok := c.Get("2026-01-01"); !ok {
		t.Fatalf("expected hit for 2026-01-01")
	}

	c.Put("2026-01-08", []domain.Appointment{{ID: 8}})

	if c.Len() != DefaultSize {
		t.Fatalf("Len = %d, want %d", c.Len(), DefaultSize)
	}
	if _, ok := c.Get("2026-01-02"); ok {
		t.Fatalf("expected 2026-01-02 to be evicted")
	}
	if _, ok := c.Get("2026-01-01"); !ok {
		t.Fatalf("expected 2026-01-01 to survive")
	}
	if _, ok := c.storedAt["2026-01-02"]; ok {
		t.Fatalf("timestamp for evicted key was kept")
	}
}

func TestAppointments_ClearEmptiesEverything(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)

	c.Put("2026-01-05", []domain.Appointment{{ID: 1}})
	c.Put("2026-01-06", nil)
	c.Clear()

	if _, ok := c.Get("2026-01-05"); ok {
		t.Fatalf("expected miss after Clear")
	}
	if c.Len() != 0 || len(c.storedAt) != 0 {
		t.Fatalf("Clear left entries behind")
	}
}

func TestAppointments_UpdatePatchesCachedCopy(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)

	c.Put("2026-01-05", []domain.Appointment{{ID: 1}, {ID: 2}})
	c.Update(2, func(a *domain.Appointment) { a.Attendance = true })

	got, _ := c.Get("2026-01-05")
	if got[0].Attendance || !got[1].Attendance {
		t.Fatalf("Update result = %+v", got)
	}
}

func TestAppointments_InvalidateDropsOneKey(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)

	c.Put("2026-01-05", []domain.Appointment{{ID: 1}})
	c.Put("2026-01-06", []domain.Appointment{{ID: 2}})
	c.Invalidate("2026-01-05")

	if _, ok := c.Get("2026-01-05"); ok {
		t.Fatalf("expected miss for invalidated key")
	}
	if _, ok := c.Get("2026-01-06"); !ok {
		t.Fatalf("expected hit for untouched key")
	}
}
