package appointments

import (
	"sync"
	"time"

	"medagenda/internal/domain"
)

// statusHub fans sync state out to subscribers. A subscriber whose buffer is
// full misses that update; the sync path never blocks on a reader.
type statusHub struct {
	mu     sync.RWMutex
	now    func() time.Time
	state  domain.SyncState
	nextID int
	subs   map[int]chan domain.SyncState
}

func newStatusHub(now func() time.Time) *statusHub {
	return &statusHub{
		now:   now,
		state: domain.SyncState{Phase: domain.SyncPhaseIdle, At: now()},
		subs:  make(map[int]chan domain.SyncState),
	}
}

func (h *statusHub) current() domain.SyncState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *statusHub) publish(st domain.SyncState) {
	if st.At.IsZero() {
		st.At = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = st
	for _, ch := range h.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

func (h *statusHub) subscribe(buffer int) (<-chan domain.SyncState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.SyncState, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}
