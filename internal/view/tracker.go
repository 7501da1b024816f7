package view

import (
	"sync"

	"pizza-storefront/internal/domain"
)

// Tracker hands out tickets per key so a late response can tell that a newer request for the
// same key has begun since. Ticket numbers come from one counter shared by all keys and never
// repeat.
type Tracker struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]uint64)}
}

// Ticket identifies one request.
type Ticket struct {
	t   *Tracker
	key string
	seq uint64
}

// Begin starts a request for key, superseding any earlier one.
func (t *Tracker) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.latest[key] = t.next
	return Ticket{t: t, key: key, seq: t.next}
}

// Current returns domain.ErrSuperseded once a newer ticket exists for the same key.
func (tk Ticket) Current() error {
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()
	if tk.t.latest[tk.key] != tk.seq {
		return domain.ErrSuperseded
	}
	return nil
}

// Done forgets the key when tk is still its latest ticket.
func (tk Ticket) Done() {
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()
	if tk.t.latest[tk.key] == tk.seq {
		delete(tk.t.latest, tk.key)
	}
}
