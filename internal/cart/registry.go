package cart

import (
	"context"
	"log/slog"
	"sync"

	"pizza-storefront/internal/events"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/storage"
)

// Registry serializes work on a session's cart. Each With call rehydrates the cart from storage,
// so writers sharing a backend never act on a stale copy. Every store's events are forwarded to
// the bus when one is set.
type Registry struct {
	storage storage.Store
	bus     *events.Bus
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewRegistry(st storage.Store, bus *events.Bus, logger *slog.Logger) *Registry {
	return &Registry{
		storage: st,
		bus:     bus,
		logger:  logs.OrDiscard(logger),
		locks:   make(map[string]*sessionLock),
	}
}

// With runs fn against the session's cart while holding the session lock. The store must not be
// retained after fn returns.
func (r *Registry) With(ctx context.Context, session string, fn func(*Store) error) error {
	l := r.acquire(session)
	defer r.release(session, l)

	s, err := Open(ctx, r.storage, Key(session), WithSession(session), WithLogger(r.logger))
	if err != nil {
		return err
	}
	if r.bus != nil {
		s.Subscribe(r.bus.Publish)
	}
	return fn(s)
}

func (r *Registry) acquire(session string) *sessionLock {
	r.mu.Lock()
	l, ok := r.locks[session]
	if !ok {
		l = &sessionLock{}
		r.locks[session] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return l
}

func (r *Registry) release(session string, l *sessionLock) {
	l.mu.Unlock()

	r.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, session)
	}
	r.mu.Unlock()
}

// active reports how many sessions currently hold or wait on a lock.
func (r *Registry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
