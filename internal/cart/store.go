// Package cart is the single writer of cart state. Every mutation is persisted before it becomes
// visible, and raises an event subscribers can turn into a notification.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pizza-storefront/internal/domain"
	"pizza-storefront/internal/events"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/money"
	"pizza-storefront/internal/storage"
)

// KeyPrefix is the storage key of a cart; the session id is appended.
const KeyPrefix = "pizza_cart"

// Key returns the storage key of a session's cart.
func Key(session string) string {
	if session == "" {
		return KeyPrefix
	}
	return KeyPrefix + ":" + session
}

// Store is one session's cart. Methods are safe for concurrent use; event handlers run after the
// mutation has been persisted.
type Store struct {
	mu      sync.Mutex
	storage storage.Store
	key     string
	session string
	items   []domain.LineItem

	subMu   sync.RWMutex
	subs    map[int]events.Handler
	nextSub int

	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Store at Open.
type Option func(*Store)

// WithLogger sets the logger used for rehydration warnings.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = logs.OrDiscard(l) } }

// WithSession stamps the session id on emitted events.
func WithSession(session string) Option { return func(s *Store) { s.session = session } }

// WithClock replaces time.Now for AddedAt and event timestamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator replaces the uuid line id generator.
func WithIDGenerator(gen func() string) Option { return func(s *Store) { s.newID = gen } }

// Open rehydrates the cart stored under key. Absent or unparseable state yields an empty cart;
// only a storage failure is returned.
func Open(ctx context.Context, st storage.Store, key string, opts ...Option) (*Store, error) {
	s := &Store{
		storage: st,
		key:     key,
		subs:    make(map[int]events.Handler),
		logger:  logs.Discard(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	var items []domain.LineItem
	found, err := storage.GetJSON(ctx, st, key, &items)
	switch {
	case err != nil && found:
		s.logger.Warn("discarding unreadable cart", "key", key, "err", err)
		items = nil
	case err != nil:
		return nil, errors.Wrapf(err, "load cart %s", key)
	}
	s.items = items
	return s, nil
}

// Add merges a plain line into an existing plain line of the same product, or appends a new
// line. Customized lines are never merged.
func (s *Store) Add(ctx context.Context, item domain.LineItem) (domain.LineItem, error) {
	s.mu.Lock()
	line, ev, err := s.add(ctx, item)
	s.mu.Unlock()
	if err != nil {
		return domain.LineItem{}, err
	}
	s.emit(ev)
	return line, nil
}

func (s *Store) add(ctx context.Context, item domain.LineItem) (domain.LineItem, events.Event, error) {
	incoming := item.Quantity
	if incoming < 1 {
		incoming = 1
	}

	if item.Customizations.IsEmpty() {
		for i, existing := range s.items {
			if existing.ProductID != item.ProductID || !existing.Customizations.IsEmpty() {
				continue
			}
			next := s.snapshot()
			existing.Quantity = existing.EffectiveQuantity() + incoming
			next[i] = existing
			if err := s.commit(ctx, next); err != nil {
				return domain.LineItem{}, events.Event{}, err
			}
			return existing, events.Event{
				Type:      events.ItemUpdated,
				Level:     events.LevelSuccess,
				Message:   fmt.Sprintf("%s updated in cart", existing.Name),
				LineID:    existing.ID,
				ProductID: existing.ProductID,
				Quantity:  existing.Quantity,
			}, nil
		}
	}

	if item.ID == "" || !item.Customizations.IsEmpty() || s.indexOf(item.ID) >= 0 {
		item.ID = s.newID()
	}
	item.Quantity = incoming
	item.AddedAt = s.now().UTC()

	next := append(s.snapshot(), item)
	if err := s.commit(ctx, next); err != nil {
		return domain.LineItem{}, events.Event{}, err
	}
	return item, events.Event{
		Type:      events.ItemAdded,
		Level:     events.LevelSuccess,
		Message:   fmt.Sprintf("%s added to cart", item.Name),
		LineID:    item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}, nil
}

// Remove deletes a line. An unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, lineID string) error {
	s.mu.Lock()
	ev, err := s.remove(ctx, lineID)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if ev != nil {
		s.emit(*ev)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, lineID string) (*events.Event, error) {
	idx := s.indexOf(lineID)
	if idx < 0 {
		return nil, nil
	}
	removed := s.items[idx]
	next := make([]domain.LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return &events.Event{
		Type:      events.ItemRemoved,
		Level:     events.LevelInfo,
		Message:   fmt.Sprintf("%s removed from cart", removed.Name),
		LineID:    removed.ID,
		ProductID: removed.ProductID,
	}, nil
}

// UpdateQuantity replaces a line's quantity; quantity <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, lineID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(lineID)
	if idx < 0 {
		return nil
	}
	next := s.snapshot()
	next[idx].Quantity = quantity
	return s.commit(ctx, next)
}

// RemoveLines deletes the given lines from the persisted cart in a single write. Lines another
// writer added since the ids were read stay in the cart. Emptying the cart raises CartCleared,
// otherwise one ItemRemoved per line.
func (s *Store) RemoveLines(ctx context.Context, lineIDs []string) error {
	drop := make(map[string]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	current := s.items
	var persisted []domain.LineItem
	if found, err := storage.GetJSON(ctx, s.storage, s.key, &persisted); err == nil && found {
		current = persisted
	}
	next := make([]domain.LineItem, 0, len(current))
	var removed []domain.LineItem
	for _, it := range current {
		if _, ok := drop[it.ID]; ok {
			removed = append(removed, it)
			continue
		}
		next = append(next, it)
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return nil
	}
	err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if len(next) == 0 {
		s.emit(events.Event{Type: events.CartCleared, Level: events.LevelInfo, Message: "Cart cleared"})
		return nil
	}
	for _, it := range removed {
		s.emit(events.Event{
			Type:      events.ItemRemoved,
			Level:     events.LevelInfo,
			Message:   fmt.Sprintf("%s removed from cart", it.Name),
			LineID:    it.ID,
			ProductID: it.ProductID,
		})
	}
	return nil
}

// Clear empties the cart and raises CartCleared.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.commit(ctx, []domain.LineItem{})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emit(events.Event{Type: events.CartCleared, Level: events.LevelInfo, Message: "Cart cleared"})
	return nil
}

// Total sums unit price times quantity over all lines.
func (s *Store) Total() money.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total money.Amount
	for _, it := range s.items {
		total += it.Total()
	}
	return total
}

// ItemCount sums quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.EffectiveQuantity()
	}
	return n
}

// FindByID returns the line with the given id.
func (s *Store) FindByID(lineID string) (domain.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(lineID); idx >= 0 {
		return s.items[idx], true
	}
	return domain.LineItem{}, false
}

// ContainsProduct reports whether any line holds the product.
func (s *Store) ContainsProduct(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers h for this cart's events and returns the func that removes it.
func (s *Store) Subscribe(h events.Handler) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = h
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// commit persists next and only then makes it the visible state. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next []domain.LineItem) error {
	if err := storage.SetJSON(ctx, s.storage, s.key, next); err != nil {
		return errors.Wrapf(err, "persist cart %s", s.key)
	}
	s.items = next
	return nil
}

func (s *Store) snapshot() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) indexOf(lineID string) int {
	if lineID == "" {
		return -1
	}
	for i, it := range s.items {
		if it.ID == lineID {
			return i
		}
	}
	return -1
}

// emit runs outside s.mu so handlers may read the cart.
func (s *Store) emit(e events.Event) {
	e.Session = s.session
	e.At = s.now().UTC()

	s.subMu.RLock()
	handlers := make([]events.Handler, 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.subMu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
