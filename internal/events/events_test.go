package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	var got []Type
	unsubscribe := bus.Subscribe(func(e Event) { got = append(got, e.Type) })

	bus.Publish(Event{Type: ItemAdded})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Type: CartCleared})

	assert.Equal(t, []Type{ItemAdded}, got)
}

func TestBus_HandlerMaySubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe(func(Event) {
		calls++
		bus.Subscribe(func(Event) {})
	})
	bus.Publish(Event{Type: ItemRemoved})
	assert.Equal(t, 1, calls)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_KeysBySession(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w, nil)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	p.Handle(Event{Type: ItemAdded, Level: LevelSuccess, Message: "Margarita added to cart", Session: "s-1", ProductID: 7, At: at})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "s-1", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)
	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, ItemAdded, decoded.Type)
	assert.Equal(t, int64(7), decoded.ProductID)
}

func TestKafkaPublisher_WriteErrorIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewKafkaPublisherWithWriter(w, nil)
	assert.NotPanics(t, func() { p.Handle(Event{Type: CartCleared, Session: "s"}) })
	assert.Empty(t, w.msgs)
}
