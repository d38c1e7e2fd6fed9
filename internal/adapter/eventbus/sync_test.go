package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/logger"
)

func newTestBus(t *testing.T) *SyncEventBus {
	t.Helper()
	bus := NewSyncEventBus(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestSyncEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var got []domain.Event
	id := bus.Subscribe(domain.EventShuffleToggled, func(e domain.Event) {
		got = append(got, e)
	})
	require.NotEmpty(t, id)

	bus.Publish(domain.NewShuffleToggledEvent(true))
	bus.Publish(domain.NewMuteToggledEvent(true))

	require.Len(t, got, 1)
	ev, ok := got[0].(domain.ShuffleToggledEvent)
	require.True(t, ok)
	assert.True(t, ev.Enabled)
	assert.False(t, ev.Timestamp().IsZero())
}

func TestSyncEventBus_DeliveryOrder(t *testing.T) {
	bus := newTestBus(t)

	var order []string
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventRepeatChanged, func(domain.Event) { order = append(order, "first") })
	bus.Subscribe(domain.EventRepeatChanged, func(domain.Event) { order = append(order, "second") })

	bus.Publish(domain.NewRepeatChangedEvent(domain.RepeatAll))

	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestSyncEventBus_Unsubscribe(t *testing.T) {
	bus := newTestBus(t)

	var a, b, all int
	idA := bus.Subscribe(domain.EventMuteToggled, func(domain.Event) { a++ })
	bus.Subscribe(domain.EventMuteToggled, func(domain.Event) { b++ })
	idAll := bus.SubscribeAll(func(domain.Event) { all++ })
	assert.Equal(t, 3, bus.SubscriberCount())

	bus.Unsubscribe(idA)
	bus.Unsubscribe(idAll)
	bus.Unsubscribe("sub-does-not-exist")
	bus.Publish(domain.NewMuteToggledEvent(false))

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 0, all)
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestSyncEventBus_PanickingHandler(t *testing.T) {
	bus := newTestBus(t)

	called := false
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { called = true })

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewVolumeChangedEvent(0.4))
	})
	assert.True(t, called)
}

func TestSyncEventBus_HandlerMayResubscribe(t *testing.T) {
	bus := newTestBus(t)

	var inner int
	bus.Subscribe(domain.EventQueueChanged, func(domain.Event) {
		bus.Subscribe(domain.EventQueueChanged, func(domain.Event) { inner++ })
	})

	bus.Publish(domain.NewQueueChangedEvent(nil))
	assert.Equal(t, 0, inner, "handler added during delivery must not see the same event")

	bus.Publish(domain.NewQueueChangedEvent(nil))
	assert.Equal(t, 1, inner)
}

func TestSyncEventBus_HasSubscribers(t *testing.T) {
	bus := newTestBus(t)

	assert.False(t, bus.HasSubscribers(domain.EventTrackChanged))
	id := bus.Subscribe(domain.EventTrackChanged, func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackChanged))
	assert.False(t, bus.HasSubscribers(domain.EventTrackProgress))

	bus.Unsubscribe(id)
	bus.SubscribeAll(func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackProgress))
}

func TestSyncEventBus_Close(t *testing.T) {
	bus := NewSyncEventBus(nil)

	var n int
	bus.Subscribe(domain.EventMuteToggled, func(domain.Event) { n++ })
	require.NoError(t, bus.Close())

	bus.Publish(domain.NewMuteToggledEvent(true))
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, bus.SubscriberCount())
	assert.ErrorIs(t, bus.Close(), ErrBusClosed)
	assert.Panics(t, func() {
		bus.Subscribe(domain.EventMuteToggled, func(domain.Event) {})
	})
}

func TestSyncEventBus_NilArguments(t *testing.T) {
	bus := newTestBus(t)

	assert.NotPanics(t, func() { bus.Publish(nil) })
	assert.Panics(t, func() { bus.Subscribe(domain.EventMuteToggled, nil) })
	assert.Panics(t, func() { bus.SubscribeAll(nil) })
}

func TestSyncEventBus_ConcurrentPublish(t *testing.T) {
	bus := newTestBus(t)

	var count atomic.Int64
	bus.Subscribe(domain.EventTrackProgress, func(domain.Event) { count.Add(1) })

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				bus.Publish(domain.NewTrackProgressEvent(0, 0))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), count.Load())
}
