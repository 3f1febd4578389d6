package eventbus

import (
	"testing"

	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Publish_FillsThenReturnsBusy(t *testing.T) {
	var b Bus
	for i := 0; i < UsableCapacity; i++ {
		require.Equal(t, status.Ok, b.Publish(Event{Kind: DataReady}))
	}
	assert.Equal(t, status.Busy, b.Publish(Event{Kind: DataReady}))
	assert.Equal(t, UsableCapacity, b.Pending())
}

func Test_Dispatch_FreesCapacityForMorePublishes(t *testing.T) {
	var b Bus
	for i := 0; i < UsableCapacity; i++ {
		require.Equal(t, status.Ok, b.Publish(Event{Kind: DataReady}))
	}
	require.Equal(t, status.Busy, b.Publish(Event{Kind: DataReady}))

	b.Dispatch()

	assert.Equal(t, status.Ok, b.Publish(Event{Kind: DataReady}))
}

func Test_Dispatch_DeliversExactlyOnceToEachMatchingSubscriber(t *testing.T) {
	var b Bus
	var countAny, countFiltered int
	require.Equal(t, status.Ok, b.Subscribe(0, false, func(ev *Event, ctx any) { countAny++ }, nil))
	require.Equal(t, status.Ok, b.Subscribe(7, true, func(ev *Event, ctx any) { countFiltered++ }, nil))

	require.Equal(t, status.Ok, b.Publish(Event{Kind: PropChanged, Source: 7}))
	require.Equal(t, status.Ok, b.Publish(Event{Kind: PropChanged, Source: 9}))

	b.Dispatch()

	assert.Equal(t, 2, countAny)
	assert.Equal(t, 1, countFiltered)
}

func Test_Dispatch_FIFOOrder(t *testing.T) {
	var b Bus
	var seen []uint32
	require.Equal(t, status.Ok, b.Subscribe(0, false, func(ev *Event, ctx any) {
		seen = append(seen, ev.Source)
	}, nil))

	for i := uint32(0); i < 5; i++ {
		require.Equal(t, status.Ok, b.Publish(Event{Kind: DataReady, Source: i}))
	}
	b.Dispatch()

	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, seen)
}

func Test_Dispatch_CapsSubscriberRepublishing(t *testing.T) {
	var b Bus
	var busyCount int
	require.Equal(t, status.Ok, b.Subscribe(0, false, func(ev *Event, ctx any) {
		for i := 0; i < QueueCapacity; i++ {
			if b.Publish(Event{Kind: StateChanged}) == status.Busy {
				busyCount++
			}
		}
	}, nil))

	require.Equal(t, status.Ok, b.Publish(Event{Kind: DataReady}))
	b.Dispatch()

	assert.Greater(t, busyCount, 0)
}

func Test_EventPayloadCarriesVariant(t *testing.T) {
	var b Bus
	var got variant.Variant
	require.Equal(t, status.Ok, b.Subscribe(0, false, func(ev *Event, ctx any) { got = ev.Payload }, nil))
	require.Equal(t, status.Ok, b.Publish(Event{Kind: Error, Payload: variant.Int64(42)}))
	b.Dispatch()

	v, ok := got.AsInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
}
