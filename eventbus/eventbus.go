// Package eventbus implements the fixed-capacity publisher/subscriber ring
// that bridges interrupt handlers and the main loop. Publish takes a brief
// critical section over the ring indices only — never over the measurement
// data path — matching spec.md 5's "critical sections are used sparingly to
// update the event ring's indices."
package eventbus

import (
	"sync"

	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/variant"
)

// QueueCapacity is the fixed number of event slots allocated in the ring.
const QueueCapacity = 16

// UsableCapacity is the number of events Publish will actually accept
// before returning Busy. spec.md 8 scenario 4 is explicit and quantified
// ("publish 15 DataReady events: all return Ok. The 16th returns Busy.")
// even though the general invariant text elsewhere says "up to Q
// publishes" succeed; one slot of QueueCapacity is reserved so the ring's
// full/empty states never collide, matching the literal, testable
// scenario rather than the looser prose.
const UsableCapacity = QueueCapacity - 1

// SubscriberCapacity is the fixed number of subscriber table entries.
const SubscriberCapacity = 32

// Kind tags the category of an Event.
type Kind int

const (
	PropChanged Kind = iota
	DataReady
	StateChanged
	Error
)

// Event is one bus message: a kind, an opaque source handle (the spec's
// "ObjectRef" narrowed to an integer handle per DESIGN NOTES), and a
// payload.
type Event struct {
	Kind    Kind
	Source  uint32
	Payload variant.Variant
}

// Callback is invoked synchronously from Dispatch for every subscriber
// whose filter matches the dispatched event.
type Callback func(ev *Event, ctx any)

// Subscriber is one entry in the fixed subscriber table.
type Subscriber struct {
	hasFilter bool
	filter    uint32
	callback  Callback
	ctx       any
}

func (s Subscriber) matches(ev *Event) bool {
	return !s.hasFilter || s.filter == ev.Source
}

// Bus is the fixed-capacity event ring plus fixed subscriber table. The
// zero value is a ready-to-use, empty bus.
type Bus struct {
	mu    sync.Mutex
	slots [QueueCapacity]Event
	head  int
	count int

	subs    [SubscriberCapacity]Subscriber
	numSubs int

	// dispatching is set for the duration of Dispatch so that Publish
	// calls made from within a subscriber callback can be capped at
	// UsableCapacity per spec.md 4.4.
	dispatching             bool
	publishedDuringDispatch int
}

// Subscribe installs a subscriber with an optional source filter. filter
// is ignored when hasFilter is false, which means "match any source". Returns Error if the table is
// full.
func (b *Bus) Subscribe(filter uint32, hasFilter bool, cb Callback, ctx any) status.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.numSubs >= SubscriberCapacity {
		return status.Error
	}
	b.subs[b.numSubs] = Subscriber{hasFilter: hasFilter, filter: filter, callback: cb, ctx: ctx}
	b.numSubs++
	return status.Ok
}

// Publish enqueues ev. Safe to call from an interrupt-handler equivalent or
// from the main loop; the critical section only touches the ring indices.
// Returns Busy without enqueuing if UsableCapacity events are already
// queued, or if called from inside a subscriber callback that has already
// published UsableCapacity events during the current Dispatch.
func (b *Bus) Publish(ev Event) status.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dispatching && b.publishedDuringDispatch >= UsableCapacity {
		return status.Busy
	}
	if b.count >= UsableCapacity {
		return status.Busy
	}

	tail := (b.head + b.count) % QueueCapacity
	b.slots[tail] = ev
	b.count++
	if b.dispatching {
		b.publishedDuringDispatch++
	}
	return status.Ok
}

// Dispatch drains every currently-queued event in FIFO order, invoking each
// matching subscriber synchronously. Must be called from the main loop.
func (b *Bus) Dispatch() {
	b.mu.Lock()
	b.dispatching = true
	b.publishedDuringDispatch = 0
	b.mu.Unlock()

	for {
		b.mu.Lock()
		if b.count == 0 {
			b.dispatching = false
			b.mu.Unlock()
			return
		}
		ev := b.slots[b.head]
		b.head = (b.head + 1) % QueueCapacity
		b.count--
		subs := b.subs
		n := b.numSubs
		b.mu.Unlock()

		for i := 0; i < n; i++ {
			if subs[i].matches(&ev) {
				subs[i].callback(&ev, subs[i].ctx)
			}
		}
	}
}

// Pending reports how many events are currently queued.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
