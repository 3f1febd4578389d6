// Package core implements the single-threaded cooperative superloop that
// ties the event bus and the channel state machines together: drain
// queued events, tick every registered channel once, then invoke the
// idle hook. Per spec.md's scheduling model, one logical task (this loop)
// owns all mutable framework state; interrupt handlers only publish
// events and set atomic flags.
package core

import (
	"github.com/samoyed-instruments/meascore/channel"
	"github.com/samoyed-instruments/meascore/eventbus"
	"github.com/samoyed-instruments/meascore/status"
)

// IdleFunc is invoked once per superloop iteration after every channel has
// ticked. A typical binding services the host link or enters a low-power
// wait; the zero value is a no-op.
type IdleFunc func()

// Scheduler owns the event bus and the fixed set of channels it drives.
// Channels are registered at construction time; the superloop never
// allocates once Run starts.
type Scheduler struct {
	Bus      *eventbus.Bus
	channels []channel.Contract
	idle     IdleFunc

	iterations uint64
}

// New returns a Scheduler bound to bus, driving channels in registration
// order every iteration. idle may be nil.
func New(bus *eventbus.Bus, idle IdleFunc, channels ...channel.Contract) *Scheduler {
	return &Scheduler{Bus: bus, channels: channels, idle: idle}
}

// Step runs exactly one superloop iteration: dispatch pending events, tick
// every channel once, then invoke the idle hook. It never blocks.
func (s *Scheduler) Step() {
	if s.Bus != nil {
		s.Bus.Dispatch()
	}
	for _, c := range s.channels {
		c.Tick()
	}
	s.iterations++
	if s.idle != nil {
		s.idle()
	}
}

// Run calls Step until stop reports true, checked once per iteration before
// the idle hook's side effects would otherwise repeat unbounded. Passing a
// stop that never returns true runs forever, matching firmware's superloop
// which never returns.
func (s *Scheduler) Run(stop func() bool) {
	for {
		if stop != nil && stop() {
			return
		}
		s.Step()
	}
}

// Iterations returns the number of completed Step calls, for tests and
// diagnostics.
func (s *Scheduler) Iterations() uint64 { return s.iterations }

// AnyBusy reports whether at least one channel is outside Idle, useful for
// a stop predicate in tests ("run until every channel settles").
func (s *Scheduler) AnyBusy() bool {
	for _, c := range s.channels {
		if c.State() != channel.Idle {
			return true
		}
	}
	return false
}

// allIdle is a convenience stop predicate: stop once every channel is Idle.
func (s *Scheduler) allIdle() bool { return !s.AnyBusy() }

// RunUntilIdle steps the scheduler until every channel returns to Idle, with
// a hard iteration cap to avoid spinning forever on a misbehaving channel.
func (s *Scheduler) RunUntilIdle(maxIterations uint64) status.Status {
	for i := uint64(0); i < maxIterations; i++ {
		s.Step()
		if s.allIdle() {
			return status.Ok
		}
	}
	return status.Error
}
