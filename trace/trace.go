// Package trace implements the semantic measurement-point container a
// channel publishes into: a fixed-capacity array of (stimulus, response)
// pairs with a zero-copy accessor and a bounded copy-in path. A Trace owns
// its storage for the lifetime of the channel that publishes into it.
package trace

import (
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
)

// Format tags the semantic type of Y-axis data a Trace holds.
type Format int

const (
	Complex Format = iota
	Real
)

// Trace is caller-allocated storage: NewTraceComplex/NewTraceReal are given
// the backing arrays and the trace never grows them.
type Trace struct {
	format Format
	x      []kernel.R // stimulus axis, capacity-bound
	yC     []kernel.C // response axis when format == Complex
	yR     []kernel.R // response axis when format == Real
	count  int
}

// NewTraceComplex wraps caller-provided storage for a Complex-format trace.
// x, y must have equal length; that length is the trace's capacity.
func NewTraceComplex(x []kernel.R, y []kernel.C) *Trace {
	return &Trace{format: Complex, x: x, yC: y}
}

// NewTraceReal wraps caller-provided storage for a Real-format trace.
func NewTraceReal(x []kernel.R, y []kernel.R) *Trace {
	return &Trace{format: Real, x: x, yR: y}
}

func (t *Trace) Format() Format { return t.format }
func (t *Trace) Count() int     { return t.count }
func (t *Trace) Capacity() int  { return len(t.x) }

// Axes returns zero-copy views of the populated portion of the stimulus and
// complex response axes. Valid only when Format() == Complex.
func (t *Trace) Axes() (x []kernel.R, y []kernel.C, n int) {
	return t.x[:t.count], t.yC[:t.count], t.count
}

// AxesReal returns zero-copy views of the populated portion of the stimulus
// and real response axes. Valid only when Format() == Real.
func (t *Trace) AxesReal() (x []kernel.R, y []kernel.R, n int) {
	return t.x[:t.count], t.yR[:t.count], t.count
}

// Reset clears the trace back to zero points without touching capacity.
func (t *Trace) Reset() { t.count = 0 }

// PushComplex appends one (stimulus, response) point. Returns Error without
// mutating if the trace is at capacity or is not Complex-format.
func (t *Trace) PushComplex(stimulus kernel.R, response kernel.C) status.Status {
	if t.format != Complex || t.count >= len(t.x) {
		return status.Error
	}
	t.x[t.count] = stimulus
	t.yC[t.count] = response
	t.count++
	return status.Ok
}

// PushReal appends one (stimulus, response) point. Returns Error without
// mutating if the trace is at capacity or is not Real-format.
func (t *Trace) PushReal(stimulus, response kernel.R) status.Status {
	if t.format != Real || t.count >= len(t.x) {
		return status.Error
	}
	t.x[t.count] = stimulus
	t.yR[t.count] = response
	t.count++
	return status.Ok
}

// SetPointComplex overwrites the point at index idx, for callers that write
// one point per sweep step rather than appending. Count grows to idx+1 when
// idx is at or past the current count and is unchanged otherwise.
func (t *Trace) SetPointComplex(idx int, stimulus kernel.R, response kernel.C) status.Status {
	if t.format != Complex || idx < 0 || idx >= len(t.x) {
		return status.Error
	}
	t.x[idx] = stimulus
	t.yC[idx] = response
	if idx >= t.count {
		t.count = idx + 1
	}
	return status.Ok
}
