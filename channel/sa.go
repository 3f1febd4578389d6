package channel

import (
	"sync/atomic"

	"github.com/samoyed-instruments/meascore/block"
	"github.com/samoyed-instruments/meascore/dsp"
	"github.com/samoyed-instruments/meascore/eventbus"
	"github.com/samoyed-instruments/meascore/hal"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/pipeline"
	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/trace"
	"github.com/samoyed-instruments/meascore/variant"
)

// DefaultFFTLength is the SA channel's default acquisition/FFT block size.
const DefaultFFTLength = 1024

var _ Contract = (*SA)(nil)

// SA is the spectrum-analyzer sweep state machine. Its pipeline is Window
// -> FFT -> Magnitude -> LogMag -> TraceSink; acquisition block size equals
// the configured FFT length. The node catalog's Window/FFT stages operate
// on different element types (real, then complex); this channel performs
// the real->complex lift itself between those two stages rather than
// adding an implicit type-changing catalog node, per the explicit-block
// resolution spec.md 9 calls for.
type SA struct {
	ChannelID uint32

	Bus   *eventbus.Bus
	Synth hal.Synthesizer
	RX    hal.Receiver

	FFTLength  int
	WindowKind dsp.WindowKind
	CenterHz   kernel.R
	SampleRate kernel.R

	Trace *trace.Trace

	userBuffer   []int16
	activeBuffer []int16
	dataReady    atomic.Bool

	state State

	realScratch    []kernel.R
	complexScratch []kernel.C
	twiddle        []kernel.C

	windowNode *pipeline.Node
	specChain  pipeline.Chain
	sinkNode   *pipeline.Node
}

// Configure initializes every node and binds the trace sink.
func (c *SA) Configure() status.Status {
	if c.FFTLength == 0 {
		c.FFTLength = DefaultFFTLength
	}
	if c.realScratch == nil {
		c.realScratch = make([]kernel.R, c.FFTLength)
	}
	if c.complexScratch == nil {
		c.complexScratch = make([]kernel.C, c.FFTLength)
	}
	if c.twiddle == nil {
		c.twiddle = make([]kernel.C, c.FFTLength/2)
	}

	c.windowNode = pipeline.NewWindow(c.WindowKind)

	fftNode, st := pipeline.NewFFT(c.FFTLength, false, c.twiddle)
	if st != status.Ok {
		return st
	}
	magOut := make([]kernel.R, c.FFTLength)
	magNode := pipeline.NewMagnitude(magOut)
	logMagNode := pipeline.NewLogMag()
	c.sinkNode = pipeline.NewTraceSink(c.Trace)

	c.specChain = pipeline.Chain{}
	c.specChain.Append(fftNode)
	c.specChain.Append(magNode)
	c.specChain.Append(logMagNode)
	c.specChain.Append(c.sinkNode)

	c.state = Idle
	return status.Ok
}

func (c *SA) validate() status.Status {
	if c.FFTLength <= 0 {
		return status.Error
	}
	if c.SampleRate <= 0 {
		return status.Error
	}
	return status.Ok
}

// StartSweep validates configuration and transitions Idle -> Setup.
func (c *SA) StartSweep() status.Status {
	if st := c.validate(); st != status.Ok {
		return st
	}
	if c.Trace != nil {
		c.Trace.Reset()
	}
	c.windowNode.Reset()
	c.specChain.Reset()
	c.state = Setup
	return status.Ok
}

// AbortSweep forces Idle from any state.
func (c *SA) AbortSweep() status.Status {
	if c.RX != nil {
		c.RX.Stop()
	}
	c.activeBuffer = nil
	c.dataReady.Store(false)
	c.state = Idle
	return status.Ok
}

func (c *SA) State() State { return c.state }

// OnDataReady mirrors VNA.OnDataReady.
func (c *SA) OnDataReady(ptr []int16) {
	if ptr != nil {
		c.activeBuffer = ptr
	}
	c.dataReady.Store(true)
}

// Tick advances the state machine by one non-blocking step.
func (c *SA) Tick() status.Status {
	switch c.state {
	case Idle:
		return status.Ok

	case Setup:
		if c.Synth != nil {
			if st := c.Synth.SetFrequency(c.CenterHz); st != status.Ok {
				return c.fail(st)
			}
		}
		c.state = Acquire
		return status.Ok

	case Acquire:
		c.dataReady.Store(false)
		if c.RX != nil && c.userBuffer != nil {
			if st := c.RX.Start(c.userBuffer); st != status.Ok {
				return c.fail(st)
			}
		}
		c.state = WaitDma
		return status.Ok

	case WaitDma:
		if c.dataReady.Load() {
			c.state = Process
		}
		return status.Ok

	case Process:
		buf := c.activeBuffer
		if buf == nil {
			buf = c.userBuffer
		}
		if buf != nil && len(buf) >= c.FFTLength {
			if st := c.runSpectrum(buf); st != status.Ok {
				return c.fail(st)
			}
		}
		c.activeBuffer = nil
		if c.Bus != nil {
			c.Bus.Publish(eventbus.Event{Kind: eventbus.DataReady, Source: c.ChannelID})
		}
		c.state = Next

	case Next:
		c.state = Idle
		if c.Bus != nil {
			c.Bus.Publish(eventbus.Event{Kind: eventbus.StateChanged, Source: c.ChannelID})
		}
	}
	return status.Ok
}

func (c *SA) runSpectrum(buf []int16) status.Status {
	for i := 0; i < c.FFTLength; i++ {
		c.realScratch[i] = kernel.R(buf[i]) / 32768
	}
	windowed, st := c.windowNode.Process(block.RealBlock(c.ChannelID, 0, c.realScratch))
	if st != status.Ok {
		return st
	}
	for i, v := range windowed.Reals {
		c.complexScratch[i] = kernel.C{Re: v}
	}
	binHz := c.SampleRate / kernel.R(c.FFTLength)
	c.sinkNode.SetAxis(c.CenterHz-c.SampleRate/2, binHz)
	_, st = c.specChain.Run(block.ComplexBlock(c.ChannelID, 0, c.complexScratch))
	return st
}

func (c *SA) fail(st status.Status) status.Status {
	c.state = Idle
	if c.Bus != nil {
		c.Bus.Publish(eventbus.Event{Kind: eventbus.Error, Source: c.ChannelID, Payload: variant.Int64(int64(st))})
	}
	return st
}

// SetProperty implements Contract. The SA channel exposes a narrower
// surface than VNA (no point-count sweep); unrecognized identifiers,
// including VNA-only ones, return Error.
func (c *SA) SetProperty(id PropertyID, v variant.Variant) status.Status {
	switch id {
	case PropBufferPtr:
		p, ok := v.AsPtr()
		if !ok {
			return status.Error
		}
		buf, ok := p.([]int16)
		if !ok {
			return status.Error
		}
		c.userBuffer = buf
		return status.Ok
	default:
		return status.Error
	}
}

// GetProperty implements Contract.
func (c *SA) GetProperty(id PropertyID) (variant.Variant, status.Status) {
	switch id {
	case PropBufferPtr:
		return variant.Ptr(c.userBuffer), status.Ok
	case PropBufferCap:
		return variant.Int64(int64(len(c.userBuffer))), status.Ok
	default:
		return variant.Variant{}, status.Error
	}
}
