// Package pipeline implements the static, zero-allocation chain of
// processing nodes that turns raw ADC samples into a calibrated
// measurement point. Per spec.md 9's design note, nodes are a tagged
// variant (NodeKind + one state struct per kind) dispatched through a
// single switch in Process, not a function-pointer/vtable per node — this
// keeps every node's state layout statically analyzable and avoids
// indirect calls on the hot path.
package pipeline

import (
	"math"

	"github.com/samoyed-instruments/meascore/block"
	"github.com/samoyed-instruments/meascore/calibration"
	"github.com/samoyed-instruments/meascore/dsp"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/trace"
)

// NodeKind tags which of a Node's state fields is active.
type NodeKind int

const (
	Gain NodeKind = iota
	Linear
	Window
	FFT
	Magnitude
	LogMag
	Phase
	GroupDelay
	EMA
	DDC
	SParam
	Calibration
	Rotate
	WaveGen
	TraceSink
)

// gainState holds the Gain node's single scalar multiplier.
type gainState struct {
	K kernel.R
}

// linearState holds the Linear node's affine coefficients: out = a*in + b.
type linearState struct {
	A, B kernel.R
}

// windowState holds the Window node's shape selector.
type windowState struct {
	Kind dsp.WindowKind
}

// fftState holds one FFT node's context plus its caller-sized twiddle
// scratch (configure-time allocation only; FFTExec itself never allocates).
type fftState struct {
	Ctx     dsp.FFTContext
	Length  int
	Inverse bool
}

// magnitudeState holds the Magnitude node's dedicated output buffer. Per
// spec.md 9's open question, this node returns a new block in its own
// scratch rather than reinterpreting the input buffer's bytes as reals.
type magnitudeState struct {
	Out []kernel.R
}

// logMagState is stateless; LogMag has no configuration beyond the fixed
// -140dB floor, but the struct exists so Node's layout stays uniform.
type logMagState struct{}

// phaseState mirrors magnitudeState: Phase also changes element type and
// gets its own output scratch.
type phaseState struct {
	Out []kernel.R
}

// groupDelayState holds the running phase-unwrap state GroupDelay needs
// between samples.
type groupDelayState struct {
	PrevPhase kernel.R
	DeltaOmega kernel.R
	First     bool
}

// emaState holds the EMA node's smoothing factor and running average.
type emaState struct {
	Alpha   kernel.R
	current kernel.R
	init    bool
}

// ddcState holds the DDC node's persistent accumulators and a reference to
// the shared sine table plus the per-pair LO phase step.
type ddcState struct {
	Table     *dsp.SineTable
	PhaseStep int
	acc       dsp.DDCAccum
}

// sparamState is the SParam node's cached last result.
type sparamState struct {
	lastGamma kernel.C
}

// calibrationState holds the node's reference to a (possibly nil)
// Calibration and the scratch buffer used when the node sees an array
// input rather than a single Gamma value.
type calibrationState struct {
	Cal     *calibration.Calibration
	ArrayOut []kernel.C
}

// rotateState holds the Rotate node's fixed electrical-delay compensation
// and the per-run stimulus frequency the channel sets before each Process
// call, mirroring how traceSinkState.Stimulus is refreshed per point.
type rotateState struct {
	TauSeconds kernel.R
	FreqHz     kernel.R
}

// waveGenState holds the WaveGen node's generator configuration and phase
// accumulator, grounded on the same phase-step-per-sample technique as
// dsp.DDS but producing kernel.R samples directly into the node's own
// output buffer.
type waveGenState struct {
	FreqHz     kernel.R
	SampleRate kernel.R
	Kind       dsp.WaveKind
	Out        []kernel.R
	phase      uint32
}

// traceSinkState holds the node's bound trace and the stimulus axis the
// channel sets before each run. Stimulus is used for single-value (Gamma)
// results; StartHz/BinHz are used to lay out a multi-point Real result (a
// whole spectrum frame from one FFT) across the trace's X axis.
type traceSinkState struct {
	Trace    *trace.Trace
	Stimulus kernel.R
	StartHz  kernel.R
	BinHz    kernel.R
}

// Node is a tagged-variant processing step. All state lives in the struct
// itself (caller-provided backing arrays aside); there is no heap
// allocation in Process or Reset.
type Node struct {
	Kind NodeKind
	Next *Node

	gain        gainState
	linear      linearState
	window      windowState
	fft         fftState
	magnitude   magnitudeState
	logMag      logMagState
	phase       phaseState
	groupDelay  groupDelayState
	ema         emaState
	ddc         ddcState
	sparam      sparamState
	calibration calibrationState
	rotate      rotateState
	waveGen     waveGenState
	traceSink   traceSinkState
}

// NewGain returns a configured Gain node.
func NewGain(k kernel.R) *Node { return &Node{Kind: Gain, gain: gainState{K: k}} }

// NewLinear returns a configured Linear node: out = a*in + b.
func NewLinear(a, b kernel.R) *Node { return &Node{Kind: Linear, linear: linearState{A: a, B: b}} }

// NewWindow returns a configured Window node.
func NewWindow(kind dsp.WindowKind) *Node { return &Node{Kind: Window, window: windowState{Kind: kind}} }

// NewFFT returns a configured FFT node. twiddleScratch must have capacity
// length/2 and is owned by the node for its lifetime.
func NewFFT(length int, inverse bool, twiddleScratch []kernel.C) (*Node, status.Status) {
	n := &Node{Kind: FFT, fft: fftState{Length: length, Inverse: inverse}}
	st := dsp.FFTInit(&n.fft.Ctx, length, inverse, twiddleScratch)
	return n, st
}

// NewMagnitude returns a configured Magnitude node. out must have capacity
// for the expected input length.
func NewMagnitude(out []kernel.R) *Node { return &Node{Kind: Magnitude, magnitude: magnitudeState{Out: out}} }

// NewLogMag returns a configured LogMag node.
func NewLogMag() *Node { return &Node{Kind: LogMag} }

// NewPhase returns a configured Phase node.
func NewPhase(out []kernel.R) *Node { return &Node{Kind: Phase, phase: phaseState{Out: out}} }

// NewGroupDelay returns a configured GroupDelay node.
func NewGroupDelay(deltaOmega kernel.R) *Node {
	return &Node{Kind: GroupDelay, groupDelay: groupDelayState{DeltaOmega: deltaOmega, First: true}}
}

// NewEMA returns a configured EMA node.
func NewEMA(alpha kernel.R) *Node { return &Node{Kind: EMA, ema: emaState{Alpha: alpha}} }

// NewDDC returns a configured DDC node bound to the shared sine table.
func NewDDC(table *dsp.SineTable, phaseStep int) *Node {
	return &Node{Kind: DDC, ddc: ddcState{Table: table, PhaseStep: phaseStep}}
}

// NewSParam returns a configured SParam node.
func NewSParam() *Node { return &Node{Kind: SParam} }

// NewCalibration returns a configured Calibration node. cal may be nil for
// a pass-through. arrayOut is only used if the node ever sees an array
// input; it may be nil if the channel only feeds single Gamma values.
func NewCalibration(cal *calibration.Calibration, arrayOut []kernel.C) *Node {
	return &Node{Kind: Calibration, calibration: calibrationState{Cal: cal, ArrayOut: arrayOut}}
}

// NewRotate returns a configured Rotate node that compensates a fixed
// electrical delay (tauSeconds) by derotating each Gamma result, using the
// stimulus frequency the channel sets via SetStimulus before each run.
func NewRotate(tauSeconds kernel.R) *Node {
	return &Node{Kind: Rotate, rotate: rotateState{TauSeconds: tauSeconds}}
}

// NewWaveGen returns a configured WaveGen node.
func NewWaveGen(freqHz, sampleRate kernel.R, kind dsp.WaveKind, out []kernel.R) *Node {
	return &Node{Kind: WaveGen, waveGen: waveGenState{FreqHz: freqHz, SampleRate: sampleRate, Kind: kind, Out: out}}
}

// NewTraceSink returns a configured TraceSink node bound to tr.
func NewTraceSink(tr *trace.Trace) *Node {
	return &Node{Kind: TraceSink, traceSink: traceSinkState{Trace: tr}}
}

// SetStimulus updates the stimulus value a bound TraceSink node records with
// the next pushed point, or the frequency a Rotate node derotates at. No-op
// on any other node kind.
func (n *Node) SetStimulus(x kernel.R) {
	switch n.Kind {
	case TraceSink:
		n.traceSink.Stimulus = x
	case Rotate:
		n.rotate.FreqHz = x
	}
}

// SetAxis configures the frequency axis a bound TraceSink node lays a
// multi-point spectrum frame out on: bin i is recorded at startHz +
// i*binHz. No-op on any other node kind.
func (n *Node) SetAxis(startHz, binHz kernel.R) {
	if n.Kind == TraceSink {
		n.traceSink.StartHz = startHz
		n.traceSink.BinHz = binHz
	}
}

// Reset restores a node's internal state to its post-configure value. It
// never reallocates backing storage (Out/twiddle/table references survive).
func (n *Node) Reset() {
	switch n.Kind {
	case GroupDelay:
		n.groupDelay.PrevPhase = 0
		n.groupDelay.First = true
	case EMA:
		n.ema.current = 0
		n.ema.init = false
	case DDC:
		n.ddc.acc.Reset()
	case WaveGen:
		n.waveGen.phase = 0
	case SParam:
		n.sparam.lastGamma = kernel.C{}
	}
}

// Process runs one node over in, producing its output block. It never
// allocates: array-producing kinds write into the scratch the node was
// configured with and wrap it in a new block.Block header.
func (n *Node) Process(in block.Block) (block.Block, status.Status) {
	switch n.Kind {
	case Gain:
		return n.processGain(in)
	case Linear:
		return n.processLinear(in)
	case Window:
		return n.processWindow(in)
	case FFT:
		return n.processFFT(in)
	case Magnitude:
		return n.processMagnitude(in)
	case LogMag:
		return n.processLogMag(in)
	case Phase:
		return n.processPhase(in)
	case GroupDelay:
		return n.processGroupDelay(in)
	case EMA:
		return n.processEMA(in)
	case DDC:
		return n.processDDC(in)
	case SParam:
		return n.processSParam(in)
	case Calibration:
		return n.processCalibration(in)
	case Rotate:
		return n.processRotate(in)
	case WaveGen:
		return n.processWaveGen(in)
	case TraceSink:
		return n.processTraceSink(in)
	default:
		return block.Block{}, status.Error
	}
}

func (n *Node) processGain(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindReal {
		return block.Block{}, status.Error
	}
	for i := range in.Reals {
		in.Reals[i] *= n.gain.K
	}
	return in, status.Ok
}

func (n *Node) processLinear(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindReal {
		return block.Block{}, status.Error
	}
	for i := range in.Reals {
		in.Reals[i] = in.Reals[i]*n.linear.A + n.linear.B
	}
	return in, status.Ok
}

func (n *Node) processWindow(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindReal {
		return block.Block{}, status.Error
	}
	dsp.ApplyWindow(in.Reals, n.window.Kind)
	return in, status.Ok
}

func (n *Node) processFFT(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindComplex || len(in.Complexes) < n.fft.Length {
		return block.Block{}, status.Error
	}
	st := dsp.FFTExec(&n.fft.Ctx, in.Complexes[:n.fft.Length], in.Complexes[:n.fft.Length])
	return in, st
}

func (n *Node) processMagnitude(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindComplex || len(n.magnitude.Out) < len(in.Complexes) {
		return block.Block{}, status.Error
	}
	out := n.magnitude.Out[:len(in.Complexes)]
	for i, c := range in.Complexes {
		out[i] = kernel.Magnitude(c)
	}
	return block.RealBlock(in.SourceID, in.Sequence, out), status.Ok
}

// logMagFloorDB is the clamp spec.md 4.3 edge case (2) requires for
// non-positive input.
const logMagFloorDB kernel.R = -140

func (n *Node) processLogMag(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindReal {
		return block.Block{}, status.Error
	}
	for i, v := range in.Reals {
		if v <= 0 {
			in.Reals[i] = logMagFloorDB
			continue
		}
		db := 20 * kernel.Log10(v)
		if db < logMagFloorDB {
			db = logMagFloorDB
		}
		in.Reals[i] = db
	}
	return in, status.Ok
}

func (n *Node) processPhase(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindComplex || len(n.phase.Out) < len(in.Complexes) {
		return block.Block{}, status.Error
	}
	out := n.phase.Out[:len(in.Complexes)]
	for i, c := range in.Complexes {
		out[i] = kernel.Argument(c)
	}
	return block.RealBlock(in.SourceID, in.Sequence, out), status.Ok
}

func (n *Node) processGroupDelay(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindReal {
		return block.Block{}, status.Error
	}
	for i, phase := range in.Reals {
		if n.groupDelay.First {
			in.Reals[i] = 0
			n.groupDelay.First = false
			n.groupDelay.PrevPhase = phase
			continue
		}
		delta := phase - n.groupDelay.PrevPhase
		// Unwrap to the principal range (-pi, pi].
		for delta > math.Pi {
			delta -= 2 * math.Pi
		}
		for delta <= -math.Pi {
			delta += 2 * math.Pi
		}
		in.Reals[i] = -delta / n.groupDelay.DeltaOmega
		n.groupDelay.PrevPhase = phase
	}
	return in, status.Ok
}

func (n *Node) processEMA(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindReal {
		return block.Block{}, status.Error
	}
	for i, v := range in.Reals {
		if !n.ema.init {
			n.ema.current = v
			n.ema.init = true
		} else {
			n.ema.current += n.ema.Alpha * (v - n.ema.current)
		}
		in.Reals[i] = n.ema.current
	}
	return in, status.Ok
}

func (n *Node) processDDC(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindSample {
		return block.Block{}, status.Error
	}
	n.ddc.acc.Reset()
	st := dsp.MixDown(in.Samples, 0, n.ddc.PhaseStep, n.ddc.Table, &n.ddc.acc)
	if st != status.Ok {
		return block.Block{}, st
	}
	val := block.DDCAccumValue{AccI: n.ddc.acc.AccI, AccQ: n.ddc.acc.AccQ, RefI: n.ddc.acc.RefI, RefQ: n.ddc.acc.RefQ}
	return block.AccumBlock(in.SourceID, in.Sequence, val), status.Ok
}

func (n *Node) processSParam(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindDDCAccum {
		return block.Block{}, status.Error
	}
	acc := dsp.DDCAccum{AccI: in.Accum.AccI, AccQ: in.Accum.AccQ, RefI: in.Accum.RefI, RefQ: in.Accum.RefQ}
	gamma := dsp.Gamma(acc)
	n.sparam.lastGamma = gamma
	return block.GammaBlock(in.SourceID, in.Sequence, gamma), status.Ok
}

func (n *Node) processCalibration(in block.Block) (block.Block, status.Status) {
	return calibration.Apply(n.calibration.Cal, in)
}

func (n *Node) processRotate(in block.Block) (block.Block, status.Status) {
	if in.Kind != block.KindGamma {
		return block.Block{}, status.Error
	}
	gamma := in.Gamma
	dsp.RotatePhase(&gamma, n.rotate.FreqHz, n.rotate.TauSeconds)
	return block.GammaBlock(in.SourceID, in.Sequence, gamma), status.Ok
}

func (n *Node) processWaveGen(in block.Block) (block.Block, status.Status) {
	if len(n.waveGen.Out) == 0 {
		return block.Block{}, status.Error
	}
	step := uint32(n.waveGen.FreqHz / n.waveGen.SampleRate * 4294967296.0)
	for i := range n.waveGen.Out {
		n.waveGen.Out[i] = waveSample(n.waveGen.Kind, n.waveGen.phase)
		n.waveGen.phase += step
	}
	return block.RealBlock(0, in.Sequence, n.waveGen.Out), status.Ok
}

func waveSample(kind dsp.WaveKind, phase uint32) kernel.R {
	frac := kernel.R(phase) / 4294967296.0
	switch kind {
	case dsp.Square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case dsp.Triangle:
		if frac < 0.5 {
			return -1 + 4*frac
		}
		return 3 - 4*frac
	case dsp.Sawtooth:
		return 2*frac - 1
	default:
		sin, _ := kernel.Sincos(2 * math.Pi * frac)
		return sin
	}
}

func (n *Node) processTraceSink(in block.Block) (block.Block, status.Status) {
	ts := &n.traceSink
	if ts.Trace == nil {
		return in, status.Ok
	}
	switch in.Kind {
	case block.KindGamma:
		if st := ts.Trace.PushComplex(ts.Stimulus, in.Gamma); st != status.Ok {
			return block.Block{}, st
		}
	case block.KindReal:
		if len(in.Reals) == 0 {
			return block.Block{}, status.Error
		}
		if len(in.Reals) == 1 {
			if st := ts.Trace.PushReal(ts.Stimulus, in.Reals[0]); st != status.Ok {
				return block.Block{}, st
			}
			break
		}
		for i, v := range in.Reals {
			hz := ts.StartHz + kernel.R(i)*ts.BinHz
			if st := ts.Trace.PushReal(hz, v); st != status.Ok {
				return block.Block{}, st
			}
		}
	default:
		return block.Block{}, status.Error
	}
	return in, status.Ok
}
