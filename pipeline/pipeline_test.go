package pipeline

import (
	"math"
	"testing"

	"github.com/samoyed-instruments/meascore/block"
	"github.com/samoyed-instruments/meascore/calibration"
	"github.com/samoyed-instruments/meascore/dsp"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Gain_Stateless_Idempotent(t *testing.T) {
	n := NewGain(2)
	in1 := block.RealBlock(0, 0, []kernel.R{1, 2, 3})
	out1, st := n.Process(in1)
	require.Equal(t, status.Ok, st)
	n.Reset()

	in2 := block.RealBlock(0, 0, []kernel.R{1, 2, 3})
	out2, st := n.Process(in2)
	require.Equal(t, status.Ok, st)

	assert.Equal(t, out1.Reals, out2.Reals)
}

func Test_Chain_StopsOnFirstError(t *testing.T) {
	var c Chain
	c.Append(NewGain(2))
	c.Append(NewWindow(dsp.Hann))
	// Magnitude expects Complex input, will reject the Real output of Window.
	c.Append(NewMagnitude(make([]kernel.R, 4)))

	_, st := c.Run(block.RealBlock(0, 0, []kernel.R{1, 2, 3, 4}))
	assert.Equal(t, status.Error, st)
}

func Test_LogMag_ClampsFloor(t *testing.T) {
	n := NewLogMag()
	out, st := n.Process(block.RealBlock(0, 0, []kernel.R{0, -5, 1}))
	require.Equal(t, status.Ok, st)
	assert.Equal(t, kernel.R(-140), out.Reals[0])
	assert.Equal(t, kernel.R(-140), out.Reals[1])
	assert.Equal(t, kernel.R(0), out.Reals[2])
}

func Test_GroupDelay_FirstSampleIsZero(t *testing.T) {
	n := NewGroupDelay(0.1)
	out, st := n.Process(block.RealBlock(0, 0, []kernel.R{1.0, 1.2}))
	require.Equal(t, status.Ok, st)
	assert.Equal(t, kernel.R(0), out.Reals[0])
}

func Test_GroupDelay_ResetThenRerunMatches(t *testing.T) {
	n := NewGroupDelay(0.1)
	in1 := block.RealBlock(0, 0, []kernel.R{0.1, 0.4, 0.9})
	out1, _ := n.Process(in1)
	want := append([]kernel.R{}, out1.Reals...)

	n.Reset()
	in2 := block.RealBlock(0, 0, []kernel.R{0.1, 0.4, 0.9})
	out2, _ := n.Process(in2)
	assert.Equal(t, want, out2.Reals)
}

func Test_DDC_ResetThenRerunMatches(t *testing.T) {
	var table dsp.SineTable
	table.InitSharedSineTable()
	n := NewDDC(&table, dsp.SineTableLen/16)

	samples := make([]int16, 64)
	for i := range samples {
		samples[i] = table.Sin(i * (dsp.SineTableLen / 16))
	}

	in1 := block.SampleBlock(0, 0, samples)
	out1, st := n.Process(in1)
	require.Equal(t, status.Ok, st)
	want := out1.Accum

	n.Reset()
	in2 := block.SampleBlock(0, 0, samples)
	out2, st := n.Process(in2)
	require.Equal(t, status.Ok, st)
	assert.Equal(t, want, out2.Accum)
}

func Test_Magnitude_ReturnsRealBlockOfSameElementCount(t *testing.T) {
	out := make([]kernel.R, 2)
	n := NewMagnitude(out)
	in := block.ComplexBlock(0, 0, []kernel.C{{Re: 3, Im: 4}, {Re: 0, Im: -5}})
	result, st := n.Process(in)
	require.Equal(t, status.Ok, st)
	assert.Equal(t, block.KindReal, result.Kind)
	assert.Equal(t, 2, result.Size)
	assert.InDelta(t, 5.0, result.Reals[0], 1e-9)
	assert.InDelta(t, 5.0, result.Reals[1], 1e-9)
}

func Test_VNAChain_CalibrationPassThrough_BitExact(t *testing.T) {
	var c Chain
	var table dsp.SineTable
	table.InitSharedSineTable()
	c.Append(NewDDC(&table, dsp.SineTableLen/8))
	c.Append(NewSParam())
	c.Append(NewCalibration(nil, nil))

	tr := trace.NewTraceComplex(make([]kernel.R, 1), make([]kernel.C, 1))
	sink := NewTraceSink(tr)
	sink.SetStimulus(1_000_000)
	c.Append(sink)

	const blockPairs = 64
	samples := make([]int16, blockPairs*2)
	for i := 0; i < blockPairs; i++ {
		v := table.Sin(i * (dsp.SineTableLen / 8))
		samples[2*i] = v   // reference
		samples[2*i+1] = v // sample == reference -> |Gamma| ~= 1
	}
	in := block.SampleBlock(7, 0, samples)
	_, st := c.Run(in)
	require.Equal(t, status.Ok, st)

	_, y, n := tr.Axes()
	require.Equal(t, 1, n)
	assert.InDelta(t, 1.0, kernel.Magnitude(y[0]), 0.5)
}

func Test_Calibration_BoundaryEPS_ReturnsZero(t *testing.T) {
	cal := calibration.New(1, []calibration.Coeffs{{}}, make([]kernel.C, 1), make([]kernel.C, 1), make([]kernel.C, 1), make([]kernel.C, 1), make([]kernel.C, 1))
	n := NewCalibration(cal, nil)
	out, st := n.Process(block.GammaBlock(0, 0, kernel.C{Re: 1}))
	require.Equal(t, status.Ok, st)
	assert.Equal(t, kernel.C{}, out.Gamma)
}

func Test_Rotate_ZeroTauIsIdentity(t *testing.T) {
	n := NewRotate(0)
	n.SetStimulus(2_400_000_000)
	out, st := n.Process(block.GammaBlock(0, 0, kernel.C{Re: 0.6, Im: -0.8}))
	require.Equal(t, status.Ok, st)
	assert.InDelta(t, 0.6, out.Gamma.Re, 1e-12)
	assert.InDelta(t, -0.8, out.Gamma.Im, 1e-12)
}

func Test_Rotate_RejectsNonGammaInput(t *testing.T) {
	n := NewRotate(1e-9)
	_, st := n.Process(block.RealBlock(0, 0, []kernel.R{1}))
	assert.Equal(t, status.Error, st)
}

func Test_WaveGen_ProducesBoundedSamples(t *testing.T) {
	out := make([]kernel.R, 32)
	n := NewWaveGen(1000, 48000, dsp.Sine, out)
	result, st := n.Process(block.Block{})
	require.Equal(t, status.Ok, st)
	for _, v := range result.Reals {
		assert.LessOrEqual(t, math.Abs(v), 1.0)
	}
}
