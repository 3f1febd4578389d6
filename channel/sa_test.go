package channel

import (
	"math"
	"testing"

	"github.com/samoyed-instruments/meascore/dsp"
	"github.com/samoyed-instruments/meascore/eventbus"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/trace"
	"github.com/samoyed-instruments/meascore/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saFakeReceiver fills buf with a single real tone at toneHz relative to
// sampleRate, modeling an ADC capture of a pure sinusoid.
type saFakeReceiver struct {
	toneHz     kernel.R
	sampleRate kernel.R
}

func (r *saFakeReceiver) Configure(sampleRate kernel.R, decimation int32) status.Status {
	return status.Ok
}
func (r *saFakeReceiver) Start(buf []int16) status.Status {
	for i := range buf {
		v := math.Sin(2 * math.Pi * float64(r.toneHz) * float64(i) / float64(r.sampleRate))
		buf[i] = int16(v * 16000)
	}
	return status.Ok
}
func (r *saFakeReceiver) Stop() status.Status { return status.Ok }

func newTestSA(t *testing.T, fftLength int) (*SA, *eventbus.Bus) {
	t.Helper()
	bus := &eventbus.Bus{}
	tr := trace.NewTraceReal(make([]kernel.R, fftLength), make([]kernel.R, fftLength))
	buf := make([]int16, fftLength)
	sa := &SA{
		ChannelID:  2,
		Bus:        bus,
		RX:         &saFakeReceiver{toneHz: 4000, sampleRate: 48000},
		FFTLength:  fftLength,
		WindowKind: dsp.Hann,
		CenterHz:   2_450_000_000,
		SampleRate: 48000,
		Trace:      tr,
	}
	sa.SetProperty(PropBufferPtr, variant.Ptr(buf))
	require.Equal(t, status.Ok, sa.Configure())
	return sa, bus
}

func Test_SA_SpectrumSweep_ProducesFullFrame(t *testing.T) {
	sa, _ := newTestSA(t, 64)
	require.Equal(t, status.Ok, sa.StartSweep())

	for i := 0; i < 3; i++ {
		require.Equal(t, status.Ok, sa.Tick())
		if sa.State() == WaitDma {
			sa.OnDataReady(nil)
			break
		}
	}
	runToIdle(t, sa, 10)

	x, y, n := sa.Trace.AxesReal()
	require.Equal(t, 64, n)
	for i := 0; i < n; i++ {
		assert.False(t, math.IsNaN(y[i]) || math.IsInf(y[i], 0))
	}
	assert.Less(t, x[0], x[n-1])
}

func Test_SA_StartSweep_RejectsZeroFFTLength(t *testing.T) {
	sa, _ := newTestSA(t, 64)
	sa.FFTLength = 0
	assert.Equal(t, status.Error, sa.StartSweep())
}

func Test_SA_AbortSweep_ReturnsToIdle(t *testing.T) {
	sa, _ := newTestSA(t, 64)
	require.Equal(t, status.Ok, sa.StartSweep())
	require.Equal(t, status.Ok, sa.Tick())
	require.Equal(t, Acquire, sa.State())
	require.Equal(t, status.Ok, sa.AbortSweep())
	assert.Equal(t, Idle, sa.State())
}

func Test_SA_GetProperty_BufferCapReflectsBoundBuffer(t *testing.T) {
	sa, _ := newTestSA(t, 128)
	v, st := sa.GetProperty(PropBufferCap)
	require.Equal(t, status.Ok, st)
	n, _ := v.AsInt64()
	assert.Equal(t, int64(128), n)
}

func Test_SA_SetProperty_RejectsUnknownID(t *testing.T) {
	sa, _ := newTestSA(t, 64)
	assert.Equal(t, status.Error, sa.SetProperty(PropStartFreq, variant.Real(1)))
}
