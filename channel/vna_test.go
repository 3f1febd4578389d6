package channel

import (
	"testing"

	"github.com/samoyed-instruments/meascore/dsp"
	"github.com/samoyed-instruments/meascore/eventbus"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/trace"
	"github.com/samoyed-instruments/meascore/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fakeSynth is a no-op hal.Synthesizer recording the last frequency set.
type fakeSynth struct {
	lastHz kernel.R
	fail   bool
}

func (f *fakeSynth) SetFrequency(hz kernel.R) status.Status {
	if f.fail {
		return status.Error
	}
	f.lastHz = hz
	return status.Ok
}
func (f *fakeSynth) SetPower(dbm kernel.R) status.Status  { return status.Ok }
func (f *fakeSynth) EnableOutput(on bool) status.Status   { return status.Ok }

// fakeReceiver immediately "completes" any Start by filling buf with
// matched reference/sample pairs at a fixed phase, modeling a DMA transfer
// that the test drives synchronously rather than asynchronously.
type fakeReceiver struct {
	table     *dsp.SineTable
	phaseStep int
	onStart   func(buf []int16)
}

func (r *fakeReceiver) Configure(sampleRate kernel.R, decimation int32) status.Status { return status.Ok }
func (r *fakeReceiver) Start(buf []int16) status.Status {
	for i := 0; i+1 < len(buf); i += 2 {
		v := r.table.Sin((i / 2) * r.phaseStep)
		buf[i] = v
		buf[i+1] = v
	}
	if r.onStart != nil {
		r.onStart(buf)
	}
	return status.Ok
}
func (r *fakeReceiver) Stop() status.Status { return status.Ok }

func newReadyTable() *dsp.SineTable {
	var table dsp.SineTable
	table.InitSharedSineTable()
	return &table
}

func newTestVNA(t *testing.T, points int) (*VNA, *fakeReceiver, *eventbus.Bus) {
	t.Helper()
	table := newReadyTable()
	bus := &eventbus.Bus{}
	tr := trace.NewTraceComplex(make([]kernel.R, points), make([]kernel.C, points))
	rx := &fakeReceiver{table: table, phaseStep: dsp.SineTableLen / 8}

	buf := make([]int16, 128)
	vna := &VNA{
		ChannelID:    1,
		Bus:          bus,
		Synth:        &fakeSynth{},
		RX:           rx,
		Table:        table,
		DDCPhaseStep: dsp.SineTableLen / 8,
		Trace:        tr,
	}
	vna.SetProperty(PropStartFreq, variant.Real(1_000_000))
	vna.SetProperty(PropStopFreq, variant.Real(2_000_000))
	vna.SetProperty(PropPoints, variant.Int64(int64(points)))
	vna.SetProperty(PropBufferPtr, variant.Ptr(buf))
	vna.SetProperty(PropBufferCap, variant.Int64(int64(points)))
	require.Equal(t, status.Ok, vna.Configure())
	return vna, rx, bus
}

// runToIdle drives Tick until the channel returns to Idle or the iteration
// budget is exhausted, so tests don't spin forever on a stuck FSM.
func runToIdle(t *testing.T, c Contract, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		require.Equal(t, status.Ok, c.Tick())
		if c.State() == Idle {
			return
		}
	}
	t.Fatalf("channel did not reach Idle within %d ticks", maxTicks)
}

func Test_VNA_CWSweep_ProducesOnePoint(t *testing.T) {
	vna, _, _ := newTestVNA(t, 1)
	require.Equal(t, status.Ok, vna.StartSweep())

	for i := 0; i < 3; i++ {
		require.Equal(t, status.Ok, vna.Tick())
		if vna.State() == WaitDma {
			vna.OnDataReady(nil)
			break
		}
	}
	runToIdle(t, vna, 10)

	x, y, n := vna.Trace.Axes()
	require.Equal(t, 1, n)
	assert.InDelta(t, 1_000_000.0, x[0], 1e-6)
	assert.InDelta(t, 1.0, kernel.Magnitude(y[0]), 0.5)
}

func Test_VNA_StartSweep_RejectsInvertedRange(t *testing.T) {
	vna, _, _ := newTestVNA(t, 2)
	vna.SetProperty(PropStartFreq, variant.Real(5_000_000))
	vna.SetProperty(PropStopFreq, variant.Real(1_000_000))
	assert.Equal(t, status.Error, vna.StartSweep())
	assert.Equal(t, Idle, vna.State())
}

func Test_VNA_StartSweep_RejectsZeroPoints(t *testing.T) {
	vna, _, _ := newTestVNA(t, 2)
	vna.SetProperty(PropPoints, variant.Int64(0))
	assert.Equal(t, status.Error, vna.StartSweep())
}

func Test_VNA_StartSweep_RejectsOutOfRangeFrequency(t *testing.T) {
	vna, _, _ := newTestVNA(t, 1)
	vna.SetProperty(PropStartFreq, variant.Real(1))
	vna.SetProperty(PropStopFreq, variant.Real(1))
	assert.Equal(t, status.Error, vna.StartSweep())
}

func Test_VNA_AbortSweep_ReturnsToIdleFromAnyState(t *testing.T) {
	vna, _, _ := newTestVNA(t, 4)
	require.Equal(t, status.Ok, vna.StartSweep())
	require.Equal(t, status.Ok, vna.Tick()) // Setup -> Acquire
	require.Equal(t, Acquire, vna.State())
	require.Equal(t, status.Ok, vna.AbortSweep())
	assert.Equal(t, Idle, vna.State())
}

func Test_VNA_MultiPointSweep_FrequencyMonotonicallyIncreases(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		points := rapid.IntRange(2, 16).Draw(rt, "points")
		vna, _, _ := newTestVNA(t, points)
		require.Equal(t, status.Ok, vna.StartSweep())

		for tick := 0; tick < points*10+10; tick++ {
			require.Equal(t, status.Ok, vna.Tick())
			if vna.State() == WaitDma {
				vna.OnDataReady(nil)
			}
			if vna.State() == Idle && tick > 0 {
				break
			}
		}
		x, _, n := vna.Trace.Axes()
		require.Equal(t, points, n)
		for i := 1; i < n; i++ {
			assert.Greater(t, x[i], x[i-1])
		}
	})
}
