package dsp

import (
	"math"
	"testing"

	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func runFFT(t testing.TB, n int, inverse bool, in []kernel.C) []kernel.C {
	t.Helper()
	var ctx FFTContext
	twiddle := make([]kernel.C, n/2)
	require.Equal(t, status.Ok, FFTInit(&ctx, n, inverse, twiddle))
	out := make([]kernel.C, n)
	require.Equal(t, status.Ok, FFTExec(&ctx, in, out))
	return out
}

func Test_FFT_RejectsNonPowerOfTwo(t *testing.T) {
	var ctx FFTContext
	twiddle := make([]kernel.C, 8)
	assert.Equal(t, status.Error, FFTInit(&ctx, 12, false, twiddle))
}

func Test_FFT_Impulse(t *testing.T) {
	const n = 64
	in := make([]kernel.C, n)
	in[0] = kernel.C{Re: 1}
	out := runFFT(t, n, false, in)
	for i, c := range out {
		assert.InDeltaf(t, 1.0, c.Re, 1e-9, "bin %d re", i)
		assert.InDeltaf(t, 0.0, c.Im, 1e-9, "bin %d im", i)
	}
}

func Test_FFT_Constant(t *testing.T) {
	const n = 64
	in := make([]kernel.C, n)
	for i := range in {
		in[i] = kernel.C{Re: 1}
	}
	out := runFFT(t, n, false, in)
	assert.InDelta(t, float64(n), out[0].Re, 1e-3)
	assert.InDelta(t, 0.0, out[0].Im, 1e-3)
	for i := 1; i < n; i++ {
		assert.LessOrEqualf(t, kernel.Magnitude(out[i]), 1e-3, "bin %d", i)
	}
}

func Test_FFT_SineBin(t *testing.T) {
	const n = 1024
	in := make([]kernel.C, n)
	for i := range in {
		in[i] = kernel.C{Re: math.Cos(2 * math.Pi * 8 * float64(i) / n)}
	}
	out := runFFT(t, n, false, in)
	assert.InDelta(t, 512, kernel.Magnitude(out[8]), 1)
	assert.InDelta(t, 512, kernel.Magnitude(out[n-8]), 1)
	for i, c := range out {
		if i == 8 || i == n-8 {
			continue
		}
		assert.LessOrEqualf(t, kernel.Magnitude(c), 1e-3, "bin %d", i)
	}
}

func Test_FFT_RoundTrip(t *testing.T) {
	sizes := []int{2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.SampledFrom(sizes).Draw(t, "n")
		in := make([]kernel.C, n)
		for i := range in {
			in[i] = kernel.C{
				Re: rapid.Float64Range(-1, 1).Draw(t, "re"),
				Im: rapid.Float64Range(-1, 1).Draw(t, "im"),
			}
		}

		var fwd FFTContext
		fwdTw := make([]kernel.C, n/2)
		require.Equal(t, status.Ok, FFTInit(&fwd, n, false, fwdTw))
		freq := make([]kernel.C, n)
		require.Equal(t, status.Ok, FFTExec(&fwd, in, freq))

		var inv FFTContext
		invTw := make([]kernel.C, n/2)
		require.Equal(t, status.Ok, FFTInit(&inv, n, true, invTw))
		back := make([]kernel.C, n)
		require.Equal(t, status.Ok, FFTExec(&inv, freq, back))

		for i := range in {
			assert.LessOrEqualf(t, math.Abs(back[i].Re-in[i].Re), 1e-3, "re[%d]", i)
			assert.LessOrEqualf(t, math.Abs(back[i].Im-in[i].Im), 1e-3, "im[%d]", i)
		}
	})
}

func Test_FFT_AliasedInputOutput(t *testing.T) {
	const n = 16
	buf := make([]kernel.C, n)
	buf[1] = kernel.C{Re: 1}
	var ctx FFTContext
	tw := make([]kernel.C, n/2)
	require.Equal(t, status.Ok, FFTInit(&ctx, n, false, tw))
	require.Equal(t, status.Ok, FFTExec(&ctx, buf, buf))
	// Impulse at index 1 -> all bins have magnitude 1.
	for i, c := range buf {
		assert.InDeltaf(t, 1.0, kernel.Magnitude(c), 1e-9, "bin %d", i)
	}
}
