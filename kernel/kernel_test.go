package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Atan2_RecoversAngle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(-math.Pi, math.Pi).Draw(t, "a")
		sin, cos := Sincos(a)
		got := Atan2(sin, cos)
		assert.LessOrEqualf(t, math.Abs(got-a), 1e-2, "angle=%v got=%v", a, got)
	})
}

func Test_Atan2_OriginIsZero(t *testing.T) {
	assert.Equal(t, R(0), Atan2(0, 0))
}

func Test_Sincos_UnitCircle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(-10*math.Pi, 10*math.Pi).Draw(t, "a")
		sin, cos := Sincos(a)
		assert.LessOrEqualf(t, math.Abs(sin*sin+cos*cos-1), 4e-3, "a=%v", a)
	})
}

func Test_Sqrt_FastPathNonPositive(t *testing.T) {
	assert.Equal(t, R(0), Sqrt(0))
	assert.Equal(t, R(0), Sqrt(-4))
	assert.InDelta(t, 2.0, Sqrt(4), 1e-12)
}

func Test_Modf_SignFollowsInput(t *testing.T) {
	frac, ip := Modf(-3.25)
	assert.InDelta(t, -3.0, ip, 1e-12)
	assert.InDelta(t, -0.25, frac, 1e-12)
}

func Test_Stats_MeanVariance(t *testing.T) {
	var s Stats
	for _, x := range []R{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Push(x)
	}
	assert.InDelta(t, 5.0, s.Mean(), 1e-9)
	assert.InDelta(t, 4.0, s.Variance(), 1e-9)
	assert.Equal(t, R(2), s.Min())
	assert.Equal(t, R(9), s.Max())
}

func Test_MovingAverage_ValidLength(t *testing.T) {
	in := []R{1, 2, 3, 4, 5}
	out := make([]R, 10)
	n := MovingAverage(in, 2, out)
	assert.Equal(t, 4, n)
	assert.InDeltaSlice(t, []R{1.5, 2.5, 3.5, 4.5}, out[:n], 1e-9)
}

func Test_EMA_ConvergesTowardConstantInput(t *testing.T) {
	e := EMA{Alpha: 0.5}
	var last R
	for i := 0; i < 50; i++ {
		last = e.Push(10)
	}
	assert.InDelta(t, 10.0, last, 1e-9)
}

func Test_ParabolicInterp_PeakAtCenterWhenSymmetric(t *testing.T) {
	offset, peak := ParabolicInterp(1, 4, 1)
	assert.InDelta(t, 0.0, offset, 1e-12)
	assert.InDelta(t, 4.0, peak, 1e-12)
}
