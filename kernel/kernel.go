// Package kernel provides the portable numeric primitives the rest of the
// measurement core builds on: trig, roots, interpolation and small streaming
// statistics. Every function here is pure, allocation-free and never fails —
// degenerate inputs return a documented sentinel instead of an error.
package kernel

import "math"

// R is the real scalar type used throughout the core. The framework is meant
// to be buildable against float32, float64 or a Q-format fixed-point type;
// this tree commits to float64 (see DESIGN.md for why the other two are not
// carried as separate build-tagged files).
type R = float64

// C is a rectangular complex number. Arithmetic is by component; magnitude
// and argument go through the kernel so every caller shares one rounding
// behavior.
type C struct {
	Re R
	Im R
}

func (a C) Add(b C) C { return C{a.Re + b.Re, a.Im + b.Im} }
func (a C) Sub(b C) C { return C{a.Re - b.Re, a.Im - b.Im} }

func (a C) Mul(b C) C {
	return C{a.Re*b.Re - a.Im*b.Im, a.Re*b.Im + a.Im*b.Re}
}

// Div returns a/b. If |b|^2 is below eps it returns the zero value rather
// than propagating NaN/Inf; callers that need the EPS-boundary flag should
// check b themselves first (see calibration.EPS and dsp.Gamma).
func (a C) Div(b C, eps R) C {
	den := b.Re*b.Re + b.Im*b.Im
	if den < eps {
		return C{}
	}
	return C{
		Re: (a.Re*b.Re + a.Im*b.Im) / den,
		Im: (a.Im*b.Re - a.Re*b.Im) / den,
	}
}

// Magnitude returns |z|.
func Magnitude(z C) R { return math.Hypot(z.Re, z.Im) }

// Argument returns the principal argument of z, in (-pi, pi], with Argument
// of the origin defined as 0 (matching Atan2's contract below).
func Argument(z C) R { return Atan2(z.Im, z.Re) }

// Sqrt is 0 for x <= 0, matching the fast-path contract in spec.md 4.1.
func Sqrt(x R) R {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}

// SqrtPrecise is defined for all x >= 0 and NaN below, for callers on the
// "precise" numeric path who want IEEE semantics instead of the fast-path
// sentinel.
func SqrtPrecise(x R) R { return math.Sqrt(x) }

func Cbrt(x R) R   { return math.Cbrt(x) }
func Log(x R) R    { return math.Log(x) }
func Log10(x R) R  { return math.Log10(x) }
func Exp(x R) R    { return math.Exp(x) }
func Atan(x R) R   { return math.Atan(x) }
func Fabs(x R) R   { return math.Abs(x) }
func Fma(a, b, c R) R { return math.FMA(a, b, c) }

// Atan2 returns a value in (-pi, pi]; Atan2(0, 0) is defined as 0 (spec.md
// 4.1). This differs from math.Atan2 at the signed-zero origins, where
// math.Atan2(+0, -0) is pi and math.Atan2(-0, -0) is -pi: every zero/zero
// input returns 0 here. A -pi result from math.Atan2 is mapped to pi.
func Atan2(y, x R) R {
	if y == 0 && x == 0 {
		return 0
	}
	v := math.Atan2(y, x)
	if v == -math.Pi {
		return math.Pi
	}
	return v
}

// Modf returns (frac, int) with frac carrying the sign of x, same as
// math.Modf.
func Modf(x R) (frac, intPart R) {
	ip, fp := math.Modf(x)
	return fp, ip
}

// Sincos returns (sin(a), cos(a)). This is the libm-backed "precise" path;
// a LUT-backed path lives in dsp.SineTable for the allocation-free,
// lower-accuracy hot path the DSP primitives use on embedded targets.
func Sincos(a R) (sin, cos R) {
	s, c := math.Sincos(a)
	return s, c
}

// IsClose reports whether a and b differ by no more than eps.
func IsClose(a, b, eps R) bool {
	return Fabs(a-b) <= eps
}

// LinearInterp returns the value at fractional index t between y0 (t=0) and
// y1 (t=1).
func LinearInterp(y0, y1, t R) R { return y0 + (y1-y0)*t }

// ParabolicInterp fits a parabola through three equally spaced points and
// returns (peak offset in [-0.5, 0.5], peak value), used for FFT bin
// interpolation.
func ParabolicInterp(yPrev, yCenter, yNext R) (offset, peak R) {
	denom := yPrev - 2*yCenter + yNext
	if denom == 0 {
		return 0, yCenter
	}
	offset = 0.5 * (yPrev - yNext) / denom
	peak = yCenter - 0.25*(yPrev-yNext)*offset
	return offset, peak
}

// CosineInterp performs cosine (smoothstep-like) interpolation between y0
// and y1 at fractional position t in [0, 1].
func CosineInterp(y0, y1, t R) R {
	mu := (1 - math.Cos(t*math.Pi)) / 2
	return y0*(1-mu) + y1*mu
}

// LinearExtrapolate extends the line through (x0,y0)-(x1,y1) to x.
func LinearExtrapolate(x0, y0, x1, y1, x R) R {
	if x1 == x0 {
		return y0
	}
	slope := (y1 - y0) / (x1 - x0)
	return y0 + slope*(x-x0)
}

// Stats accumulates Welford mean/variance plus min/max over a stream of
// samples with O(1) memory, no allocation, one sample at a time.
type Stats struct {
	n        int64
	mean     R
	m2       R
	min, max R
}

// Push folds x into the running statistics.
func (s *Stats) Push(x R) {
	s.n++
	if s.n == 1 {
		s.min, s.max = x, x
	} else {
		if x < s.min {
			s.min = x
		}
		if x > s.max {
			s.max = x
		}
	}
	delta := x - s.mean
	s.mean += delta / R(s.n)
	delta2 := x - s.mean
	s.m2 += delta * delta2
}

func (s *Stats) Reset() { *s = Stats{} }

func (s *Stats) Count() int64 { return s.n }
func (s *Stats) Mean() R      { return s.mean }

// Variance returns the population variance (0 for n < 2).
func (s *Stats) Variance() R {
	if s.n < 2 {
		return 0
	}
	return s.m2 / R(s.n)
}

func (s *Stats) Min() R { return s.min }
func (s *Stats) Max() R { return s.max }

// RMS returns the root-mean-square of buf.
func RMS(buf []R) R {
	if len(buf) == 0 {
		return 0
	}
	var sum R
	for _, x := range buf {
		sum += x * x
	}
	return Sqrt(sum / R(len(buf)))
}

// MovingAverage computes a "valid" simple moving average: out[i] is the mean
// of in[i:i+w]. len(out) must be >= len(in)-w+1; it is filled and the number
// of points written is returned. Returns 0 without writing if w is 0 or
// larger than len(in).
func MovingAverage(in []R, w int, out []R) int {
	if w <= 0 || w > len(in) {
		return 0
	}
	n := len(in) - w + 1
	if n > len(out) {
		n = len(out)
	}
	var sum R
	for i := 0; i < w; i++ {
		sum += in[i]
	}
	if n > 0 {
		out[0] = sum / R(w)
	}
	for i := 1; i < n; i++ {
		sum += in[i+w-1] - in[i-1]
		out[i] = sum / R(w)
	}
	return n
}

// EMA is a single-pole exponential moving average, alpha in (0, 1].
type EMA struct {
	Alpha R
	value R
	init  bool
}

// Push folds x into the average and returns the updated value.
func (e *EMA) Push(x R) R {
	if !e.init {
		e.value = x
		e.init = true
		return e.value
	}
	e.value += e.Alpha * (x - e.value)
	return e.value
}

func (e *EMA) Value() R { return e.value }

func (e *EMA) Reset() {
	e.value = 0
	e.init = false
}
