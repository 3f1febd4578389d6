// Package dsp holds the signal-processing primitives the pipeline nodes in
// package pipeline compose: windowing, FFT, digital down-conversion, gamma,
// phase rotation, decimation, Goertzel, RBW planning and DDS waveform
// generation. Every function here is allocation-free, grounded on the
// windowed-filter-design and phase-accumulator techniques the teacher repo
// uses for its own DSP path (see DESIGN.md).
package dsp

import (
	"math"

	"github.com/samoyed-instruments/meascore/kernel"
)

// WindowKind selects the shaping function applied in ApplyWindow.
type WindowKind int

const (
	Rect WindowKind = iota
	Hann
	Hamming
	Blackman
)

// ApplyWindow multiplies buf[i] by w(i, N) in place, N = len(buf).
func ApplyWindow(buf []kernel.R, kind WindowKind) {
	n := len(buf)
	if n == 0 {
		return
	}
	for i := range buf {
		buf[i] *= windowCoeff(kind, i, n)
	}
}

func windowCoeff(kind WindowKind, i, n int) kernel.R {
	if n == 1 {
		return 1
	}
	switch kind {
	case Hann:
		return 0.5 * (1 - math.Cos(2*math.Pi*kernel.R(i)/kernel.R(n-1)))
	case Hamming:
		return 0.54 - 0.46*math.Cos(2*math.Pi*kernel.R(i)/kernel.R(n-1))
	case Blackman:
		a := 2 * math.Pi * kernel.R(i) / kernel.R(n-1)
		return 0.42 - 0.5*math.Cos(a) + 0.08*math.Cos(2*a)
	default:
		return 1
	}
}
