package dsp

import (
	"math"

	"github.com/samoyed-instruments/meascore/kernel"
)

// Goertzel runs the single-bin recurrence DFT for targetHz against buf
// sampled at sampleRateHz, returning the bin magnitude. If phase is
// non-nil, the bin's phase (radians) is also written to *phase.
func Goertzel(buf []kernel.R, targetHz, sampleRateHz kernel.R, phase *kernel.R) kernel.R {
	n := len(buf)
	if n == 0 {
		return 0
	}
	k := int(0.5 + kernel.R(n)*targetHz/sampleRateHz)
	omega := 2 * math.Pi * kernel.R(k) / kernel.R(n)
	sinOmega, cosOmega := kernel.Sincos(omega)
	coeff := 2 * cosOmega

	var q0, q1, q2 kernel.R
	for _, x := range buf {
		q0 = coeff*q1 - q2 + x
		q2 = q1
		q1 = q0
	}

	re := q1 - q2*cosOmega
	im := q2 * sinOmega

	if phase != nil {
		*phase = kernel.Atan2(im, re)
	}
	return kernel.Magnitude(kernel.C{Re: re, Im: im})
}
