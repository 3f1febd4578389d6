package dsp

import (
	"math"

	"github.com/samoyed-instruments/meascore/kernel"
)

// RotatePhase multiplies gamma in place by exp(-j*2*pi*freqHz*tauSeconds),
// compensating electrical delay tau at the given stimulus frequency.
func RotatePhase(gamma *kernel.C, freqHz, tauSeconds kernel.R) {
	angle := -2 * math.Pi * freqHz * tauSeconds
	sin, cos := kernel.Sincos(angle)
	rot := kernel.C{Re: cos, Im: sin}
	*gamma = gamma.Mul(rot)
}
