package dsp

import "github.com/samoyed-instruments/meascore/kernel"

// GammaEPS is the |Reference|^2 threshold below which Gamma returns (0,0)
// rather than dividing by a near-zero reference.
const GammaEPS = 1e-9

// Gamma computes the reflection/transmission coefficient Sample/Reference
// from DDC accumulators, using standard complex division in rectangular
// form. Returns (0,0) if |Reference|^2 < GammaEPS.
func Gamma(acc DDCAccum) kernel.C {
	sample := kernel.C{Re: kernel.R(acc.AccI), Im: kernel.R(acc.AccQ)}
	reference := kernel.C{Re: kernel.R(acc.RefI), Im: kernel.R(acc.RefQ)}
	return sample.Div(reference, GammaEPS)
}
