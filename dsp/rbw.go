package dsp

import "github.com/samoyed-instruments/meascore/kernel"

// fftSizeChoices are the FFT lengths the RBW planner is allowed to pick
// from, smallest first.
var fftSizeChoices = [...]int{256, 512, 1024}

// RBWPlan is the result of planning an FFT length and decimation factor to
// hit (or beat) a desired resolution bandwidth.
type RBWPlan struct {
	FFTLength       int
	Decimation      int
	AchievedRBWHz   kernel.R
}

// PlanRBW chooses the smallest FFT length from fftSizeChoices and a
// decimation factor D such that Fs/(D*N) <= desiredRBWHz, reporting the
// achieved RBW. If even the largest supported FFT length cannot reach the
// desired RBW at D=1, it keeps the largest length and doubles D until the
// target is met; D stops growing once it exceeds 2^20, and the plan then
// reports whatever RBW that D achieves (the caller can compare
// AchievedRBWHz to what it asked for).
func PlanRBW(desiredRBWHz, sampleRateHz kernel.R) RBWPlan {
	for _, n := range fftSizeChoices {
		achieved := sampleRateHz / kernel.R(n)
		if achieved <= desiredRBWHz {
			return RBWPlan{FFTLength: n, Decimation: 1, AchievedRBWHz: achieved}
		}
	}
	// None of the plain FFT lengths get there at D=1; add decimation on
	// top of the largest size.
	n := fftSizeChoices[len(fftSizeChoices)-1]
	d := 1
	for {
		achieved := sampleRateHz / (kernel.R(d) * kernel.R(n))
		if achieved <= desiredRBWHz || d > 1<<20 {
			return RBWPlan{FFTLength: n, Decimation: d, AchievedRBWHz: achieved}
		}
		d *= 2
	}
}
