package dsp

import (
	"math"

	"github.com/samoyed-instruments/meascore/status"
)

// DDCAccum is the running digital-down-conversion state: sums of
// sample*cos, sample*sin, ref*cos, ref*sin across a block. It is both the
// accumulator MixDown writes into and the DDC-accum value a pipeline.Node of
// kind DDC forwards downstream to the SParam node.
type DDCAccum struct {
	AccI int64 // sample * cos
	AccQ int64 // sample * sin
	RefI int64 // reference * cos
	RefQ int64 // reference * sin
}

func (a *DDCAccum) Reset() { *a = DDCAccum{} }

// saturatingMAC adds a*b to acc with saturation at the int64 range.
func saturatingMAC(acc int64, a, b int16) int64 {
	product := int64(a) * int64(b)
	sum := acc + product
	// Overflow can only happen in the direction both operands push it.
	if (product > 0 && acc > 0 && sum < acc) || (product < 0 && acc < 0 && sum > acc) {
		if product > 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return sum
}

// MixDown treats input as interleaved (reference, sample) int16 pairs and
// accumulates the four DDC sums across the block, reading cos/sin off table
// starting at phase index phaseStart and stepping by phaseStep per pair
// (mod SineTableLen). len(input) must be even; otherwise Error is returned
// and acc is left untouched.
func MixDown(input []int16, phaseStart, phaseStep int, table *SineTable, acc *DDCAccum) status.Status {
	if len(input)%2 != 0 {
		return status.Error
	}
	if !table.Ready() {
		return status.Error
	}
	phase := phaseStart
	for i := 0; i+1 < len(input); i += 2 {
		reference := input[i]
		sample := input[i+1]
		cos := table.Cos(phase)
		sin := table.Sin(phase)

		acc.AccI = saturatingMAC(acc.AccI, sample, cos)
		acc.AccQ = saturatingMAC(acc.AccQ, sample, sin)
		acc.RefI = saturatingMAC(acc.RefI, reference, cos)
		acc.RefQ = saturatingMAC(acc.RefQ, reference, sin)

		phase += phaseStep
	}
	return status.Ok
}
