package dsp

import "math"

// WaveKind selects the waveform DDS generates.
type WaveKind int

const (
	Sine WaveKind = iota
	Square
	Triangle
	Sawtooth
)

// DDS is a direct digital synthesizer: a 32-bit phase accumulator advanced
// by (freq/Fs)*2^32 per sample, preserving phase across Generate calls the
// way the teacher's gen_tone.go ticks a phase accumulator per audio sample.
type DDS struct {
	FreqHz     float64
	SampleRate float64
	Kind       WaveKind

	phase uint32 // accumulator
}

// phaseStep returns the per-sample phase increment for the current
// frequency and sample rate.
func (d *DDS) phaseStep() uint32 {
	return uint32(d.FreqHz / d.SampleRate * 4294967296.0)
}

// Reset zeroes the phase accumulator.
func (d *DDS) Reset() { d.phase = 0 }

// Generate fills buf with n = len(buf) int16 samples of the configured
// waveform, advancing the phase accumulator across the call so consecutive
// calls produce a continuous waveform.
func (d *DDS) Generate(buf []int16) {
	step := d.phaseStep()
	for i := range buf {
		buf[i] = d.sampleAt(d.phase)
		d.phase += step
	}
}

func (d *DDS) sampleAt(phase uint32) int16 {
	// Normalize phase to [0, 1).
	frac := float64(phase) / 4294967296.0
	switch d.Kind {
	case Square:
		if frac < 0.5 {
			return 32767
		}
		return -32768
	case Triangle:
		var v float64
		if frac < 0.5 {
			v = -1 + 4*frac
		} else {
			v = 3 - 4*frac
		}
		return int16(math.Round(v * 32767))
	case Sawtooth:
		v := 2*frac - 1
		return int16(math.Round(v * 32767))
	default: // Sine
		v := math.Sin(2 * math.Pi * frac)
		return int16(math.Round(v * 32767))
	}
}
