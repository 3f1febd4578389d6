package dsp

import (
	"math"

	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
)

// FFTContext holds the twiddle factors and scratch state for one FFT size,
// initialized once by FFTInit and reused by every FFTExec call of that size.
// Nothing inside is allocated after FFTInit runs.
type FFTContext struct {
	length  int
	inverse bool
	twiddle []kernel.C // length/2 entries, w_N^0 .. w_N^(length/2-1)
}

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// FFTInit prepares ctx for transforms of the given length. length must be a
// power of two; otherwise ctx is left untouched and Error is returned.
// The backing twiddle slice must be provided by the caller (scratch, sized
// length/2) to keep this allocation-free.
func FFTInit(ctx *FFTContext, length int, inverse bool, twiddleScratch []kernel.C) status.Status {
	if !isPowerOfTwo(length) {
		return status.Error
	}
	if len(twiddleScratch) < length/2 {
		return status.Error
	}
	sign := -1.0
	if inverse {
		sign = 1.0
	}
	for k := 0; k < length/2; k++ {
		angle := sign * 2 * math.Pi * float64(k) / float64(length)
		sin, cos := kernel.Sincos(angle)
		twiddleScratch[k] = kernel.C{Re: cos, Im: sin}
	}
	ctx.length = length
	ctx.inverse = inverse
	ctx.twiddle = twiddleScratch[:length/2]
	return status.Ok
}

// FFTExec computes the DFT (forward) or its inverse (normalized by 1/N) of
// input into output, length ctx.length. input and output may alias.
func FFTExec(ctx *FFTContext, input []kernel.C, output []kernel.C) status.Status {
	n := ctx.length
	if n == 0 || !isPowerOfTwo(n) || len(input) < n || len(output) < n {
		return status.Error
	}

	// Bit-reversal permutation into output (safe whether or not output
	// aliases input: classic index-swap works in place too).
	if &output[0] != &input[0] {
		copy(output[:n], input[:n])
	}
	bits := bitsFor(n)
	for i := 0; i < n; i++ {
		j := reverseBits(i, bits)
		if j > i {
			output[i], output[j] = output[j], output[i]
		}
	}

	// Decimation-in-time Cooley-Tukey butterflies.
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := ctx.twiddle[k*step]
				a := output[start+k]
				b := output[start+k+half].Mul(w)
				output[start+k] = a.Add(b)
				output[start+k+half] = a.Sub(b)
			}
		}
	}

	if ctx.inverse {
		inv := 1.0 / kernel.R(n)
		for i := 0; i < n; i++ {
			output[i].Re *= inv
			output[i].Im *= inv
		}
	}
	return status.Ok
}

func bitsFor(n int) int {
	b := 0
	for (1 << b) < n {
		b++
	}
	return b
}

func reverseBits(x, bits int) int {
	r := 0
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}
