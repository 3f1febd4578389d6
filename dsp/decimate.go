package dsp

import "github.com/samoyed-instruments/meascore/kernel"

// Decimate boxcar-averages in over non-overlapping windows of factor
// samples into out, returning the number of output samples written:
// floor(len(in)/factor), bounded above by len(out). Returns 0 without
// writing if factor <= 0.
func Decimate(in []kernel.R, factor int, out []kernel.R) int {
	if factor <= 0 {
		return 0
	}
	n := len(in) / factor
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		var sum kernel.R
		base := i * factor
		for j := 0; j < factor; j++ {
			sum += in[base+j]
		}
		out[i] = sum / kernel.R(factor)
	}
	return n
}
