package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DDS_PhaseContinuousAcrossCalls(t *testing.T) {
	d := DDS{FreqHz: 1000, SampleRate: 48000, Kind: Sine}
	whole := make([]int16, 64)
	d.Generate(whole)

	d2 := DDS{FreqHz: 1000, SampleRate: 48000, Kind: Sine}
	part1 := make([]int16, 32)
	part2 := make([]int16, 32)
	d2.Generate(part1)
	d2.Generate(part2)

	assert.Equal(t, whole[:32], part1)
	assert.Equal(t, whole[32:], part2)
}

func Test_DDS_SquareWaveBounds(t *testing.T) {
	d := DDS{FreqHz: 100, SampleRate: 48000, Kind: Square}
	buf := make([]int16, 16)
	d.Generate(buf)
	for _, v := range buf {
		assert.True(t, v == 32767 || v == -32768)
	}
}
