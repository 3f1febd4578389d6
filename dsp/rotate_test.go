package dsp

import (
	"testing"

	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/stretchr/testify/assert"
)

func Test_RotatePhase_ZeroTauIsIdentity(t *testing.T) {
	g := kernel.C{Re: 0.5, Im: 0.25}
	RotatePhase(&g, 1_000_000, 0)
	assert.InDelta(t, 0.5, g.Re, 1e-12)
	assert.InDelta(t, 0.25, g.Im, 1e-12)
}

func Test_RotatePhase_PreservesMagnitude(t *testing.T) {
	g := kernel.C{Re: 0.6, Im: -0.8}
	before := kernel.Magnitude(g)
	RotatePhase(&g, 2_400_000_000, 150e-12)
	assert.InDelta(t, before, kernel.Magnitude(g), 1e-9)
}
