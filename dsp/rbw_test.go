package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_PlanRBW_MeetsTarget(t *testing.T) {
	plan := PlanRBW(50, 48000)
	assert.Contains(t, []int{256, 512, 1024}, plan.FFTLength)
	assert.LessOrEqual(t, plan.AchievedRBWHz, 50.0)
}

func Test_PlanRBW_NeedsDecimationForTightRBW(t *testing.T) {
	plan := PlanRBW(1, 48000)
	assert.Equal(t, 1024, plan.FFTLength)
	assert.GreaterOrEqual(t, plan.Decimation, 1)
	assert.LessOrEqual(t, plan.AchievedRBWHz, 1.0)
}
