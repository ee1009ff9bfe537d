package mwalib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWindow(t *testing.T) {
	// Three timesteps 100ms apart; channel 1 present at all three, channel
	// 2 missing at the first. Quack time pushes the good cutoff to the
	// second timestep.
	tm := &TimeMap{}
	tm.set(1000, 1, DataLocator{Path: "a"})
	tm.set(1100, 1, DataLocator{Path: "b"})
	tm.set(1100, 2, DataLocator{Path: "c"})
	tm.set(1200, 1, DataLocator{Path: "d"})
	tm.set(1200, 2, DataLocator{Path: "e"})

	timesteps := []Timestep{
		{UnixTimeMs: 1000},
		{UnixTimeMs: 1100},
		{UnixTimeMs: 1200},
	}

	w := ComputeWindow(timesteps, tm, []int{1, 2}, 1_280_000, 1000, 100)

	assert.Equal(t, []int{0, 1, 2}, w.ProvidedTimestepIndices)
	assert.Equal(t, []int{1, 2}, w.CommonTimestepIndices)
	assert.Equal(t, []int{1, 2}, w.CommonGoodTimestepIndices)
	assert.Equal(t, float64(2*1_280_000), w.CommonBandwidthHz)
}

func TestComputeWindowNoCommonChannels(t *testing.T) {
	tm := &TimeMap{}
	tm.set(1000, 1, DataLocator{Path: "a"})

	timesteps := []Timestep{{UnixTimeMs: 1000}}
	w := ComputeWindow(timesteps, tm, nil, 1_280_000, 1000, 0)

	assert.Empty(t, w.CommonTimestepIndices)
	assert.Empty(t, w.ProvidedTimestepIndices)
	assert.Equal(t, float64(0), w.CommonBandwidthHz)
}
