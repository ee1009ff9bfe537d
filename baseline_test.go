package mwalib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaselineCount(t *testing.T) {
	assert.Equal(t, 8256, BaselineCount(128)) // 128*129/2
	assert.Equal(t, 1, BaselineCount(1))
}

func TestBuildBaselinesOrderAndCount(t *testing.T) {
	baselines := buildBaselines(4)
	require.Len(t, baselines, BaselineCount(4))

	expected := []Baseline{
		{0, 0}, {0, 1}, {0, 2}, {0, 3},
		{1, 1}, {1, 2}, {1, 3},
		{2, 2}, {2, 3},
		{3, 3},
	}
	assert.Equal(t, expected, baselines)
}

func TestBaselineIndexRoundTrip(t *testing.T) {
	const n = 16
	baselines := buildBaselines(n)
	for i, b := range baselines {
		idx := BaselineIndex(b.Ant1, b.Ant2, n)
		assert.Equal(t, i, idx, "baseline (%d,%d)", b.Ant1, b.Ant2)

		a1, a2 := AntennasFromBaseline(i, n)
		assert.Equal(t, b.Ant1, a1)
		assert.Equal(t, b.Ant2, a2)
	}
}

func TestBaselineIndexOutOfRange(t *testing.T) {
	assert.Equal(t, -1, BaselineIndex(5, 2, 4))
	assert.Equal(t, -1, BaselineIndex(-1, 2, 4))
}

func TestAntennasFromBaselineOutOfRange(t *testing.T) {
	a1, a2 := AntennasFromBaseline(-1, 4)
	assert.Equal(t, -1, a1)
	assert.Equal(t, -1, a2)
}
