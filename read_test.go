package mwalib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFineChanFreqsHzLegacy is spec.md §8 Scenario E.
func TestFineChanFreqsHzLegacy(t *testing.T) {
	const widthHz = 1_280_000.0
	const fineWidthHz = 40_000.0

	cc := newCoarseChannel(131, 0, 1, widthHz)
	c := &Context{
		Version:               CorrLegacy,
		CoarseChannels:        []CoarseChannel{cc},
		NumFineChansPerCoarse: int(widthHz / fineWidthHz),
		FineChanWidthHz:       fineWidthHz,
	}

	freqs := c.FineChanFreqsHz([]int{0})
	require.NotEmpty(t, freqs)
	assert.Equal(t, 167_055_000.0, freqs[0])
}

// TestFineChanFreqsHzMWAX is spec.md §8 Scenario F.
func TestFineChanFreqsHzMWAX(t *testing.T) {
	const widthHz = 1_280_000.0
	const fineWidthHz = 40_000.0

	cc := newCoarseChannel(131, 0, 131, widthHz)
	c := &Context{
		Version:               CorrMWAXv2,
		CoarseChannels:        []CoarseChannel{cc},
		NumFineChansPerCoarse: int(widthHz / fineWidthHz),
		FineChanWidthHz:       fineWidthHz,
	}

	freqs := c.FineChanFreqsHz([]int{0})
	require.NotEmpty(t, freqs)
	assert.Equal(t, 167_040_000.0, freqs[0])
}
