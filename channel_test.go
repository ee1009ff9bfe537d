package mwalib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allPresent(gpuboxNumbers ...int) map[int]bool {
	m := make(map[int]bool, len(gpuboxNumbers))
	for _, n := range gpuboxNumbers {
		m[n] = true
	}
	return m
}

// TestReconcileChannelsLegacyReversal is spec.md §8 Scenario A.
func TestReconcileChannelsLegacyReversal(t *testing.T) {
	metafitsChans := []int{126, 127, 128, 129, 130}
	present := allPresent(1, 2, 3, 4, 5)

	out := ReconcileChannels(metafitsChans, 1_280_000, CorrLegacy, present)
	require.Len(t, out, 5)

	expected := map[int][2]int{ // rec -> {corrIdx, gpubox}
		126: {0, 1},
		127: {1, 2},
		128: {2, 3},
		129: {4, 5},
		130: {3, 4},
	}
	for _, cc := range out {
		want, ok := expected[cc.ReceiverChanNumber]
		require.True(t, ok, "unexpected receiver channel %d", cc.ReceiverChanNumber)
		assert.Equal(t, want[0], cc.CorrelatorChanNumber, "rec %d corr_chan", cc.ReceiverChanNumber)
		assert.Equal(t, want[1], cc.GpuboxNumber, "rec %d gpubox", cc.ReceiverChanNumber)
	}
}

// TestReconcileChannelsLegacyReversalPositionalOrder asserts the returned
// slice stays in ascending receiver-channel order even though
// CorrelatorChanNumber is non-monotonic across the 128 boundary — the array
// is never re-sorted by corr_chan.
//
// Grounded on original_source/src/coarse_channel/test.rs:160-173, where
// coarse_chan_array[3].corr_chan_number == 4 and
// coarse_chan_array[4].corr_chan_number == 3.
func TestReconcileChannelsLegacyReversalPositionalOrder(t *testing.T) {
	metafitsChans := []int{126, 127, 128, 129, 130}
	present := allPresent(1, 2, 3, 4, 5)

	out := ReconcileChannels(metafitsChans, 1_280_000, CorrLegacy, present)
	require.Len(t, out, 5)

	wantRec := []int{126, 127, 128, 129, 130}
	wantCorr := []int{0, 1, 2, 4, 3}
	for i, cc := range out {
		assert.Equal(t, wantRec[i], cc.ReceiverChanNumber, "position %d rec_chan", i)
		assert.Equal(t, wantCorr[i], cc.CorrelatorChanNumber, "position %d corr_chan", i)
	}
}

// TestReconcileChannelsMWAXNoReversal is spec.md §8 Scenario C.
func TestReconcileChannelsMWAXNoReversal(t *testing.T) {
	metafitsChans := []int{126, 127, 128, 129, 130}
	present := allPresent(126, 127, 128, 129, 130)

	out := ReconcileChannels(metafitsChans, 1_280_000, CorrMWAXv2, present)
	require.Len(t, out, 5)

	for i, cc := range out {
		assert.Equal(t, metafitsChans[i], cc.ReceiverChanNumber)
		assert.Equal(t, i, cc.CorrelatorChanNumber)
		assert.Equal(t, metafitsChans[i], cc.GpuboxNumber)
	}
}

// TestReconcileChannelsPartialGpuboxes is spec.md §8 Scenario D.
func TestReconcileChannelsPartialGpuboxes(t *testing.T) {
	metafitsChans := []int{109, 110, 111, 112}
	present := allPresent(2, 3)

	out := ReconcileChannels(metafitsChans, 1_280_000, CorrLegacy, present)
	require.Len(t, out, 2)

	corrChans := make(map[int]bool)
	recChans := make(map[int]bool)
	for _, cc := range out {
		corrChans[cc.CorrelatorChanNumber] = true
		recChans[cc.ReceiverChanNumber] = true
	}
	assert.True(t, corrChans[1] && corrChans[2])
	assert.True(t, recChans[110] && recChans[111])
}

// TestCoarseChannelString is spec.md §8 Scenario G.
func TestCoarseChannelString(t *testing.T) {
	cc := newCoarseChannel(109, 1, 2, 1_280_000)
	assert.Equal(t, "gpu=2 corr=1 rec=109 @ 139.520 MHz", cc.String())
}
