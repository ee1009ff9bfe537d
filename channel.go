package mwalib

import "sort"

// ReconcileChannels cross-references the metafits coarse-channel list
// against the channel identifiers actually present in the data files, and
// assigns correlator/gpubox numbers (spec.md §4.5).
//
// For MWAX, correlator index is simply the position in the ascending-sorted
// metafits channel list, and gpubox number equals the receiver channel
// number. For legacy, the 128-mirror rule applies (spec.md §8 Scenario A):
// channels with receiver number <= 128 get ascending indices 0..p-1;
// channels with receiver number > 128 get descending indices p..K-1 in
// ascending receiver order, producing the correlator's observed reversal
// above the 128 boundary. gpubox number = correlator index + 1.
//
// Only channels actually present among presentChannelIDs (the channel
// identifiers read out of the supplied data filenames by C1) are returned;
// this implements spec.md §8 Scenario D "partial gpuboxes".
func ReconcileChannels(metafitsChans []int, widthHz float64, version MWAVersion, presentChannelIDs map[int]bool) []CoarseChannel {
	sorted := append([]int(nil), metafitsChans...)
	sort.Ints(sorted)

	if version.IsLegacyCorrelator() {
		return reconcileLegacy(sorted, widthHz, presentChannelIDs)
	}
	return reconcileMWAX(sorted, widthHz, presentChannelIDs)
}

func reconcileMWAX(sorted []int, widthHz float64, presentChannelIDs map[int]bool) []CoarseChannel {
	out := make([]CoarseChannel, 0, len(sorted))
	for i, rec := range sorted {
		gpubox := rec
		if presentChannelIDs != nil && !presentChannelIDs[gpubox] {
			continue
		}
		out = append(out, newCoarseChannel(rec, i, gpubox, widthHz))
	}
	return out
}

func reconcileLegacy(sorted []int, widthHz float64, presentChannelIDs map[int]bool) []CoarseChannel {
	p := 0
	for _, rec := range sorted {
		if rec <= 128 {
			p++
		}
	}
	K := len(sorted)

	out := make([]CoarseChannel, 0, K)
	for i, rec := range sorted {
		var corrIdx int
		if i < p {
			corrIdx = i
		} else {
			corrIdx = K - 1 - (i - p)
		}
		gpubox := corrIdx + 1
		if presentChannelIDs != nil && !presentChannelIDs[gpubox] {
			continue
		}
		out = append(out, newCoarseChannel(rec, corrIdx, gpubox, widthHz))
	}

	return out
}
