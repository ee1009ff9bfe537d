package mwalib

// Window holds the index sets C6 derives over a Context's full timestep
// array (spec.md §4.6): which timesteps have data for every channel
// ("common"), which of those are past the quack-time cutoff
// ("common-good"), and which have data for at least one channel at all
// ("provided"). All three are ascending positions into the full timestep
// array.
type Window struct {
	CommonTimestepIndices     []int
	CommonGoodTimestepIndices []int
	ProvidedTimestepIndices   []int

	CommonBandwidthHz float64
}

// ComputeWindow derives a Window from timesteps, a TimeMap, and the set of
// channel identifiers that must all be present for a timestep to count as
// common.
func ComputeWindow(timesteps []Timestep, tm *TimeMap, channelIDs []int, channelWidthHz float64, scheduledUnixStartMs, quackTimeMs int64) Window {
	w := Window{CommonBandwidthHz: float64(len(channelIDs)) * channelWidthHz}

	for i, ts := range timesteps {
		present := 0
		any := false
		for _, cid := range channelIDs {
			if _, ok := tm.Lookup(ts.UnixTimeMs, cid); ok {
				present++
				any = true
			}
		}
		if any {
			w.ProvidedTimestepIndices = append(w.ProvidedTimestepIndices, i)
		}
		if present == len(channelIDs) && len(channelIDs) > 0 {
			w.CommonTimestepIndices = append(w.CommonTimestepIndices, i)
			if ts.UnixTimeMs >= scheduledUnixStartMs+quackTimeMs {
				w.CommonGoodTimestepIndices = append(w.CommonGoodTimestepIndices, i)
			}
		}
	}

	return w
}
