package mwalib

import "fmt"

// CoarseChannel is one of the observation's receiver-defined sub-bands
// (spec.md §3 "CoarseChannel").
type CoarseChannel struct {
	// CorrelatorChanNumber ("corr_chan") is the 0-based position this
	// channel occupies in the correlator's channel ordering (spec.md §4.5).
	CorrelatorChanNumber int
	// ReceiverChanNumber ("rec_chan") is the raw 0-255 receiver channel
	// number from the metafits CHANNELS list.
	ReceiverChanNumber int
	// GpuboxNumber is CorrelatorChanNumber+1, matching the number embedded
	// in legacy gpubox filenames (1-based); for MWAX it equals
	// ReceiverChanNumber.
	GpuboxNumber int

	WidthHz  float64
	CentreHz float64
	StartHz  float64
	EndHz    float64
}

// newCoarseChannel builds a CoarseChannel from a receiver channel number and
// bandwidth, using the MWA convention verified by spec.md §8 Scenario G:
// centre frequency = receiver_channel_number * channel_width.
func newCoarseChannel(recChan, corrChan, gpuboxNumber int, widthHz float64) CoarseChannel {
	centre := float64(recChan) * widthHz
	return CoarseChannel{
		CorrelatorChanNumber: corrChan,
		ReceiverChanNumber:   recChan,
		GpuboxNumber:         gpuboxNumber,
		WidthHz:              widthHz,
		CentreHz:             centre,
		StartHz:              centre - widthHz/2,
		EndHz:                centre + widthHz/2,
	}
}

// String renders a CoarseChannel as "gpu=<n> corr=<n> rec=<n> @ <mhz> MHz",
// matching spec.md §8 Scenario G exactly.
func (c CoarseChannel) String() string {
	return fmt.Sprintf("gpu=%d corr=%d rec=%d @ %.3f MHz", c.GpuboxNumber, c.CorrelatorChanNumber, c.ReceiverChanNumber, c.CentreHz/1e6)
}
