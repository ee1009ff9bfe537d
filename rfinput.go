package mwalib

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RFInput is one physical analog-chain input (spec.md §3 "RFInput").
//
// Grounded on original_source/src/rfinput.rs's mwalibRFInput plus the
// digital-gain/dipole-delay/calibration fields spec.md §3 adds on top of
// the original's minimal set.
type RFInput struct {
	Input        int // sequence index from the metafits tile table's Input column, stored as read
	Antenna      int // antenna ordinal, shared by the X/Y pair
	TileID       int
	TileName     string
	Pol          Pol
	ElectricalLengthM float64
	NorthM       float64
	EastM        float64
	HeightM      float64
	// VCSOrder ("vcs_order"/hardware-PFB order) is the order this input is
	// presented in by the legacy fine-PFB hardware.
	VCSOrder int
	// SubfileOrder ("output order") is the order this input is wanted in
	// for the final output; for legacy correlator data the rfinput table
	// is re-sorted by this key (spec.md §4.2 "RF-input output ordering rule").
	SubfileOrder int

	Flagged bool

	// DigitalGains are per-coarse-channel digital gains, raw metafits
	// integers divided by 64 (spec.md §3).
	DigitalGains []float64
	// DipoleDelays and DipoleGains are per-dipole (16-element) values; a
	// delay of 32 marks a dead dipole, which carries gain 0 instead of 1.
	DipoleDelays []int
	DipoleGains  []float64

	ReceiverNumber int
	ReceiverSlot   int
	ReceiverType   ReceiverType
	CableType      string
	HasWhiteningFilter bool

	// CalibDelay and CalibGains are optional (nil when the metafits has no
	// calibration-fit keys for this input).
	CalibDelay *float64
	CalibGains []float64

	// SignalChainCorrectionIndex is an optional index into the
	// signal-chain-correction table (spec.md §4.2), -1 when absent.
	SignalChainCorrectionIndex int
}

const deadDipoleDelay = 32

// computeVCSOrder reproduces original_source/src/rfinput.rs's bit
// rearrangement: vcs_order = (input & 0xC0) | ((input & 0x30) >> 4) | ((input & 0x0F) << 2).
func computeVCSOrder(input int) int {
	return (input & 0xC0) | ((input & 0x30) >> 4) | ((input & 0x0F) << 2)
}

// computeSubfileOrder reproduces (antenna << 1) | (pol == Y), i.e. the
// desired output-order key from spec.md §4.2.
func computeSubfileOrder(antenna int, pol Pol) int {
	order := antenna << 1
	if pol == PolY {
		order |= 1
	}
	return order
}

func parseElectricalLength(raw string) (float64, error) {
	trimmed := strings.TrimPrefix(raw, "EL_")
	v, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: electrical length %q: %v", ErrMetafitsParseError, raw, err)
	}
	return v, nil
}

func newDipoleGains(delays []int) []float64 {
	gains := make([]float64, len(delays))
	for i, d := range delays {
		if d == deadDipoleDelay {
			gains[i] = 0
		} else {
			gains[i] = 1
		}
	}
	return gains
}

func scaleDigitalGains(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v / 64.0
	}
	return out
}

// sortRFInputsByOutputOrder reorders rfInputs so that the i-th element's
// SubfileOrder equals i, reproducing spec.md §4.2's legacy reordering rule.
// For MWAX, the metafits table order already equals the output order, so
// this is a stable no-op sort by Input for that family.
func sortRFInputsByOutputOrder(rfInputs []RFInput, version MWAVersion) {
	if version.IsLegacyCorrelator() || version.IsVoltage() && version == VCSLegacyRecombined {
		sort.SliceStable(rfInputs, func(i, j int) bool {
			return rfInputs[i].SubfileOrder < rfInputs[j].SubfileOrder
		})
		return
	}
	sort.SliceStable(rfInputs, func(i, j int) bool {
		return rfInputs[i].Input < rfInputs[j].Input
	})
}

func (r RFInput) String() string {
	return fmt.Sprintf("%s%s (vcs=%d subfile=%d)", r.TileName, r.Pol, r.VCSOrder, r.SubfileOrder)
}
