package mwalib

import "fmt"

// Antenna is derived by pairing the X and Y RFInputs that share a tile
// identifier (spec.md §3 "Antenna").
//
// Grounded on original_source/src/antenna.rs's mwalibAntenna/populate_antennas.
type Antenna struct {
	Antenna  int // ordinal, 0..N-1
	TileID   int
	TileName string
	// XPol and YPol index into the owning Context's RFInputs slice rather
	// than embedding copies, keeping the RFInput <-> Antenna <-> Baseline
	// relationship a DAG of flat indices (spec.md §9 "Cyclic references").
	XPol int
	YPol int
}

func (a Antenna) String() string { return a.TileName }

// buildAntennas pairs consecutive X/Y RFInputs (already sorted into output
// order by sortRFInputsByOutputOrder) into Antenna records.
//
// Invariant (spec.md §8 #1): for every antenna ordinal a, exactly one X and
// one Y RFInput have Antenna == a and share a TileID.
func buildAntennas(rfInputs []RFInput) ([]Antenna, error) {
	if len(rfInputs)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of rf-inputs (%d), cannot pair into antennas", ErrMetafitsParseError, len(rfInputs))
	}

	antennas := make([]Antenna, 0, len(rfInputs)/2)
	for i := 0; i < len(rfInputs); i += 2 {
		x, y := rfInputs[i], rfInputs[i+1]
		if x.Pol == y.Pol {
			return nil, fmt.Errorf("%w: rf-inputs %d and %d share polarisation %s, expected one X and one Y", ErrMetafitsParseError, i, i+1, x.Pol)
		}
		if x.TileID != y.TileID {
			return nil, fmt.Errorf("%w: rf-inputs %d and %d have different tile ids (%d vs %d)", ErrMetafitsParseError, i, i+1, x.TileID, y.TileID)
		}

		xIdx, yIdx := i, i+1
		if x.Pol == PolY {
			xIdx, yIdx = yIdx, xIdx
		}

		antennas = append(antennas, Antenna{
			Antenna:  x.Antenna,
			TileID:   x.TileID,
			TileName: x.TileName,
			XPol:     xIdx,
			YPol:     yIdx,
		})
	}

	return antennas, nil
}
