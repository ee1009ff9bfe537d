package mwalib

import "sort"

// LegacyConversionRow resolves one baseline's four visibility
// polarisations to their positions in a legacy on-disk HDU, plus whether
// each needs conjugating (spec.md §4.7).
type LegacyConversionRow struct {
	Baseline int
	Ant1     int
	Ant2     int

	XXIndex, XYIndex, YXIndex, YYIndex             int
	XXConjugate, XYConjugate, YXConjugate, YYConjugate bool
}

// finePFBReorder undoes the fine-PFB hardware's bit-reordering of a 256-way
// input index: bit pattern abcdefgh becomes abghcdef (top two bits kept,
// bottom two bits moved up four places, middle four bits shifted down two).
//
// Grounded verbatim on original_source/src/convert.rs fine_pfb_reorder.
func finePFBReorder(x int) int {
	return (x & 0xc0) | ((x & 0x03) << 4) | ((x & 0x3c) >> 2)
}

// BuildLegacyConversionTable builds the mapping from the legacy correlator's
// on-disk triangular output to the canonical baseline order, with
// per-polarisation conjugation (spec.md §4.7). rfInputs must be the full
// 256-element table, in any order: the function sorts its own copy by Input
// (hardware/metafits order), so the caller's output-ordered slice is
// undisturbed.
//
// Grounded verbatim on original_source/src/convert.rs generate_conversion_array.
func BuildLegacyConversionTable(rfInputs []RFInput) []LegacyConversionRow {
	byInput := append([]RFInput(nil), rfInputs...)
	sort.Slice(byInput, func(i, j int) bool { return byInput[i].Input < byInput[j].Input })

	mwaxOrder := make([]int, 256)
	for i := 0; i < 256 && i < len(byInput); i++ {
		mwaxOrder[i] = byInput[i].SubfileOrder
	}

	fullMatrix := make([]int32, 65536)
	for i := range fullMatrix {
		fullMatrix[i] = -1
	}

	sourceLegacyNdx := int32(0)

	for colOrder := 0; colOrder < 256; colOrder += 2 {
		colA := mwaxOrder[finePFBReorder(colOrder)]
		colB := mwaxOrder[finePFBReorder(colOrder+1)]

		for rowOrder := 0; rowOrder <= colOrder; rowOrder += 2 {
			row1st := mwaxOrder[finePFBReorder(rowOrder)]
			row2nd := mwaxOrder[finePFBReorder(rowOrder+1)]

			fullMatrix[(row1st<<8)|colA] = sourceLegacyNdx
			sourceLegacyNdx++
			fullMatrix[(row1st<<8)|colB] = sourceLegacyNdx
			sourceLegacyNdx++

			if colOrder != rowOrder {
				fullMatrix[(row2nd<<8)|colA] = sourceLegacyNdx
			}
			sourceLegacyNdx++

			fullMatrix[(row2nd<<8)|colB] = sourceLegacyNdx
			sourceLegacyNdx++
		}
	}

	for rowOrder := 0; rowOrder < 256; rowOrder++ {
		for colOrder := 0; colOrder < 256; colOrder++ {
			idx := rowOrder<<8 | colOrder
			if fullMatrix[idx] == -1 {
				fullMatrix[idx] = -fullMatrix[colOrder<<8|rowOrder]
			}
		}
	}

	baselineCount := BaselineCount(128)
	table := make([]LegacyConversionRow, 0, baselineCount)
	baseline := 0

	for rowTile := 0; rowTile < 128; rowTile++ {
		for colTile := rowTile; colTile < 128; colTile++ {
			xx := fullMatrix[(rowTile*2)<<8|(colTile*2)] * 2
			xy := fullMatrix[(rowTile*2)<<8|(colTile*2+1)] * 2
			yx := fullMatrix[(rowTile*2+1)<<8|(colTile*2)] * 2
			yy := fullMatrix[(rowTile*2+1)<<8|(colTile*2+1)] * 2

			table = append(table, LegacyConversionRow{
				Baseline:    baseline,
				Ant1:        rowTile,
				Ant2:        colTile,
				XXIndex:     int(abs32(xx)), XXConjugate: xx < 0,
				XYIndex: int(abs32(xy)), XYConjugate: xy < 0,
				YXIndex: int(abs32(yx)), YXConjugate: yx < 0,
				YYIndex: int(abs32(yy)), YYConjugate: yy < 0,
			})
			baseline++
		}
	}

	return table
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// ConvertLegacyHDU reorders one legacy HDU's visibilities, using a
// precomputed conversion table, into canonical
// [baseline][fine_chan][pol][r|i] order. input and output must be the same
// length: numFineChans * len(table) * 8.
//
// Grounded verbatim on original_source/src/convert.rs convert_legacy_hdu.
func ConvertLegacyHDU(table []LegacyConversionRow, input, output []float32, numFineChans int) {
	const floatsPerBaselineFineChan = 8
	numBaselines := len(table)
	floatsPerBaseline := floatsPerBaselineFineChan * numFineChans

	for fineChan := 0; fineChan < numFineChans; fineChan++ {
		sourceBase := fineChan * numBaselines * floatsPerBaselineFineChan
		for bIdx, b := range table {
			destBase := bIdx*floatsPerBaseline + fineChan*floatsPerBaselineFineChan

			writePol := func(destOffset, srcIndex int, conjugate bool) {
				output[destBase+destOffset] = input[sourceBase+srcIndex]
				im := input[sourceBase+srcIndex+1]
				if conjugate {
					im = -im
				}
				output[destBase+destOffset+1] = im
			}

			writePol(0, b.XXIndex, b.XXConjugate)
			writePol(2, b.XYIndex, b.XYConjugate)
			writePol(4, b.YXIndex, b.YXConjugate)
			writePol(6, b.YYIndex, b.YYConjugate)
		}
	}
}
