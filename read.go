package mwalib

import "fmt"

const numVisPols = 4 // XX, XY, YX, YY

func (c *Context) checkIndices(tsIdx, ccIdx int) error {
	if tsIdx < 0 || tsIdx >= len(c.Timesteps) {
		return fmt.Errorf("%w: timestep %d (have %d)", ErrInvalidCoarseChanIndex, tsIdx, len(c.Timesteps))
	}
	if ccIdx < 0 || ccIdx >= len(c.CoarseChannels) {
		return fmt.Errorf("%w: coarse channel %d (have %d)", ErrInvalidCoarseChanIndex, ccIdx, len(c.CoarseChannels))
	}
	return nil
}

func (c *Context) locate(tsIdx, ccIdx int) (DataLocator, error) {
	if err := c.checkIndices(tsIdx, ccIdx); err != nil {
		return DataLocator{}, err
	}
	ts := c.Timesteps[tsIdx]
	cc := c.CoarseChannels[ccIdx]
	loc, ok := c.timeMap.Lookup(ts.UnixTimeMs, cc.GpuboxNumber)
	if !ok {
		return DataLocator{}, &ErrNoDataForTimeStepCoarseChannel{TimestepIndex: tsIdx, CoarseChanIndex: ccIdx}
	}
	return loc, nil
}

func (c *Context) numBaselines() int { return BaselineCount(c.Metafits.NumAntennas) }

// visBufLen is the exact caller-buffer length §4.9.1 requires: real/imag
// interleaved, pol order XX,XY,YX,YY, baseline order per spec.md §3, fine
// channel order ascending.
func (c *Context) visBufLen() int {
	return c.NumFineChansPerCoarse * numVisPols * c.numBaselines() * 2
}

// ReadByBaseline resolves (tsIdx, ccIdx) and writes one integration's
// visibilities into buf in [baseline][fine_chan][pol][r|i] order (spec.md
// §4.9.1). For legacy data the on-disk triangular/PFB layout is converted
// via the §4.7 conversion table (§4.9.2); for MWAX the image is already in
// the wanted layout and is copied directly.
func (c *Context) ReadByBaseline(tsIdx, ccIdx int, buf []float32) error {
	want := c.visBufLen()
	if len(buf) != want {
		return fmt.Errorf("%w: need %d floats, got %d", ErrInvalidBufferSize, want, len(buf))
	}

	loc, err := c.locate(tsIdx, ccIdx)
	if err != nil {
		return err
	}

	fits, err := OpenFitsFile(loc.Path, c.configURI)
	if err != nil {
		return err
	}
	defer fits.Close()

	raw, err := fits.ImageFloat32(loc.HDUIndex)
	if err != nil {
		return err
	}
	if len(raw) != want {
		return fmt.Errorf("%w: hdu has %d floats, expected %d", ErrUnequalHDUSizes, len(raw), want)
	}

	if c.Version.IsLegacyCorrelator() {
		ConvertLegacyHDU(c.legacyConversionTable, raw, buf, c.NumFineChansPerCoarse)
	} else {
		copy(buf, raw)
	}
	return nil
}

// ReadByFrequency is ReadByBaseline's data transposed to
// [fine_chan][baseline][pol][r|i] order (spec.md §4.9.1, §8 #7: "reading by
// baseline then transposing yields the same bytes as reading by
// frequency").
func (c *Context) ReadByFrequency(tsIdx, ccIdx int, buf []float32) error {
	want := c.visBufLen()
	if len(buf) != want {
		return fmt.Errorf("%w: need %d floats, got %d", ErrInvalidBufferSize, want, len(buf))
	}

	byBaseline := make([]float32, want)
	if err := c.ReadByBaseline(tsIdx, ccIdx, byBaseline); err != nil {
		return err
	}

	const floatsPerVis = numVisPols * 2
	numBaselines := c.numBaselines()
	floatsPerBaseline := c.NumFineChansPerCoarse * floatsPerVis

	for b := 0; b < numBaselines; b++ {
		for f := 0; f < c.NumFineChansPerCoarse; f++ {
			src := b*floatsPerBaseline + f*floatsPerVis
			dst := f*numBaselines*floatsPerVis + b*floatsPerVis
			copy(buf[dst:dst+floatsPerVis], byBaseline[src:src+floatsPerVis])
		}
	}
	return nil
}

// ReadWeightsByBaseline reads the MWAX weights HDU (one float per
// baseline/pol, spec.md §6.4), conventionally the HDU immediately following
// the visibility HDU within the same batch file. Legacy data carries no
// weights HDU; in that case every weight is 1.0, matching the original
// mwalib's synthesised legacy weighting.
func (c *Context) ReadWeightsByBaseline(tsIdx, ccIdx int, buf []float32) error {
	want := c.numBaselines() * numVisPols
	if len(buf) != want {
		return fmt.Errorf("%w: need %d floats, got %d", ErrInvalidBufferSize, want, len(buf))
	}

	if c.Version.IsLegacyCorrelator() {
		for i := range buf {
			buf[i] = 1.0
		}
		return nil
	}

	loc, err := c.locate(tsIdx, ccIdx)
	if err != nil {
		return err
	}

	fits, err := OpenFitsFile(loc.Path, c.configURI)
	if err != nil {
		return err
	}
	defer fits.Close()

	raw, err := fits.ImageFloat32(loc.HDUIndex + 1)
	if err != nil {
		return err
	}
	if len(raw) != want {
		return fmt.Errorf("%w: weights hdu has %d floats, expected %d", ErrUnequalHDUSizes, len(raw), want)
	}
	copy(buf, raw)
	return nil
}

// FineChanFreqsHz returns, for each requested coarse-channel index, the
// centre frequency in Hz of every fine channel within it, concatenated in
// coarse-channel then fine-channel order (spec.md §4.9.4).
//
// Legacy-family centre frequencies are offset -5 kHz from the naive
// coarse-start + (j+0.5)*fine_width formula (spec.md §9 "fine-channel
// frequency offset ... treated as empirical, reproduce from literal seed
// values only" — see DESIGN.md). MWAX carries no such offset, and its j=0
// fine channel sits exactly on cc.StartHz rather than half a fine-channel
// above it.
//
// Grounded on original_source/src/coarse_channel/test.rs (legacy cases
// lines 602-736, MWAX cases lines 738-871).
func (c *Context) FineChanFreqsHz(ccIndices []int) []float64 {
	out := make([]float64, 0, len(ccIndices)*c.NumFineChansPerCoarse)
	fineWidth := c.FineChanWidthHz

	for _, ccIdx := range ccIndices {
		if ccIdx < 0 || ccIdx >= len(c.CoarseChannels) {
			continue
		}
		cc := c.CoarseChannels[ccIdx]

		if c.Version.IsLegacyCorrelator() {
			for j := 0; j < c.NumFineChansPerCoarse; j++ {
				out = append(out, cc.StartHz+(float64(j)+0.5)*fineWidth-5000)
			}
		} else {
			for j := 0; j < c.NumFineChansPerCoarse; j++ {
				out = append(out, cc.StartHz+float64(j)*fineWidth)
			}
		}
	}
	return out
}
