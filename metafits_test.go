package mwalib

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFitsSource is a minimal in-memory FitsSource, standing in for a real
// metafits file so C2 can be exercised without FITS I/O.
type fakeFitsSource struct {
	strings map[int]map[string]string
	ints    map[int]map[string]int64
	floats  map[int]map[string]float64
	tables  map[int][]map[string]interface{} // row 0 == FITS row 1
	hdus    int
}

func (f *fakeFitsSource) Close() error  { return nil }
func (f *fakeFitsSource) Path() string  { return "fake.metafits" }
func (f *fakeFitsSource) NumHDUs() int  { return f.hdus }

func (f *fakeFitsSource) HeaderString(hdu int, key string) (string, bool, error) {
	v, ok := f.strings[hdu][key]
	return v, ok, nil
}

func (f *fakeFitsSource) HeaderInt(hdu int, key string) (int64, bool, error) {
	v, ok := f.ints[hdu][key]
	return v, ok, nil
}

func (f *fakeFitsSource) HeaderFloat(hdu int, key string) (float64, bool, error) {
	v, ok := f.floats[hdu][key]
	return v, ok, nil
}

func (f *fakeFitsSource) HeaderLongString(hdu int, key string) (string, bool, error) {
	return f.HeaderString(hdu, key)
}

func (f *fakeFitsSource) TableNumRows(hdu int) (int, error) {
	return len(f.tables[hdu]), nil
}

func (f *fakeFitsSource) cell(hdu int, col string, row int) (interface{}, error) {
	rows := f.tables[hdu]
	if row < 1 || row > len(rows) {
		return nil, fmt.Errorf("row %d out of range", row)
	}
	v, ok := rows[row-1][col]
	if !ok {
		return nil, fmt.Errorf("column %q not found", col)
	}
	return v, nil
}

func (f *fakeFitsSource) TableCellString(hdu int, col string, row int) (string, error) {
	v, err := f.cell(hdu, col, row)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *fakeFitsSource) TableCellFloat(hdu int, col string, row int) (float64, error) {
	v, err := f.cell(hdu, col, row)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (f *fakeFitsSource) TableCellFloatArray(hdu int, col string, row int) ([]float64, error) {
	v, err := f.cell(hdu, col, row)
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

func (f *fakeFitsSource) ImageShape(hdu int) ([]int, error) { return nil, fmt.Errorf("not implemented") }
func (f *fakeFitsSource) ImageFloat32(hdu int) ([]float32, error) {
	return nil, fmt.Errorf("not implemented")
}

func fakeTileRow(input, antenna, tile int, tileName, pol string) map[string]interface{} {
	return map[string]interface{}{
		"Input":    float64(input),
		"Antenna":  float64(antenna),
		"Tile":     float64(tile),
		"TileName": tileName,
		"Pol":      pol,
		"Length":   "EL_10.5",
		"North":    1.0,
		"East":     2.0,
		"Height":   3.0,
		"Flag":     0.0,
		"Gains":    []float64{1, 1},
		"Delays":   []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		"Rx":       1.0,
		"Slot":     1.0,
		"Flavors":  "RG6",
	}
}

func newFakeMetafitsSource() *fakeFitsSource {
	return &fakeFitsSource{
		hdus: 2,
		strings: map[int]map[string]string{
			0: {"CHANNELS": "126,127,128,129,130", "MODE": "HW_LFILES"},
		},
		ints: map[int]map[string]int64{
			0: {"GPSTIME": 1065880128, "NINPUTS": 4},
		},
		floats: map[int]map[string]float64{
			0: {
				"INTTIME":  0.5,
				"FINECHAN": 40,
				"BANDWDTH": 6.4,
				"GOODTIME": 1381086247,
				"QUACKTIM": 2,
				"RA":       10.0,
				"DEC":      -26.0,
				"AZIMUTH":  0.0,
				"ALTITUDE": 90.0,
			},
		},
		tables: map[int][]map[string]interface{}{
			1: {
				fakeTileRow(0, 0, 100, "Tile100", "X"),
				fakeTileRow(1, 0, 100, "Tile100", "Y"),
				fakeTileRow(2, 1, 101, "Tile101", "X"),
				fakeTileRow(3, 1, 101, "Tile101", "Y"),
			},
		},
	}
}

func TestLoadMetafits(t *testing.T) {
	md, err := LoadMetafits(newFakeMetafitsSource(), CorrMWAXv2)
	require.NoError(t, err)

	assert.Equal(t, int64(1065880128), md.ObsID)
	assert.Equal(t, int64(1065880128000), md.ScheduledGPSStartMs)
	assert.Equal(t, int64(500), md.IntegrationTimeMs)
	assert.Equal(t, int64(2000), md.QuackTimeMs)
	assert.Equal(t, 40000.0, md.FineChanWidthHz)
	assert.Equal(t, 6.4e6, md.BandwidthHz)
	assert.Equal(t, 1_280_000.0, md.CoarseChanWidthHz)
	assert.Equal(t, []int{126, 127, 128, 129, 130}, md.MetafitsCoarseChans)
	assert.Equal(t, ModeHwLfiles, md.Mode)

	require.Len(t, md.RFInputs, 4)
	assert.Equal(t, 2, md.NumAntennas)
	assert.Equal(t, 4, md.NumVisPols)
	assert.Equal(t, BaselineCount(2), md.NumBaselines)
	assert.Equal(t, "Tile100", md.Antennas[0].TileName)
	assert.Equal(t, "Tile101", md.Antennas[1].TileName)
}

func TestLoadMetafitsMissingGPSTime(t *testing.T) {
	src := newFakeMetafitsSource()
	delete(src.ints[0], "GPSTIME")

	_, err := LoadMetafits(src, CorrMWAXv2)
	require.Error(t, err)
}
