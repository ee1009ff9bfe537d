package mwalib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAntennasValidPairs(t *testing.T) {
	rfInputs := []RFInput{
		{Antenna: 0, TileID: 100, TileName: "Tile100", Pol: PolX},
		{Antenna: 0, TileID: 100, TileName: "Tile100", Pol: PolY},
		{Antenna: 1, TileID: 101, TileName: "Tile101", Pol: PolY},
		{Antenna: 1, TileID: 101, TileName: "Tile101", Pol: PolX},
	}

	antennas, err := buildAntennas(rfInputs)
	require.NoError(t, err)
	require.Len(t, antennas, 2)

	assert.Equal(t, 0, antennas[0].XPol)
	assert.Equal(t, 1, antennas[0].YPol)
	assert.Equal(t, "Tile100", antennas[0].TileName)

	// Second pair is stored Y-then-X in the input slice; XPol/YPol must
	// still resolve to the correct indices regardless of storage order.
	assert.Equal(t, 3, antennas[1].XPol)
	assert.Equal(t, 2, antennas[1].YPol)
}

func TestBuildAntennasMismatchedPolarisation(t *testing.T) {
	rfInputs := []RFInput{
		{Antenna: 0, TileID: 100, Pol: PolX},
		{Antenna: 0, TileID: 100, Pol: PolX},
	}
	_, err := buildAntennas(rfInputs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetafitsParseError))
}

func TestBuildAntennasMismatchedTileID(t *testing.T) {
	rfInputs := []RFInput{
		{Antenna: 0, TileID: 100, Pol: PolX},
		{Antenna: 0, TileID: 101, Pol: PolY},
	}
	_, err := buildAntennas(rfInputs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetafitsParseError))
}

func TestBuildAntennasOddCount(t *testing.T) {
	rfInputs := []RFInput{{Antenna: 0, TileID: 100, Pol: PolX}}
	_, err := buildAntennas(rfInputs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetafitsParseError))
}
