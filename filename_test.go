package mwalib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilenamesCorrLegacyBatched(t *testing.T) {
	recs, err := ParseFilenames([]string{
		"1234567890_20190101120000_gpubox01_00.fits",
		"1234567890_20190101120000_gpubox02_00.fits",
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, familyCorrLegacyBatched, recs[0].Family)
	assert.Equal(t, 1, recs[0].ChannelID)
	assert.Equal(t, 0, recs[0].BatchIndex)
	assert.Equal(t, "1234567890", recs[0].ObsID)
}

func TestParseFilenamesCorrLegacyUnbatched(t *testing.T) {
	recs, err := ParseFilenames([]string{"1234567890_20190101120000_gpubox01.fits"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, familyCorrLegacyUnbatched, recs[0].Family)
	assert.Equal(t, CorrOldLegacy, recs[0].Family.version())
}

func TestParseFilenamesCorrMWAX(t *testing.T) {
	recs, err := ParseFilenames([]string{"1234567890_20190101120000_ch109_00.fits"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, familyCorrMWAX, recs[0].Family)
	assert.Equal(t, 109, recs[0].ChannelID)
}

func TestParseFilenamesVoltageLegacy(t *testing.T) {
	recs, err := ParseFilenames([]string{"1234567890_1234567800_ch109.dat"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, familyVoltLegacyRecombined, recs[0].Family)
	assert.Equal(t, 1234567800, recs[0].BatchIndex)
}

func TestParseFilenamesVoltageMWAX(t *testing.T) {
	recs, err := ParseFilenames([]string{"1234567890_1234567800_109.sub"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, familyVoltMWAX, recs[0].Family)
}

func TestParseFilenamesMixedFormatsRejected(t *testing.T) {
	_, err := ParseFilenames([]string{
		"1234567890_20190101120000_gpubox01_00.fits",
		"1234567890_20190101120000_ch109_00.fits",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMixedFormats))
}

func TestParseFilenamesUnrecognised(t *testing.T) {
	_, err := ParseFilenames([]string{"not_a_real_file.txt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecognisedFilename))
}
