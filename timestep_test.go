package mwalib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertGPSUnixRoundTrip(t *testing.T) {
	const offset = gpsUnixOffset(315964800000) // approximate GPS epoch offset, ms

	unixMs := ConvertGPSToUnixMs(1230000000000, offset)
	back := ConvertUnixToGPSMs(unixMs, offset)
	assert.Equal(t, int64(1230000000000), back)
}

func TestConvertUnixToGPSZeroInputSpecialCase(t *testing.T) {
	assert.Equal(t, int64(0), ConvertUnixToGPSMs(0, gpsUnixOffset(12345)))
}

func TestBuildTimesteps(t *testing.T) {
	steps := buildTimesteps(1000, 2000, 500, 3)
	assert.Equal(t, []Timestep{
		{UnixTimeMs: 1000, GPSTimeMs: 2000},
		{UnixTimeMs: 1500, GPSTimeMs: 2500},
		{UnixTimeMs: 2000, GPSTimeMs: 3000},
	}, steps)
}
