package mwalib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeVCSOrder(t *testing.T) {
	// input=0b10110101 (0xB5): 0xC0 bits=0x80, (0x30 bits=0x30)>>4=0x03,
	// (0x0F bits=0x05)<<2=0x14 -> 0x80|0x03|0x14 = 0x97
	assert.Equal(t, 0x97, computeVCSOrder(0xB5))
	assert.Equal(t, 0, computeVCSOrder(0))
}

func TestComputeSubfileOrder(t *testing.T) {
	assert.Equal(t, 6, computeSubfileOrder(3, PolX))
	assert.Equal(t, 7, computeSubfileOrder(3, PolY))
}

func TestNewDipoleGainsDeadDipole(t *testing.T) {
	gains := newDipoleGains([]int{0, 32, 4, 32})
	assert.Equal(t, []float64{1, 0, 1, 0}, gains)
}

func TestScaleDigitalGains(t *testing.T) {
	gains := scaleDigitalGains([]float64{64, 128, 32})
	assert.Equal(t, []float64{1, 2, 0.5}, gains)
}

func TestSortRFInputsByOutputOrderLegacy(t *testing.T) {
	rfInputs := []RFInput{
		{Input: 0, SubfileOrder: 3},
		{Input: 1, SubfileOrder: 1},
		{Input: 2, SubfileOrder: 2},
		{Input: 3, SubfileOrder: 0},
	}
	sortRFInputsByOutputOrder(rfInputs, CorrLegacy)
	for i, r := range rfInputs {
		assert.Equal(t, i, r.SubfileOrder)
	}
}

func TestSortRFInputsByOutputOrderMWAX(t *testing.T) {
	rfInputs := []RFInput{
		{Input: 3, SubfileOrder: 0},
		{Input: 1, SubfileOrder: 2},
		{Input: 2, SubfileOrder: 1},
	}
	sortRFInputsByOutputOrder(rfInputs, CorrMWAXv2)
	assert.Equal(t, []int{1, 2, 3}, []int{rfInputs[0].Input, rfInputs[1].Input, rfInputs[2].Input})
}
