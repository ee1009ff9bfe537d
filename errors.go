package mwalib

import (
	"errors"
	"fmt"
)

// Construction-time error kinds (spec.md §7, "Input structure" and
// "File consistency"). These are sentinels; wrap with fmt.Errorf("...: %w", err)
// at the call site so errors.Is/errors.As keep working through the wrap chain.
var (
	ErrNoDataFiles                 = errors.New("mwalib: no data files supplied")
	ErrMixedFormats                = errors.New("mwalib: data filenames span more than one file-family")
	ErrUnrecognisedFilename        = errors.New("mwalib: filename did not match any known family")
	ErrMixedMWAVersions             = errors.New("mwalib: data files span more than one MWA correlator/voltage version")
	ErrBothGpuboxAndVoltageTimeMap  = errors.New("mwalib: both a gpubox time map and a voltage time map were supplied to the same constructor")
	ErrUnevenFilesInBatches        = errors.New("mwalib: batches do not contain the same set of channels")
	ErrUnequalHDUSizes             = errors.New("mwalib: HDUs within a data file family have differing sizes")
	ErrInvalidVoltageFileSize      = errors.New("mwalib: voltage file size does not match the expected header+delay+data size")
	ErrMetafitsMissingKey          = errors.New("mwalib: metafits file is missing a required header key")
	ErrMetafitsParseError          = errors.New("mwalib: metafits header value could not be parsed")
	ErrMetafitsCellReadError       = errors.New("mwalib: metafits table cell could not be read")
)

// Request-time error kinds (spec.md §7, "Request-time").
var (
	ErrInvalidCoarseChanIndex = errors.New("mwalib: coarse channel index out of range")
	ErrInvalidGpsSecondStart  = errors.New("mwalib: gps_start lies outside the observation's scheduled GPS window")
	ErrInvalidGpsSecondCount  = errors.New("mwalib: gps_start + gps_count exceeds the observation's scheduled GPS window")
	ErrInvalidBufferSize      = errors.New("mwalib: caller-supplied buffer is the wrong length for this read")
)

// ErrNoDataForTimeStepCoarseChannel is returned (wrapped, recoverable via
// errors.As) when a (timestep, coarse-channel) cell has no entry in the
// TimeMap. It is kept distinct from the other request-time errors because
// callers commonly iterate the full timestep x channel grid and treat this
// one as skip, not fatal (spec.md §7).
type ErrNoDataForTimeStepCoarseChannel struct {
	TimestepIndex   int
	CoarseChanIndex int
}

func (e *ErrNoDataForTimeStepCoarseChannel) Error() string {
	return fmt.Sprintf("mwalib: no data for timestep %d, coarse channel %d", e.TimestepIndex, e.CoarseChanIndex)
}

// FitsError wraps an underlying FITS-library error with the file, HDU and
// operation context that produced it (spec.md §7, "Underlying-I/O").
type FitsError struct {
	File string
	HDU  int
	Op   string
	Err  error
}

func (e *FitsError) Error() string {
	return fmt.Sprintf("mwalib: fits %s failed on %s (hdu %d): %v", e.Op, e.File, e.HDU, e.Err)
}

func (e *FitsError) Unwrap() error { return e.Err }
