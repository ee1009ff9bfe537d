package mwalib

import "fmt"

// voltageBlockSizeBytes is the per-block byte size for the active version:
// legacy-recombined packs one complex sample per byte, 10000 samples per
// fine channel and rf-input in its single block;
// MWAX packs one byte real + one byte imag per antenna/pol/sample.
func (c *Context) voltageBlockSizeBytes() int64 {
	numRFInputs := len(c.Metafits.RFInputs)
	switch c.Version {
	case VCSLegacyRecombined:
		return int64(numRFInputs*c.NumFineChansPerCoarse) * 10000
	case VCSMWAXv2:
		return int64(numRFInputs) * int64(c.NumFineChansPerCoarse) * int64(c.samplesPerBlock) * 2
	default:
		return 0
	}
}

func (c *Context) voltageBlocksPerTimestep() int {
	switch c.Version {
	case VCSLegacyRecombined:
		return 1
	case VCSMWAXv2:
		return 160
	default:
		return 0
	}
}

func (c *Context) voltageHeaderSize() int64 {
	if c.Version == VCSMWAXv2 {
		return 4096
	}
	return 0
}

// ReadVoltageFile reads one whole voltage subfile's data-block into buf
// (spec.md §4.9.4 "Read-file"), skipping the 4096-byte header and the
// delay-block (one data block long) for MWAX; legacy-recombined files have
// neither.
func (c *Context) ReadVoltageFile(tsIdx, ccIdx int, buf []byte) error {
	want := c.voltageBlockSizeBytes() * int64(c.voltageBlocksPerTimestep())
	if int64(len(buf)) != want {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidBufferSize, want, len(buf))
	}

	loc, err := c.locate(tsIdx, ccIdx)
	if err != nil {
		return err
	}

	size, err := SourceSize(loc.Path, c.configURI)
	if err != nil {
		return err
	}
	header := c.voltageHeaderSize()
	delayBlock := int64(0)
	if c.Version == VCSMWAXv2 {
		delayBlock = c.voltageBlockSizeBytes()
	}
	expectedFileSize := header + delayBlock + want // header + delay-block (= one block) + data
	if c.Version == VCSLegacyRecombined {
		expectedFileSize = want
	}
	if int64(size) != expectedFileSize {
		return fmt.Errorf("%w: %s is %d bytes, expected %d", ErrInvalidVoltageFileSize, loc.Path, size, expectedFileSize)
	}

	stream, err := OpenSource(loc.Path, c.configURI, false)
	if err != nil {
		return err
	}
	defer stream.Close()

	dataOffset := header + delayBlock // skip header + delay-block
	if _, err := stream.Seek(dataOffset, 0); err != nil {
		return err
	}
	if _, err := readFull(stream, buf); err != nil {
		return err
	}
	return nil
}

// ReadVoltageSecond reads gpsCount seconds of voltage data for one coarse
// channel starting at gpsStart (spec.md §4.9.4 "Read-second"), validating
// the requested window lies between the observation's scheduled GPS start
// and the end of the last voltage file's span.
func (c *Context) ReadVoltageSecond(gpsStart int64, gpsCount int, ccIdx int, buf []byte) error {
	if ccIdx < 0 || ccIdx >= len(c.CoarseChannels) {
		return fmt.Errorf("%w: coarse channel %d", ErrInvalidCoarseChanIndex, ccIdx)
	}
	if len(c.Timesteps) == 0 {
		return ErrNoDataFiles
	}

	scheduledStartGPS := c.Metafits.ScheduledGPSStartMs / 1000
	scheduledEndGPS := ConvertUnixToGPSMs(c.Timesteps[len(c.Timesteps)-1].UnixTimeMs, c.Metafits.GPSUnixOffsetMs)/1000 + secondsPerFileMs(c.Version)/1000
	if gpsStart < scheduledStartGPS || gpsStart >= scheduledEndGPS {
		return fmt.Errorf("%w: gps_start=%d, window [%d,%d)", ErrInvalidGpsSecondStart, gpsStart, scheduledStartGPS, scheduledEndGPS)
	}
	if gpsStart+int64(gpsCount) > scheduledEndGPS {
		return fmt.Errorf("%w: gps_start=%d gps_count=%d exceeds window end %d", ErrInvalidGpsSecondCount, gpsStart, gpsCount, scheduledEndGPS)
	}

	blocksPerSecond := c.voltageBlocksPerTimestep()
	if c.Version == VCSMWAXv2 {
		blocksPerSecond = c.voltageBlocksPerTimestep() / 8 // 160 blocks / 8 seconds per file
	}
	blockSize := c.voltageBlockSizeBytes()
	want := blockSize * int64(blocksPerSecond) * int64(gpsCount)
	if int64(len(buf)) != want {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidBufferSize, want, len(buf))
	}

	perSecond := blockSize * int64(blocksPerSecond)
	cc := c.CoarseChannels[ccIdx]

	for s := 0; s < gpsCount; s++ {
		gpsSec := gpsStart + int64(s)
		unixMs := ConvertGPSToUnixMs(gpsSec*1000, c.Metafits.GPSUnixOffsetMs)

		tsIdx := -1
		for i, ts := range c.Timesteps {
			if ts.UnixTimeMs <= unixMs && unixMs < ts.UnixTimeMs+secondsPerFileMs(c.Version) {
				tsIdx = i
				break
			}
		}
		if tsIdx == -1 {
			return &ErrNoDataForTimeStepCoarseChannel{TimestepIndex: -1, CoarseChanIndex: ccIdx}
		}

		loc, err := c.locate(tsIdx, ccIdx)
		if err != nil {
			return err
		}

		offsetWithinFile := (unixMs - c.Timesteps[tsIdx].UnixTimeMs) / secondPerBlockGroupMs(c.Version) * perSecond
		header := c.voltageHeaderSize()
		delayBlock := int64(0)
		if c.Version == VCSMWAXv2 {
			delayBlock = blockSize
		}

		stream, err := OpenSource(loc.Path, c.configURI, false)
		if err != nil {
			return err
		}
		if _, err := stream.Seek(header+delayBlock+offsetWithinFile, 0); err != nil {
			stream.Close()
			return err
		}
		dst := buf[int64(s)*perSecond : int64(s+1)*perSecond]
		if _, err := readFull(stream, dst); err != nil {
			stream.Close()
			return err
		}
		stream.Close()
	}

	return nil
}

func secondsPerFileMs(v MWAVersion) int64 {
	if v == VCSMWAXv2 {
		return 8000
	}
	return 1000
}

func secondPerBlockGroupMs(v MWAVersion) int64 {
	return 1000
}

func readFull(s Stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := s.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// GenerateExpectedVoltFilename reconstructs the filename C1 would have
// parsed for (tsIdx, ccIdx) from the Context's Timesteps and CoarseChannels.
// A Context built by NewMetafitsContext has no Timesteps, so on that path
// every call returns an index error.
func (c *Context) GenerateExpectedVoltFilename(tsIdx, ccIdx int) (string, error) {
	if err := c.checkIndices(tsIdx, ccIdx); err != nil {
		return "", err
	}
	ts := c.Timesteps[tsIdx]
	cc := c.CoarseChannels[ccIdx]
	gpsSec := ConvertUnixToGPSMs(ts.UnixTimeMs, c.Metafits.GPSUnixOffsetMs) / 1000

	switch c.Version {
	case VCSLegacyRecombined:
		return fmt.Sprintf("%d_%d_ch%03d.dat", c.Metafits.ObsID, gpsSec, cc.ReceiverChanNumber), nil
	case VCSMWAXv2:
		return fmt.Sprintf("%d_%d_%03d.sub", c.Metafits.ObsID, gpsSec, cc.ReceiverChanNumber), nil
	default:
		return "", fmt.Errorf("mwalib: GenerateExpectedVoltFilename called on non-voltage context (%s)", c.Version)
	}
}
