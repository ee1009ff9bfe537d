package mwalib

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// correlatorHDU is one image HDU of a correlator data file, timestamped via
// its TIME/MILLITIM header cards (spec.md §4.3, §6.4).
type correlatorHDU struct {
	HDUIndex  int
	UnixTimeMs int64
}

// correlatorBatchFile is one opened, indexed correlator data file: its
// channel identifier (gpubox number for legacy, receiver channel for MWAX),
// batch index, and the per-HDU timestamps read out of it.
type correlatorBatchFile struct {
	Path       string
	ChannelID  int
	BatchIndex int
	HDUSizeFloats int
	HDUs       []correlatorHDU
}

// voltageBatchFile is one indexed voltage subfile: its channel identifier,
// the GPS second it starts at (the filename's own timestamp, spec.md §4.1),
// and its on-disk size for later validation against §6.3.
type voltageBatchFile struct {
	Path      string
	ChannelID int
	GPSSecond int64
	SizeBytes int64
}

// DataFileIndex is C3's output: every data file opened, classified, and
// indexed by (batch, channel) with per-file timestamps read out.
type DataFileIndex struct {
	Version MWAVersion

	CorrelatorFiles []correlatorBatchFile
	VoltageFiles    []voltageBatchFile
}

// IndexCorrelatorFiles opens every record (already classified as one of the
// two correlator families by C1) and reads TIME/MILLITIM from each image
// HDU after the primary (spec.md §4.3 "Correlator").
//
// Grounded on original_source/src/gpubox.rs determine_gpubox_batches /
// determine_obs_times (the timestamp-reading loop), adapted from that
// file's batching logic to the fileRecord records C1 already produced.
func IndexCorrelatorFiles(records []fileRecord, configURI string) (*DataFileIndex, error) {
	if len(records) == 0 {
		return nil, ErrNoDataFiles
	}

	version := records[0].Family.version()
	idx := &DataFileIndex{Version: version}

	expectedHDUSize := -1
	batchFileCounts := make(map[int]int)

	for _, rec := range records {
		fits, err := OpenFitsFile(rec.Path, configURI)
		if err != nil {
			return nil, err
		}

		bf := correlatorBatchFile{Path: rec.Path, ChannelID: rec.ChannelID, BatchIndex: rec.BatchIndex}

		for h := 1; h < fits.NumHDUs(); h++ {
			shape, err := fits.ImageShape(h)
			if err != nil {
				fits.Close()
				return nil, err
			}
			size := 1
			for _, d := range shape {
				size *= d
			}
			if expectedHDUSize == -1 {
				expectedHDUSize = size
			} else if size != expectedHDUSize {
				fits.Close()
				return nil, fmt.Errorf("%w: %s HDU %d has %d floats, expected %d", ErrUnequalHDUSizes, rec.Path, h, size, expectedHDUSize)
			}

			timeSec, ok, err := fits.HeaderInt(h, "TIME")
			if err != nil {
				fits.Close()
				return nil, err
			}
			if !ok {
				fits.Close()
				return nil, fmt.Errorf("%w: %s HDU %d missing TIME", ErrMetafitsMissingKey, rec.Path, h)
			}
			milliSec, _, err := fits.HeaderInt(h, "MILLITIM")
			if err != nil {
				fits.Close()
				return nil, err
			}

			bf.HDUs = append(bf.HDUs, correlatorHDU{
				HDUIndex:   h,
				UnixTimeMs: timeSec*1000 + milliSec,
			})
		}
		bf.HDUSizeFloats = expectedHDUSize
		fits.Close()

		idx.CorrelatorFiles = append(idx.CorrelatorFiles, bf)
		batchFileCounts[rec.BatchIndex]++
	}

	counts := lo.Values(batchFileCounts)
	if len(lo.Uniq(counts)) > 1 {
		return nil, fmt.Errorf("%w: batches have differing file counts %v", ErrUnevenFilesInBatches, batchFileCounts)
	}

	sort.Slice(idx.CorrelatorFiles, func(i, j int) bool {
		if idx.CorrelatorFiles[i].BatchIndex != idx.CorrelatorFiles[j].BatchIndex {
			return idx.CorrelatorFiles[i].BatchIndex < idx.CorrelatorFiles[j].BatchIndex
		}
		return idx.CorrelatorFiles[i].ChannelID < idx.CorrelatorFiles[j].ChannelID
	})

	return idx, nil
}

// expectedVoltageFileSize returns the on-disk size (spec.md §6.3) for one
// voltage subfile of the given family, given the per-rfinput-finechan
// sample count (64000 critical / 81920 oversampled) and the observation's
// rfinput/fine-channel counts. MWAX: header(4096) + delay-block(=one
// blockSize) + blocksPerFile * blockSize. Legacy-recombined: just the raw
// sample data, no header or delay-block.
func expectedVoltageFileSize(family fileFamily, numRFInputs, numFineChans, samplesPerBlock int) int64 {
	switch family {
	case familyVoltLegacyRecombined:
		// sample[s].fine_chan[f].antenna[a].pol[p], 1 byte per sample
		// (4-bit real + 4-bit imag packed), 10000 samples/block, 1 block/file.
		const samplesPerSecond = 10000
		return int64(samplesPerSecond * numFineChans * numRFInputs)
	case familyVoltMWAX:
		const header = 4096
		const blocksPerFile = 160
		blockSize := int64(numRFInputs) * int64(numFineChans) * int64(samplesPerBlock) * 2
		return header + blockSize + blocksPerFile*blockSize
	default:
		return -1
	}
}

// IndexVoltageFiles looks up the size of (without opening; spec.md §9
// "Voltage reads are always open/close per call") every voltage record and
// checks it against §6.3, deriving each
// file's GPS-second timestamp directly from its filename (already parsed by
// C1 into BatchIndex).
func IndexVoltageFiles(records []fileRecord, numRFInputs, numFineChans, samplesPerBlock int, configURI string) (*DataFileIndex, error) {
	if len(records) == 0 {
		return nil, ErrNoDataFiles
	}

	version := records[0].Family.version()
	idx := &DataFileIndex{Version: version}
	expected := expectedVoltageFileSize(records[0].Family, numRFInputs, numFineChans, samplesPerBlock)

	for _, rec := range records {
		size, err := SourceSize(rec.Path, configURI)
		if err != nil {
			return nil, err
		}
		if int64(size) != expected {
			return nil, fmt.Errorf("%w: %s is %d bytes, expected %d", ErrInvalidVoltageFileSize, rec.Path, size, expected)
		}

		idx.VoltageFiles = append(idx.VoltageFiles, voltageBatchFile{
			Path:      rec.Path,
			ChannelID: rec.ChannelID,
			GPSSecond: int64(rec.BatchIndex),
			SizeBytes: int64(size),
		})
	}

	sort.Slice(idx.VoltageFiles, func(i, j int) bool {
		if idx.VoltageFiles[i].GPSSecond != idx.VoltageFiles[j].GPSSecond {
			return idx.VoltageFiles[i].GPSSecond < idx.VoltageFiles[j].GPSSecond
		}
		return idx.VoltageFiles[i].ChannelID < idx.VoltageFiles[j].ChannelID
	})

	return idx, nil
}
