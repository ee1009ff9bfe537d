package mwalib

import "sort"

// DataLocator resolves a (timestep, coarse-channel) cell to where its data
// actually lives on disk (spec.md §3 "DataLocator").
type DataLocator struct {
	// BatchIndex and HDUIndex locate correlator data; HDUIndex is -1 for
	// voltage cells, which are located by Path (and, for second-granular
	// reads, GPSSecond) instead.
	BatchIndex int
	HDUIndex   int
	Path       string
	GPSSecond  int64
}

// TimeMap is the two-level ordered mapping spec.md §3 defines: outer key
// unix-time-ms ascending, inner key coarse-channel-identifier, value
// DataLocator. Implemented as a sorted slice of rows plus a per-row map,
// rather than a nested map, so iteration is already in ascending time order
// (spec.md §4.4 "ordered").
type TimeMap struct {
	times []int64
	cells []map[int]DataLocator
}

// Times returns the ascending unix-time-ms keys.
func (tm *TimeMap) Times() []int64 { return tm.times }

// Lookup returns the DataLocator for (unixTimeMs, channelID), or
// (DataLocator{}, false) if that cell is absent.
func (tm *TimeMap) Lookup(unixTimeMs int64, channelID int) (DataLocator, bool) {
	i := sort.Search(len(tm.times), func(i int) bool { return tm.times[i] >= unixTimeMs })
	if i >= len(tm.times) || tm.times[i] != unixTimeMs {
		return DataLocator{}, false
	}
	loc, ok := tm.cells[i][channelID]
	return loc, ok
}

func (tm *TimeMap) rowIndex(unixTimeMs int64) int {
	i := sort.Search(len(tm.times), func(i int) bool { return tm.times[i] >= unixTimeMs })
	if i < len(tm.times) && tm.times[i] == unixTimeMs {
		return i
	}
	tm.times = append(tm.times, 0)
	copy(tm.times[i+1:], tm.times[i:])
	tm.times[i] = unixTimeMs

	tm.cells = append(tm.cells, nil)
	copy(tm.cells[i+1:], tm.cells[i:])
	tm.cells[i] = make(map[int]DataLocator)
	return i
}

func (tm *TimeMap) set(unixTimeMs int64, channelID int, loc DataLocator) {
	i := tm.rowIndex(unixTimeMs)
	tm.cells[i][channelID] = loc
}

// BuildCorrelatorTimeMap folds a DataFileIndex's correlator files into a
// TimeMap, one cell per (HDU unix-time, channel).
//
// Grounded on original_source/src/gpubox.rs determine_obs_times, which
// performs the analogous fold (there: to find the common time window
// rather than to build a lookup table).
func BuildCorrelatorTimeMap(idx *DataFileIndex) *TimeMap {
	tm := &TimeMap{}
	for _, bf := range idx.CorrelatorFiles {
		for _, hdu := range bf.HDUs {
			tm.set(hdu.UnixTimeMs, bf.ChannelID, DataLocator{
				BatchIndex: bf.BatchIndex,
				HDUIndex:   hdu.HDUIndex,
				Path:       bf.Path,
			})
		}
	}
	return tm
}

// BuildVoltageTimeMap folds a DataFileIndex's voltage files into a TimeMap,
// one cell per (file GPS-second, converted to unix-ms, channel).
func BuildVoltageTimeMap(idx *DataFileIndex, offset gpsUnixOffset) *TimeMap {
	tm := &TimeMap{}
	for _, vf := range idx.VoltageFiles {
		unixMs := ConvertGPSToUnixMs(vf.GPSSecond*1000, offset)
		tm.set(unixMs, vf.ChannelID, DataLocator{
			HDUIndex:  -1,
			Path:      vf.Path,
			GPSSecond: vf.GPSSecond,
		})
	}
	return tm
}
