package mwalib

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	stgpsr "github.com/yuin/stagparser"
)

// scalarHeader mirrors the primary-HDU keys spec.md §6.1 lists. Each field's
// `metafits` tag names the FITS key it is sourced from; populateFromTags
// (schema.go-style reflection, generalising the teacher's tiledb-tag
// approach) fills every field from one pass over the HDU rather than a
// hand-written getter per key.
type scalarHeader struct {
	GPSTime       int64   `metafits:"key=GPSTIME"`
	IntTimeSec    float64 `metafits:"key=INTTIME"`
	FineChanKHz   float64 `metafits:"key=FINECHAN"`
	BandwidthMHz  float64 `metafits:"key=BANDWDTH"`
	Channels      string  `metafits:"key=CHANNELS,long=true"`
	NInputs       int64   `metafits:"key=NINPUTS"`
	GoodTimeUnix  float64 `metafits:"key=GOODTIME"`
	QuackTimeSec  float64 `metafits:"key=QUACKTIM"`
	FreqCentMHz   float64 `metafits:"key=FREQCENT"`
	AttenDB       float64 `metafits:"key=ATTEN_DB"`
	RA            float64 `metafits:"key=RA"`
	Dec           float64 `metafits:"key=DEC"`
	Azimuth       float64 `metafits:"key=AZIMUTH"`
	Altitude      float64 `metafits:"key=ALTITUDE"`
	ModeStr       string  `metafits:"key=MODE"`
	CableDel      string  `metafits:"key=CABLEDEL"`
	GeoDel        string  `metafits:"key=GEODEL"`
	CalibDel      string  `metafits:"key=CALIBDEL"`
	Calibrator    string  `metafits:"key=CALIBRATOR"`
	CalibSrc      string  `metafits:"key=CALIBSRC"`
	DeRipple      string  `metafits:"key=DERIPPLE"`
	DeRippleParam string  `metafits:"key=DERIPARAM"`
	DUT1          float64 `metafits:"key=DUT1"`
}

// populateFromTags reads dst's `metafits:"key=..."`-tagged fields out of the
// given HDU's header, one field at a time, via reflection. Grounded on the
// teacher's schema.go schemaAttrs (there: reading "tiledb"/"filters" tag
// namespaces the same way).
func populateFromTags(fits FitsSource, hdu int, dst interface{}) error {
	defs, err := stgpsr.ParseStruct(dst, "metafits")
	if err != nil {
		return fmt.Errorf("%w: parsing metafits struct tags: %v", ErrMetafitsParseError, err)
	}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		fieldDefs := defs[t.Field(i).Name]
		var key string
		long := false
		for _, d := range fieldDefs {
			val, _ := d.Attribute(d.Name())
			switch d.Name() {
			case "key":
				key = fmt.Sprint(val)
			case "long":
				long = fmt.Sprint(val) == "true"
			}
		}
		if key == "" {
			continue
		}

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			var s string
			var ok bool
			var err error
			if long {
				s, ok, err = fits.HeaderLongString(hdu, key)
			} else {
				s, ok, err = fits.HeaderString(hdu, key)
			}
			if err != nil {
				return fmt.Errorf("%w: key %s: %v", ErrMetafitsCellReadError, key, err)
			}
			if !ok {
				continue // optional key absent; zero value retained
			}
			field.SetString(s)
		case reflect.Int, reflect.Int64:
			n, ok, err := fits.HeaderInt(hdu, key)
			if err != nil {
				return fmt.Errorf("%w: key %s: %v", ErrMetafitsCellReadError, key, err)
			}
			if !ok {
				continue
			}
			field.SetInt(n)
		case reflect.Float64:
			f, ok, err := fits.HeaderFloat(hdu, key)
			if err != nil {
				return fmt.Errorf("%w: key %s: %v", ErrMetafitsCellReadError, key, err)
			}
			if !ok {
				continue
			}
			field.SetFloat(f)
		}
	}

	return nil
}

// requireKey fails construction with ErrMetafitsMissingKey when a
// mandatory header value was never populated (i.e. is still its zero value
// because the key was absent from the file).
func requireKey(present bool, key string) error {
	if !present {
		return fmt.Errorf("%w: %s", ErrMetafitsMissingKey, key)
	}
	return nil
}

// signalChainCorrection is one row of the optional signal-chain-correction
// table (spec.md §4.2), indexed by (receiver type, whitening-filter-present).
type signalChainCorrection struct {
	ReceiverType       ReceiverType
	HasWhiteningFilter bool
	Corrections        []float64
}

type sccKey struct {
	rt ReceiverType
	wf bool
}

// MetafitsData is everything C2 derives from the metafits file: the
// scalar observation-wide fields plus the RF-input/antenna/baseline/
// coarse-channel tables.
type MetafitsData struct {
	ObsID int64

	ScheduledGPSStartMs int64
	ScheduledUnixStartMs int64
	GPSUnixOffsetMs      gpsUnixOffset
	IntegrationTimeMs    int64
	QuackTimeMs          int64

	FineChanWidthHz   float64
	CoarseChanWidthHz float64
	BandwidthHz       float64

	RADeg, DecDeg         float64
	AzimuthDeg, Altitude  float64

	Mode MWAMode

	RFInputs   []RFInput
	Antennas   []Antenna
	Baselines  []Baseline
	NumAntennas int
	NumBaselines int
	NumVisPols  int

	MetafitsCoarseChans []int // receiver channel numbers, in the order listed in CHANNELS (not re-sorted)

	SignalChainCorrections map[sccKey]signalChainCorrection

	raw scalarHeader
}

// LoadMetafits reads and post-processes the metafits primary HDU and tile
// table (spec.md §4.2). version selects the RF-input output-ordering rule
// (legacy vs MWAX); it is known up-front from the data filenames (C1) or,
// for the metafits-only path, supplied directly by the caller.
func LoadMetafits(fits FitsSource, version MWAVersion) (*MetafitsData, error) {
	var hdr scalarHeader
	if err := populateFromTags(fits, 0, &hdr); err != nil {
		return nil, err
	}

	md := &MetafitsData{raw: hdr}
	md.ObsID = hdr.GPSTime

	if err := requireKey(hdr.GPSTime != 0, "GPSTIME"); err != nil {
		return nil, err
	}
	if err := requireKey(hdr.NInputs != 0, "NINPUTS"); err != nil {
		return nil, err
	}

	md.ScheduledGPSStartMs = hdr.GPSTime * 1000
	md.ScheduledUnixStartMs = int64((hdr.GoodTimeUnix)*1000) - int64(hdr.QuackTimeSec*1000)
	md.GPSUnixOffsetMs = gpsUnixOffset(md.ScheduledUnixStartMs - md.ScheduledGPSStartMs)
	md.IntegrationTimeMs = int64(hdr.IntTimeSec * 1000)
	md.QuackTimeMs = int64(hdr.QuackTimeSec * 1000)

	md.FineChanWidthHz = hdr.FineChanKHz * 1000
	md.BandwidthHz = hdr.BandwidthMHz * 1e6

	md.RADeg, md.DecDeg = hdr.RA, hdr.Dec
	md.AzimuthDeg, md.Altitude = hdr.Azimuth, hdr.Altitude
	md.Mode = ParseMWAMode(hdr.ModeStr)

	coarseChans, err := parseChannelsString(hdr.Channels)
	if err != nil {
		return nil, err
	}
	md.MetafitsCoarseChans = coarseChans
	if len(coarseChans) == 0 {
		return nil, fmt.Errorf("%w: CHANNELS", ErrMetafitsMissingKey)
	}
	if int(md.BandwidthHz)%len(coarseChans) != 0 {
		return nil, fmt.Errorf("%w: %d coarse channels does not divide bandwidth %f Hz", ErrMetafitsParseError, len(coarseChans), md.BandwidthHz)
	}
	md.CoarseChanWidthHz = md.BandwidthHz / float64(len(coarseChans))

	rfInputs, err := loadTileTable(fits, int(hdr.NInputs))
	if err != nil {
		return nil, err
	}
	sortRFInputsByOutputOrder(rfInputs, version)
	md.RFInputs = rfInputs

	antennas, err := buildAntennas(rfInputs)
	if err != nil {
		return nil, err
	}
	md.Antennas = antennas
	md.NumAntennas = len(antennas)
	md.NumVisPols = 4

	md.Baselines = buildBaselines(md.NumAntennas)
	md.NumBaselines = len(md.Baselines)

	md.SignalChainCorrections = loadSignalChainCorrections(fits)

	return md, nil
}

// parseChannelsString parses the CONTINUE-convention CHANNELS key: a
// comma-separated list of receiver channel numbers (spec.md §4.2).
func parseChannelsString(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	chans := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: CHANNELS entry %q: %v", ErrMetafitsParseError, p, err)
		}
		chans = append(chans, n)
	}
	return chans, nil
}

// tileTableHDU is the conventional location of the TILEDATA table in an MWA
// metafits file.
const tileTableHDU = 1

func loadTileTable(fits FitsSource, numInputs int) ([]RFInput, error) {
	rows, err := fits.TableNumRows(tileTableHDU)
	if err != nil {
		return nil, fmt.Errorf("%w: tile table: %v", ErrMetafitsCellReadError, err)
	}
	if rows < numInputs {
		return nil, fmt.Errorf("%w: tile table has %d rows, NINPUTS says %d", ErrMetafitsParseError, rows, numInputs)
	}

	rfInputs := make([]RFInput, 0, numInputs)
	for row := 1; row <= numInputs; row++ {
		input, err := fits.TableCellFloat(tileTableHDU, "Input", row)
		if err != nil {
			return nil, fmt.Errorf("%w: Input row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		antenna, err := fits.TableCellFloat(tileTableHDU, "Antenna", row)
		if err != nil {
			return nil, fmt.Errorf("%w: Antenna row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		tileID, err := fits.TableCellFloat(tileTableHDU, "Tile", row)
		if err != nil {
			return nil, fmt.Errorf("%w: Tile row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		tileName, err := fits.TableCellString(tileTableHDU, "TileName", row)
		if err != nil {
			return nil, fmt.Errorf("%w: TileName row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		polStr, err := fits.TableCellString(tileTableHDU, "Pol", row)
		if err != nil {
			return nil, fmt.Errorf("%w: Pol row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		pol, err := ParsePol(polStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMetafitsParseError, err)
		}
		lengthDesc, err := fits.TableCellString(tileTableHDU, "Length", row)
		if err != nil {
			return nil, fmt.Errorf("%w: Length row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		electricalLength, err := parseElectricalLength(lengthDesc)
		if err != nil {
			return nil, err
		}
		north, err := fits.TableCellFloat(tileTableHDU, "North", row)
		if err != nil {
			return nil, fmt.Errorf("%w: North row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		east, err := fits.TableCellFloat(tileTableHDU, "East", row)
		if err != nil {
			return nil, fmt.Errorf("%w: East row %d: %v", ErrMetafitsCellReadError, row, err)
		}
		height, err := fits.TableCellFloat(tileTableHDU, "Height", row)
		if err != nil {
			return nil, fmt.Errorf("%w: Height row %d: %v", ErrMetafitsCellReadError, row, err)
		}

		flagged, _ := fits.TableCellFloat(tileTableHDU, "Flag", row)
		gains, _ := fits.TableCellFloatArray(tileTableHDU, "Gains", row)
		delaysRaw, _ := fits.TableCellFloatArray(tileTableHDU, "Delays", row)
		delays := make([]int, len(delaysRaw))
		for i, d := range delaysRaw {
			delays[i] = int(d)
		}
		receiverNum, _ := fits.TableCellFloat(tileTableHDU, "Rx", row)
		receiverSlot, _ := fits.TableCellFloat(tileTableHDU, "Slot", row)
		cableType, _ := fits.TableCellString(tileTableHDU, "Flavors", row)

		inputInt := int(input)
		antInt := int(antenna)

		rfInputs = append(rfInputs, RFInput{
			Input:              inputInt,
			Antenna:            antInt,
			TileID:             int(tileID),
			TileName:           tileName,
			Pol:                pol,
			ElectricalLengthM:  electricalLength,
			NorthM:             north,
			EastM:              east,
			HeightM:            height,
			VCSOrder:           computeVCSOrder(inputInt),
			SubfileOrder:       computeSubfileOrder(antInt, pol),
			Flagged:            flagged != 0,
			DigitalGains:       scaleDigitalGains(gains),
			DipoleDelays:       delays,
			DipoleGains:        newDipoleGains(delays),
			ReceiverNumber:     int(receiverNum),
			ReceiverSlot:       int(receiverSlot),
			CableType:          cableType,
			SignalChainCorrectionIndex: -1,
		})
	}

	return rfInputs, nil
}

// signalChainTableHDU is the conventional HDU index of the optional
// signal-chain-correction table, when present.
const signalChainTableHDU = 2

func loadSignalChainCorrections(fits FitsSource) map[sccKey]signalChainCorrection {
	result := make(map[sccKey]signalChainCorrection)
	if fits.NumHDUs() <= signalChainTableHDU {
		return result
	}
	rows, err := fits.TableNumRows(signalChainTableHDU)
	if err != nil || rows == 0 {
		return result
	}
	for row := 1; row <= rows; row++ {
		rtRaw, err := fits.TableCellFloat(signalChainTableHDU, "ReceiverType", row)
		if err != nil {
			return result // not actually the SCC table; give up gracefully
		}
		wfRaw, _ := fits.TableCellFloat(signalChainTableHDU, "WhiteningFilter", row)
		corrections, _ := fits.TableCellFloatArray(signalChainTableHDU, "Corrections", row)

		key := sccKey{rt: ReceiverType(int(rtRaw)), wf: wfRaw != 0}
		result[key] = signalChainCorrection{
			ReceiverType:       key.rt,
			HasWhiteningFilter: key.wf,
			Corrections:        corrections,
		}
	}
	return result
}

// sortedCoarseChans returns md.MetafitsCoarseChans sorted ascending (the
// order C5's MWAX rule indexes by). ReconcileChannels does its own sort and
// does not call this helper.
func (md *MetafitsData) sortedCoarseChans() []int {
	out := append([]int(nil), md.MetafitsCoarseChans...)
	sort.Ints(out)
	return out
}
