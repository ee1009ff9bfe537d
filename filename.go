package mwalib

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/samber/lo"
)

// fileFamily identifies which of the five filename schemas (spec.md §4.1)
// a data filename matched.
type fileFamily int

const (
	familyCorrLegacyBatched fileFamily = iota
	familyCorrLegacyUnbatched
	familyCorrMWAX
	familyVoltLegacyRecombined
	familyVoltMWAX
)

// fileRecord is one parsed data filename (spec.md §4.1 "uniformly typed"
// output record).
type fileRecord struct {
	Path       string
	BatchIndex int
	ChannelID  int // receiver channel number, except familyCorrLegacy* where it is the gpubox number (1-based)
	Family     fileFamily
	ObsID      string
}

// Regexes are grounded directly on original_source/src/gpubox.rs's
// RE_BATCH/RE_OLD_FORMAT, extended with the MWAX correlator and voltage
// schemas from spec.md §4.1/§6.2.
var (
	reCorrLegacyBatched   = regexp.MustCompile(`^(?P<obsid>\d{10})_(?P<datetime>\d{14})_gpubox(?P<chan>\d{2})_(?P<batch>\d{2})\.fits$`)
	reCorrLegacyUnbatched = regexp.MustCompile(`^(?P<obsid>\d{10})_(?P<datetime>\d{14})_gpubox(?P<chan>\d{2})\.fits$`)
	reCorrMWAX            = regexp.MustCompile(`^(?P<obsid>\d{10})_(?P<datetime>\d{14})_ch(?P<chan>\d{3})_(?P<batch>\d{2})\.fits$`)
	reVoltLegacy          = regexp.MustCompile(`^(?P<obsid>\d{10})_(?P<gpstime>\d{10})_ch(?P<chan>\d{3})\.dat$`)
	reVoltMWAX            = regexp.MustCompile(`^(?P<obsid>\d{10})_(?P<gpstime>\d{10})_(?P<chan>\d{2,3})\.sub$`)
)

func namedGroup(re *regexp.Regexp, m []string, name string) string {
	for i, g := range re.SubexpNames() {
		if g == name {
			return m[i]
		}
	}
	return ""
}

// ParseFilenames classifies filenames per spec.md §4.1, returning
// ErrMixedFormats if more than one family is matched across the whole
// slice, or ErrUnrecognisedFilename if any filename matches none of the
// five schemas.
func ParseFilenames(filenames []string) ([]fileRecord, error) {
	records := make([]fileRecord, 0, len(filenames))
	familiesSeen := make(map[fileFamily]bool)

	for _, name := range filenames {
		rec, err := parseOneFilename(name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		familiesSeen[rec.Family] = true
	}

	if len(lo.Keys(familiesSeen)) > 1 {
		return nil, fmt.Errorf("%w: %v", ErrMixedFormats, lo.Keys(familiesSeen))
	}

	return records, nil
}

func parseOneFilename(name string) (fileRecord, error) {
	base := basenameOnly(name)

	if m := reCorrLegacyBatched.FindStringSubmatch(base); m != nil {
		chanID, _ := strconv.Atoi(namedGroup(reCorrLegacyBatched, m, "chan"))
		batch, _ := strconv.Atoi(namedGroup(reCorrLegacyBatched, m, "batch"))
		return fileRecord{
			Path: name, BatchIndex: batch, ChannelID: chanID,
			Family: familyCorrLegacyBatched, ObsID: namedGroup(reCorrLegacyBatched, m, "obsid"),
		}, nil
	}
	if m := reCorrLegacyUnbatched.FindStringSubmatch(base); m != nil {
		chanID, _ := strconv.Atoi(namedGroup(reCorrLegacyUnbatched, m, "chan"))
		return fileRecord{
			Path: name, BatchIndex: 0, ChannelID: chanID,
			Family: familyCorrLegacyUnbatched, ObsID: namedGroup(reCorrLegacyUnbatched, m, "obsid"),
		}, nil
	}
	if m := reCorrMWAX.FindStringSubmatch(base); m != nil {
		chanID, _ := strconv.Atoi(namedGroup(reCorrMWAX, m, "chan"))
		batch, _ := strconv.Atoi(namedGroup(reCorrMWAX, m, "batch"))
		return fileRecord{
			Path: name, BatchIndex: batch, ChannelID: chanID,
			Family: familyCorrMWAX, ObsID: namedGroup(reCorrMWAX, m, "obsid"),
		}, nil
	}
	if m := reVoltLegacy.FindStringSubmatch(base); m != nil {
		chanID, _ := strconv.Atoi(namedGroup(reVoltLegacy, m, "chan"))
		gpstime, _ := strconv.Atoi(namedGroup(reVoltLegacy, m, "gpstime"))
		return fileRecord{
			Path: name, BatchIndex: gpstime, ChannelID: chanID,
			Family: familyVoltLegacyRecombined, ObsID: namedGroup(reVoltLegacy, m, "obsid"),
		}, nil
	}
	if m := reVoltMWAX.FindStringSubmatch(base); m != nil {
		chanID, _ := strconv.Atoi(namedGroup(reVoltMWAX, m, "chan"))
		gpstime, _ := strconv.Atoi(namedGroup(reVoltMWAX, m, "gpstime"))
		return fileRecord{
			Path: name, BatchIndex: gpstime, ChannelID: chanID,
			Family: familyVoltMWAX, ObsID: namedGroup(reVoltMWAX, m, "obsid"),
		}, nil
	}

	return fileRecord{}, fmt.Errorf("%w: %q", ErrUnrecognisedFilename, name)
}

func basenameOnly(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// version maps a fileFamily to the MWAVersion it implies.
func (f fileFamily) version() MWAVersion {
	switch f {
	case familyCorrLegacyBatched:
		return CorrLegacy
	case familyCorrLegacyUnbatched:
		return CorrOldLegacy
	case familyCorrMWAX:
		return CorrMWAXv2
	case familyVoltLegacyRecombined:
		return VCSLegacyRecombined
	case familyVoltMWAX:
		return VCSMWAXv2
	default:
		return CorrMWAXv2
	}
}
