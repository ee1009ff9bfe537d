package mwalib

import (
	"fmt"
	"io"
	"time"
)

// CoaxVFactor is the velocity factor of electric fields in RG-6-like coax,
// referenced for cable electrical-length adjustments (spec.md §5
// supplement). Not used internally — no calibration is performed.
const CoaxVFactor = 0.84

// Option configures NewContext/NewVoltageContext/NewMetafitsContext.
type Option func(*contextOptions)

type contextOptions struct {
	configURI string
	log       io.Writer
	inMemory  bool
}

// WithConfigURI supplies a TileDB config URI for the generic file backend
// (stream.go), enabling object-store-backed paths instead of local POSIX
// ones.
func WithConfigURI(uri string) Option {
	return func(o *contextOptions) { o.configURI = uri }
}

// WithLogWriter supplies an optional progress-message sink. The core never
// reads from it; it defaults to io.Discard (spec.md §9).
func WithLogWriter(w io.Writer) Option {
	return func(o *contextOptions) { o.log = w }
}

// WithInMemoryData records a preference for reading data files fully into
// memory on open. No constructor or read path consults it: every file is
// opened through OpenSource with inMemory false, so data files are streamed
// whether or not this option is given.
func WithInMemoryData() Option {
	return func(o *contextOptions) { o.inMemory = true }
}

func resolveOptions(opts []Option) contextOptions {
	o := contextOptions{log: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Context is the immutable, fully-constructed view of one observation
// (spec.md §4.8, §5). Once returned from NewContext/NewVoltageContext/
// NewMetafitsContext it is read-only and safe for concurrent queries and
// reads; no internal goroutines are spawned by any Context method.
type Context struct {
	Version   MWAVersion
	configURI string
	log       io.Writer

	Metafits *MetafitsData

	Timesteps      []Timestep
	CoarseChannels []CoarseChannel
	Window         Window

	timeMap *TimeMap

	legacyConversionTable []LegacyConversionRow

	NumFineChansPerCoarse int
	FineChanWidthHz       float64

	samplesPerBlock int
	dataIndex       *DataFileIndex
}

// NewContext constructs a Context over a correlator (gpubox/MWAX visibility)
// observation (spec.md §4.8). Sequence: C1 -> C2 -> C3 -> C4 -> C5 -> C6 ->
// (C7 if legacy family).
func NewContext(metafitsPath string, dataPaths []string, opts ...Option) (*Context, error) {
	return newContext(metafitsPath, dataPaths, false, opts)
}

// NewVoltageContext constructs a Context over a voltage-subfile observation,
// identical in structure to NewContext but without a §4.7 conversion table.
func NewVoltageContext(metafitsPath string, dataPaths []string, opts ...Option) (*Context, error) {
	return newContext(metafitsPath, dataPaths, true, opts)
}

func newContext(metafitsPath string, dataPaths []string, voltage bool, rawOpts []Option) (*Context, error) {
	if len(dataPaths) == 0 {
		return nil, ErrNoDataFiles
	}
	opts := resolveOptions(rawOpts)

	records, err := ParseFilenames(dataPaths)
	if err != nil {
		return nil, err
	}
	version := records[0].Family.version()
	if voltage != version.IsVoltage() {
		return nil, fmt.Errorf("%w: expected %s data, got %s", ErrMixedMWAVersions, map[bool]string{true: "voltage", false: "correlator"}[voltage], version)
	}

	metafits, err := OpenFitsFile(metafitsPath, opts.configURI)
	if err != nil {
		return nil, err
	}
	defer metafits.Close()

	md, err := LoadMetafits(metafits, version)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(opts.log, "mwalib: loaded metafits for obsid %d, %d rf-inputs\n", md.ObsID, len(md.RFInputs))

	numFineChans := int(md.CoarseChanWidthHz / md.FineChanWidthHz)

	ctx := &Context{
		Version:               version,
		configURI:             opts.configURI,
		log:                   opts.log,
		Metafits:              md,
		NumFineChansPerCoarse: numFineChans,
		FineChanWidthHz:       md.FineChanWidthHz,
	}

	presentChannelIDs := make(map[int]bool, len(records))
	for _, r := range records {
		presentChannelIDs[r.ChannelID] = true
	}

	if version.IsCorrelator() {
		idx, err := IndexCorrelatorFiles(records, opts.configURI)
		if err != nil {
			return nil, err
		}
		ctx.dataIndex = idx
		ctx.timeMap = BuildCorrelatorTimeMap(idx)

		// gpubox channel numbers are 1-based for legacy; the present set is
		// passed through unchanged, since ReconcileChannels filters on the
		// gpubox number, the same identifier C1 assigned.
		ctx.CoarseChannels = ReconcileChannels(md.MetafitsCoarseChans, md.CoarseChanWidthHz, version, presentChannelIDs)

		if version.IsLegacyCorrelator() {
			ctx.legacyConversionTable = BuildLegacyConversionTable(md.RFInputs)
		}
	} else {
		samplesPerBlock := 64000
		idx, err := IndexVoltageFiles(records, len(md.RFInputs), numFineChans, samplesPerBlock, opts.configURI)
		if err != nil {
			return nil, err
		}
		ctx.dataIndex = idx
		ctx.samplesPerBlock = samplesPerBlock
		ctx.timeMap = BuildVoltageTimeMap(idx, md.GPSUnixOffsetMs)
		ctx.CoarseChannels = ReconcileChannels(md.MetafitsCoarseChans, md.CoarseChanWidthHz, version, presentChannelIDs)
	}

	ctx.Timesteps = timestepsFromTimeMap(ctx.timeMap, md.GPSUnixOffsetMs)

	channelIDsForWindow := make([]int, 0, len(ctx.CoarseChannels))
	for _, cc := range ctx.CoarseChannels {
		channelIDsForWindow = append(channelIDsForWindow, cc.GpuboxNumber)
	}
	ctx.Window = ComputeWindow(ctx.Timesteps, ctx.timeMap, channelIDsForWindow, md.CoarseChanWidthHz, md.ScheduledUnixStartMs, md.QuackTimeMs)

	return ctx, nil
}

// NewMetafitsContext constructs a Context from a metafits file alone, with
// no data-file indexing (spec.md §6.5 "Metafits-only path"). version must
// be supplied by the caller since it cannot be inferred without data
// filenames.
func NewMetafitsContext(metafitsPath string, version MWAVersion, opts ...Option) (*Context, error) {
	o := resolveOptions(opts)

	metafits, err := OpenFitsFile(metafitsPath, o.configURI)
	if err != nil {
		return nil, err
	}
	defer metafits.Close()

	md, err := LoadMetafits(metafits, version)
	if err != nil {
		return nil, err
	}

	numFineChans := int(md.CoarseChanWidthHz / md.FineChanWidthHz)

	ctx := &Context{
		Version:               version,
		configURI:             o.configURI,
		log:                   o.log,
		Metafits:              md,
		NumFineChansPerCoarse: numFineChans,
		FineChanWidthHz:       md.FineChanWidthHz,
	}
	ctx.CoarseChannels = ReconcileChannels(md.MetafitsCoarseChans, md.CoarseChanWidthHz, version, nil)
	if version.IsLegacyCorrelator() {
		ctx.legacyConversionTable = BuildLegacyConversionTable(md.RFInputs)
	}

	return ctx, nil
}

// timestepsFromTimeMap derives the full timestep array as the ascending
// union of every unix-time-ms seen across all channels in tm. spec.md §4.8
// leaves the exact span of "the full timestep array" to be derived from
// the observation window; since no scalar header key in §6.2's list directly
// encodes an explicit observation-length/NSCANS count, this module takes the
// union of observed timestamps as that array rather than projecting a synthetic grid
// beyond what any data file actually reports.
func timestepsFromTimeMap(tm *TimeMap, offset gpsUnixOffset) []Timestep {
	times := tm.Times()
	steps := make([]Timestep, len(times))
	for i, t := range times {
		steps[i] = Timestep{UnixTimeMs: t, GPSTimeMs: ConvertUnixToGPSMs(t, offset)}
	}
	return steps
}

// Duration is end_unix_time_ms - start_unix_time_ms + integration_time_ms,
// carried from original_source/src/context.rs's mwalibContext.
func (c *Context) Duration() time.Duration {
	if len(c.Timesteps) == 0 {
		return 0
	}
	first := c.Timesteps[0].UnixTimeMs
	last := c.Timesteps[len(c.Timesteps)-1].UnixTimeMs
	return time.Duration(last-first+c.Metafits.IntegrationTimeMs) * time.Millisecond
}

// Close releases any resources the Context holds open. This module picks
// the open-and-close-per-read discipline spec.md §5 permits as an
// alternative to holding files open for the Context's lifetime (see
// DESIGN.md's Open Question decisions), so Close is presently a no-op,
// retained for API symmetry with the teacher's own Close/Info lifecycle
// methods and for future backends that do hold handles open.
func (c *Context) Close() error { return nil }
