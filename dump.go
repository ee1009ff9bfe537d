package mwalib

import (
	"encoding/json"
	"io"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// contextDump is the serialisable projection of a Context's derived tables
// (spec.md §1 keeps presentation out of scope; this is a debug aid only).
type contextDump struct {
	Version        string          `json:"version"`
	ObsID          int64           `json:"obs_id"`
	Timesteps      []Timestep      `json:"timesteps"`
	CoarseChannels []CoarseChannel `json:"coarse_channels"`
	CommonTimestepIndices     []int `json:"common_timestep_indices"`
	CommonGoodTimestepIndices []int `json:"common_good_timestep_indices"`
	ProvidedTimestepIndices   []int `json:"provided_timestep_indices"`
	RFInputs  []RFInput `json:"rf_inputs"`
	Antennas  []Antenna `json:"antennas"`
	Baselines []Baseline `json:"baselines"`
}

func (c *Context) toDump() contextDump {
	return contextDump{
		Version:                   c.Version.String(),
		ObsID:                     c.Metafits.ObsID,
		Timesteps:                 c.Timesteps,
		CoarseChannels:            c.CoarseChannels,
		CommonTimestepIndices:     c.Window.CommonTimestepIndices,
		CommonGoodTimestepIndices: c.Window.CommonGoodTimestepIndices,
		ProvidedTimestepIndices:   c.Window.ProvidedTimestepIndices,
		RFInputs:                  c.Metafits.RFInputs,
		Antennas:                  c.Metafits.Antennas,
		Baselines:                 c.Metafits.Baselines,
	}
}

// DumpJSON writes the Context's derived tables to w as indented JSON.
//
// Grounded on sixy6e/go-gsf's json.go JsonIndentDumps.
func (c *Context) DumpJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(c.toDump())
}

// DumpJSONToURI serialises ctx's derived tables to uri (any TileDB-VFS
// destination, local or remote) as indented JSON.
//
// Grounded on sixy6e/go-gsf's encode/json.go WriteJson.
func DumpJSONToURI(ctx *Context, uri string, configURI string) error {
	jsn, err := json.MarshalIndent(ctx.toDump(), "", "    ")
	if err != nil {
		return err
	}

	config, err := loadTileDBConfig(configURI)
	if err != nil {
		return err
	}
	defer config.Free()

	tctx, err := tiledb.NewContext(config)
	if err != nil {
		return err
	}
	defer tctx.Free()

	vfs, err := tiledb.NewVFS(tctx, config)
	if err != nil {
		return err
	}
	defer vfs.Free()

	stream, err := vfs.Open(uri, tiledb.TILEDB_VFS_WRITE)
	if err != nil {
		return err
	}
	defer stream.Close()

	_, err = stream.Write(jsn)
	return err
}
