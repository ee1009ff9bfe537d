package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/alitto/pond"
	"github.com/urfave/cli/v2"

	mwalib "github.com/MWATelescope/go-mwalib"
)

// describeObservation opens one observation and writes its derived tables
// as a JSON dump alongside the metafits file.
//
// Grounded on sixy6e/go-gsf's cmd/main.go convert_gsf (there: decode one
// GSF file and write its metadata/index JSON; here: the same open-index-dump
// shape applied to one MWA observation).
func describeObservation(metafitsURI, configURI, outdirURI string, voltage bool) error {
	log.Println("Discovering observation:", metafitsURI)

	dir, file := filepath.Split(metafitsURI)
	if outdirURI == "" {
		outdirURI = dir
	}

	_, dataFiles, err := mwalib.DiscoverObservation(dir, configURI)
	if err != nil {
		return err
	}

	log.Println("Building context for", len(dataFiles), "data files")
	var ctx *mwalib.Context
	if voltage {
		ctx, err = mwalib.NewVoltageContext(metafitsURI, dataFiles, mwalib.WithConfigURI(configURI))
	} else {
		ctx, err = mwalib.NewContext(metafitsURI, dataFiles, mwalib.WithConfigURI(configURI))
	}
	if err != nil {
		return err
	}
	defer ctx.Close()

	outURI := filepath.Join(outdirURI, file+"-mwalib.json")
	log.Println("Writing derived tables to", outURI)
	return mwalib.DumpJSONToURI(ctx, outURI, configURI)
}

// describeObservationList finds the metafits file under uri and submits one
// describeObservation job per metafits file found to a bounded worker pool.
// trawlMetafits accepts exactly one metafits file under uri; a uri holding
// several observations' metafits files is rejected with an error. This is
// the only place in this module pond is used (spec.md §5's "no internal
// threads are spawned" binds Context, not this CLI).
//
// Grounded on sixy6e/go-gsf's cmd/main.go convert_gsf_list.
func describeObservationList(uri, configURI, outdirURI string, voltage bool) error {
	log.Println("Searching uri:", uri)
	metafitsFiles, err := trawlMetafits(uri, configURI)
	if err != nil {
		return err
	}
	log.Println("Number of observations to process:", len(metafitsFiles))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n := runtime.NumCPU() * 2
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	for _, metafitsURI := range metafitsFiles {
		uri := metafitsURI
		pool.Submit(func() {
			if err := describeObservation(uri, configURI, outdirURI, voltage); err != nil {
				log.Println("error processing", uri, ":", err)
			}
		})
	}

	return nil
}

func trawlMetafits(uri, configURI string) ([]string, error) {
	metafits, _, err := mwalib.DiscoverObservation(uri, configURI)
	if err == nil {
		return []string{metafits}, nil
	}
	return nil, err
}

func main() {
	app := &cli.App{
		Name:  "mwalib-info",
		Usage: "inspect MWA metafits/data-file observations",
		Commands: []*cli.Command{
			{
				Name: "describe",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "metafits-uri", Usage: "URI or pathname to a metafits file."},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file."},
					&cli.StringFlag{Name: "outdir-uri", Usage: "URI or pathname to an output directory."},
					&cli.BoolFlag{Name: "voltage", Usage: "Treat the data files as voltage subfiles rather than correlator data."},
				},
				Action: func(cCtx *cli.Context) error {
					return describeObservation(cCtx.String("metafits-uri"), cCtx.String("config-uri"), cCtx.String("outdir-uri"), cCtx.Bool("voltage"))
				},
			},
			{
				Name: "batch",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Usage: "URI or pathname to a directory containing one observation's metafits and data files."},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file."},
					&cli.StringFlag{Name: "outdir-uri", Usage: "URI or pathname to an output directory."},
					&cli.BoolFlag{Name: "voltage", Usage: "Treat the data files as voltage subfiles rather than correlator data."},
				},
				Action: func(cCtx *cli.Context) error {
					return describeObservationList(cCtx.String("uri"), cCtx.String("config-uri"), cCtx.String("outdir-uri"), cCtx.Bool("voltage"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
