package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"skymap/internal/config"
	"skymap/internal/geom"
	"skymap/internal/log"
	"skymap/internal/mesh"
	"skymap/internal/tui"
)

func main() {
	var (
		configFile     = flag.String("config", "", "Path to YAML configuration file")
		phi            = flag.Float64("phi", 0, "Longitude brought to the map center, degrees")
		alf            = flag.Float64("alf", 0, "Latitude brought to the map center, degrees")
		th             = flag.Float64("th", 0, "Roll about the view axis, degrees")
		orientation    = flag.String("orient", "", "Orientation keyword (ecl, nose, tail, ribbon, ribbon_c, galactic or an alias)")
		centerMeridian = flag.Bool("center-meridian", false, "Treat -th as the longitude whose meridian runs through the map center")
		ibex           = flag.Bool("ibex", false, "Read the data file as an IBEX text map whatever its extension")
		ibexLo         = flag.Bool("ibex-lo", false, "Resolve -product against the IBEX-Lo release instead of IBEX-Hi")
		product        = flag.String("product", "", "IBEX map product, e.g. noSP_ram; used when no data file is given")
		subDir         = flag.String("subdir", "", "IBEX-Lo product subdirectory")
		energy         = flag.Int("energy", 1, "IBEX energy step")
		year           = flag.String("year", "", "IBEX map set, e.g. 2009A or 2009_2011")
		quantity       = flag.String("quantity", "flux", "IBEX map quantity (flux, fvar, ...)")
		nonPositiveGap = flag.Bool("nonpositive-gap", false, "Mask values <= 0 as gaps")
		overlayFile    = flag.String("overlay", "", "GeoJSON, WKT or KML file drawn over the map")
		out            = flag.String("out", "", "Write the projected mesh to this file (.geojson or .msgpack) and exit")
		workers        = flag.Int("workers", -1, "Rows built concurrently (0 = one per CPU)")
		debug          = flag.Bool("debug", false, "Enable debug logging")
		logFile        = flag.String("log", "", "Log to this file (the viewer discards logs otherwise)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [datafile]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	interactive := *out == ""
	quiet = interactive && *logFile == ""
	switch {
	case *logFile != "":
		if err := log.Init(*debug, *logFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case interactive:
		log.Discard()
	default:
		if err := log.Init(*debug, ""); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	defer log.Sync()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fatal("%v", err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["phi"] || set["alf"] || set["th"] {
		cfg.View = config.ViewConfig{Phi: *phi, Alf: *alf, Th: *th}
	}
	if set["orient"] {
		cfg.View.Orientation = *orientation
	}
	if set["center-meridian"] {
		cfg.View.CenterMeridian = *centerMeridian
	}
	if *nonPositiveGap {
		cfg.Data.NonPositiveGap = true
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fatal("%v", err)
	}

	path := flag.Arg(0)
	if path == "" && *product != "" {
		q := geom.IBEXQuery{
			Hi:        !*ibexLo,
			Product:   *product,
			SubDir:    *subDir,
			EnergyBin: *energy,
			Year:      *year,
			Quantity:  *quantity,
		}
		root := cfg.Data.IBEXHi
		if *ibexLo {
			root = cfg.Data.IBEXLo
		}
		path = q.Path(root)
		*ibex = true
	}

	var overlay geom.Overlay
	if *overlayFile != "" {
		overlay, err = loadOverlay(*overlayFile)
		if err != nil {
			fatal("overlay %s: %v", *overlayFile, err)
		}
		log.Infof("overlay %s: %d points, %d lines", *overlayFile, len(overlay.Points), len(overlay.Lines))
	}

	if path == "" {
		if !interactive {
			flag.Usage()
			os.Exit(1)
		}
		run(tui.New(cfg).WithOverlay(overlay))
		return
	}

	d, err := loadMap(path, *ibex)
	if err != nil {
		fatal("%v", err)
	}
	if cfg.Data.NonPositiveGap {
		n := d.MaskNonPositive()
		log.Infow("masked non-positive cells", "count", n)
	}
	rows, cols := d.Grid.Shape()
	log.Infow("map loaded", "path", path, "rows", rows, "cols", cols, "frame", d.Frame)

	spec, err := cfg.Spec()
	if err != nil {
		fatal("%v", err)
	}
	var opts []mesh.Option
	if cfg.Workers > 0 {
		opts = append(opts, mesh.WithWorkers(cfg.Workers))
	}
	m, diag, err := mesh.Build(context.Background(), d.Grid, d.Field, spec, opts...)
	if err != nil {
		fatal("build %s: %v", path, err)
	}
	log.Infow("mesh built", "spec", spec.String(), "cells", diag.CellsTotal, "split", diag.CellsSplit,
		"pole_caps", diag.PoleCaps, "gaps", diag.Gaps, "dropped", diag.CellsDropped, "polygons", len(m.Polygons))
	for _, w := range diag.Warnings {
		log.Warnw("cell dropped", "row", w.Row, "col", w.Col, "lat", w.Lat, "error", w.Err)
	}

	if !interactive {
		if err := writeMesh(*out, m); err != nil {
			fatal("%v", err)
		}
		log.Infow("mesh exported", "path", *out, "polygons", len(m.Polygons))
		return
	}
	run(tui.NewWithDataset(cfg, d, m, diag).WithOverlay(overlay))
}

// quiet is set when log output is discarded.
var quiet bool

// fatal logs the message and exits. Discarded logs would hide it, so it goes
// to stderr in that case.
func fatal(format string, args ...interface{}) {
	if quiet {
		fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
		os.Exit(1)
	}
	log.Fatalf(format, args...)
}

func run(m tui.Model) {
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		log.Errorw("viewer exited", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadMap(path string, ibex bool) (geom.Dataset, error) {
	if ibex || strings.EqualFold(filepath.Ext(path), ".txt") {
		return geom.LoadIBEX(path)
	}
	return geom.LoadGridCSV(path)
}

func loadOverlay(path string) (geom.Overlay, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wkt":
		b, err := os.ReadFile(path)
		if err != nil {
			return geom.Overlay{}, err
		}
		return geom.ParseWKT(string(b))
	case ".kml":
		return geom.LoadKMLOverlay(path)
	}
	return geom.LoadOverlay(path)
}

func writeMesh(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := geom.WriteMesh(f, path, m); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
