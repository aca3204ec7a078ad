package mesh

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"skymap/internal/mollweide"
	"skymap/internal/seam"
	"skymap/internal/sphere"
)

// Polygon is one drawable piece of a grid cell in the projection plane.
type Polygon struct {
	Corners []mollweide.Point
	// Value is the cell value, bit for bit as it was in the field.
	Value float64
	Gap   bool
	Row   int
	Col   int
}

// Mesh is the projected grid for one rotation.
type Mesh struct {
	Spec     sphere.Spec
	Polygons []Polygon
}

// Warning records a cell dropped because one of its vertices could not be projected.
type Warning struct {
	Row, Col int
	Lat      float64
	Err      error
}

func (w Warning) String() string {
	return fmt.Sprintf("cell (%d,%d) dropped at lat %.6f: %v", w.Row, w.Col, w.Lat, w.Err)
}

// Diagnostics summarises one Build call.
type Diagnostics struct {
	CellsTotal   int
	CellsSplit   int
	CellsDropped int
	PoleCaps     int
	Gaps         int
	Warnings     []Warning
}

func (d *Diagnostics) add(o Diagnostics) {
	d.CellsTotal += o.CellsTotal
	d.CellsSplit += o.CellsSplit
	d.CellsDropped += o.CellsDropped
	d.PoleCaps += o.PoleCaps
	d.Gaps += o.Gaps
	d.Warnings = append(d.Warnings, o.Warnings...)
}

type options struct {
	workers int
}

// Option configures Build.
type Option func(*options)

// WithWorkers caps the number of rows processed at once. Values below one
// mean one.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

type rowResult struct {
	polygons []Polygon
	diag     Diagnostics
}

// Build projects every cell of field on grid under spec. Inputs are
// validated before any cell is touched. Polygons come out in row-major order
// of their source cells whatever the worker count.
func Build(ctx context.Context, grid Grid, field Field, spec sphere.Spec, opts ...Option) (*Mesh, Diagnostics, error) {
	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if err := grid.Validate(); err != nil {
		return nil, Diagnostics{}, err
	}
	if err := grid.CheckField(field); err != nil {
		return nil, Diagnostics{}, err
	}
	if err := spec.Validate(); err != nil {
		return nil, Diagnostics{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Diagnostics{}, err
	}

	rot := sphere.NewRotation(spec)
	rows, _ := grid.Shape()
	results := make([]rowResult, rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := 0; i < rows; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = buildRow(rot, grid, field[i], i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Diagnostics{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Diagnostics{}, err
	}

	m := &Mesh{Spec: spec}
	var diag Diagnostics
	for _, r := range results {
		m.Polygons = append(m.Polygons, r.polygons...)
		diag.add(r.diag)
	}
	return m, diag, nil
}

func rotateEdges(rot sphere.Rotation, lons []float64, lat float64) []sphere.LonLat {
	out := make([]sphere.LonLat, len(lons))
	for j, lon := range lons {
		out[j] = rot.Apply(sphere.LonLat{Lon: lon, Lat: clampLat(lat)})
	}
	return out
}

func buildRow(rot sphere.Rotation, grid Grid, values []float64, i int) rowResult {
	lower := rotateEdges(rot, grid.LonEdges, grid.LatEdges[i])
	upper := rotateEdges(rot, grid.LonEdges, grid.LatEdges[i+1])

	var res rowResult
	var r seam.Resolver
	for j, v := range values {
		gap := math.IsNaN(v)
		if gap {
			res.diag.Gaps++
		}
		cell := seam.Cell{lower[j], lower[j+1], upper[j+1], upper[j]}
		out := r.Resolve(cell)
		if out.Kind == seam.Drop {
			continue
		}

		polys, w := project(out.Pieces)
		if w != nil {
			w.Row, w.Col = i, j
			res.diag.Warnings = append(res.diag.Warnings, *w)
			res.diag.CellsDropped++
			continue
		}
		for _, corners := range polys {
			res.polygons = append(res.polygons, Polygon{
				Corners: corners,
				Value:   v,
				Gap:     gap,
				Row:     i,
				Col:     j,
			})
		}
	}
	c := r.Counts()
	res.diag.CellsTotal = c.Total
	res.diag.CellsSplit += c.Split
	res.diag.CellsDropped += c.Dropped
	res.diag.PoleCaps = c.PoleCaps
	return res
}

// project maps all pieces of a cell or none of them.
func project(pieces [][]sphere.LonLat) ([][]mollweide.Point, *Warning) {
	out := make([][]mollweide.Point, len(pieces))
	for k, piece := range pieces {
		pts := make([]mollweide.Point, len(piece))
		for n, p := range piece {
			pt, err := mollweide.ProjectUnwrapped(p.Lon, p.Lat)
			if err != nil {
				return nil, &Warning{Lat: p.Lat, Err: err}
			}
			pts[n] = pt
		}
		out[k] = pts
	}
	return out, nil
}
