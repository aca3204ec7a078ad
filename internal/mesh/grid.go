// Package mesh turns a binned all-sky data field into projected, seam-safe
// polygons on a rotated Mollweide map.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShapeMismatch is returned when the field does not have one value per grid cell.
	ErrShapeMismatch = errors.New("mesh: field shape does not match grid")
	// ErrInvalidGrid is returned for edge arrays that do not describe a grid on the sphere.
	ErrInvalidGrid = errors.New("mesh: invalid grid")
)

const edgeTol = 1e-9

// Grid holds the bin edges of a longitude/latitude grid in radians. Edges
// need not be uniform.
type Grid struct {
	LonEdges []float64 // N+1 values, increasing, spanning at most 2π
	LatEdges []float64 // M+1 values, increasing, within [−π/2, π/2]
}

// Field is the data on a grid, indexed [lat][lon]. NaN marks a gap.
type Field [][]float64

// Shape returns the number of latitude rows and longitude columns.
func (g Grid) Shape() (rows, cols int) {
	return len(g.LatEdges) - 1, len(g.LonEdges) - 1
}

// Validate checks the edge arrays.
func (g Grid) Validate() error {
	if len(g.LonEdges) < 2 || len(g.LatEdges) < 2 {
		return fmt.Errorf("%w: need at least two edges per axis, got %d lon and %d lat",
			ErrInvalidGrid, len(g.LonEdges), len(g.LatEdges))
	}
	if err := increasing("longitude", g.LonEdges); err != nil {
		return err
	}
	if err := increasing("latitude", g.LatEdges); err != nil {
		return err
	}
	lo, hi := g.LonEdges[0], g.LonEdges[len(g.LonEdges)-1]
	if lo < -math.Pi-edgeTol || hi > 2*math.Pi+edgeTol {
		return fmt.Errorf("%w: longitude edges [%v, %v] outside [−π, 2π]", ErrInvalidGrid, lo, hi)
	}
	if hi-lo > 2*math.Pi+edgeTol {
		return fmt.Errorf("%w: longitude edges span %v, more than a full turn", ErrInvalidGrid, hi-lo)
	}
	if g.LatEdges[0] < -math.Pi/2-edgeTol || g.LatEdges[len(g.LatEdges)-1] > math.Pi/2+edgeTol {
		return fmt.Errorf("%w: latitude edges outside [−π/2, π/2]", ErrInvalidGrid)
	}
	return nil
}

func increasing(axis string, edges []float64) error {
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("%w: %s edge %d is %v", ErrInvalidGrid, axis, i, e)
		}
		if i > 0 && e <= edges[i-1] {
			return fmt.Errorf("%w: %s edges not strictly increasing at %d", ErrInvalidGrid, axis, i)
		}
	}
	return nil
}

// CheckField verifies that f has one value per cell of g.
func (g Grid) CheckField(f Field) error {
	rows, cols := g.Shape()
	if len(f) != rows {
		return fmt.Errorf("%w: %d rows, grid has %d latitude bins", ErrShapeMismatch, len(f), rows)
	}
	for i, row := range f {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d values, grid has %d longitude bins", ErrShapeMismatch, i, len(row), cols)
		}
	}
	return nil
}

// clampLat keeps edges given a hair past a pole on the sphere.
func clampLat(lat float64) float64 {
	return math.Max(-math.Pi/2, math.Min(math.Pi/2, lat))
}
