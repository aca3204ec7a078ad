package geom

import (
	"math"

	"skymap/internal/mesh"
	"skymap/internal/sphere"
)

// Dataset is a binned sky map as read from disk.
type Dataset struct {
	Grid  mesh.Grid
	Field mesh.Field
	// Frame names the coordinate system of the grid; it is carried, not interpreted.
	Frame  string
	Source string
}

// MaskNonPositive turns every value <= 0 into a gap and returns how many
// cells changed. Flux maps use zero for bins without exposure.
func (d *Dataset) MaskNonPositive() int {
	n := 0
	for _, row := range d.Field {
		for j, v := range row {
			if v <= 0 {
				row[j] = math.NaN()
				n++
			}
		}
	}
	return n
}

// Overlay is reference geometry drawn on top of a map, in radians of the
// data frame.
type Overlay struct {
	Points []sphere.LonLat
	Lines  [][]sphere.LonLat
}

// Empty reports whether the overlay holds nothing.
func (o Overlay) Empty() bool {
	return len(o.Points) == 0 && len(o.Lines) == 0
}

// Merge appends the contents of other.
func (o *Overlay) Merge(other Overlay) {
	o.Points = append(o.Points, other.Points...)
	o.Lines = append(o.Lines, other.Lines...)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func lonLatDeg(lon, lat float64) sphere.LonLat {
	return sphere.LonLat{Lon: degToRad(lon), Lat: degToRad(lat)}
}
