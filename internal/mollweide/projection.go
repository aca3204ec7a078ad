package mollweide

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Projection adapts the projector to s2.Projection so that geodesic edges
// can be tessellated with s2.EdgeTessellator. Planar coordinates are map
// plane coordinates.
//
// The map does not wrap with a fixed period (the width of the ellipse
// depends on latitude), so WrapDistance is zero and callers must cut edges
// at the ±180° seam before handing them over.
type Projection struct{}

// NewProjection returns the Mollweide s2.Projection.
func NewProjection() s2.Projection {
	return Projection{}
}

// Project converts a point on the sphere to a map plane point.
func (p Projection) Project(pt s2.Point) r2.Point {
	return p.FromLatLng(s2.LatLngFromPoint(pt))
}

// Unproject converts a map plane point to a point on the sphere.
func (p Projection) Unproject(pt r2.Point) s2.Point {
	return s2.PointFromLatLng(p.ToLatLng(pt))
}

// FromLatLng projects ll. Invalid positions come back as NaN.
func (Projection) FromLatLng(ll s2.LatLng) r2.Point {
	q, err := Project(ll.Lng.Radians(), ll.Lat.Radians())
	if err != nil {
		return r2.Point{X: math.NaN(), Y: math.NaN()}
	}
	return r2.Point{X: q.X, Y: q.Y}
}

// ToLatLng inverts the projection. Points outside the ellipse are clamped
// onto it along y, so chords between map points always unproject.
func (Projection) ToLatLng(pt r2.Point) s2.LatLng {
	theta := math.Asin(math.Max(-1, math.Min(1, pt.Y/sqrt2)))
	lat := math.Asin(math.Max(-1, math.Min(1, (2*theta+math.Sin(2*theta))/math.Pi)))
	var lon float64
	if c := math.Cos(theta); c >= 1e-12 {
		lon = -pt.X / (xScale * c)
	}
	return s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle(lon)}
}

// Interpolate returns the point a fraction f of the way from a to b.
func (Projection) Interpolate(f float64, a, b r2.Point) r2.Point {
	return a.Mul(1 - f).Add(b.Mul(f))
}

// WrapDistance reports no wrapping on either axis.
func (Projection) WrapDistance() r2.Point {
	return r2.Point{}
}

// WrapDestination returns b unchanged since the plane does not wrap.
func (Projection) WrapDestination(a, b r2.Point) r2.Point {
	return b
}
