package mesh

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"skymap/internal/mollweide"
	"skymap/internal/sphere"
)

// seamEps is how far a vertex on the seam is pushed to the side it is drawn on.
const seamEps = 1e-12

// Polyline is an open line in the projection plane.
type Polyline []mollweide.Point

// Graticule returns the meridians at lonTicks and the parallels at latTicks
// of the unrotated sphere, as seen under spec. Lines are sampled every step
// radians, joined along great circles and broken where they cross the map seam.
func Graticule(spec sphere.Spec, lonTicks, latTicks []float64, step float64) []Polyline {
	if step <= 0 || math.IsNaN(step) {
		return nil
	}
	tr := newTracer(spec, step/4)
	nLat := samples(math.Pi, step)
	nLon := samples(2*math.Pi, step)

	var out []Polyline
	for _, lon := range lonTicks {
		line := make([]sphere.LonLat, 0, nLat+1)
		for k := 0; k <= nLat; k++ {
			lat := -math.Pi/2 + math.Pi*float64(k)/float64(nLat)
			line = append(line, sphere.LonLat{Lon: lon, Lat: lat})
		}
		out = append(out, tr.trace(line)...)
	}
	for _, lat := range latTicks {
		line := make([]sphere.LonLat, 0, nLon+1)
		for k := 0; k <= nLon; k++ {
			lon := 2 * math.Pi * float64(k) / float64(nLon)
			line = append(line, sphere.LonLat{Lon: lon, Lat: lat})
		}
		out = append(out, tr.trace(line)...)
	}
	return out
}

// Trace rotates a line given in the unrotated frame and projects it. Each
// segment follows the great circle between its ends; tol bounds the
// distance in radians between that circle and the drawn chain.
// Segments joining antipodal points have no defined path and break the line.
func Trace(spec sphere.Spec, line []sphere.LonLat, tol float64) []Polyline {
	if tol <= 0 || math.IsNaN(tol) || len(line) < 2 {
		return nil
	}
	return newTracer(spec, tol).trace(line)
}

// samples is the number of intervals of at most step covering span.
func samples(span, step float64) int {
	return max(1, int(math.Ceil(span/step-1e-9)))
}

type tracer struct {
	rot sphere.Rotation
	tes *s2.EdgeTessellator
}

func newTracer(spec sphere.Spec, tol float64) tracer {
	return tracer{
		rot: sphere.NewRotation(spec),
		tes: s2.NewEdgeTessellator(mollweide.NewProjection(), s1.Angle(tol)),
	}
}

// trace turns a lon/lat line into projected chains. An edge crossing the
// seam ends one chain on its side of the map and starts the next on the other.
func (t tracer) trace(line []sphere.LonLat) []Polyline {
	var (
		out  []Polyline
		cur  []r2.Point
		side float64 // seam side of the last vertex of cur
	)
	flush := func() {
		if pl := toPolyline(cur); len(pl) >= 2 {
			out = append(out, pl)
		}
		cur = nil
	}
	for k := 1; k < len(line); k++ {
		a, b := t.rotated(line[k-1]), t.rotated(line[k])
		if a.Dot(b) < -1+1e-12 {
			flush()
			continue
		}
		a = toSide(a, b.Y)
		b = toSide(b, a.Y)
		// a vertex sitting on the seam may be drawn on different sides by
		// the two edges that share it
		if len(cur) > 0 && math.Signbit(a.Y) != math.Signbit(side) {
			flush()
		}
		if s, ok := seamCrossing(a, b); ok {
			cur = t.tes.AppendProjected(s2.Point{Vector: a}, s2.Point{Vector: toSide(s, a.Y)}, cur)
			flush()
			a = toSide(s, b.Y)
		}
		cur = t.tes.AppendProjected(s2.Point{Vector: a}, s2.Point{Vector: b}, cur)
		side = b.Y
	}
	flush()
	return out
}

func (t tracer) rotated(p sphere.LonLat) r3.Vector {
	v := s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(p.Lat), Lng: s1.Angle(p.Lon)})
	return t.rot.ApplyVector(v.Vector)
}

// toSide pushes a vertex lying on the seam (y = 0, x < 0) off it towards the
// half of the sphere given by the sign of side. Other vertices are returned
// as they are.
func toSide(v r3.Vector, side float64) r3.Vector {
	if math.Abs(v.Y) > seamEps*v.Norm() || v.X >= 0 {
		return v
	}
	n := v.Norm()
	if side == 0 {
		side = 1
	}
	v.Y = math.Copysign(seamEps, side) * n
	return v.Normalize()
}

// seamCrossing returns where the minor arc ab meets the seam half plane.
func seamCrossing(a, b r3.Vector) (r3.Vector, bool) {
	if a.Y*b.Y >= 0 {
		return r3.Vector{}, false
	}
	f := a.Y / (a.Y - b.Y)
	s := a.Add(b.Sub(a).Mul(f))
	if s.X >= 0 || s.Norm() == 0 {
		return r3.Vector{}, false
	}
	s = s.Normalize()
	s.Y = 0
	return s, true
}

func toPolyline(pts []r2.Point) Polyline {
	out := make(Polyline, 0, len(pts))
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		out = append(out, mollweide.Point{X: p.X, Y: p.Y})
	}
	return out
}
