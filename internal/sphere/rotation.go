// Package sphere rotates coordinates on the celestial sphere.
//
// A view orientation is a Spec of three angles. It is turned into a single
// orthogonal matrix
//
//	R = Rz(Roll) · Ry(CenterLat) · Rz(−CenterLon)
//
// which first turns CenterLon onto the zero meridian, then tilts the sphere
// about the y axis so that latitude CenterLat lands on the equator, and finally
// turns the result about the new polar axis by Roll. With Roll = 0 the point
// (CenterLon, CenterLat) ends up at (0, 0), the center of the map.
package sphere

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidSpec is returned for rotation angles that are NaN or infinite.
var ErrInvalidSpec = errors.New("sphere: invalid rotation spec")

// poleEps is the horizontal extent below which a vector is treated as a pole.
const poleEps = 1e-15

// LonLat is a position on the unit sphere in radians.
type LonLat struct {
	Lon float64
	Lat float64
}

// Spec holds the three view angles. It is a value; pass it explicitly.
type Spec struct {
	CenterLon s1.Angle // longitude brought to the zero meridian
	CenterLat s1.Angle // latitude brought to the equator
	Roll      s1.Angle // final turn about the rotated polar axis
}

// SpecFromDegrees builds a Spec from angles in degrees, in the order used by
// the command line: phi (center longitude), alf (center latitude), th (roll).
func SpecFromDegrees(phi, alf, th float64) Spec {
	return Spec{
		CenterLon: s1.Angle(phi) * s1.Degree,
		CenterLat: s1.Angle(alf) * s1.Degree,
		Roll:      s1.Angle(th) * s1.Degree,
	}
}

// Validate reports whether all three angles are finite.
func (s Spec) Validate() error {
	for _, a := range []struct {
		name string
		v    s1.Angle
	}{{"center longitude", s.CenterLon}, {"center latitude", s.CenterLat}, {"roll", s.Roll}} {
		f := a.v.Radians()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidSpec, a.name, f)
		}
	}
	return nil
}

// IsIdentity reports whether the spec leaves the sphere unchanged.
func (s Spec) IsIdentity() bool {
	return s.CenterLat == 0 && s.CenterLon.Normalized() == s.Roll.Normalized()
}

func (s Spec) String() string {
	return fmt.Sprintf("phi=%.3f° alf=%.3f° th=%.3f°", s.CenterLon.Degrees(), s.CenterLat.Degrees(), s.Roll.Degrees())
}

// Rotation is a combined proper rotation of the sphere.
type Rotation struct {
	m [3][3]float64
}

// NewRotation composes the rotation for spec.
func NewRotation(spec Spec) Rotation {
	var tilted, full mat.Dense
	tilted.Mul(elemZ(spec.Roll.Radians()), elemY(spec.CenterLat.Radians()))
	full.Mul(&tilted, elemZ(-spec.CenterLon.Radians()))
	var r Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.m[i][j] = full.At(i, j)
		}
	}
	return r
}

func elemZ(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func elemY(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// Matrix returns a copy of the rotation matrix.
func (r Rotation) Matrix() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, r.m[i][j])
		}
	}
	return d
}

// Inverse returns the transpose, which undoes r.
func (r Rotation) Inverse() Rotation {
	var t Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.m[i][j] = r.m[j][i]
		}
	}
	return t
}

// ApplyVector rotates a Cartesian vector.
func (r Rotation) ApplyVector(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r.m[0][0]*v.X + r.m[0][1]*v.Y + r.m[0][2]*v.Z,
		Y: r.m[1][0]*v.X + r.m[1][1]*v.Y + r.m[1][2]*v.Z,
		Z: r.m[2][0]*v.X + r.m[2][1]*v.Y + r.m[2][2]*v.Z,
	}
}

// Apply rotates a single position. The returned longitude is in (−π, π];
// positions landing on a pole get longitude 0.
func (r Rotation) Apply(p LonLat) LonLat {
	v := s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(p.Lat), Lng: s1.Angle(p.Lon)})
	return FromVector(r.ApplyVector(v.Vector))
}

// ApplyBatch rotates matching slices of longitudes and latitudes.
func (r Rotation) ApplyBatch(lons, lats []float64) ([]float64, []float64, error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("sphere: batch length mismatch: %d lons, %d lats", len(lons), len(lats))
	}
	outLon := make([]float64, len(lons))
	outLat := make([]float64, len(lats))
	for i := range lons {
		q := r.Apply(LonLat{Lon: lons[i], Lat: lats[i]})
		outLon[i], outLat[i] = q.Lon, q.Lat
	}
	return outLon, outLat, nil
}

// Rotate is the one-shot form of NewRotation(spec).Apply.
func Rotate(lon, lat float64, spec Spec) (float64, float64) {
	q := NewRotation(spec).Apply(LonLat{Lon: lon, Lat: lat})
	return q.Lon, q.Lat
}

// FromVector converts a Cartesian vector back to a position.
func FromVector(v r3.Vector) LonLat {
	if math.Hypot(v.X, v.Y) < poleEps*v.Norm() {
		if v.Z >= 0 {
			return LonLat{Lon: 0, Lat: math.Pi / 2}
		}
		return LonLat{Lon: 0, Lat: -math.Pi / 2}
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: v})
	return LonLat{Lon: WrapLon(ll.Lng.Radians()), Lat: ll.Lat.Radians()}
}

// WrapLon maps a longitude into (−π, π].
func WrapLon(lon float64) float64 {
	return s1.Angle(lon).Normalized().Radians()
}
