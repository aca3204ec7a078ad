// Package mollweide implements the equal-area Mollweide projection with the
// celestial longitude convention: longitude grows from right to left, as the
// sky is seen from inside the sphere.
//
// The projected ellipse spans x ∈ [−2√2, 2√2] and y ∈ [−√2, √2]; longitude 0
// sits on the central meridian.
package mollweide

import (
	"errors"
	"fmt"
	"math"

	"skymap/internal/sphere"
)

// ErrNonConvergent is returned when the auxiliary angle cannot be solved for.
var ErrNonConvergent = errors.New("mollweide: theta solve did not converge")

const (
	// Tolerance bounds the last Newton step on θ, in radians.
	Tolerance = 1e-12
	// MaxIterations caps the Newton loop.
	MaxIterations = 100

	residualFloor = 1e-14
)

var (
	sqrt2  = math.Sqrt2
	xScale = 2 * math.Sqrt2 / math.Pi
)

// Point is a position in the projection plane.
type Point struct {
	X, Y float64
}

// Theta solves 2θ + sin 2θ = π sin(lat) for the auxiliary angle θ.
func Theta(lat float64) (float64, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.Abs(lat) > math.Pi/2 {
		return 0, fmt.Errorf("%w: latitude %v out of range", ErrNonConvergent, lat)
	}
	if math.Abs(lat) == math.Pi/2 {
		return lat, nil
	}
	target := math.Pi * math.Sin(lat)
	theta := lat
	for i := 0; i < MaxIterations; i++ {
		f := 2*theta + math.Sin(2*theta) - target
		// Near the poles f' vanishes and rounding noise in f dominates the step.
		if math.Abs(f) < residualFloor {
			return theta, nil
		}
		fp := 2 + 2*math.Cos(2*theta)
		if fp == 0 {
			break
		}
		step := f / fp
		theta -= step
		if theta > math.Pi/2 {
			theta = math.Pi / 2
		} else if theta < -math.Pi/2 {
			theta = -math.Pi / 2
		}
		if math.Abs(step) < Tolerance {
			return theta, nil
		}
	}
	// The only place Newton stalls is next to the boundary, where θ → ±π/2.
	if math.Pi/2-math.Abs(lat) < 1e-6 {
		return math.Copysign(math.Pi/2, lat), nil
	}
	return 0, fmt.Errorf("%w: latitude %v", ErrNonConvergent, lat)
}

// Project wraps lon into (−π, π] and projects (lon, lat).
func Project(lon, lat float64) (Point, error) {
	return ProjectUnwrapped(sphere.WrapLon(lon), lat)
}

// ProjectUnwrapped projects without wrapping lon first. Callers use it to keep
// a vertex at exactly −π on the right-hand map edge.
func ProjectUnwrapped(lon, lat float64) (Point, error) {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return Point{}, fmt.Errorf("mollweide: invalid longitude %v", lon)
	}
	theta, err := Theta(lat)
	if err != nil {
		return Point{}, err
	}
	s, c := math.Sincos(theta)
	return Point{
		X: xScale * (-lon) * c,
		Y: sqrt2 * s,
	}, nil
}

// ProjectBatch projects matching slices element by element.
func ProjectBatch(lons, lats []float64) ([]Point, error) {
	if len(lons) != len(lats) {
		return nil, fmt.Errorf("mollweide: batch length mismatch: %d lons, %d lats", len(lons), len(lats))
	}
	out := make([]Point, len(lons))
	for i := range lons {
		p, err := Project(lons[i], lats[i])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}
