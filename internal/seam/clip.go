package seam

import (
	"math"

	"skymap/internal/sphere"
)

// clipLon keeps the part of poly with Lon >= bound (keepEast) or Lon <= bound,
// one Sutherland–Hodgman pass. Cut points are interpolated linearly in
// latitude and placed exactly on bound.
func clipLon(poly []sphere.LonLat, bound float64, keepEast bool) []sphere.LonLat {
	if len(poly) == 0 {
		return nil
	}
	inside := func(p sphere.LonLat) bool {
		if keepEast {
			return p.Lon >= bound
		}
		return p.Lon <= bound
	}
	cut := func(a, b sphere.LonLat) sphere.LonLat {
		t := (bound - a.Lon) / (b.Lon - a.Lon)
		return sphere.LonLat{Lon: bound, Lat: a.Lat + t*(b.Lat-a.Lat)}
	}

	out := make([]sphere.LonLat, 0, len(poly)+2)
	prev := poly[len(poly)-1]
	for _, cur := range poly {
		switch {
		case inside(cur):
			if !inside(prev) {
				out = append(out, cut(prev, cur))
			}
			out = append(out, cur)
		case inside(prev):
			out = append(out, cut(prev, cur))
		}
		prev = cur
	}
	return out
}

// dedupe drops vertices equal to their predecessor, including across the
// closing edge.
func dedupe(poly []sphere.LonLat) []sphere.LonLat {
	out := make([]sphere.LonLat, 0, len(poly))
	for _, p := range poly {
		if len(out) > 0 && samePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func samePoint(a, b sphere.LonLat) bool {
	return math.Abs(a.Lon-b.Lon) < seamTol && math.Abs(a.Lat-b.Lat) < seamTol
}

// Area is the signed shoelace area of a ring in the longitude/latitude plane.
func Area(poly []sphere.LonLat) float64 {
	var a float64
	for i := range poly {
		p := poly[i]
		q := poly[(i+1)%len(poly)]
		a += p.Lon*q.Lat - q.Lon*p.Lat
	}
	return a / 2
}

func drawable(poly []sphere.LonLat) bool {
	return len(poly) >= 3 && math.Abs(Area(poly)) > minArea
}
