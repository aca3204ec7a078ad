package mollweide

import "github.com/golang/geo/r2"

// Contains reports whether p lies inside the projected ellipse.
func Contains(p Point) bool {
	return p.X*p.X/8+p.Y*p.Y/2 <= 1
}

// Inverse maps a plane point back to (lon, lat). ok is false outside the ellipse.
func Inverse(p Point) (lon, lat float64, ok bool) {
	if !Contains(p) {
		return 0, 0, false
	}
	ll := Projection{}.ToLatLng(r2.Point{X: p.X, Y: p.Y})
	return ll.Lng.Radians(), ll.Lat.Radians(), true
}
