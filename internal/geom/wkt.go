package geom

import (
	"errors"
	"strconv"
	"strings"

	"skymap/internal/sphere"
)

// ParseWKT parses a subset of WKT into an overlay. Coordinates are
// "lon lat" in degrees.
// Supported: POINT, MULTIPOINT, LINESTRING, POLYGON((...), (...)).
func ParseWKT(wkt string) (Overlay, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return Overlay{}, errors.New("empty wkt")
	}
	up := strings.ToUpper(s)
	parseTuples := func(block string) []sphere.LonLat {
		var out []sphere.LonLat
		for _, tup := range strings.Split(block, ",") {
			parts := strings.Fields(strings.Trim(strings.TrimSpace(tup), "()"))
			if len(parts) < 2 {
				continue
			}
			x, e1 := strconv.ParseFloat(parts[0], 64)
			y, e2 := strconv.ParseFloat(parts[1], 64)
			if e1 != nil || e2 != nil {
				continue
			}
			out = append(out, lonLatDeg(x, y))
		}
		return out
	}
	body := func(open, close string) (string, error) {
		i := strings.Index(s, open)
		j := strings.LastIndex(s, close)
		if i < 0 || j <= i {
			return "", errors.New("wkt: unbalanced parentheses")
		}
		return s[i+len(open) : j], nil
	}

	var o Overlay
	switch {
	case strings.HasPrefix(up, "POINT"), strings.HasPrefix(up, "MULTIPOINT"):
		b, err := body("(", ")")
		if err != nil {
			return Overlay{}, err
		}
		o.Points = parseTuples(b)
	case strings.HasPrefix(up, "LINESTRING"):
		b, err := body("(", ")")
		if err != nil {
			return Overlay{}, err
		}
		if ls := parseTuples(b); len(ls) >= 2 {
			o.Lines = append(o.Lines, ls)
		}
	case strings.HasPrefix(up, "POLYGON"):
		b, err := body("((", "))")
		if err != nil {
			return Overlay{}, err
		}
		for _, rp := range strings.Split(b, ")") {
			ring := parseTuples(strings.TrimLeft(rp, ",( \t"))
			if len(ring) > 2 && ring[0] != ring[len(ring)-1] {
				ring = append(ring, ring[0])
			}
			if len(ring) >= 2 {
				o.Lines = append(o.Lines, ring)
			}
		}
	default:
		return Overlay{}, errors.New("unsupported wkt type")
	}
	if o.Empty() {
		return Overlay{}, errors.New("wkt: no coordinates parsed")
	}
	return o, nil
}
