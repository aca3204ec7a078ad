package tui

import (
	"fmt"
	"math"

	"skymap/internal/mesh"
	"skymap/internal/orient"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// ticks lists multiples of step in [lo, hi), in radians. With open set the
// lower bound is excluded as well, which keeps parallels off the poles.
func ticks(step, lo, hi float64, open bool) []float64 {
	if step <= 0 {
		return nil
	}
	var out []float64
	n := int(math.Ceil((hi - lo) / step))
	for k := 0; k < n; k++ {
		d := lo + float64(k)*step
		if open && k == 0 {
			continue
		}
		out = append(out, radians(d))
	}
	return out
}

func diagSummary(d mesh.Diagnostics) string {
	s := fmt.Sprintf("cells %d  split %d  caps %d  gaps %d  dropped %d",
		d.CellsTotal, d.CellsSplit, d.PoleCaps, d.Gaps, d.CellsDropped)
	if n := len(d.Warnings); n > 0 {
		s += fmt.Sprintf("  warnings %d", n)
	}
	return s
}

// lonLatString formats a data frame position in degrees, longitude in [0, 360).
func lonLatString(lon, lat float64) string {
	return fmt.Sprintf("lon=%.3f lat=%.3f", orient.CastInto360(degrees(lon), 0), degrees(lat))
}
