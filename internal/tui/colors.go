package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"skymap/internal/config"
	"skymap/internal/mesh"
)

// colorScale maps cell values onto a ramp blended in Lab space.
type colorScale struct {
	stops      []colorful.Color
	gap        colorful.Color
	vmin, vmax float64
}

func newColorScale(c config.Colors, field mesh.Field) (colorScale, error) {
	var s colorScale
	for _, h := range c.Ramp {
		col, err := colorful.Hex(h)
		if err != nil {
			return defaultScale(), fmt.Errorf("ramp colour %q: %w", h, err)
		}
		s.stops = append(s.stops, col)
	}
	if len(s.stops) < 2 {
		return defaultScale(), fmt.Errorf("ramp needs two colours, got %d", len(s.stops))
	}
	gap, err := colorful.Hex(c.Gap)
	if err != nil {
		return defaultScale(), fmt.Errorf("gap colour %q: %w", c.Gap, err)
	}
	s.gap = gap
	s.vmin, s.vmax = valueRange(field)
	if c.VMin != nil {
		s.vmin = *c.VMin
	}
	if c.VMax != nil {
		s.vmax = *c.VMax
	}
	if s.vmax <= s.vmin {
		s.vmax = s.vmin + 1
	}
	return s, nil
}

func defaultScale() colorScale {
	return colorScale{
		stops: []colorful.Color{{R: 0, G: 0, B: 0.5}, {R: 1, G: 1, B: 0}},
		gap:   colorful.Color{R: 0.25, G: 0.25, B: 0.25},
		vmin:  0,
		vmax:  1,
	}
}

// finite lists the values that are neither NaN nor infinite.
func finite(field mesh.Field) []float64 {
	var vals []float64
	for _, row := range field {
		for _, v := range row {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

// valueRange returns the span of the finite values in field. A positive
// range spanning more than a decade starts at zero.
func valueRange(field mesh.Field) (lo, hi float64) {
	vals := finite(field)
	if len(vals) == 0 {
		return 0, 1
	}
	lo, hi = floats.Min(vals), floats.Max(vals)
	if lo > 0 && hi > 10*lo {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// fieldStats returns the mean and standard deviation of the finite values
// and how many there are. Gaps are left out.
func fieldStats(field mesh.Field) (mean, std float64, n int) {
	vals := finite(field)
	if len(vals) == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean, std = stat.MeanStdDev(vals, nil)
	return mean, std, len(vals)
}

func (s colorScale) at(v float64) colorful.Color {
	if math.IsNaN(v) {
		return s.gap
	}
	t := (v - s.vmin) / (s.vmax - s.vmin)
	t = math.Max(0, math.Min(1, t))
	seg := t * float64(len(s.stops)-1)
	i := int(seg)
	if i >= len(s.stops)-1 {
		return s.stops[len(s.stops)-1]
	}
	return s.stops[i].BlendLab(s.stops[i+1], seg-float64(i)).Clamped()
}

func (s colorScale) hex(v float64) string {
	return s.at(v).Hex()
}

// bar renders the ramp n cells wide with the range at both ends.
func (s colorScale) bar(label string, n int) string {
	if n < 2 || len(s.stops) == 0 {
		return ""
	}
	var sb strings.Builder
	for k := 0; k < n; k++ {
		v := s.vmin + (s.vmax-s.vmin)*float64(k)/float64(n-1)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(s.hex(v))).Render("█"))
	}
	gap := lipgloss.NewStyle().Foreground(lipgloss.Color(s.gap.Hex())).Render("█")
	return fmt.Sprintf(" %s %.4g %s %.4g  %s gap", label, s.vmin, sb.String(), s.vmax, gap)
}
