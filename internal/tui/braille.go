package tui

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// brailleBuf is a 2x4 dot raster per terminal cell with one colour per cell.
type brailleBuf struct {
	w, h int        // in cells
	m    [][]uint8  // per-cell 8-bit mask
	fg   [][]string // per-cell colour, last writer wins
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	fg := make([][]string, h)
	for i := range m {
		m[i] = make([]uint8, w)
		fg[i] = make([]string, w)
	}
	return &brailleBuf{w: w, h: h, m: m, fg: fg}
}

var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int, color string) {
	if mx < 0 || my < 0 {
		return
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= dotBits[rx][ry]
	b.fg[cy][cx] = color
}

// drawLineMicro draws a line on the microgrid using Bresenham
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1 int, color string) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// fillPolygon sets every micro-pixel whose center lies inside ring, using
// the even-odd rule on each pixel row.
func (b *brailleBuf) fillPolygon(ring [][2]float64, color string) {
	if len(ring) < 3 {
		return
	}
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range ring {
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	y0 := max(0, int(math.Floor(minY)))
	y1 := min(b.h*4-1, int(math.Ceil(maxY)))
	var xs []float64
	for y := y0; y <= y1; y++ {
		yc := float64(y) + 0.5
		xs = xs[:0]
		for i := range ring {
			a, c := ring[i], ring[(i+1)%len(ring)]
			if (a[1] <= yc) == (c[1] <= yc) {
				continue
			}
			t := (yc - a[1]) / (c[1] - a[1])
			xs = append(xs, a[0]+t*(c[0]-a[0]))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			start := max(0, int(math.Ceil(xs[i]-0.5)))
			end := min(b.w*2-1, int(math.Floor(xs[i+1]-0.5)))
			for x := start; x <= end; x++ {
				b.setPixel(x, y, color)
			}
		}
	}
}

type glyph struct {
	r  rune
	fg string
}

// flatten merges layers cell by cell. Earlier layers win where several have
// dots in the same cell.
func flatten(w, h int, layers ...*brailleBuf) [][]glyph {
	out := make([][]glyph, h)
	for y := 0; y < h; y++ {
		row := make([]glyph, w)
		for x := 0; x < w; x++ {
			row[x] = glyph{r: ' '}
			for _, l := range layers {
				if mask := l.m[y][x]; mask != 0 {
					row[x] = glyph{r: rune(0x2800 + int(mask)), fg: l.fg[y][x]}
					break
				}
			}
		}
		out[y] = row
	}
	return out
}

// styleRows renders glyph rows, one style per run of equal colour.
func styleRows(rows [][]glyph) []string {
	out := make([]string, len(rows))
	for y, row := range rows {
		var sb strings.Builder
		var run []rune
		runColor := ""
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runColor == "" {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(string(run)))
			}
			run = run[:0]
		}
		for _, g := range row {
			if g.fg != runColor {
				flush()
				runColor = g.fg
			}
			run = append(run, g.r)
		}
		flush()
		out[y] = sb.String()
	}
	return out
}
