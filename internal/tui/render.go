package tui

import (
	"math"
	"sort"
	"strings"

	"skymap/internal/mesh"
	"skymap/internal/mollweide"
	"skymap/internal/sphere"
)

// Extent of the projected ellipse.
var (
	halfWidth  = 2 * math.Sqrt2
	halfHeight = math.Sqrt2
)

// viewport maps the projection plane onto the braille microgrid. Micro
// pixels are close to square on a terminal, so one scale serves both axes.
type viewport struct {
	scale  float64 // micro pixels per plane unit
	cx, cy float64 // micro position of the plane origin
}

func (m Model) viewport(w, h int) viewport {
	wMic, hMic := float64(w*2), float64(h*4)
	scale := 0.98 * math.Min(wMic/(2*halfWidth), hMic/(2*halfHeight)) * m.zoom
	return viewport{
		scale: scale,
		cx:    wMic/2 + float64(m.offsetX*2),
		cy:    hMic/2 + float64(m.offsetY*4),
	}
}

func (v viewport) toMicroF(p mollweide.Point) (float64, float64) {
	return v.cx + p.X*v.scale, v.cy - p.Y*v.scale
}

func (v viewport) toMicro(p mollweide.Point) (int, int) {
	x, y := v.toMicroF(p)
	return int(math.Floor(x)), int(math.Floor(y))
}

// fromCell returns the plane point under the center of a terminal cell.
func (v viewport) fromCell(cx, cy int) mollweide.Point {
	mx, my := float64(cx*2)+1, float64(cy*4)+2
	return mollweide.Point{X: (mx - v.cx) / v.scale, Y: (v.cy - my) / v.scale}
}

func (m Model) renderSkyMap(w, h int) string {
	vp := m.viewport(w, h)
	fill := newBrailleBuf(w, h)
	grid := newBrailleBuf(w, h)
	marks := newBrailleBuf(w, h)

	if m.showCells && m.mesh != nil {
		ring := make([][2]float64, 0, 8)
		for _, p := range m.mesh.Polygons {
			ring = ring[:0]
			for _, c := range p.Corners {
				x, y := vp.toMicroF(c)
				ring = append(ring, [2]float64{x, y})
			}
			fill.fillPolygon(ring, m.scale.hex(p.Value))
		}
	}

	if m.showGraticule {
		for _, l := range m.graticule {
			drawPolyline(grid, vp, l, string(gridFg))
		}
	}
	drawPolyline(grid, vp, ellipse(180), string(outlineFg))

	if m.showOverlay {
		rot := sphere.NewRotation(m.spec)
		tol := radians(m.cfg.Graticule.SampleStep) / 4
		for _, o := range []struct {
			points []sphere.LonLat
			lines  [][]sphere.LonLat
		}{{m.overlay.Points, m.overlay.Lines}, {m.pasted.Points, m.pasted.Lines}} {
			for _, line := range o.lines {
				for _, pl := range mesh.Trace(m.spec, line, tol) {
					drawPolyline(marks, vp, pl, string(overlayFg))
				}
			}
			for _, p := range o.points {
				q := rot.Apply(p)
				pt, err := mollweide.Project(q.Lon, q.Lat)
				if err != nil {
					continue
				}
				mx, my := vp.toMicro(pt)
				for _, d := range [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					marks.setPixel(mx+d[0], my+d[1], string(overlayFg))
				}
			}
		}
	}

	cells := flatten(w, h, marks, grid, fill)
	if m.hovering && m.hoverOnSky {
		cx, cy := m.hoverCellX, m.hoverCellY
		if cy >= 0 && cy < h && cx >= 0 && cx < w {
			cells[cy][cx] = glyph{r: '◯', fg: string(hoverFg)}
		}
	}
	return strings.Join(styleRows(cells), "\n")
}

func drawPolyline(b *brailleBuf, vp viewport, l mesh.Polyline, color string) {
	for k := 1; k < len(l); k++ {
		x0, y0 := vp.toMicro(l[k-1])
		x1, y1 := vp.toMicro(l[k])
		b.drawLineMicro(x0, y0, x1, y1, color)
	}
}

// ellipse samples the map boundary.
func ellipse(n int) mesh.Polyline {
	out := make(mesh.Polyline, n+1)
	for k := 0; k <= n; k++ {
		t := 2 * math.Pi * float64(k) / float64(n)
		out[k] = mollweide.Point{X: halfWidth * math.Cos(t), Y: halfHeight * math.Sin(t)}
	}
	return out
}

// updateHover resolves the hovered terminal cell to a sky position in the
// data frame and the grid cell beneath it.
func (m *Model) updateHover(w, h int) {
	m.hoverOnSky, m.hoverOnCell = false, false
	p := m.viewport(w, h).fromCell(m.hoverCellX, m.hoverCellY)
	lon, lat, ok := mollweide.Inverse(p)
	if !ok {
		return
	}
	src := sphere.NewRotation(m.spec).Inverse().Apply(sphere.LonLat{Lon: lon, Lat: lat})
	m.hoverOnSky = true
	m.hoverLon, m.hoverLat = src.Lon, src.Lat
	if m.data == nil {
		return
	}
	if i, j, ok := cellAt(m.data.Grid, src.Lon, src.Lat); ok {
		m.hoverOnCell = true
		m.hoverRow, m.hoverCol = i, j
		m.hoverValue = m.data.Field[i][j]
	}
}

// cellAt finds the grid cell holding (lon, lat). Longitude is wrapped into
// the turn starting at the first lon edge.
func cellAt(g mesh.Grid, lon, lat float64) (row, col int, ok bool) {
	if len(g.LonEdges) < 2 || len(g.LatEdges) < 2 {
		return 0, 0, false
	}
	lo := g.LonEdges[0]
	lon = lo + math.Mod(lon-lo, 2*math.Pi)
	if lon < lo {
		lon += 2 * math.Pi
	}
	col, ok = bin(g.LonEdges, lon)
	if !ok {
		return 0, 0, false
	}
	row, ok = bin(g.LatEdges, lat)
	return row, col, ok
}

// bin returns the interval of edges containing v; the last edge belongs to
// the last interval.
func bin(edges []float64, v float64) (int, bool) {
	n := len(edges) - 1
	if v < edges[0] || v > edges[n] {
		return 0, false
	}
	i := sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
	return min(i, n-1), true
}
