package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"skymap/internal/geom"
	"skymap/internal/log"
	"skymap/internal/mesh"
	"skymap/internal/orient"
	"skymap/internal/sphere"
)

// meshMsg carries the result of a background build.
type meshMsg struct {
	gen  int
	mesh *mesh.Mesh
	diag mesh.Diagnostics
	err  error
}

func buildCmd(ctx context.Context, gen int, d *geom.Dataset, spec sphere.Spec, workers int) tea.Cmd {
	grid, field := d.Grid, d.Field
	return func() tea.Msg {
		var opts []mesh.Option
		if workers > 0 {
			opts = append(opts, mesh.WithWorkers(workers))
		}
		msh, diag, err := mesh.Build(ctx, grid, field, spec, opts...)
		return meshMsg{gen: gen, mesh: msh, diag: diag, err: err}
	}
}

// rebuild cancels the build in flight, if any, and starts one for the
// current view. Results of older builds are ignored by generation.
func (m *Model) rebuild() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	if m.data == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return buildCmd(ctx, m.gen, m.data, m.spec, m.cfg.Workers)
}

func (m *Model) changeView(view orient.Orientation) tea.Cmd {
	m.setView(view)
	m.status = "view " + m.spec.String()
	if m.hovering {
		lay := m.layout()
		m.updateHover(lay.mapW, lay.mapH)
	}
	return m.rebuild()
}

func (m *Model) cyclePreset(dir int) tea.Cmd {
	n := len(orient.Presets)
	m.preset = ((m.preset+dir)%n + n) % n
	p := orient.Presets[m.preset]
	cmd := m.changeView(p.Orientation(m.cfg.Coords))
	m.status = fmt.Sprintf("preset %s  %s", p, m.spec)
	return cmd
}

func presetIndex(p orient.Preset) int {
	for i, q := range orient.Presets {
		if q == p {
			return i
		}
	}
	return -1
}

// applyInput interprets pasted text as three angles in degrees, an
// orientation keyword, or a WKT overlay, in that order.
func (m *Model) applyInput(s string) tea.Cmd {
	if f := strings.Fields(s); len(f) == 3 {
		var a [3]float64
		ok := true
		for i := range f {
			v, err := strconv.ParseFloat(f[i], 64)
			if err != nil {
				ok = false
				break
			}
			a[i] = v
		}
		if ok {
			m.preset = -1
			return m.changeView(orient.Orientation{Phi: a[0], Alf: a[1], Th: a[2], CenterMeridian: m.view.CenterMeridian})
		}
	}
	if p, err := orient.Lookup(s, m.cfg.OrientationKeywords); err == nil {
		m.preset = presetIndex(p)
		cmd := m.changeView(p.Orientation(m.cfg.Coords))
		m.status = fmt.Sprintf("preset %s  %s", p, m.spec)
		return cmd
	}
	o, err := geom.ParseWKT(s)
	if err != nil {
		m.status = "input is neither angles, a keyword nor WKT: " + err.Error()
		return nil
	}
	m.pasted = o
	m.showOverlay = true
	m.status = fmt.Sprintf("overlay  counts: pts=%d lines=%d", len(o.Points), len(o.Lines))
	return nil
}

// exportMesh writes the current mesh as GeoJSON next to the source file.
func (m *Model) exportMesh() {
	if m.mesh == nil {
		m.status = "nothing to export"
		return
	}
	name := "skymap"
	dir := m.cwd
	if m.data != nil && m.data.Source != "" {
		dir = filepath.Dir(m.data.Source)
		name = strings.TrimSuffix(filepath.Base(m.data.Source), filepath.Ext(m.data.Source))
	}
	path := filepath.Join(dir, name+".mesh.geojson")
	f, err := os.Create(path)
	if err != nil {
		m.status = "export error: " + err.Error()
		return
	}
	if err := geom.WriteGeoJSON(f, m.mesh); err != nil {
		f.Close()
		m.status = "export error: " + err.Error()
		return
	}
	if err := f.Close(); err != nil {
		m.status = "export error: " + err.Error()
		return
	}
	log.Infow("mesh exported", "path", path, "polygons", len(m.mesh.Polygons))
	m.status = "wrote " + path
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
		}
	case meshMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if msg.err != nil {
			log.Errorw("mesh build failed", "spec", m.spec.String(), "error", msg.err)
			m.status = "build error: " + msg.err.Error()
			return m, nil
		}
		m.mesh, m.diag = msg.mesh, msg.diag
		log.Infow("mesh built", "spec", m.spec.String(), "cells", msg.diag.CellsTotal,
			"split", msg.diag.CellsSplit, "pole_caps", msg.diag.PoleCaps,
			"gaps", msg.diag.Gaps, "dropped", msg.diag.CellsDropped)
		for _, w := range msg.diag.Warnings {
			log.Warnw("cell dropped", "row", w.Row, "col", w.Col, "lat", w.Lat, "error", w.Err)
		}
		m.status = diagSummary(msg.diag)
		if m.showAttrs {
			m.refreshAttrs()
		}
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			switch msg.String() {
			case "esc":
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				in := strings.TrimSpace(m.ta.Value())
				if in == "" {
					m.status = "paste: empty"
					return m, nil
				}
				m.pasteMode = false
				m.ta.Blur()
				cmd := m.applyInput(in)
				return m, cmd
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		if m.showAttrs {
			switch msg.String() {
			case "up", "down", "pgup", "pgdown", "home", "end", "j", "k":
				var cmd tea.Cmd
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "1":
			m.showCells = !m.showCells
			m.status = fmt.Sprintf("cells: %v", m.showCells)
		case "2":
			m.showGraticule = !m.showGraticule
			m.status = fmt.Sprintf("graticule: %v", m.showGraticule)
		case "3":
			m.showOverlay = !m.showOverlay
			m.status = fmt.Sprintf("overlay: %v", m.showOverlay)
		case "l":
			// toggle all layers
			all := m.showCells && m.showGraticule && m.showOverlay
			m.showCells = !all
			m.showGraticule = !all
			m.showOverlay = !all
			m.status = fmt.Sprintf("layers: cells=%v graticule=%v overlay=%v", m.showCells, m.showGraticule, m.showOverlay)
		case "+", "=":
			if m.zoom < 64 {
				m.zoom *= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "-", "_":
			if m.zoom > 0.25 {
				m.zoom /= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "x", "X", "y", "Y", "z", "Z":
			v := m.view
			d := angleStep
			k := msg.String()
			if k == strings.ToLower(k) {
				d = -d
			}
			switch strings.ToLower(k) {
			case "x":
				v.Phi += d
			case "y":
				v.Alf += d
			case "z":
				v.Th += d
			}
			m.preset = -1
			cmd := m.changeView(v)
			return m, cmd
		case "c":
			v := m.view
			v.CenterMeridian = !v.CenterMeridian
			cmd := m.changeView(v)
			m.status = fmt.Sprintf("center meridian: %v  %s", v.CenterMeridian, m.spec)
			return m, cmd
		case "o":
			cmd := m.cyclePreset(1)
			return m, cmd
		case "O":
			cmd := m.cyclePreset(-1)
			return m, cmd
		case "r":
			m.zoom, m.offsetX, m.offsetY = 1, 0, 0
			m.preset = -1
			view, err := m.cfg.Orientation()
			if err != nil {
				m.status = "orientation: " + err.Error()
				return m, nil
			}
			cmd := m.changeView(view)
			return m, cmd
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshDir()
				m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
			}
		case "p":
			m.pasteMode = !m.pasteMode
			if m.pasteMode {
				m.ta.SetValue("")
				m.status = "paste mode"
				m.ta.Focus()
			} else {
				m.status = "view mode"
				m.ta.Blur()
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrs()
			}
		case "i":
			if m.inspectPopup != "" {
				m.inspectPopup = ""
				break
			}
			m.inspectPopup = m.inspectText()
			m.status = "inspect popup"
		case "w":
			m.exportMesh()
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					cmd := m.loadPath(it.path)
					return m, cmd
				}
			}
		case "up":
			m.offsetY -= 1
		case "down":
			m.offsetY += 1
		case "left":
			m.offsetX -= 2
		case "right":
			m.offsetX += 2
		}
	case tea.MouseMsg:
		lay := m.layout()
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, lay.contentH-2)
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if m.zoom < 64 {
				m.zoom *= 1.1
			}
		case tea.MouseButtonWheelDown:
			if m.zoom > 0.25 {
				m.zoom /= 1.1
			}
		}
		cx, cy := msg.X-lay.mapX, msg.Y-lay.mapY
		if !m.showAttrs && !m.pasteMode && cx >= 0 && cx < lay.mapW && cy >= 0 && cy < lay.mapH {
			m.hovering = true
			m.hoverCellX, m.hoverCellY = cx, cy
			m.updateHover(lay.mapW, lay.mapH)
		} else {
			m.hovering = false
			m.hoverOnSky = false
		}
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

// inspectText summarises the loaded map and the last build.
func (m Model) inspectText() string {
	lines := []string{fmt.Sprintf("view: %s", m.spec)}
	if m.preset >= 0 {
		lines = append(lines, fmt.Sprintf("preset: %s", orient.Presets[m.preset]))
	}
	if m.data == nil {
		return strings.Join(append(lines, "no map loaded"), "\n")
	}
	rows, cols := m.data.Grid.Shape()
	lines = append(lines,
		fmt.Sprintf("source: %s", m.data.Source),
		fmt.Sprintf("frame: %s  grid: %dx%d", m.data.Frame, rows, cols),
		fmt.Sprintf("range: %.4g .. %.4g", m.scale.vmin, m.scale.vmax),
	)
	if mean, std, n := fieldStats(m.data.Field); n > 0 {
		lines = append(lines, fmt.Sprintf("mean: %.4g  sd: %.4g  (%d cells)", mean, std, n))
	}
	lines = append(lines, diagSummary(m.diag))
	if m.mesh != nil {
		lines = append(lines, fmt.Sprintf("polygons: %d", len(m.mesh.Polygons)))
	}
	for k, w := range m.diag.Warnings {
		if k == 5 {
			lines = append(lines, fmt.Sprintf("... %d more", len(m.diag.Warnings)-k))
			break
		}
		lines = append(lines, w.String())
	}
	return strings.Join(lines, "\n")
}
