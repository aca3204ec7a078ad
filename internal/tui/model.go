package tui

import (
	"context"
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"skymap/internal/config"
	"skymap/internal/geom"
	"skymap/internal/log"
	"skymap/internal/mesh"
	"skymap/internal/orient"
	"skymap/internal/sphere"
)

const (
	sidebarWidth = 28
	angleStep    = 5.0
)

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	cfg *config.Config

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// Data
	data    *geom.Dataset
	overlay geom.Overlay
	pasted  geom.Overlay
	scale   colorScale

	// View
	view      orient.Orientation
	spec      sphere.Spec
	preset    int
	graticule []mesh.Polyline

	// Mesh of the current view; gen tags the build it came from.
	mesh   *mesh.Mesh
	diag   mesh.Diagnostics
	gen    int
	cancel context.CancelFunc

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// layer visibility
	showCells     bool
	showGraticule bool
	showOverlay   bool

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverOnSky  bool
	hoverLon    float64
	hoverLat    float64
	hoverOnCell bool
	hoverRow    int
	hoverCol    int
	hoverValue  float64

	// cell table
	showAttrs bool
	tbl       table.Model
}

// New returns a viewer with no data loaded, oriented as cfg says.
func New(cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	m := Model{
		showSidebar:   false,
		helpVisible:   true,
		zoom:          1.0,
		status:        "skymap ready",
		cfg:           cfg,
		showCells:     true,
		showGraticule: true,
		showOverlay:   true,
		preset:        -1,
	}
	view, err := cfg.Orientation()
	if err != nil {
		m.status = "orientation: " + err.Error()
	}
	m.setView(view)

	m.cwd, _ = os.Getwd()
	if cfg.Data.Path != "" {
		if st, err := os.Stat(cfg.Data.Path); err == nil && st.IsDir() {
			m.cwd = cfg.Data.Path
		}
	}
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Maps"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Orientation keyword, \"phi alf th\" in degrees, or WKT overlay (POINT, LINESTRING, POLYGON). Enter applies; Esc cancels."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// NewWithDataset starts the viewer on an already loaded map. A non-nil
// prebuilt mesh for the configured view is shown without rebuilding.
func NewWithDataset(cfg *config.Config, d geom.Dataset, prebuilt *mesh.Mesh, diag mesh.Diagnostics) Model {
	m := New(cfg)
	m.setDataset(d)
	if prebuilt != nil && prebuilt.Spec == m.spec {
		m.mesh, m.diag = prebuilt, diag
		m.status = "loaded: " + d.Source + "  " + diagSummary(diag)
	}
	return m
}

// WithOverlay adds reference geometry drawn over the map.
func (m Model) WithOverlay(o geom.Overlay) Model {
	m.overlay.Merge(o)
	return m
}

func (m Model) Init() tea.Cmd {
	if m.data == nil || m.mesh != nil {
		return nil
	}
	return buildCmd(context.Background(), m.gen, m.data, m.spec, m.cfg.Workers)
}

// setView switches to view and refreshes everything derived from the spec
// except the mesh.
func (m *Model) setView(view orient.Orientation) {
	m.view = view
	m.spec = view.Spec()
	m.graticule = mesh.Graticule(m.spec, ticks(m.cfg.Graticule.LonStep, 0, 360, false),
		ticks(m.cfg.Graticule.LatStep, -90, 90, true), radians(m.cfg.Graticule.SampleStep))
	log.Debugw("graticule traced", "spec", m.spec.String(), "lines", len(m.graticule))
}

func (m *Model) setDataset(d geom.Dataset) {
	if m.cfg.Data.NonPositiveGap {
		d.MaskNonPositive()
	}
	m.data = &d
	m.mesh = nil
	m.diag = mesh.Diagnostics{}
	scale, err := newColorScale(m.cfg.Colors, d.Field)
	if err != nil {
		m.status = "colours: " + err.Error()
	}
	m.scale = scale
}
