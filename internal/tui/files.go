package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"skymap/internal/geom"
	"skymap/internal/log"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// supported maps file extensions to what they load as.
var supported = map[string]string{
	".csv":     "map",
	".txt":     "ibex",
	".geojson": "overlay",
	".json":    "overlay",
	".wkt":     "overlay",
	".kml":     "overlay",
}

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if kind, ok := supported[ext]; ok {
			items = append(items, fileItem{title: name, desc: kind, path: filepath.Join(m.cwd, name)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in " + m.cwd
	}
}

// loadPath loads a map or an overlay. Maps start a rebuild.
func (m *Model) loadPath(p string) tea.Cmd {
	m.selPath = p
	ext := strings.ToLower(filepath.Ext(p))
	var (
		d   geom.Dataset
		err error
	)
	switch ext {
	case ".csv":
		d, err = geom.LoadGridCSV(p)
	case ".txt":
		d, err = geom.LoadIBEX(p)
	case ".geojson", ".json", ".kml":
		load := geom.LoadOverlay
		if ext == ".kml" {
			load = geom.LoadKMLOverlay
		}
		o, err := load(p)
		if err != nil {
			m.status = "load error: " + err.Error()
			return nil
		}
		m.overlay = o
		m.showOverlay = true
		m.status = "overlay: " + filepath.Base(p) + fmt.Sprintf("  counts: pts=%d lines=%d", len(o.Points), len(o.Lines))
		return nil
	case ".wkt":
		b, err := os.ReadFile(p)
		if err != nil {
			m.status = "load error: " + err.Error()
			return nil
		}
		o, err := geom.ParseWKT(string(b))
		if err != nil {
			m.status = "wkt error: " + err.Error()
			return nil
		}
		m.overlay = o
		m.showOverlay = true
		m.status = "overlay: " + filepath.Base(p) + fmt.Sprintf("  counts: pts=%d lines=%d", len(o.Points), len(o.Lines))
		return nil
	default:
		m.status = "unsupported file: " + ext
		return nil
	}
	if err != nil {
		log.Warnw("map load failed", "path", p, "error", err)
		m.status = "load error: " + err.Error()
		return nil
	}
	m.setDataset(d)
	rows, cols := d.Grid.Shape()
	log.Infow("map loaded", "path", p, "rows", rows, "cols", cols, "frame", d.Frame)
	m.status = fmt.Sprintf("loaded: %s  %dx%d", filepath.Base(p), rows, cols)
	cmd := m.rebuild()
	if m.showAttrs {
		m.refreshAttrs()
	}
	return cmd
}
