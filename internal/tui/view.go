package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type layout struct {
	contentW, contentH int
	mapX, mapY         int
	mapW, mapH         int
}

const (
	headerHeight = 1
	footerHeight = 2
)

// layout computes the screen regions; View and the mouse handler share it.
func (m Model) layout() layout {
	contentH := max(4, m.height-headerHeight-footerHeight)
	contentW := max(10, m.width)
	sw := 0
	if m.showSidebar {
		sw = sidebarWidth + 1
	}
	return layout{
		contentW: contentW,
		contentH: contentH,
		mapX:     sw,
		mapY:     headerHeight,
		mapW:     max(10, contentW-sw),
		mapH:     contentH,
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lay := m.layout()

	// Header
	title := m.cfg.Labels.Title
	if title == "" {
		title = "skymap"
	}
	header := titleStyle.Render(" "+title+" ") + dimStyle.Render(" "+m.spec.String())
	if m.pending() {
		header += warnStyle.Render("  building…")
	}
	header = lipgloss.NewStyle().Width(lay.contentW).MaxHeight(headerHeight).Render(header)

	// Sidebar
	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	var mapView string
	switch {
	case m.showAttrs:
		// cell table centered in the map area
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(lay.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lay.mapH-2, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lay.mapW, lay.mapH, lipgloss.Center, lipgloss.Center, attrsBox)
	case m.pasteMode:
		m.ta.SetWidth(lay.mapW)
		m.ta.SetHeight(min(lay.mapH, 12))
		mapView = lipgloss.NewStyle().Width(lay.mapW).Height(lay.mapH).Render(m.ta.View())
	default:
		mapView = m.renderSkyMap(lay.mapW, lay.mapH)
	}

	// Body row
	var body string
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	} else {
		body = mapView
	}
	if m.inspectPopup != "" && !m.showAttrs {
		box := boxStyle.MaxWidth(min(64, max(24, lay.contentW/2))).Render(m.inspectPopup)
		body = overlayLeft(body, box, lay.contentH)
	}

	// Footer: colour bar, then status / help / hover
	bar := ""
	if m.data != nil {
		bar = m.scale.bar(m.cfg.Labels.Colorbar, min(32, max(8, lay.contentW/4)))
	}
	status := dimStyle.Render(" " + m.status + " ")
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, m.renderHelp())
	coords := ""
	if m.hovering && m.hoverOnSky {
		coords = m.hoverText()
	}
	spacerW := max(0, lay.contentW-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Width(lay.contentW).MaxHeight(1).Render(bar),
		lipgloss.NewStyle().Width(lay.contentW).MaxHeight(1).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right)),
	)

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(lay.contentW).Height(m.height).Render(ui)
}

// pending reports whether the mesh on screen is not yet the one for the view.
func (m Model) pending() bool {
	return m.data != nil && (m.mesh == nil || m.mesh.Spec != m.spec)
}

func (m Model) hoverText() string {
	s := "  " + lonLatString(m.hoverLon, m.hoverLat)
	if m.hoverOnCell {
		v := "gap"
		if !math.IsNaN(m.hoverValue) {
			v = fmt.Sprintf("%.4g", m.hoverValue)
		}
		s += fmt.Sprintf("  [%d,%d] %s", m.hoverRow, m.hoverCol, v)
	}
	return dimStyle.Render(s + "  ")
}

// overlayLeft draws box over the left edge of body, vertically centered.
func overlayLeft(body, box string, height int) string {
	lines := strings.Split(body, "\n")
	boxLines := strings.Split(box, "\n")
	top := max(0, (height-len(boxLines))/2)
	for k, bl := range boxLines {
		y := top + k
		if y >= len(lines) {
			break
		}
		rest := ""
		if w := lipgloss.Width(bl); lipgloss.Width(lines[y]) > w {
			rest = strings.Repeat(" ", lipgloss.Width(lines[y])-w)
		}
		lines[y] = bl + rest
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"x/y/z angles",
		"c meridian",
		"o preset",
		"r reset",
		"↑↓←→ pan",
		"+/- zoom",
		"1/2/3 layers",
		"Tab files",
		"p paste",
		"a cells",
		"i info",
		"w export",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
