package geom

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"

	"skymap/internal/mesh"
	"skymap/internal/sphere"
)

// LoadOverlay reads reference geometry from a GeoJSON file with coordinates
// in degrees of the data frame. Polygon rings become closed lines.
func LoadOverlay(path string) (Overlay, error) {
	f, err := os.Open(path)
	if err != nil {
		return Overlay{}, err
	}
	defer f.Close()
	return ParseOverlay(f)
}

// ParseOverlay is LoadOverlay on a reader.
func ParseOverlay(r io.Reader) (Overlay, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Overlay{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Overlay{}, err
	}
	var o Overlay
	parsePoint := func(v any) (sphere.LonLat, bool) {
		if a, ok := v.([]any); ok && len(a) >= 2 {
			lon, lok := a[0].(float64)
			lat, aok := a[1].(float64)
			if lok && aok {
				return lonLatDeg(lon, lat), true
			}
		}
		return sphere.LonLat{}, false
	}
	parseLine := func(v any) []sphere.LonLat {
		arr, _ := v.([]any)
		var ls []sphere.LonLat
		for _, el := range arr {
			if pt, ok := parsePoint(el); ok {
				ls = append(ls, pt)
			}
		}
		return ls
	}
	addLine := func(ls []sphere.LonLat) {
		if len(ls) >= 2 {
			o.Lines = append(o.Lines, ls)
		}
	}
	addPolygon := func(v any) {
		rings, _ := v.([]any)
		for _, ring := range rings {
			ls := parseLine(ring)
			if len(ls) > 2 && ls[0] != ls[len(ls)-1] {
				ls = append(ls, ls[0])
			}
			addLine(ls)
		}
	}
	var walkGeom func(g map[string]any)
	walkGeom = func(g map[string]any) {
		gt, _ := g["type"].(string)
		coords := g["coordinates"]
		switch gt {
		case "Point":
			if pt, ok := parsePoint(coords); ok {
				o.Points = append(o.Points, pt)
			}
		case "MultiPoint":
			o.Points = append(o.Points, parseLine(coords)...)
		case "LineString":
			addLine(parseLine(coords))
		case "MultiLineString":
			arr, _ := coords.([]any)
			for _, el := range arr {
				addLine(parseLine(el))
			}
		case "Polygon":
			addPolygon(coords)
		case "MultiPolygon":
			arr, _ := coords.([]any)
			for _, el := range arr {
				addPolygon(el)
			}
		case "GeometryCollection":
			gs, _ := g["geometries"].([]any)
			for _, sub := range gs {
				if sm, ok := sub.(map[string]any); ok {
					walkGeom(sm)
				}
			}
		}
	}
	t, _ := raw["type"].(string)
	switch t {
	case "Feature":
		if g, ok := raw["geometry"].(map[string]any); ok {
			walkGeom(g)
		}
	case "FeatureCollection":
		fs, _ := raw["features"].([]any)
		for _, f := range fs {
			if fm, ok := f.(map[string]any); ok {
				if g, ok := fm["geometry"].(map[string]any); ok {
					walkGeom(g)
				}
			}
		}
	default:
		walkGeom(raw)
	}
	if o.Empty() {
		return Overlay{}, errors.New("geojson: no geometries found")
	}
	return o, nil
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	Geometry   polygonGeometry `json:"geometry"`
	Properties cellProperties  `json:"properties"`
}

type polygonGeometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

type cellProperties struct {
	Value *float64 `json:"value"`
	Gap   bool     `json:"gap"`
	Row   int      `json:"row"`
	Col   int      `json:"col"`
}

// collection turns the mesh into a FeatureCollection of polygons in
// projection plane coordinates. Gap cells carry a null value.
func collection(m *mesh.Mesh) featureCollection {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(m.Polygons))}
	for _, p := range m.Polygons {
		ring := make([][2]float64, 0, len(p.Corners)+1)
		for _, c := range p.Corners {
			ring = append(ring, [2]float64{c.X, c.Y})
		}
		ring = append(ring, ring[0])

		props := cellProperties{Gap: p.Gap, Row: p.Row, Col: p.Col}
		if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
			v := p.Value
			props.Value = &v
		}
		fc.Features = append(fc.Features, feature{
			Type:       "Feature",
			Geometry:   polygonGeometry{Type: "Polygon", Coordinates: [][][2]float64{ring}},
			Properties: props,
		})
	}
	return fc
}

// WriteGeoJSON writes the mesh as GeoJSON.
func WriteGeoJSON(w io.Writer, m *mesh.Mesh) error {
	return json.NewEncoder(w).Encode(collection(m))
}
