package geom

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"skymap/internal/sphere"
)

// KML coordinates are "lon,lat[,alt]" tuples separated by whitespace.
type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoords   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlCoords `xml:"innerBoundaryIs>LinearRing"`
}

// kmlGeometry is the geometry part of a Placemark or a MultiGeometry.
type kmlGeometry struct {
	Points   []kmlCoords   `xml:"Point"`
	Lines    []kmlCoords   `xml:"LineString"`
	Rings    []kmlCoords   `xml:"LinearRing"`
	Polygons []kmlPolygon  `xml:"Polygon"`
	Multi    []kmlGeometry `xml:"MultiGeometry"`
}

// LoadKMLOverlay reads the placemarks of a KML file as an overlay. Points,
// line strings and polygon rings are kept; coordinates are degrees of the
// data frame and altitudes are ignored.
func LoadKMLOverlay(path string) (Overlay, error) {
	f, err := os.Open(path)
	if err != nil {
		return Overlay{}, err
	}
	defer f.Close()
	return ParseKML(f)
}

// ParseKML is LoadKMLOverlay on a reader. Placemarks are found at any depth
// of Document and Folder nesting.
func ParseKML(r io.Reader) (Overlay, error) {
	var o Overlay
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Overlay{}, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var g kmlGeometry
		if err := dec.DecodeElement(&g, &se); err != nil {
			return Overlay{}, err
		}
		g.addTo(&o)
	}
	if o.Empty() {
		return Overlay{}, errors.New("kml: no geometry found")
	}
	return o, nil
}

func (g kmlGeometry) addTo(o *Overlay) {
	for _, p := range g.Points {
		o.Points = append(o.Points, kmlTuples(p.Coordinates)...)
	}
	addLine := func(c kmlCoords) {
		if ls := kmlTuples(c.Coordinates); len(ls) >= 2 {
			o.Lines = append(o.Lines, ls)
		}
	}
	for _, l := range g.Lines {
		addLine(l)
	}
	for _, r := range g.Rings {
		addLine(r)
	}
	for _, p := range g.Polygons {
		addLine(p.Outer)
		for _, in := range p.Inner {
			addLine(in)
		}
	}
	for _, m := range g.Multi {
		m.addTo(o)
	}
}

func kmlTuples(s string) []sphere.LonLat {
	var out []sphere.LonLat
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(vals[0], 64)
		lat, err2 := strconv.ParseFloat(vals[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, lonLatDeg(lon, lat))
	}
	return out
}
