package geom

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"skymap/internal/mesh"
	"skymap/internal/sphere"
)

const sampleCSV = `# example map
# lon edges, lat edges, then rows
0, 90, 180, 270, 360
-90, 0, 90
1, 2, 3, 4,
5, nan, 7, 8

`

func TestParseGridCSV(t *testing.T) {
	d, err := ParseGridCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := d.Grid.Shape(); rows != 2 || cols != 4 {
		t.Fatalf("shape = %dx%d, want 2x4", rows, cols)
	}
	if err := d.Grid.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := d.Grid.CheckField(d.Field); err != nil {
		t.Fatal(err)
	}
	if math.Abs(d.Grid.LonEdges[2]-math.Pi) > 1e-15 || math.Abs(d.Grid.LatEdges[0]+math.Pi/2) > 1e-15 {
		t.Errorf("edges not converted to radians: %v %v", d.Grid.LonEdges, d.Grid.LatEdges)
	}
	if d.Field[0][3] != 4 || !math.IsNaN(d.Field[1][1]) {
		t.Errorf("field = %v", d.Field)
	}
}

func TestParseGridCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"only comments", "# nothing\n"},
		{"no lat line", "0, 360\n"},
		{"bad number", "0, 360\n-90, 90\n1, x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGridCSV(strings.NewReader(tt.in)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadGridCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadGridCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Source != path || d.Frame != "ecliptic" {
		t.Errorf("dataset source=%q frame=%q", d.Source, d.Frame)
	}
	if _, err := LoadGridCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParseIBEX(t *testing.T) {
	var b strings.Builder
	b.WriteString("#Map 03x04 flux\n")
	b.WriteString("# comment line\n")
	for i := 0; i < 3; i++ {
		b.WriteString(" 1.5  0  2.5 3\n")
	}
	d, err := ParseIBEX(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := d.Grid.Shape(); rows != 3 || cols != 4 {
		t.Fatalf("shape = %dx%d, want 3x4", rows, cols)
	}
	if err := d.Grid.CheckField(d.Field); err != nil {
		t.Fatal(err)
	}
	if math.Abs(d.Grid.LonEdges[4]-2*math.Pi) > 1e-15 || math.Abs(d.Grid.LatEdges[1]+math.Pi/6) > 1e-15 {
		t.Errorf("edges = %v / %v", d.Grid.LonEdges, d.Grid.LatEdges)
	}

	if n := d.MaskNonPositive(); n != 3 {
		t.Errorf("masked %d cells, want 3", n)
	}
	for i := range d.Field {
		if !math.IsNaN(d.Field[i][1]) || d.Field[i][0] != 1.5 {
			t.Errorf("row %d = %v", i, d.Field[i])
		}
	}
}

func TestParseIBEX_Transposed(t *testing.T) {
	in := "#Map 02x03\n1 2\n3 4\n5 6\n"
	d, err := ParseIBEX(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Grid.CheckField(d.Field); err != nil {
		t.Fatal(err)
	}
	if d.Field[0][2] != 5 || d.Field[1][0] != 2 {
		t.Errorf("field = %v", d.Field)
	}
}

func TestParseIBEX_BadHeader(t *testing.T) {
	for _, in := range []string{"", "short\n", "#Map xxyyy\n"} {
		if _, err := ParseIBEX(strings.NewReader(in)); err == nil {
			t.Errorf("ParseIBEX(%q): expected an error", in)
		}
	}
}

func TestIBEXQuery_Path(t *testing.T) {
	hi := IBEXQuery{Hi: true, Product: "noSP_ram", EnergyBin: 3, Year: "2009", Quantity: "flux"}
	want := filepath.Join("/dr18/Hi", "hvset_noSP_ram_2009", "hv60.hide-trp-flux100-hi-3-flux.txt")
	if got := hi.Path("/dr18/Hi"); got != want {
		t.Errorf("hi path = %q, want %q", got, want)
	}
	lo := IBEXQuery{Product: "noSP_ram", SubDir: "prod/map_h", EnergyBin: 2, Year: "2010", Quantity: "fvar"}
	want = filepath.Join("/dr17/Lo", "lvset_h_noSP_ram_hb_2010", "prod/map_h", "lv60.lohb-trp-flux100-lo-2-fvar.txt")
	if got := lo.Path("/dr17/Lo"); got != want {
		t.Errorf("lo path = %q, want %q", got, want)
	}
}

func TestParseOverlay(t *testing.T) {
	in := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","geometry":{"type":"Point","coordinates":[255.7,5.1]}},
	  {"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[10,0],[20,5]]}},
	  {"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10]]]}}
	]}`
	o, err := ParseOverlay(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Points) != 1 || len(o.Lines) != 2 {
		t.Fatalf("overlay = %d points, %d lines", len(o.Points), len(o.Lines))
	}
	if got := o.Points[0].Lon * 180 / math.Pi; math.Abs(got-255.7) > 1e-9 {
		t.Errorf("point lon = %v", got)
	}
	if ring := o.Lines[1]; len(ring) != 4 || ring[0] != ring[3] {
		t.Errorf("polygon ring not closed: %v", ring)
	}
	if _, err := ParseOverlay(strings.NewReader(`{"type":"FeatureCollection","features":[]}`)); err == nil {
		t.Error("expected an error for an empty collection")
	}
}

func TestParseWKT(t *testing.T) {
	tests := []struct {
		in            string
		points, lines int
	}{
		{"POINT(255.7 5.1)", 1, 0},
		{"MULTIPOINT(1 2, 3 4, 5 6)", 3, 0},
		{"LINESTRING(0 0, 10 10, 20 0)", 0, 1},
		{"POLYGON((0 0, 10 0, 10 10, 0 0), (2 2, 3 2, 3 3))", 0, 2},
	}
	for _, tt := range tests {
		o, err := ParseWKT(tt.in)
		if err != nil {
			t.Fatalf("ParseWKT(%q): %v", tt.in, err)
		}
		if len(o.Points) != tt.points || len(o.Lines) != tt.lines {
			t.Errorf("ParseWKT(%q) = %d points, %d lines", tt.in, len(o.Points), len(o.Lines))
		}
	}
	o, _ := ParseWKT("POLYGON((0 0, 10 0, 10 10, 0 0), (2 2, 3 2, 3 3))")
	if hole := o.Lines[1]; len(hole) != 4 || hole[0] != hole[3] {
		t.Errorf("hole ring = %v", hole)
	}
	for _, bad := range []string{"", "CIRCLE(1 2)", "LINESTRING 0 0"} {
		if _, err := ParseWKT(bad); err == nil {
			t.Errorf("ParseWKT(%q): expected an error", bad)
		}
	}
}

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark><name>nose</name><Point><coordinates>255.7,5.1,0</coordinates></Point></Placemark>
    <Folder>
      <Placemark>
        <LineString><coordinates>0,0 10,0
          20,5</coordinates></LineString>
      </Placemark>
      <Placemark>
        <Polygon>
          <outerBoundaryIs><LinearRing><coordinates>0,0 10,0 10,10 0,0</coordinates></LinearRing></outerBoundaryIs>
          <innerBoundaryIs><LinearRing><coordinates>2,2 3,2 3,3 2,2</coordinates></LinearRing></innerBoundaryIs>
        </Polygon>
      </Placemark>
      <Placemark>
        <MultiGeometry>
          <Point><coordinates>1,2</coordinates></Point>
          <LineString><coordinates>30,-10 40,-20</coordinates></LineString>
        </MultiGeometry>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestParseKML(t *testing.T) {
	o, err := ParseKML(strings.NewReader(sampleKML))
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Points) != 2 || len(o.Lines) != 4 {
		t.Fatalf("overlay = %d points, %d lines; want 2, 4", len(o.Points), len(o.Lines))
	}
	nose := o.Points[0]
	if math.Abs(nose.Lon*180/math.Pi-255.7) > 1e-9 || math.Abs(nose.Lat*180/math.Pi-5.1) > 1e-9 {
		t.Errorf("point = %+v, want (255.7°, 5.1°) in radians", nose)
	}
	if n := len(o.Lines[0]); n != 3 {
		t.Errorf("line string has %d vertices, want 3", n)
	}
	if outer := o.Lines[1]; len(outer) != 4 || outer[0] != outer[3] {
		t.Errorf("outer ring = %v", outer)
	}
	if last := o.Lines[3][1]; math.Abs(last.Lat*180/math.Pi+20) > 1e-9 {
		t.Errorf("multi geometry line ends at %+v", last)
	}

	for _, bad := range []string{
		`<kml><Document></Document></kml>`,
		`<kml><Placemark><Point><coordinates>1,2</coordinates></Point>`,
	} {
		if _, err := ParseKML(strings.NewReader(bad)); err == nil {
			t.Errorf("ParseKML(%q): expected an error", bad)
		}
	}
}

func TestLoadKMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.kml")
	if err := os.WriteFile(path, []byte(sampleKML), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := LoadKMLOverlay(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Points) != 2 {
		t.Errorf("got %d points", len(o.Points))
	}
	if _, err := LoadKMLOverlay(filepath.Join(t.TempDir(), "missing.kml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWriteGeoJSON(t *testing.T) {
	d, err := ParseGridCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	m, _, err := mesh.Build(context.Background(), d.Grid, d.Field, sphere.Spec{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteGeoJSON(&buf, m); err != nil {
		t.Fatal(err)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string         `json:"type"`
				Coordinates [][][2]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				Value *float64 `json:"value"`
				Gap   bool     `json:"gap"`
				Row   int      `json:"row"`
				Col   int      `json:"col"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(buf.Bytes(), &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != len(m.Polygons) {
		t.Fatalf("got %s with %d features, want %d", fc.Type, len(fc.Features), len(m.Polygons))
	}
	for k, f := range fc.Features {
		p := m.Polygons[k]
		ring := f.Geometry.Coordinates[0]
		if len(ring) != len(p.Corners)+1 || ring[0] != ring[len(ring)-1] {
			t.Errorf("feature %d ring not closed: %v", k, ring)
		}
		if f.Properties.Row != p.Row || f.Properties.Col != p.Col || f.Properties.Gap != p.Gap {
			t.Errorf("feature %d properties = %+v", k, f.Properties)
		}
		if p.Gap != (f.Properties.Value == nil) {
			t.Errorf("feature %d: gap=%v value=%v", k, p.Gap, f.Properties.Value)
		}
	}
}

func TestWriteMsgpack(t *testing.T) {
	d, err := ParseGridCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	m, _, err := mesh.Build(context.Background(), d.Grid, d.Field, sphere.SpecFromDegrees(30, 10, 0))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteMesh(&buf, "out.msgpack", m); err != nil {
		t.Fatal(err)
	}
	dec := msgpack.NewDecoder(&buf)
	dec.SetCustomStructTag("json")
	var got featureCollection
	if err := dec.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if want := collection(m); !reflect.DeepEqual(got, want) {
		t.Errorf("decoded collection differs from the export:\n got %+v\nwant %+v", got, want)
	}

	if err := WriteMesh(&bytes.Buffer{}, "out.svg", m); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
