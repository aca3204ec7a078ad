package sphere

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/s1"
	"gonum.org/v1/gonum/mat"
)

func deg(d float64) float64 { return d * math.Pi / 180 }

// angDiff returns the absolute difference of two longitudes modulo 2π.
func angDiff(a, b float64) float64 {
	return math.Abs(WrapLon(a - b))
}

var sampleSpecs = []Spec{
	SpecFromDegrees(0, 0, 0),
	SpecFromDegrees(255, 5, 0),
	SpecFromDegrees(45, 35, 20),
	SpecFromDegrees(-120, -60, 200),
	SpecFromDegrees(180, 90, -30),
	SpecFromDegrees(310, -89.5, 7),
}

func TestRotate_Identity(t *testing.T) {
	id := Spec{}
	for lat := -89.0; lat <= 89.0; lat += 7.5 {
		for lon := -179.0; lon <= 180.0; lon += 11.0 {
			gotLon, gotLat := Rotate(deg(lon), deg(lat), id)
			if angDiff(gotLon, deg(lon)) > 1e-9 || math.Abs(gotLat-deg(lat)) > 1e-9 {
				t.Fatalf("identity moved (%.1f, %.1f) to (%.12f, %.12f) rad", lon, lat, gotLon, gotLat)
			}
		}
	}

	// Longitudes given in [0, 2π) come back equal modulo 2π, folded into (−π, π].
	for lon := 0.0; lon < 360; lon += 22.5 {
		want := deg(lon)
		if lon > 180 {
			want -= 2 * math.Pi
		}
		gotLon, _ := Rotate(deg(lon), deg(20), id)
		if gotLon <= -math.Pi || gotLon > math.Pi {
			t.Errorf("lon %.1f: result %v outside (−π, π]", lon, gotLon)
		}
		if math.Abs(gotLon-want) > 1e-9 {
			t.Errorf("lon %.1f: got %.12f, want %.12f", lon, gotLon, want)
		}
	}
}

func TestRotate_IdentityKeepsPoles(t *testing.T) {
	for _, lat := range []float64{math.Pi / 2, -math.Pi / 2} {
		lon, gotLat := Rotate(deg(123), lat, Spec{})
		if lon != 0 {
			t.Errorf("pole longitude = %v, want deterministic 0", lon)
		}
		if gotLat != lat {
			t.Errorf("pole latitude = %v, want %v", gotLat, lat)
		}
	}
}

func TestNewRotation_IsOrthogonal(t *testing.T) {
	for _, spec := range sampleSpecs {
		R := NewRotation(spec).Matrix()

		var p mat.Dense
		p.Mul(R.T(), R)
		eye := mat.NewDiagDense(3, []float64{1, 1, 1})
		if !mat.EqualApprox(&p, eye, 1e-12) {
			t.Errorf("%v: R^T R != I:\n%v", spec, mat.Formatted(&p))
		}
		if d := mat.Det(R); math.Abs(d-1) > 1e-12 {
			t.Errorf("%v: det(R) = %.15f, want +1", spec, d)
		}
	}
}

func TestRotation_InverseRoundTrip(t *testing.T) {
	for _, spec := range sampleSpecs {
		r := NewRotation(spec)
		inv := r.Inverse()
		for lat := -80.0; lat <= 80.0; lat += 20 {
			for lon := -170.0; lon <= 180; lon += 35 {
				p := LonLat{Lon: deg(lon), Lat: deg(lat)}
				back := inv.Apply(r.Apply(p))
				if angDiff(back.Lon, p.Lon) > 1e-9 || math.Abs(back.Lat-p.Lat) > 1e-9 {
					t.Fatalf("%v: round trip of (%.0f, %.0f) gave (%.12f, %.12f)", spec, lon, lat, back.Lon, back.Lat)
				}
			}
		}
	}
}

func TestNewRotation_CenterLandsAtOrigin(t *testing.T) {
	tests := []struct {
		name     string
		phi, alf float64
	}{
		{"nose", 255.7, 5.1},
		{"ribbon", 221, 39},
		{"south", 10, -70},
		{"ecliptic", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lon, lat := Rotate(deg(tt.phi), deg(tt.alf), SpecFromDegrees(tt.phi, tt.alf, 0))
			if angDiff(lon, 0) > 1e-9 || math.Abs(lat) > 1e-9 {
				t.Errorf("center went to (%.9f, %.9f), want (0, 0)", lon, lat)
			}
		})
	}
}

func TestNewRotation_RollShiftsAlongEquator(t *testing.T) {
	spec := SpecFromDegrees(45, 35, 20)
	lon, lat := Rotate(deg(45), deg(35), spec)
	if angDiff(lon, deg(20)) > 1e-9 || math.Abs(lat) > 1e-9 {
		t.Errorf("center with roll went to (%.4f°, %.4f°), want (20°, 0°)", lon*180/math.Pi, lat*180/math.Pi)
	}
}

func TestNewRotation_CompositionOrder(t *testing.T) {
	// Tilting a northern center down to the equator tips the old north pole
	// toward the central meridian.
	spec := SpecFromDegrees(90, 30, 0)
	lon, lat := Rotate(0, math.Pi/2, spec)
	if math.Abs(lat-deg(60)) > 1e-9 {
		t.Errorf("old pole latitude = %.6f°, want 60°", lat*180/math.Pi)
	}
	if angDiff(lon, 0) > 1e-9 {
		t.Errorf("old pole longitude = %.6f°, want 0°", lon*180/math.Pi)
	}
}

func TestRotation_ApplyBatchMatchesScalar(t *testing.T) {
	r := NewRotation(SpecFromDegrees(45, 35, 20))
	lons := []float64{0, 1, -2, 3, math.Pi}
	lats := []float64{0, 0.5, -1.2, 1.5, -0.3}
	outLon, outLat, err := r.ApplyBatch(lons, lats)
	if err != nil {
		t.Fatal(err)
	}
	for i := range lons {
		q := r.Apply(LonLat{Lon: lons[i], Lat: lats[i]})
		if q.Lon != outLon[i] || q.Lat != outLat[i] {
			t.Errorf("batch[%d] = (%v, %v), scalar = (%v, %v)", i, outLon[i], outLat[i], q.Lon, q.Lat)
		}
	}
	if _, _, err := r.ApplyBatch(lons, lats[:2]); err == nil {
		t.Error("expected error for mismatched batch lengths")
	}
}

func TestRotate_PolesAreDeterministic(t *testing.T) {
	// Tilting by 90° moves the center point onto the new pole.
	spec := SpecFromDegrees(0, -90, 0)
	for i := 0; i < 3; i++ {
		lon, lat := Rotate(0, 0, spec)
		if math.IsNaN(lon) || lon != 0 {
			t.Fatalf("pole longitude = %v, want 0", lon)
		}
		if math.Abs(math.Abs(lat)-math.Pi/2) > 1e-12 {
			t.Fatalf("lat = %v, want a pole", lat)
		}
	}
}

func TestSpec_Validate(t *testing.T) {
	if err := SpecFromDegrees(10, 20, 30).Validate(); err != nil {
		t.Errorf("finite spec rejected: %v", err)
	}
	bad := []Spec{
		{CenterLon: s1.Angle(math.NaN())},
		{CenterLat: s1.Angle(math.Inf(1))},
		{Roll: s1.Angle(math.Inf(-1))},
	}
	for _, s := range bad {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidSpec", s, err)
		}
	}
}

func TestWrapLon(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
	}
	for _, tt := range tests {
		if got := WrapLon(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("WrapLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
