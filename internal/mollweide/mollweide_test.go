package mollweide

import (
	"errors"
	"math"
	"testing"
)

func deg(d float64) float64 { return d * math.Pi / 180 }

func TestTheta_SolvesMollweideEquation(t *testing.T) {
	for lat := -89.99; lat <= 89.99; lat += 0.37 {
		phi := deg(lat)
		theta, err := Theta(phi)
		if err != nil {
			t.Fatalf("Theta(%.2f°): %v", lat, err)
		}
		residual := 2*theta + math.Sin(2*theta) - math.Pi*math.Sin(phi)
		if math.Abs(residual) > 1e-9 {
			t.Fatalf("Theta(%.2f°) residual = %.3g", lat, residual)
		}
	}
}

func TestTheta_NearBoundary(t *testing.T) {
	for _, d := range []float64{1e-3, 1e-6, 1e-9, 1e-12} {
		theta, err := Theta(math.Pi/2 - d)
		if err != nil {
			t.Fatalf("Theta(π/2-%g): %v", d, err)
		}
		if theta <= 0 || theta > math.Pi/2 {
			t.Errorf("Theta(π/2-%g) = %v, want in (0, π/2]", d, theta)
		}
	}
}

func TestTheta_RejectsInvalidLatitude(t *testing.T) {
	for _, lat := range []float64{math.NaN(), math.Inf(1), 2} {
		if _, err := Theta(lat); !errors.Is(err, ErrNonConvergent) {
			t.Errorf("Theta(%v) err = %v, want ErrNonConvergent", lat, err)
		}
	}
}

func TestProject_PoleBoundary(t *testing.T) {
	for lon := -180.0; lon <= 180; lon += 15 {
		n, err := Project(deg(lon), math.Pi/2)
		if err != nil {
			t.Fatal(err)
		}
		s, err := Project(deg(lon), -math.Pi/2)
		if err != nil {
			t.Fatal(err)
		}
		if n.Y != math.Sqrt2 {
			t.Errorf("north pole y at lon %.0f = %v, want √2", lon, n.Y)
		}
		if s.Y != -math.Sqrt2 {
			t.Errorf("south pole y at lon %.0f = %v, want -√2", lon, s.Y)
		}
		if math.Abs(n.X) > 1e-15 || math.Abs(s.X) > 1e-15 {
			t.Errorf("pole x at lon %.0f = (%v, %v), want 0", lon, n.X, s.X)
		}
	}
}

func TestProject_CelestialHandedness(t *testing.T) {
	east, _ := Project(deg(90), 0)
	west, _ := Project(deg(-90), 0)
	if east.X >= 0 {
		t.Errorf("lon +90° projected to x = %v, want left of center", east.X)
	}
	if west.X <= 0 {
		t.Errorf("lon -90° projected to x = %v, want right of center", west.X)
	}
	if math.Abs(east.X+math.Sqrt2) > 1e-12 {
		t.Errorf("lon +90° x = %v, want -√2", east.X)
	}
}

func TestProject_EquatorEdges(t *testing.T) {
	tests := []struct {
		name  string
		lon   float64
		wantX float64
	}{
		{"center", 0, 0},
		{"plus 180 wraps to left edge", math.Pi, -2 * math.Sqrt2},
		{"minus 180 wraps to left edge", -math.Pi, -2 * math.Sqrt2},
		{"270 wraps to right half", deg(270), math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Project(tt.lon, 0)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(p.X-tt.wantX) > 1e-12 || p.Y != 0 {
				t.Errorf("Project(%v, 0) = %+v, want x=%v", tt.lon, p, tt.wantX)
			}
		})
	}

	right, err := ProjectUnwrapped(-math.Pi, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(right.X-2*math.Sqrt2) > 1e-12 {
		t.Errorf("ProjectUnwrapped(-π, 0).X = %v, want 2√2", right.X)
	}
}

func TestProject_EqualArea(t *testing.T) {
	// The zone between the equator and 30° is half a hemisphere, so it must
	// cover half of the upper half-ellipse.
	p, _ := Project(0, deg(30))
	theta := math.Asin(p.Y / math.Sqrt2)
	got := (2*theta + math.Sin(2*theta)) / math.Pi
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("area fraction below 30° = %v, want 0.5", got)
	}
}

func TestProjectBatch_MatchesScalar(t *testing.T) {
	lons := []float64{0, 0.3, -2.5, math.Pi, 4}
	lats := []float64{0, 1.2, -0.7, math.Pi / 2, -1.5}
	pts, err := ProjectBatch(lons, lats)
	if err != nil {
		t.Fatal(err)
	}
	for i := range lons {
		p, err := Project(lons[i], lats[i])
		if err != nil {
			t.Fatal(err)
		}
		if p != pts[i] {
			t.Errorf("batch[%d] = %+v, scalar = %+v", i, pts[i], p)
		}
	}
	if _, err := ProjectBatch(lons, lats[:1]); err == nil {
		t.Error("expected error for mismatched batch lengths")
	}
}

func TestInverse_RoundTrip(t *testing.T) {
	for lat := -85.0; lat <= 85; lat += 17 {
		for lon := -175.0; lon <= 175; lon += 25 {
			p, err := Project(deg(lon), deg(lat))
			if err != nil {
				t.Fatal(err)
			}
			gotLon, gotLat, ok := Inverse(p)
			if !ok {
				t.Fatalf("Inverse(%+v) outside ellipse", p)
			}
			if math.Abs(gotLon-deg(lon)) > 1e-9 || math.Abs(gotLat-deg(lat)) > 1e-9 {
				t.Fatalf("round trip (%.0f, %.0f) -> (%.9f, %.9f)", lon, lat, gotLon, gotLat)
			}
		}
	}
	if _, _, ok := Inverse(Point{X: 3, Y: 0}); ok {
		t.Error("point outside the ellipse reported inside")
	}
}
