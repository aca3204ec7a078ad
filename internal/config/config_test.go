package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skymap/internal/orient"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skymap.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Coords.NoseLon != 255.7 || cfg.Coords.RibbonLat != 39 {
		t.Errorf("coords = %+v", cfg.Coords)
	}
	if cfg.Coords.NGPLat == 0 || cfg.Coords.GalCenterLon == 0 {
		t.Error("galactic reference coordinates not filled in")
	}
	if cfg.OrientationKeywords["ism"] != "nose" {
		t.Errorf("aliases = %v", cfg.OrientationKeywords)
	}
	if cfg.Graticule.LonStep != 30 || len(cfg.Colors.Ramp) < 2 {
		t.Errorf("graticule = %+v ramp = %v", cfg.Graticule, cfg.Colors.Ramp)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  path: /data/maps
  nonpositive_gap: true
view:
  orientation: upwind
coords:
  nose_lon: 255.0
orientation_keywords:
  front: nose
colors:
  vmin: 0
  vmax: 250
workers: 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Data.Path != "/data/maps" || !cfg.Data.NonPositiveGap {
		t.Errorf("data = %+v", cfg.Data)
	}
	if cfg.Coords.NoseLon != 255.0 || cfg.Coords.NoseLat != 5.1 {
		t.Errorf("coords not layered: %+v", cfg.Coords)
	}
	if cfg.OrientationKeywords["front"] != "nose" || cfg.OrientationKeywords["ism"] != "nose" {
		t.Errorf("aliases not merged: %v", cfg.OrientationKeywords)
	}
	if cfg.Colors.VMin == nil || *cfg.Colors.VMin != 0 || cfg.Colors.VMax == nil || *cfg.Colors.VMax != 250 {
		t.Errorf("colour range = %v..%v", cfg.Colors.VMin, cfg.Colors.VMax)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers = %d", cfg.Workers)
	}

	spec, err := cfg.Spec()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(spec.CenterLon.Degrees()-orient.CastInto360(255.0, -180)) > 1e-9 {
		t.Errorf("view spec = %v", spec)
	}
}

func TestLoad_Angles(t *testing.T) {
	path := writeConfig(t, "view:\n  phi: 45\n  alf: 35\n  th: 20\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	spec, err := cfg.Spec()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(spec.CenterLon.Degrees()-45) > 1e-9 || math.Abs(spec.CenterLat.Degrees()-35) > 1e-9 ||
		math.Abs(spec.Roll.Degrees()-20) > 1e-9 {
		t.Errorf("spec = %v", spec)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"bad yaml", "data: [", "yaml"},
		{"bad colour", "colors:\n  ramp: [\"#000000\", \"chartreuse\"]\n", "chartreuse"},
		{"inverted range", "colors:\n  vmin: 5\n  vmax: 1\n", "vmin"},
		{"zero step", "graticule:\n  lat_step: 0\n", "graticule"},
		{"unknown view", "view:\n  orientation: sideways\n", "sideways"},
		{"negative workers", "workers: -2\n", "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error")
	}
	cfg, err := Load("")
	if err != nil || cfg == nil {
		t.Fatalf("Load(\"\") = %v, %v", cfg, err)
	}
}

func TestOrientation_Preset(t *testing.T) {
	cfg := Default()
	cfg.View.Orientation = "ism"
	o, err := cfg.Orientation()
	if err != nil {
		t.Fatal(err)
	}
	if o.Phi != cfg.Coords.NoseLon || o.Alf != cfg.Coords.NoseLat || o.CenterMeridian {
		t.Errorf("orientation = %+v", o)
	}
	spec, err := cfg.Spec()
	if err != nil {
		t.Fatal(err)
	}
	if spec != o.Spec() {
		t.Errorf("Spec() = %v, Orientation().Spec() = %v", spec, o.Spec())
	}
}
