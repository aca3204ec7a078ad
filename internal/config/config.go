// Package config loads the skymap YAML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v2"

	"skymap/internal/orient"
	"skymap/internal/sphere"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the complete configuration.
type Config struct {
	Data                DataConfig        `yaml:"data"`
	View                ViewConfig        `yaml:"view"`
	Coords              orient.Coords     `yaml:"coords"`
	OrientationKeywords map[string]string `yaml:"orientation_keywords"`
	Labels              Labels            `yaml:"labels"`
	Colors              Colors            `yaml:"colors"`
	Graticule           GraticuleConfig   `yaml:"graticule"`
	Workers             int               `yaml:"workers"`
}

// DataConfig says where map files live.
type DataConfig struct {
	Path           string `yaml:"path"`
	IBEXHi         string `yaml:"ibex_hi"`
	IBEXLo         string `yaml:"ibex_lo"`
	NonPositiveGap bool   `yaml:"nonpositive_gap"`
}

// ViewConfig is the initial orientation. A keyword wins over the angles.
type ViewConfig struct {
	Orientation    string  `yaml:"orientation"`
	Phi            float64 `yaml:"phi"`
	Alf            float64 `yaml:"alf"`
	Th             float64 `yaml:"th"`
	CenterMeridian bool    `yaml:"center_meridian"`
}

// Labels are the default captions.
type Labels struct {
	Title    string `yaml:"title"`
	Colorbar string `yaml:"colorbar"`
}

// Colors controls the value colour scale. VMin and VMax are optional.
type Colors struct {
	VMin *float64 `yaml:"vmin"`
	VMax *float64 `yaml:"vmax"`
	Ramp []string `yaml:"ramp"`
	Gap  string   `yaml:"gap"`
}

// GraticuleConfig sets grid line spacing in degrees.
type GraticuleConfig struct {
	LonStep    float64 `yaml:"lon_step"`
	LatStep    float64 `yaml:"lat_step"`
	SampleStep float64 `yaml:"sample_step"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Coords: orient.DefaultCoords()}
	if err := yaml.Unmarshal(defaultYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if len(c.Colors.Ramp) < 2 {
		return errors.New("colors.ramp needs at least two colours")
	}
	for _, s := range append([]string{c.Colors.Gap}, c.Colors.Ramp...) {
		if _, err := colorful.Hex(s); err != nil {
			return fmt.Errorf("colors: %q: %w", s, err)
		}
	}
	if c.Colors.VMin != nil && c.Colors.VMax != nil && *c.Colors.VMin >= *c.Colors.VMax {
		return fmt.Errorf("colors: vmin %v must be below vmax %v", *c.Colors.VMin, *c.Colors.VMax)
	}
	g := c.Graticule
	if g.LonStep <= 0 || g.LatStep <= 0 || g.SampleStep <= 0 {
		return errors.New("graticule steps must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.View.Orientation != "" {
		if _, err := orient.Lookup(c.View.Orientation, c.OrientationKeywords); err != nil {
			return err
		}
	}
	return nil
}

// Orientation returns the configured view. A keyword is looked up through
// the configured aliases and resolved against the reference coordinates.
func (c *Config) Orientation() (orient.Orientation, error) {
	if c.View.Orientation != "" {
		p, err := orient.Lookup(c.View.Orientation, c.OrientationKeywords)
		if err != nil {
			return orient.Orientation{}, err
		}
		return p.Orientation(c.Coords), nil
	}
	return orient.Orientation{Phi: c.View.Phi, Alf: c.View.Alf, Th: c.View.Th, CenterMeridian: c.View.CenterMeridian}, nil
}

// Spec returns the rotation for the configured view.
func (c *Config) Spec() (sphere.Spec, error) {
	if c.View.Orientation != "" {
		return orient.Resolve(c.View.Orientation, c.Coords, c.OrientationKeywords)
	}
	o, _ := c.Orientation()
	return o.Spec(), nil
}
