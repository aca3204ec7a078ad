// Package orient turns named map orientations into rotation specs.
//
// All angles here are ecliptic degrees, the unit used on the command line and
// in the configuration file.
package orient

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"skymap/internal/sphere"
)

// ErrUnknownKeyword is returned for an orientation keyword with no preset.
var ErrUnknownKeyword = errors.New("orient: unknown orientation keyword")

// Preset names a predefined view.
type Preset string

const (
	Ecliptic     Preset = "ecl"
	Nose         Preset = "nose"
	Tail         Preset = "tail"
	Ribbon       Preset = "ribbon"   // ribbon center as the view pole, ribbon across the map
	RibbonCenter Preset = "ribbon_c" // ribbon center at the map center, ribbon as a ring
	Galactic     Preset = "galactic"
)

// Presets lists every preset in display order.
var Presets = []Preset{Ecliptic, Nose, Tail, Ribbon, RibbonCenter, Galactic}

// DefaultAliases maps accepted spellings onto presets.
var DefaultAliases = map[string]Preset{
	"ecl":           Ecliptic,
	"ecliptic":      Ecliptic,
	"nose":          Nose,
	"upwind":        Nose,
	"tail":          Tail,
	"downwind":      Tail,
	"ribbon":        Ribbon,
	"ribbon_line":   Ribbon,
	"ribbon_c":      RibbonCenter,
	"ribbon_center": RibbonCenter,
	"gal":           Galactic,
	"galactic":      Galactic,
}

// Orientation is a view in the three command line angles.
type Orientation struct {
	Phi, Alf, Th float64
	// CenterMeridian makes Th the longitude whose meridian runs through the map center.
	CenterMeridian bool
}

// Lookup resolves kw through aliases, falling back to DefaultAliases.
func Lookup(kw string, aliases map[string]string) (Preset, error) {
	key := strings.ToLower(strings.TrimSpace(kw))
	if p, ok := aliases[key]; ok {
		key = p
	}
	if p, ok := DefaultAliases[key]; ok {
		return p, nil
	}
	known := make([]string, 0, len(DefaultAliases))
	for k := range DefaultAliases {
		known = append(known, k)
	}
	sort.Strings(known)
	return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownKeyword, kw, strings.Join(known, ", "))
}

// Orientation returns the angles of p for the reference coordinates c.
func (p Preset) Orientation(c Coords) Orientation {
	switch p {
	case Nose:
		return Orientation{Phi: c.NoseLon, Alf: c.NoseLat}
	case Tail:
		return Orientation{Phi: c.TailLon, Alf: c.TailLat}
	case Ribbon:
		return Orientation{Phi: c.RibbonLon, Alf: -c.RibbonLat, Th: -120, CenterMeridian: true}
	case RibbonCenter:
		return Orientation{Phi: c.RibbonLon, Alf: c.RibbonLat}
	case Galactic:
		return Orientation{Phi: c.NGPLon, Alf: c.NGPLat - 90, Th: c.GalCenterLon, CenterMeridian: true}
	}
	return Orientation{}
}

// Spec casts the angles into [−180°, 180°), solves the center meridian if
// asked to, and returns the rotation spec.
func (o Orientation) Spec() sphere.Spec {
	phi := CastInto360(o.Phi, -180)
	alf := CastInto360(o.Alf, -180)
	th := CastInto360(o.Th, -180)
	if o.CenterMeridian {
		th = CenterMeridianRoll(phi, alf, th)
	}
	return sphere.SpecFromDegrees(phi, alf, th)
}

// Resolve looks up kw and returns the spec of that preset.
func Resolve(kw string, c Coords, aliases map[string]string) (sphere.Spec, error) {
	p, err := Lookup(kw, aliases)
	if err != nil {
		return sphere.Spec{}, err
	}
	return p.Orientation(c).Spec(), nil
}

// CastInto360 maps angle into [lo, lo+360). An angle equal to lo+360 is kept.
func CastInto360(angle, lo float64) float64 {
	if angle == lo+360 {
		return angle
	}
	r := math.Mod(angle-lo, 360)
	if r < 0 {
		r += 360
	}
	return r + lo
}

// CenterMeridianRoll returns the roll that puts the meridian of longitude
// meridian through the center of a view centered on (phi, alf).
func CenterMeridianRoll(phi, alf, meridian float64) float64 {
	d := math.Abs(phi - meridian)
	roll := math.Atan(math.Tan((phi-meridian)*math.Pi/180)*math.Cos(alf*math.Pi/180)) * 180 / math.Pi
	if d > 90 && d <= 270 {
		roll += 180
	}
	return CastInto360(roll, -180)
}
