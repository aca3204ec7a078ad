package orient

import (
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/unit"
)

// Coords are the ecliptic reference positions the presets are built from.
type Coords struct {
	NoseLon      float64 `yaml:"nose_lon"`
	NoseLat      float64 `yaml:"nose_lat"`
	TailLon      float64 `yaml:"tail_lon"`
	TailLat      float64 `yaml:"tail_lat"`
	RibbonLon    float64 `yaml:"ribbon_lon"`
	RibbonLat    float64 `yaml:"ribbon_lat"`
	NGPLon       float64 `yaml:"ngp_lon"`
	NGPLat       float64 `yaml:"ngp_lat"`
	GalCenterLon float64 `yaml:"gal_center_lon"`
	GalCenterLat float64 `yaml:"gal_center_lat"`
}

// J2000 equatorial positions of the north galactic pole and the galactic center.
var (
	ngpEq = coord.Equatorial{RA: unit.RAFromDeg(192.85948), Dec: unit.AngleFromDeg(27.12825)}
	gcEq  = coord.Equatorial{RA: unit.RAFromDeg(266.40499), Dec: unit.AngleFromDeg(-28.93617)}
)

// DefaultCoords returns the interstellar flow and ribbon directions together
// with the galactic pole and center converted to J2000 ecliptic coordinates.
func DefaultCoords() Coords {
	c := Coords{
		NoseLon:   255.7,
		NoseLat:   5.1,
		TailLon:   75.7,
		TailLat:   -5.1,
		RibbonLon: 221,
		RibbonLat: 39,
	}
	c.NGPLon, c.NGPLat = EquatorialToEcliptic(&ngpEq, J2000())
	c.GalCenterLon, c.GalCenterLat = EquatorialToEcliptic(&gcEq, J2000())
	return c
}

// J2000 is the standard epoch.
func J2000() time.Time {
	return time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)
}

// EquatorialToEcliptic converts eq to ecliptic degrees with the mean
// obliquity of epoch. Longitude is in [0°, 360°).
func EquatorialToEcliptic(eq *coord.Equatorial, epoch time.Time) (lon, lat float64) {
	jde := julian.TimeToJD(epoch)
	var ecl coord.Ecliptic
	ecl.EqToEcl(eq, coord.NewObliquity(nutation.MeanObliquity(jde)))
	return CastInto360(ecl.Lon.Deg(), 0), ecl.Lat.Deg()
}
