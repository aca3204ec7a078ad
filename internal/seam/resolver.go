// Package seam decides how a rotated grid cell can be drawn on a Mollweide map
// without a polygon edge jumping across the whole map width.
//
// A cell is handed over as its four rotated corners in ring order. The
// resolver unwraps the ring longitudes, closes rings that enclose a pole over
// that pole, and cuts the result along every ±180° seam inside it. Each piece
// comes back with longitudes inside [−π, π] and seam vertices exactly on ±π,
// ready for mollweide.ProjectUnwrapped.
package seam

import (
	"math"

	"skymap/internal/sphere"
)

const (
	// poleTol is the distance from ±π/2 below which a corner counts as a pole.
	poleTol = 1e-9
	// seamTol keeps vertices lying on a seam from producing sliver pieces.
	seamTol = 1e-9
	// windTol is the slack when classifying the ring winding as 0 or ±2π.
	windTol = 1e-6
	// minArea is the smallest piece area, in square radians, worth drawing.
	minArea = 1e-14
)

// Cell holds the rotated corners of one grid cell in ring order.
type Cell [4]sphere.LonLat

// Kind tags a Resolution.
type Kind int

const (
	Pass  Kind = iota // drawn as a single polygon
	Split             // cut along the seam into several pieces
	Drop              // not drawable
)

func (k Kind) String() string {
	switch k {
	case Pass:
		return "pass"
	case Split:
		return "split"
	case Drop:
		return "drop"
	}
	return "unknown"
}

// Reason says why a cell was dropped.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNonFinite
	ReasonDegenerate
	ReasonWinding
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNonFinite:
		return "non-finite corner"
	case ReasonDegenerate:
		return "degenerate seam geometry"
	case ReasonWinding:
		return "unexpected ring winding"
	}
	return "unknown"
}

// Resolution is the outcome for one cell.
type Resolution struct {
	Kind   Kind
	Pieces [][]sphere.LonLat
	Reason Reason
	// PoleCap is set when the cell encloses a pole of the view.
	PoleCap bool
}

// Counts aggregates resolutions over one build.
type Counts struct {
	Total    int
	Split    int
	Dropped  int
	PoleCaps int
}

// Add sums two counts.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Total:    c.Total + o.Total,
		Split:    c.Split + o.Split,
		Dropped:  c.Dropped + o.Dropped,
		PoleCaps: c.PoleCaps + o.PoleCaps,
	}
}

// Resolver resolves cells and keeps the counts for a single build. A Resolver
// is not safe for concurrent use; give each worker its own and Add the counts.
type Resolver struct {
	counts Counts
}

// Resolve resolves c and records the outcome.
func (r *Resolver) Resolve(c Cell) Resolution {
	res := Resolve(c)
	r.counts.Total++
	switch res.Kind {
	case Split:
		r.counts.Split++
	case Drop:
		r.counts.Dropped++
	}
	if res.PoleCap {
		r.counts.PoleCaps++
	}
	return res
}

// Counts returns the totals recorded so far.
func (r *Resolver) Counts() Counts { return r.counts }

// Resolve is the stateless form of Resolver.Resolve.
func Resolve(c Cell) Resolution {
	ring := make([]sphere.LonLat, len(c))
	copy(ring, c[:])
	for _, p := range ring {
		if !finite(p.Lon) || !finite(p.Lat) {
			return dropped(ReasonNonFinite)
		}
	}
	if !assignPoleLongitudes(ring) {
		return dropped(ReasonDegenerate)
	}

	poly, winding, ok := unwrap(ring)
	if !ok {
		return dropped(ReasonDegenerate)
	}

	var capped bool
	switch {
	case math.Abs(winding) < windTol:
	case math.Abs(math.Abs(winding)-2*math.Pi) < windTol:
		poly, ok = closeOverPole(poly, winding, ring)
		if !ok {
			return dropped(ReasonDegenerate)
		}
		capped = true
	default:
		return dropped(ReasonWinding)
	}

	lo, hi := lonExtent(poly)
	if hi-lo > 2*math.Pi+windTol {
		return dropped(ReasonDegenerate)
	}

	seams := seamsInside(lo, hi)
	if len(seams) == 0 {
		piece := shiftInto(poly, lo)
		if !drawable(piece) {
			return dropped(ReasonDegenerate)
		}
		return Resolution{Kind: Pass, Pieces: [][]sphere.LonLat{piece}, PoleCap: capped}
	}

	bounds := make([]float64, 0, len(seams)+2)
	bounds = append(bounds, lo)
	bounds = append(bounds, seams...)
	bounds = append(bounds, hi)

	var pieces [][]sphere.LonLat
	for i := 0; i+1 < len(bounds); i++ {
		piece := clipLon(poly, bounds[i], true)
		piece = clipLon(piece, bounds[i+1], false)
		piece = shiftInto(dedupe(piece), bounds[i])
		if drawable(piece) {
			pieces = append(pieces, piece)
		}
	}
	switch len(pieces) {
	case 0:
		return dropped(ReasonDegenerate)
	case 1:
		return Resolution{Kind: Pass, Pieces: pieces, PoleCap: capped}
	}
	return Resolution{Kind: Split, Pieces: pieces, PoleCap: capped}
}

func dropped(r Reason) Resolution {
	return Resolution{Kind: Drop, Reason: r}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isPole(lat float64) bool {
	return math.Pi/2-math.Abs(lat) < poleTol
}

// assignPoleLongitudes gives each polar corner the longitude of the closest
// non-polar corner along the ring, previous side first. A corner on a pole has
// no longitude of its own; the edge joining it to its neighbour runs along that
// neighbour's meridian.
func assignPoleLongitudes(ring []sphere.LonLat) bool {
	n := len(ring)
	polar := make([]bool, n)
	anchored := false
	for i, p := range ring {
		polar[i] = isPole(p.Lat)
		anchored = anchored || !polar[i]
	}
	if !anchored {
		return false
	}
	for i := range ring {
		if !polar[i] {
			continue
		}
		ring[i].Lat = math.Copysign(math.Pi/2, ring[i].Lat)
		for k := 1; k < n; k++ {
			if j := (i - k + n) % n; !polar[j] {
				ring[i].Lon = ring[j].Lon
				break
			}
			if j := (i + k) % n; !polar[j] {
				ring[i].Lon = ring[j].Lon
				break
			}
		}
	}
	return true
}

// unwrap makes the ring longitudes continuous and returns the total winding.
//
// An edge spanning exactly half a turn runs over a pole: it is routed over
// the pole on the side of its two corners, turning the way that closes the
// ring. A ring with more than one such edge is ambiguous.
func unwrap(ring []sphere.LonLat) ([]sphere.LonLat, float64, bool) {
	n := len(ring)
	d := make([]float64, n)
	over := -1
	var rest float64
	for i := range ring {
		d[i] = sphere.WrapLon(ring[(i+1)%n].Lon - ring[i].Lon)
		if math.Abs(d[i]) < math.Pi-seamTol {
			rest += d[i]
			continue
		}
		if over >= 0 {
			return nil, 0, false
		}
		over = i
	}

	var pole float64
	if over >= 0 {
		latSum := ring[over].Lat + ring[(over+1)%n].Lat
		if math.Abs(latSum) < poleTol || math.Abs(rest) < windTol {
			return nil, 0, false
		}
		d[over] = -math.Copysign(math.Pi, rest)
		pole = math.Copysign(math.Pi/2, latSum)
	}

	out := make([]sphere.LonLat, 0, n+2)
	lon := sphere.WrapLon(ring[0].Lon)
	var winding float64
	for i, p := range ring {
		out = append(out, sphere.LonLat{Lon: lon, Lat: p.Lat})
		if i == over {
			out = append(out,
				sphere.LonLat{Lon: lon, Lat: pole},
				sphere.LonLat{Lon: lon + d[i], Lat: pole},
			)
		}
		lon += d[i]
		winding += d[i]
	}
	return out, winding, true
}

// closeOverPole turns a ring that winds once around a pole into a polygon in
// the unwrapped plane: the ring, a copy of its first vertex one turn later, and
// two vertices on the pole.
func closeOverPole(poly []sphere.LonLat, winding float64, ring []sphere.LonLat) ([]sphere.LonLat, bool) {
	var latSum float64
	for _, p := range ring {
		latSum += p.Lat
	}
	if latSum == 0 {
		return nil, false
	}
	pole := math.Copysign(math.Pi/2, latSum)
	first := poly[0]
	end := first.Lon + winding
	out := make([]sphere.LonLat, 0, len(poly)+3)
	out = append(out, poly...)
	out = append(out,
		sphere.LonLat{Lon: end, Lat: first.Lat},
		sphere.LonLat{Lon: end, Lat: pole},
		sphere.LonLat{Lon: first.Lon, Lat: pole},
	)
	return out, true
}

func lonExtent(poly []sphere.LonLat) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range poly {
		lo = math.Min(lo, p.Lon)
		hi = math.Max(hi, p.Lon)
	}
	return lo, hi
}

// seamsInside lists the odd multiples of π strictly inside (lo, hi).
func seamsInside(lo, hi float64) []float64 {
	var out []float64
	k := math.Ceil((lo + seamTol - math.Pi) / (2 * math.Pi))
	for {
		s := (2*k + 1) * math.Pi
		if s >= hi-seamTol {
			break
		}
		if s > lo+seamTol {
			out = append(out, s)
		}
		k++
	}
	return out
}

// shiftInto moves a piece whose western bound is lo by whole turns so that
// it lies in [−π, π], snapping vertices that sit on the seam onto ±π.
func shiftInto(piece []sphere.LonLat, lo float64) []sphere.LonLat {
	shift := -2 * math.Pi * math.Floor((lo+math.Pi+seamTol)/(2*math.Pi))
	out := make([]sphere.LonLat, len(piece))
	for i, p := range piece {
		lon := p.Lon + shift
		switch {
		case lon < -math.Pi+seamTol:
			lon = -math.Pi
		case lon > math.Pi-seamTol:
			lon = math.Pi
		}
		out[i] = sphere.LonLat{Lon: lon, Lat: p.Lat}
	}
	return out
}
