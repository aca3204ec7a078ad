package geom

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"skymap/internal/mesh"
)

// LoadGridCSV reads a gridded map file. Lines starting with '#' are
// comments. The first data line holds the N+1 longitude edges in degrees,
// the second the M+1 latitude edges, and the next M lines N values each.
// Empty fields are skipped.
func LoadGridCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()
	d, err := ParseGridCSV(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// ParseGridCSV is LoadGridCSV on a reader.
func ParseGridCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var lons, lats []float64
	var field mesh.Field
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, err
		}
		line, _ := cr.FieldPos(0)
		nums, err := parseFloats(rec)
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(nums) == 0 {
			continue
		}
		switch {
		case lons == nil:
			lons = nums
		case lats == nil:
			lats = nums
		default:
			field = append(field, nums)
		}
	}
	if lons == nil || lats == nil {
		return Dataset{}, errors.New("csv: missing longitude or latitude edge line")
	}
	return Dataset{
		Grid:  mesh.Grid{LonEdges: radians(lons), LatEdges: radians(lats)},
		Field: field,
		Frame: "ecliptic",
	}, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, 0, len(fields))
	for _, s := range fields {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func radians(deg []float64) []float64 {
	out := make([]float64, len(deg))
	for i, d := range deg {
		out[i] = degToRad(d)
	}
	return out
}
