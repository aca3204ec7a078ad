package geom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"skymap/internal/mesh"
)

// LoadIBEX reads a map file in the IBEX data release text format: a header
// line with the latitude and longitude bin counts in columns 5-7 and 8-10,
// then rows of space separated values. Bins are uniform over the full sky.
func LoadIBEX(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()
	d, err := ParseIBEX(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// ParseIBEX is LoadIBEX on a reader.
func ParseIBEX(r io.Reader) (Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Dataset{}, err
		}
		return Dataset{}, errors.New("ibex: empty file")
	}
	rows, cols, err := ibexHeader(sc.Text())
	if err != nil {
		return Dataset{}, err
	}

	var data mesh.Field
	line := 1
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}
		nums, err := parseFloats(strings.Fields(text))
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		data = append(data, nums)
	}
	if err := sc.Err(); err != nil {
		return Dataset{}, err
	}

	// Some products are written one longitude per line.
	if len(data) == cols && cols != rows && len(data[0]) == rows {
		data = transpose(data)
	}
	return Dataset{
		Grid:  mesh.Grid{LonEdges: uniform(0, 360, cols), LatEdges: uniform(-90, 90, rows)},
		Field: data,
		Frame: "ecliptic",
	}, nil
}

func ibexHeader(h string) (rows, cols int, err error) {
	if len(h) < 10 {
		return 0, 0, fmt.Errorf("ibex: header too short: %q", h)
	}
	rows, err = strconv.Atoi(strings.TrimSpace(h[5:7]))
	if err != nil {
		return 0, 0, fmt.Errorf("ibex: latitude bin count: %w", err)
	}
	cols, err = strconv.Atoi(strings.TrimSpace(h[8:10]))
	if err != nil {
		return 0, 0, fmt.Errorf("ibex: longitude bin count: %w", err)
	}
	if rows < 1 || cols < 1 {
		return 0, 0, fmt.Errorf("ibex: bad bin counts %dx%d", rows, cols)
	}
	return rows, cols, nil
}

// uniform returns n+1 evenly spaced edges from lo to hi degrees, in radians.
func uniform(lo, hi float64, n int) []float64 {
	out := make([]float64, n+1)
	for i := range out {
		out[i] = degToRad(lo + (hi-lo)*float64(i)/float64(n))
	}
	return out
}

func transpose(in mesh.Field) mesh.Field {
	out := make(mesh.Field, len(in[0]))
	for i := range out {
		out[i] = make([]float64, len(in))
		for j := range in {
			out[i][j] = in[j][i]
		}
	}
	return out
}

// IBEXQuery selects one file of a locally stored IBEX data release.
type IBEXQuery struct {
	Hi        bool
	Product   string // e.g. "noSP_ram"
	SubDir    string // extra folders below the product, e.g. "prod/map_h"
	EnergyBin int
	Year      string // a year, or "A"/"B" for some Hi products
	Quantity  string // "flux", "fvar", "fexp", ...
}

// Path returns the file for q below the release root.
func (q IBEXQuery) Path(root string) string {
	if q.Hi {
		dir := fmt.Sprintf("hvset_%s_%s", q.Product, q.Year)
		name := fmt.Sprintf("hv60.hide-trp-flux100-hi-%d-%s.txt", q.EnergyBin, q.Quantity)
		return filepath.Join(root, dir, q.SubDir, name)
	}
	dir := fmt.Sprintf("lvset_h_%s_hb_%s", q.Product, q.Year)
	name := fmt.Sprintf("lv60.lohb-trp-flux100-lo-%d-%s.txt", q.EnergyBin, q.Quantity)
	return filepath.Join(root, dir, q.SubDir, name)
}
