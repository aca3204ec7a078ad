package geom

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"skymap/internal/mesh"
)

// WriteMsgpack writes the same document as WriteGeoJSON in MessagePack.
func WriteMsgpack(w io.Writer, m *mesh.Mesh) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json") // same field names as the GeoJSON export
	return enc.Encode(collection(m))
}

// WriteMesh picks the export format from the file extension of name:
// ".msgpack" and ".mpk" select MessagePack, ".geojson", ".json" or no
// extension GeoJSON.
func WriteMesh(w io.Writer, name string, m *mesh.Mesh) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".msgpack", ".mpk":
		return WriteMsgpack(w, m)
	case ".geojson", ".json", "":
		return WriteGeoJSON(w, m)
	}
	return fmt.Errorf("export %s: unknown format %q", name, filepath.Ext(name))
}
