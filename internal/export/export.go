// Package export renders sweep grids and saved artifacts as GeoJSON.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/tilesweep/internal/geodesy"
	"github.com/sells-group/tilesweep/internal/progress"
	"github.com/sells-group/tilesweep/internal/tiles"
)

func point(p geodesy.GeoPoint) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}).SetSRID(4326)
}

// GridGeoJSON returns one point feature per tile center, in enumeration
// order, with an "index" property.
func GridGeoJSON(grid *tiles.Grid) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	bounds := geom.NewBounds(geom.XY)
	for tc := range grid.Tiles() {
		pt := point(tc.Point)
		bounds.Extend(pt)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: pt,
			Properties: map[string]any{
				"index": tc.Index,
			},
		})
	}
	if len(fc.Features) > 0 {
		fc.BBox = bounds
	}
	return fc
}

// ArtifactsGeoJSON scans dir for saved tiles and returns one point feature
// per artifact whose name parses. Other files are ignored.
func ArtifactsGeoJSON(dir string) (*geojson.FeatureCollection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read dir %s", dir)
	}

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	bounds := geom.NewBounds(geom.XY)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, p, tileKm, ok := tiles.ParseArtifactName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, eris.Wrapf(err, "export: stat %s", e.Name())
		}
		pt := point(p)
		bounds.Extend(pt)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       e.Name(),
			Geometry: pt,
			Properties: map[string]any{
				"name":       name,
				"tile_km":    tileKm,
				"file":       filepath.Join(dir, e.Name()),
				"size_bytes": info.Size(),
			},
		})
	}
	if len(fc.Features) > 0 {
		fc.BBox = bounds
	}
	return fc, nil
}

// Marshal encodes fc as indented GeoJSON.
func Marshal(fc *geojson.FeatureCollection) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "export: encode geojson")
	}
	return append(data, '\n'), nil
}

// WriteFile atomically writes fc to path.
func WriteFile(path string, fc *geojson.FeatureCollection) error {
	data, err := Marshal(fc)
	if err != nil {
		return err
	}
	if err := progress.WriteFileAtomic(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
