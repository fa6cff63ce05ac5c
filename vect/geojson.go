package vect

import (
	"encoding/json"
	"os"

	"github.com/ctessum/geom/encoding/geojson"
)

// feature and featureCollection are the minimal GeoJSON envelope types;
// geojson.ToGeoJSON only converts a bare geom.Geom, so the Feature/
// FeatureCollection wrapping spec.md §6's categorical attribute needs is
// done here rather than in the vendored encoding package.
type feature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// WriteAreasGeoJSON writes result's boundary rings/arcs as a GeoJSON
// FeatureCollection, one LineString feature per ring, carrying the area id
// and (when categorised) the raster category on each side.
func WriteAreasGeoJSON(path string, result AreaResult) error {
	fc := featureCollection{Type: "FeatureCollection"}
	for _, ring := range result.Rings {
		g, err := geojson.ToGeoJSON(ring.Points)
		if err != nil {
			return err
		}
		props := map[string]interface{}{
			"left_area":  ring.LeftArea,
			"right_area": ring.RightArea,
		}
		if info, ok := result.Areas[ring.LeftArea]; ok && info.HasCategory {
			props["left_category"] = info.Category
		}
		if info, ok := result.Areas[ring.RightArea]; ok && info.HasCategory {
			props["right_category"] = info.Category
		}
		fc.Features = append(fc.Features, feature{Type: "Feature", Geometry: g, Properties: props})
	}
	return writeGeoJSON(path, fc)
}

// WriteLinesGeoJSON writes lines as a GeoJSON FeatureCollection, one
// LineString feature per traced chain, carrying its value when one was
// requested via LineOptions.
func WriteLinesGeoJSON(path string, lines []ThinLine) error {
	fc := featureCollection{Type: "FeatureCollection"}
	for _, line := range lines {
		g, err := geojson.ToGeoJSON(line.Points)
		if err != nil {
			return err
		}
		props := map[string]interface{}{"closed": line.Closed}
		if line.HasValue {
			props["value"] = line.Value
		}
		fc.Features = append(fc.Features, feature{Type: "Feature", Geometry: g, Properties: props})
	}
	return writeGeoJSON(path, fc)
}

func writeGeoJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
