package flow

import (
	"encoding/json"
	"os"

	"github.com/ctessum/geom/encoding/geojson"
)

type feature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// WriteFlowlinesGeoJSON writes lines as a GeoJSON FeatureCollection, one
// LineString feature per integrated flowline, carrying its traced length.
func WriteFlowlinesGeoJSON(path string, lines []Flowline) error {
	fc := featureCollection{Type: "FeatureCollection"}
	for _, line := range lines {
		g, err := geojson.ToGeoJSON(line.Path)
		if err != nil {
			return err
		}
		fc.Features = append(fc.Features, feature{
			Type:       "Feature",
			Geometry:   g,
			Properties: map[string]interface{}{"length": line.Length},
		})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
