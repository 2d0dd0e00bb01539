// Package export writes parsed recordings to GeoJSON for use in GIS tooling.
package export

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/acmitools/replay/internal/config"
	"github.com/acmitools/replay/internal/util"
	"github.com/acmitools/replay/pkg/core"
)

// Feature is one GeoJSON feature
type Feature struct {
	Type       string         `json:"type"`
	Geometry   geom.Geometry  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the GeoJSON root
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Build converts a dataset into a FeatureCollection: one feature per object,
// a LineString Z over its samples, or a Point Z when only one sample exists.
// Objects without position samples are skipped.
func Build(dataset *core.Dataset) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(dataset.Objects)),
	}

	ids := make([]string, 0, len(dataset.Objects))
	for id := range dataset.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		obj := dataset.Objects[id]
		if len(obj.States) == 0 {
			continue
		}

		props := map[string]any{
			"id":          obj.ID,
			"sampleCount": len(obj.States),
			"firstSeen":   obj.States[0].Time,
		}
		for key, value := range obj.Properties {
			props[key] = value
		}
		if obj.RemovedAt != nil {
			props["removedAt"] = *obj.RemovedAt
		}

		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   trackGeometry(obj.States),
			Properties: props,
		})
	}

	return fc
}

func trackGeometry(states []core.TimeState) geom.Geometry {
	if len(states) == 1 {
		return geom.NewPoint(geom.Coordinates{
			XY: geom.XY{X: states[0].Longitude, Y: states[0].Latitude},
			Z:  states[0].Altitude,
			Type: geom.DimXYZ,
		}).AsGeometry()
	}

	coords := make([]float64, 0, len(states)*3)
	for _, s := range states {
		coords = append(coords, s.Longitude, s.Latitude, s.Altitude)
	}
	seq := geom.NewSequence(coords, geom.DimXYZ)
	return geom.NewLineString(seq).AsGeometry()
}

// Write builds the FeatureCollection and writes it below cfg.OutputDir,
// returning the written path.
func Write(dataset *core.Dataset, name string, cfg config.ExportConfig) (string, error) {
	fc := Build(dataset)

	filename := util.SanitizeFileName(name) + ".geojson"
	if cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(cfg.OutputDir, filename)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		if err := json.NewEncoder(gz).Encode(fc); err != nil {
			gz.Close()
			return "", fmt.Errorf("failed to encode GeoJSON: %w", err)
		}
		if err := gz.Close(); err != nil {
			return "", err
		}
		return outputPath, nil
	}

	if err := json.NewEncoder(f).Encode(fc); err != nil {
		return "", fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return outputPath, nil
}
