package export

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmitools/replay/internal/config"
	"github.com/acmitools/replay/pkg/core"
)

func testDataset() *core.Dataset {
	removed := 20.0

	ds := core.NewDataset()
	ds.StartTime = 10
	ds.EndTime = 30

	a := ds.Object("A100")
	a.Properties["Name"] = "F-16C"
	a.Properties["Color"] = "Blue"
	a.States = []core.TimeState{
		{Time: 10, Longitude: 30.01, Latitude: 50.01, Altitude: 1000},
		{Time: 20, Longitude: 30.02, Latitude: 50.02, Altitude: 1100},
	}
	a.RemovedAt = &removed

	single := ds.Object("B200")
	single.States = []core.TimeState{
		{Time: 10, Longitude: 29.5, Latitude: 49.5, Altitude: 0},
	}

	// No samples: must not appear in the output
	ds.Object("C300").Properties["Name"] = "Bullseye"

	return ds
}

func TestBuild_FeaturePerObjectWithSamples(t *testing.T) {
	fc := Build(testDataset())

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	track := fc.Features[0]
	assert.Equal(t, "Feature", track.Type)
	assert.Equal(t, "A100", track.Properties["id"])
	assert.Equal(t, "F-16C", track.Properties["Name"])
	assert.Equal(t, "Blue", track.Properties["Color"])
	assert.Equal(t, 2, track.Properties["sampleCount"])
	assert.Equal(t, 10.0, track.Properties["firstSeen"])
	assert.Equal(t, 20.0, track.Properties["removedAt"])
	assert.False(t, track.Geometry.IsEmpty())

	point := fc.Features[1]
	assert.Equal(t, "B200", point.Properties["id"])
	_, hasRemoved := point.Properties["removedAt"]
	assert.False(t, hasRemoved)
}

func TestBuild_GeometryTypes(t *testing.T) {
	fc := Build(testDataset())
	require.Len(t, fc.Features, 2)

	assert.True(t, fc.Features[0].Geometry.IsLineString())
	assert.True(t, fc.Features[1].Geometry.IsPoint())
}

func TestWrite_ProducesValidGeoJSON(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(testDataset(), "sortie 12", config.ExportConfig{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sortie_12.geojson"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])

	features := doc["features"].([]any)
	require.Len(t, features, 2)

	first := features[0].(map[string]any)
	geometry := first["geometry"].(map[string]any)
	assert.Equal(t, "LineString", geometry["type"])

	coords := geometry["coordinates"].([]any)
	require.Len(t, coords, 2)
	point := coords[0].([]any)
	require.Len(t, point, 3, "track coordinates carry altitude")
	assert.Equal(t, 30.01, point[0])
	assert.Equal(t, 50.01, point[1])
	assert.Equal(t, 1000.0, point[2])
}

func TestWrite_Gzip(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(testDataset(), "sortie", config.ExportConfig{OutputDir: dir, CompressOutput: true})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".geojson.gz"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var doc map[string]any
	require.NoError(t, json.NewDecoder(gz).Decode(&doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
}

func TestWrite_BadOutputDir(t *testing.T) {
	_, err := Write(testDataset(), "x", config.ExportConfig{OutputDir: "/dev/null/nope"})
	require.Error(t, err)
}

func TestBuild_EmptyDataset(t *testing.T) {
	fc := Build(core.NewDataset())
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Empty(t, fc.Features)
}
