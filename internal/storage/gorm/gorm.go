// Package gormstorage implements the storage.Backend interface on top of any
// GORM dialector. The sqlite and postgres backends wrap it and only add
// connection handling.
package gormstorage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acmitools/replay/internal/geo"
	"github.com/acmitools/replay/internal/logging"
	"github.com/acmitools/replay/internal/model"
	"github.com/acmitools/replay/internal/storage"
	"github.com/acmitools/replay/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init runs schema migration on the injected connection.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database connection provided")
	}

	if b.deps.DB.Dialector.Name() == "postgres" {
		if err := b.deps.DB.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
	}

	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.dbReady = true
	return nil
}

// Close closes the underlying sql connection.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRecording indexes a parsed dataset: one Recording row, one TrackedObject
// row per object with its flight track as a LineStringZ, the raw samples, and
// the ingest report.
func (b *Backend) SaveRecording(dataset *core.Dataset, meta storage.Meta) error {
	if !b.dbReady {
		return fmt.Errorf("backend not initialized")
	}

	rec := model.Recording{
		Name:               meta.Name,
		SourcePath:         meta.SourcePath,
		ReferenceTime:      dataset.ReferenceTime,
		ReferenceLongitude: dataset.ReferenceLongitude,
		ReferenceLatitude:  dataset.ReferenceLatitude,
		StartTime:          dataset.StartTime,
		EndTime:            dataset.EndTime,
		DataSource:         dataset.Headers["DataSource"],
		Title:              dataset.Headers["Title"],
		Headers:            headersToJSON(dataset.Headers),
	}

	if point, err := geo.Coords3857From4326(dataset.ReferenceLongitude, dataset.ReferenceLatitude); err == nil {
		rec.ReferencePoint = point
	} else {
		b.deps.LogManager.Logger().Warn("Could not project reference point",
			"recording", meta.Name, "error", err)
	}

	created, err := rec.GetOrInsert(b.deps.DB)
	if err != nil {
		return fmt.Errorf("failed to insert recording: %w", err)
	}
	if !created {
		return fmt.Errorf("recording %q is already indexed", meta.Name)
	}

	// Deterministic insertion order
	ids := make([]string, 0, len(dataset.Objects))
	for id := range dataset.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	objects := make([]model.TrackedObject, 0, len(ids))
	var samples []model.TrackSample
	for _, id := range ids {
		obj := dataset.Objects[id]
		objects = append(objects, buildObject(rec.ID, obj))
		samples = append(samples, buildSamples(rec.ID, obj)...)
	}

	if len(objects) > 0 {
		if err := b.deps.DB.Omit(clause.Associations).Create(&objects).Error; err != nil {
			return fmt.Errorf("failed to insert tracked objects: %w", err)
		}
	}
	if len(samples) > 0 {
		if err := b.deps.DB.Omit(clause.Associations).Create(&samples).Error; err != nil {
			return fmt.Errorf("failed to insert track samples: %w", err)
		}
	}

	report := meta.Report
	report.RecordingID = rec.ID
	report.Time = meta.IngestedAt
	if err := b.deps.DB.Omit(clause.Associations).Create(&report).Error; err != nil {
		return fmt.Errorf("failed to insert ingest report: %w", err)
	}

	b.deps.LogManager.Logger().Info("Recording indexed",
		"recording", meta.Name, "objects", len(objects), "samples", len(samples))
	return nil
}

// ListRecordings returns a summary of every indexed recording.
func (b *Backend) ListRecordings() ([]storage.Summary, error) {
	if !b.dbReady {
		return nil, fmt.Errorf("backend not initialized")
	}

	var recs []model.Recording
	if err := b.deps.DB.Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	summaries := make([]storage.Summary, 0, len(recs))
	for _, rec := range recs {
		var count int64
		if err := b.deps.DB.Model(&model.TrackedObject{}).
			Where("recording_id = ?", rec.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count objects: %w", err)
		}
		summaries = append(summaries, storage.Summary{
			Name:          rec.Name,
			ReferenceTime: rec.ReferenceTime,
			StartTime:     rec.StartTime,
			EndTime:       rec.EndTime,
			Objects:       int(count),
		})
	}
	return summaries, nil
}

func buildObject(recordingID uint, obj *core.TrackedObject) model.TrackedObject {
	out := model.TrackedObject{
		RecordingID: recordingID,
		ObjectID:    obj.ID,
		Name:        obj.Property("Name", ""),
		TypeTags:    obj.Property("Type", ""),
		Coalition:   obj.Property("Coalition", ""),
		Color:       obj.Property("Color", ""),
		Pilot:       obj.Property("Pilot", ""),
		SampleCount: uint(len(obj.States)),
		Properties:  headersToJSON(obj.Properties),
		Track:       trackLineString(obj.States),
	}
	if len(obj.States) > 0 {
		out.FirstSeen = obj.States[0].Time
	}
	if obj.RemovedAt != nil {
		out.RemovedAt = sql.NullFloat64{Float64: *obj.RemovedAt, Valid: true}
	}
	return out
}

func buildSamples(recordingID uint, obj *core.TrackedObject) []model.TrackSample {
	samples := make([]model.TrackSample, 0, len(obj.States))
	for _, s := range obj.States {
		sample := model.TrackSample{
			RecordingID: recordingID,
			ObjectID:    obj.ID,
			Time:        s.Time,
			Position: geom.NewPoint(geom.Coordinates{
				XY: geom.XY{X: s.Longitude, Y: s.Latitude},
			}),
			AltitudeMSL: s.Altitude,
			Roll:        nullDegrees(s.Roll),
			Pitch:       nullDegrees(s.Pitch),
			Yaw:         nullDegrees(s.Yaw),
		}
		samples = append(samples, sample)
	}
	return samples
}

// trackLineString builds a LineStringZ of lon/lat/alt samples. Objects with
// fewer than two samples get an empty geometry: a one-point line is invalid.
func trackLineString(states []core.TimeState) geom.Geometry {
	if len(states) < 2 {
		return geom.Geometry{}
	}
	coords := make([]float64, 0, len(states)*3)
	for _, s := range states {
		coords = append(coords, s.Longitude, s.Latitude, s.Altitude)
	}
	seq := geom.NewSequence(coords, geom.DimXYZ)
	return geom.NewLineString(seq).AsGeometry()
}

func nullDegrees(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func headersToJSON(m map[string]string) datatypes.JSON {
	if len(m) == 0 {
		return datatypes.JSON("{}")
	}
	data, _ := json.Marshal(m)
	return datatypes.JSON(data)
}
