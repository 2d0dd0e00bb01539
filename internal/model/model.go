package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Recording{},
	&TrackedObject{},
	&TrackSample{},
	&IngestReport{},
}

// Recording is the main model for an indexed ACMI recording
type Recording struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:255;index:idx_recording_name"`
	SourcePath string `json:"sourcePath" gorm:"size:512"`

	// Global headers
	ReferenceTime      time.Time `json:"referenceTime" gorm:"type:timestamptz;index:idx_recording_reference_time"`
	ReferenceLongitude float64   `json:"referenceLongitude"`
	ReferenceLatitude  float64   `json:"referenceLatitude"`

	// Reference origin projected to web mercator for map display
	ReferencePoint geom.Point `json:"referencePoint"`

	// Recording timeline in seconds relative to ReferenceTime
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`

	DataSource string         `json:"dataSource" gorm:"size:127"`
	Title      string         `json:"title" gorm:"size:255"`
	Headers    datatypes.JSON `json:"headers" gorm:"type:jsonb;default:'{}'"` // Remaining global headers as JSON

	Objects []TrackedObject `json:"-"`
}

func (*Recording) TableName() string {
	return "recordings"
}

func (r *Recording) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existing Recording
	err = db.Where("name = ?", r.Name).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(r).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*r = existing
	return false, nil
}

// TrackedObject is one object tracked in a recording
// Uses composite primary key (RecordingID, ObjectID) - ObjectID is the hex ID from the recording
type TrackedObject struct {
	RecordingID uint           `json:"recordingId" gorm:"primaryKey;autoIncrement:false"`
	ObjectID    string         `json:"objectId" gorm:"primaryKey;size:32"` // Object ID as it appears in the recording
	Recording   Recording      `gorm:"foreignkey:RecordingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"deletedAt" gorm:"index"`

	Name      string `json:"name" gorm:"size:127"`
	TypeTags  string `json:"type" gorm:"size:127;index:idx_object_type_tags"` // Type property, e.g. "Air+FixedWing"
	Coalition string `json:"coalition" gorm:"size:64"`
	Color     string `json:"color" gorm:"size:32"`
	Pilot     string `json:"pilot" gorm:"size:127"`

	FirstSeen   float64         `json:"firstSeen"`                 // Recording time of the first position sample
	RemovedAt   sql.NullFloat64 `json:"removedAt" gorm:"default:NULL"` // Recording time of removal, null if never removed
	SampleCount uint            `json:"sampleCount"`

	Properties datatypes.JSON `json:"properties" gorm:"type:jsonb;default:'{}'"` // All static properties as JSON

	Track geom.Geometry `json:"-"` // LineStringZ of lon/lat/alt samples over time
}

func (*TrackedObject) TableName() string {
	return "tracked_objects"
}

// TrackSample is one position sample of a tracked object
// References TrackedObject by (RecordingID, ObjectID) composite FK
type TrackSample struct {
	ID          uint          `json:"id" gorm:"primarykey;autoIncrement;"`
	RecordingID uint          `json:"recordingId" gorm:"index:idx_tracksample_recording_id"`
	Recording   Recording     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RecordingID;"`
	ObjectID    string        `json:"objectId" gorm:"size:32;index:idx_tracksample_object_id"`
	Object      TrackedObject `gorm:"foreignkey:RecordingID,ObjectID;references:RecordingID,ObjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	Time float64 `json:"time" gorm:"index:idx_tracksample_time"` // Recording time in seconds

	Position     geom.Point `json:"position"`   // Geodetic lon/lat as 2D point
	AltitudeMSL  float64    `json:"altitude"`   // Altitude in meters MSL
	Roll         sql.NullFloat64 `json:"roll" gorm:"default:NULL"`  // Degrees, null when absent from the sample
	Pitch        sql.NullFloat64 `json:"pitch" gorm:"default:NULL"` // Degrees, null when absent from the sample
	Yaw          sql.NullFloat64 `json:"yaw" gorm:"default:NULL"`   // Degrees, null when absent from the sample
}

func (*TrackSample) TableName() string {
	return "track_samples"
}

// IngestReport records parse statistics for one ingest run
type IngestReport struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time `json:"time" gorm:"type:timestamptz;index:idx_ingestreport_time"`
	RecordingID uint      `json:"recordingId" gorm:"index:idx_ingestreport_recording_id"`
	Recording   Recording `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RecordingID;"`

	Lines           uint    `json:"lines"`
	Comments        uint    `json:"comments"`
	Frames          uint    `json:"frames"`
	PositionSamples uint    `json:"positionSamples"`
	PropertyUpdates uint    `json:"propertyUpdates"`
	Removals        uint    `json:"removals"`
	DroppedLines    uint    `json:"droppedLines"`
	Objects         uint    `json:"objects"`
	ParseDurationMs float32 `json:"parseDurationMs"`
}

func (*IngestReport) TableName() string {
	return "ingest_reports"
}
