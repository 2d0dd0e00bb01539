package core

import "time"

// TimeState is one observed sample in an object's time series.
// Roll/pitch/yaw are optional in the source format: nil means the sample did
// not specify the angle, which is distinct from an explicit zero.
type TimeState struct {
	Time      float64 // seconds since recording start
	Longitude float64 // degrees
	Latitude  float64 // degrees
	Altitude  float64 // meters

	Roll  *float64 // degrees
	Pitch *float64 // degrees
	Yaw   *float64 // degrees
}

// TrackedObject is one object in a recording, identified by its stable ID.
// Properties is an open string bag (Name, Type, Color, Shape, vendor keys);
// known keys are deliberately not modeled as struct fields.
type TrackedObject struct {
	ID         string
	Properties map[string]string
	States     []TimeState

	// RemovedAt is the time at which a removal directive was seen, or nil
	// while the object is still active. Removal is a terminal marker, not a
	// deletion: the object and its history stay queryable for earlier times.
	RemovedAt *float64
}

// Property returns the named property or fallback if it is not set.
func (o *TrackedObject) Property(key, fallback string) string {
	if v, ok := o.Properties[key]; ok {
		return v
	}
	return fallback
}

// Dataset is the result of parsing one recording.
type Dataset struct {
	Objects map[string]*TrackedObject

	// StartTime is the first frame-marker time seen, EndTime the running
	// maximum. Both stay 0 if the recording has no frame markers.
	StartTime float64
	EndTime   float64

	// ReferenceTime anchors recording time to wall-clock time. Defaults to
	// the Unix epoch when the header does not provide one.
	ReferenceTime time.Time

	// Reference longitude/latitude (degrees) anchor the local Cartesian
	// frame. Default 0.
	ReferenceLongitude float64
	ReferenceLatitude  float64

	// Headers holds global header keys that are not interpreted by the
	// parser (Title, DataSource, Author and the like).
	Headers map[string]string
}

// NewDataset returns an empty dataset with default reference values.
func NewDataset() *Dataset {
	return &Dataset{
		Objects:       make(map[string]*TrackedObject),
		ReferenceTime: time.Unix(0, 0).UTC(),
		Headers:       make(map[string]string),
	}
}

// Object returns the tracked object for id, creating it on first reference.
func (d *Dataset) Object(id string) *TrackedObject {
	if o, ok := d.Objects[id]; ok {
		return o
	}
	o := &TrackedObject{
		ID:         id,
		Properties: make(map[string]string),
		States:     make([]TimeState, 0),
	}
	d.Objects[id] = o
	return o
}
