// Package sim owns playback time over a loaded dataset and resolves
// interpolated object poses at arbitrary query times.
package sim

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/metric"

	"github.com/acmitools/replay/internal/geo"
	"github.com/acmitools/replay/internal/rotation"
	"github.com/acmitools/replay/pkg/core"
)

// DefaultColor is used for active objects without a Color property.
const DefaultColor = "cyan"

// inactiveColor is the fixed neutral color of an inactive pose; the object's
// configured color is deliberately not consulted.
const inactiveColor = "gray"

// Engine holds the loaded dataset and the playback state. Queries never
// mutate the dataset, so a host may recompute every pose set on every frame
// without accumulating drift.
type Engine struct {
	logger *slog.Logger

	dataset  *core.Dataset
	loaded   bool
	time     float64
	playing  bool
	speed    float64
	duration float64

	// Derived once per load from the dataset reference point (altitude 0).
	originECEF core.Vec3
	enu        geo.Transform

	poseMapsComputed metric.Int64Counter
}

// NewEngine creates an engine with no dataset and a 1x playback speed.
func NewEngine(logger *slog.Logger) *Engine {
	e := &Engine{logger: logger, speed: 1}

	var err error
	e.poseMapsComputed, err = meter().Int64Counter(
		"sim.posemaps.computed",
		metric.WithDescription("Total pose map computations"),
	)
	if err != nil {
		logger.Warn("Failed to create pose map counter", "error", err)
	}

	return e
}

// Load replaces the engine state with a freshly parsed dataset: playback time
// rewinds to the dataset start, the duration tracks its end time, and the
// local-frame transform is rebuilt from the reference point.
func (e *Engine) Load(dataset *core.Dataset) {
	e.dataset = dataset
	e.time = dataset.StartTime
	e.duration = dataset.EndTime
	e.playing = false

	e.originECEF = geo.ToECEF(dataset.ReferenceLatitude, dataset.ReferenceLongitude, 0)
	e.enu = geo.ENUTransform(e.originECEF, dataset.ReferenceLatitude, dataset.ReferenceLongitude)
	e.loaded = true

	e.logger.Info("Dataset loaded",
		"objects", len(dataset.Objects),
		"start", dataset.StartTime,
		"end", dataset.EndTime)
}

// Loaded reports whether a dataset is loaded.
func (e *Engine) Loaded() bool { return e.loaded }

// Time returns the current playback time in recording seconds.
func (e *Engine) Time() float64 { return e.time }

// Duration returns the loaded recording's end time.
func (e *Engine) Duration() float64 { return e.duration }

// Playing reports whether playback is running.
func (e *Engine) Playing() bool { return e.playing }

// Speed returns the playback speed multiplier.
func (e *Engine) Speed() float64 { return e.speed }

// SetSpeed sets the signed playback speed multiplier. Negative values play in
// reverse; the engine itself imposes no bounds.
func (e *Engine) SetSpeed(speed float64) { e.speed = speed }

// Dataset returns the loaded dataset, or nil.
func (e *Engine) Dataset() *core.Dataset { return e.dataset }

// Advance moves playback time by deltaSeconds of wall-clock time scaled by
// the speed multiplier. It is a no-op unless loaded and playing. Time is
// clamped at the duration, where playback pauses; it is not clamped below
// zero here (Seek is).
func (e *Engine) Advance(deltaSeconds float64) {
	if !e.loaded || !e.playing {
		return
	}

	e.time += deltaSeconds * e.speed
	if e.time >= e.duration {
		e.time = e.duration
		e.playing = false
	}
}

// Seek jumps to t, clamped into [0, duration]. No-op when nothing is loaded.
func (e *Engine) Seek(t float64) {
	if !e.loaded {
		return
	}
	if t < 0 {
		t = 0
	}
	if t > e.duration {
		t = e.duration
	}
	e.time = t
}

// Play resumes playback. At or past the end it rewinds to the dataset start
// first. No-op when nothing is loaded.
func (e *Engine) Play() {
	if !e.loaded {
		return
	}
	if e.time >= e.duration {
		e.Seek(e.dataset.StartTime)
	}
	e.playing = true
}

// Pause stops playback without moving time.
func (e *Engine) Pause() {
	e.playing = false
}

// Poses computes the pose map for the current playback time.
func (e *Engine) Poses() map[string]core.InterpolatedPose {
	return e.ComputeAllPoses(e.time)
}

// ComputeAllPoses resolves an InterpolatedPose for every object in the
// dataset at query time t. It is a pure function of (dataset, t): safe to
// call at any rate, idempotent, and free of hidden interpolation state.
func (e *Engine) ComputeAllPoses(t float64) map[string]core.InterpolatedPose {
	if !e.loaded {
		return map[string]core.InterpolatedPose{}
	}

	poses := make(map[string]core.InterpolatedPose, len(e.dataset.Objects))
	for id, obj := range e.dataset.Objects {
		poses[id] = e.computePose(obj, t)
	}

	if e.poseMapsComputed != nil {
		e.poseMapsComputed.Add(context.Background(), 1)
	}
	return poses
}

// isActive reports whether the object has appeared by t and has not yet been
// removed. Objects with no position samples are never active.
func isActive(o *core.TrackedObject, t float64) bool {
	if len(o.States) == 0 || t < o.States[0].Time {
		return false
	}
	return o.RemovedAt == nil || t < *o.RemovedAt
}

func inactivePose() core.InterpolatedPose {
	return core.InterpolatedPose{
		Orientation: core.IdentityQuaternion(),
		Color:       inactiveColor,
	}
}

func angleOrZero(a *float64) float64 {
	if a == nil {
		return 0
	}
	return *a
}

func sampleOrientation(s *core.TimeState) core.Quaternion {
	return rotation.FromEulerDegrees(angleOrZero(s.Roll), angleOrZero(s.Pitch), angleOrZero(s.Yaw))
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

// computePose resolves one object's pose at t: locate the bracketing samples,
// lerp the geodetic position, slerp the orientation, and derive kinematics.
// Outside the sampled range both brackets collapse onto the nearest endpoint,
// holding its pose instead of extrapolating.
func (e *Engine) computePose(o *core.TrackedObject, t float64) core.InterpolatedPose {
	if !isActive(o, t) {
		return inactivePose()
	}

	states := o.States
	i := sort.Search(len(states), func(k int) bool { return states[k].Time > t })

	lo, hi := i-1, i
	if lo < 0 {
		lo = 0
	}
	if hi > len(states)-1 {
		hi = len(states) - 1
	}
	s1, s2 := &states[lo], &states[hi]

	timeDelta := s2.Time - s1.Time
	frac := 1.0
	if timeDelta != 0 {
		frac = (t - s1.Time) / timeDelta
	}

	lon := lerp(s1.Longitude, s2.Longitude, frac)
	lat := lerp(s1.Latitude, s2.Latitude, frac)
	alt := lerp(s1.Altitude, s2.Altitude, frac)
	position := e.enu.Apply(geo.ToECEF(lat, lon, alt))

	orientation := rotation.Slerp(sampleOrientation(s1), sampleOrientation(s2), frac)

	var velocity core.Vec3
	var speed, verticalSpeed float64
	if timeDelta > 0 {
		p1 := e.enu.Apply(geo.ToECEF(s1.Latitude, s1.Longitude, s1.Altitude))
		p2 := e.enu.Apply(geo.ToECEF(s2.Latitude, s2.Longitude, s2.Altitude))
		displacement := p2.Sub(p1)

		velocity = displacement.Scale(1 / timeDelta)
		speed = displacement.Norm() / timeDelta
		// Vertical speed uses the raw altitude delta, not the local-frame
		// vertical displacement; the two differ slightly under the
		// ellipsoidal transform and the recorded behavior keeps the raw one.
		verticalSpeed = (s2.Altitude - s1.Altitude) / timeDelta
	}

	return core.InterpolatedPose{
		Position:      position,
		Orientation:   orientation,
		Velocity:      velocity,
		Color:         o.Property("Color", DefaultColor),
		IsActive:      true,
		Speed:         speed,
		VerticalSpeed: verticalSpeed,
		Heading:       rotation.HeadingDegrees(orientation),
	}
}
