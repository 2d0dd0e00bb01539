package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/acmitools/replay/pkg/core"
)

// WGS84 ellipsoid parameters.
const (
	// SemiMajorAxis is the WGS84 semi-major axis in meters.
	SemiMajorAxis = 6378137.0
	// Flattening is the WGS84 flattening 1/298.257223563.
	Flattening = 1.0 / 298.257223563
)

// EccentricitySquared is e² = f(2−f) for the WGS84 ellipsoid.
var EccentricitySquared = Flattening * (2 - Flattening)

// ToECEF converts geodetic coordinates (degrees, meters) to an Earth-centered
// Earth-fixed Cartesian point. Non-finite inputs propagate into the result.
func ToECEF(latDeg, lonDeg, altMeters float64) core.Vec3 {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	// prime vertical radius of curvature
	n := SemiMajorAxis / math.Sqrt(1-EccentricitySquared*sinLat*sinLat)

	return core.Vec3{
		X: (n + altMeters) * cosLat * cosLon,
		Y: (n + altMeters) * cosLat * sinLon,
		Z: (n*(1-EccentricitySquared) + altMeters) * sinLat,
	}
}

// Transform maps ECEF points into a local east-north-up frame. The point is
// translated by −origin first and rotated into the ENU basis second; consumers
// rely on that order because the two steps are applied as one combined
// operation to raw ECEF points.
type Transform struct {
	origin core.Vec3
	east   core.Vec3
	north  core.Vec3
	up     core.Vec3
}

// ENUTransform builds the transform for a local frame centered at originECEF,
// with the basis derived from the origin's geodetic latitude and longitude.
func ENUTransform(originECEF core.Vec3, originLatDeg, originLonDeg float64) Transform {
	lat := originLatDeg * math.Pi / 180.0
	lon := originLonDeg * math.Pi / 180.0

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	return Transform{
		origin: originECEF,
		east:   core.Vec3{X: -sinLon, Y: cosLon, Z: 0},
		north:  core.Vec3{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat},
		up:     core.Vec3{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat},
	}
}

// Apply maps an ECEF point into the local ENU frame.
func (t Transform) Apply(ecef core.Vec3) core.Vec3 {
	p := ecef.Sub(t.origin)
	return core.Vec3{
		X: t.east.Dot(p),
		Y: t.north.Dot(p),
		Z: t.up.Dot(p),
	}
}

// Coords3857From4326 converts a longitude/latitude into a web-mercator point.
// Stored as 3857 because SQLite has no spatial awareness and we need to
// interpret point data from strings during migrations using the inherent Scan
// function; geometry is stored in WKB.
func Coords3857From4326(longitude, latitude float64) (geom.Point, error) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	point := geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
			Z:  0,
		},
	)
	return point, nil
}
