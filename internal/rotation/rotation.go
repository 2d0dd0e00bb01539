// Package rotation converts the recorded aviation Euler angles to quaternions
// and interpolates between orientations.
package rotation

import (
	"math"

	"github.com/acmitools/replay/pkg/core"
)

func aboutX(rad float64) core.Quaternion {
	s, c := math.Sincos(rad / 2)
	return core.Quaternion{W: c, X: s}
}

func aboutY(rad float64) core.Quaternion {
	s, c := math.Sincos(rad / 2)
	return core.Quaternion{W: c, Y: s}
}

func aboutZ(rad float64) core.Quaternion {
	s, c := math.Sincos(rad / 2)
	return core.Quaternion{W: c, Z: s}
}

// FromEulerDegrees builds the orientation quaternion for the recorded
// roll/pitch/yaw angles. The recording convention negates yaw and applies
// pitch, then negated yaw, then roll under the Z-Y-X axis ordering, so
// q = Qz(roll) * Qy(-yaw) * Qx(pitch). The sign and order are fixed by the
// source format's axis handedness and must not be normalized away.
func FromEulerDegrees(rollDeg, pitchDeg, yawDeg float64) core.Quaternion {
	roll := rollDeg * math.Pi / 180.0
	pitch := pitchDeg * math.Pi / 180.0
	yaw := yawDeg * math.Pi / 180.0

	return aboutZ(roll).Mul(aboutY(-yaw)).Mul(aboutX(pitch))
}

// YawDegrees recovers the recorded yaw angle from an orientation quaternion by
// inverting the Z-Y-X decomposition used in FromEulerDegrees.
func YawDegrees(q core.Quaternion) float64 {
	// The Y euler angle under Z-Y-X order is asin(2(wy - xz)); the recorded
	// yaw is its negation.
	s := 2 * (q.W*q.Y - q.X*q.Z)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	yaw := -math.Asin(s) * 180.0 / math.Pi

	// The asin branch alone only covers [-90, 90]. When the yaw-axis angle
	// lies outside that range the canonical decomposition folds it back and
	// flips the two outer angles by 180 degrees, which shows up as negative
	// cosine terms for both. Undo the fold so the recorded yaw comes back.
	// Both terms sit at zero up to rounding when yaw is exactly +-90;
	// require them clearly negative so noise there cannot trigger a fold.
	cosRoll := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	cosPitch := 1 - 2*(q.X*q.X+q.Y*q.Y)
	if cosRoll < -1e-12 && cosPitch < -1e-12 {
		yaw = 180 - yaw
	}
	return yaw
}

// HeadingDegrees returns the recorded yaw normalized into [0, 360).
func HeadingDegrees(q core.Quaternion) float64 {
	h := math.Mod(YawDegrees(q), 360)
	if h < 0 {
		h += 360
	}
	return h
}

// Slerp performs shortest-path spherical linear interpolation between two unit
// quaternions. t=0 returns q1, t=1 returns q2.
func Slerp(q1, q2 core.Quaternion, t float64) core.Quaternion {
	dot := q1.Dot(q2)

	// Take the short way around.
	if dot < 0 {
		q2 = core.Quaternion{W: -q2.W, X: -q2.X, Y: -q2.Y, Z: -q2.Z}
		dot = -dot
	}

	// Nearly parallel orientations degrade to linear interpolation; the
	// sine denominator is unusable there.
	if dot > 0.9995 {
		return core.Quaternion{
			W: q1.W + t*(q2.W-q1.W),
			X: q1.X + t*(q2.X-q1.X),
			Y: q1.Y + t*(q2.Y-q1.Y),
			Z: q1.Z + t*(q2.Z-q1.Z),
		}.Normalize()
	}

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	w1 := math.Sin((1-t)*theta) / sinTheta
	w2 := math.Sin(t*theta) / sinTheta

	return core.Quaternion{
		W: w1*q1.W + w2*q2.W,
		X: w1*q1.X + w2*q2.X,
		Y: w1*q1.Y + w2*q2.Y,
		Z: w1*q1.Z + w2*q2.Z,
	}
}
