// Package spatial holds the small amount of 3D math shared by the animators:
// exponential approach and pose-to-matrix composition.
package spatial

import "github.com/go-gl/mathgl/mgl64"

// Up is the fallback push direction when a direction is undefined.
var Up = mgl64.Vec3{0, 1, 0}

// Approach moves cur toward target by alpha of the remaining distance on
// each axis. For 0 < alpha <= 1 it never overshoots.
func Approach(cur, target mgl64.Vec3, alpha float64) mgl64.Vec3 {
	return mgl64.Vec3{
		cur[0] + (target[0]-cur[0])*alpha,
		cur[1] + (target[1]-cur[1])*alpha,
		cur[2] + (target[2]-cur[2])*alpha,
	}
}

// Lerp is the scalar form of Approach.
func Lerp(cur, target, alpha float64) float64 {
	return cur + (target-cur)*alpha
}

// Pose is a position, an XYZ Euler rotation in radians and a per-axis scale.
type Pose struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Vec3 `json:"rotation"`
	Scale    mgl64.Vec3 `json:"scale"`
}

// Matrix composes the pose as T * Rx * Ry * Rz * S.
func (p Pose) Matrix() mgl64.Mat4 {
	return Compose(p.Position, p.Rotation, p.Scale)
}

// Compose builds a column-major model matrix from translation, XYZ Euler
// rotation and scale.
func Compose(position, rotation, scale mgl64.Vec3) mgl64.Mat4 {
	m := mgl64.Translate3D(position[0], position[1], position[2])
	if rotation[0] != 0 {
		m = m.Mul4(mgl64.HomogRotate3DX(rotation[0]))
	}
	if rotation[1] != 0 {
		m = m.Mul4(mgl64.HomogRotate3DY(rotation[1]))
	}
	if rotation[2] != 0 {
		m = m.Mul4(mgl64.HomogRotate3DZ(rotation[2]))
	}
	return m.Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// Uniform returns a scale vector with s on every axis.
func Uniform(s float64) mgl64.Vec3 {
	return mgl64.Vec3{s, s, s}
}
