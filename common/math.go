package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Perspective builds a right-handed projection that maps view depth [near, far] to the
// WebGPU clip range [0, 1]. mgl32.Perspective targets the OpenGL range [-1, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near, far: clip plane distances, 0 < near < far
//
// Returns:
//   - mgl32.Mat4: the projection
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1 / float32(math.Tan(float64(fovY)/2))
	depth := far / (near - far)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, depth, -1,
		0, 0, near * depth, 0,
	}
}

// ModelMatrix composes translation, rotation and scale. Rotation is Euler angles in
// radians applied as yaw (Y), then pitch (X), then roll (Z).
//
// Parameters:
//   - position: the translation
//   - rotation: the X, Y and Z angles
//   - scale: the per-axis scale
//
// Returns:
//   - mgl32.Mat4: T * Ry * Rx * Rz * S
func ModelMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position.Elem()).
		Mul4(mgl32.HomogRotate3DY(rotation[1])).
		Mul4(mgl32.HomogRotate3DX(rotation[0])).
		Mul4(mgl32.HomogRotate3DZ(rotation[2])).
		Mul4(mgl32.Scale3D(scale.Elem()))
}

// NormalMatrix returns the inverse transpose of model's linear part, widened to a Mat4 so
// it packs like the model matrix. A singular model yields the zero matrix.
//
// Parameters:
//   - model: the model matrix
//
// Returns:
//   - mgl32.Mat4: the normal matrix
func NormalMatrix(model mgl32.Mat4) mgl32.Mat4 {
	return model.Mat3().Inv().Transpose().Mat4()
}

// TransformPoint applies m to p with w = 1 and drops w without a perspective divide.
//
// Parameters:
//   - m: an affine transform
//   - p: the point
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}
