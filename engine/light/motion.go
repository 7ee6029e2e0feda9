package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minMotionSpeed = 0.3
	maxMotionSpeed = 1.0
)

// pcgHash is the PCG output permutation used by both the CPU motion update and the
// move_lights kernel. The two must stay bit-identical.
func pcgHash(x uint32) uint32 {
	state := x*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

func rand01(h uint32) float32 {
	return float32(h) / 4294967295.0
}

// MotionPosition returns where light idx sits at time t. Each axis oscillates around the
// centre of [boundsMin, boundsMax] with a speed and phase derived from the light index, so
// the result depends only on (idx, t) and never leaves the bounds.
//
// Parameters:
//   - idx: the light index
//   - t: the absolute time in seconds
//   - boundsMin: the minimum corner of the motion volume
//   - boundsMax: the maximum corner of the motion volume
//
// Returns:
//   - mgl32.Vec3: the world-space position
func MotionPosition(idx uint32, t float32, boundsMin, boundsMax mgl32.Vec3) mgl32.Vec3 {
	center := boundsMin.Add(boundsMax).Mul(0.5)
	half := boundsMax.Sub(boundsMin).Mul(0.5)
	var pos mgl32.Vec3
	for axis := uint32(0); axis < 3; axis++ {
		h1 := pcgHash(idx*3 + axis)
		h2 := pcgHash(h1)
		speed := minMotionSpeed + (maxMotionSpeed-minMotionSpeed)*rand01(h1)
		phase := 2 * math.Pi * rand01(h2)
		pos[axis] = center[axis] + half[axis]*float32(math.Sin(float64(t*speed+phase)))
	}
	return pos
}
