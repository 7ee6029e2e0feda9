package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Controller owns the camera's eye and target. The camera reads both on every Update.
type Controller interface {
	// Position returns the eye position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space eye position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target
	Target() mgl32.Vec3

	// SetTarget moves the pivot and recomputes the eye from the spherical offset.
	//
	// Parameters:
	//   - target: the new pivot
	SetTarget(target mgl32.Vec3)

	// Orbit rotates the eye around the target. Elevation is clamped so the camera
	// never flips over the pole.
	//
	// Parameters:
	//   - dAzimuth: change of the horizontal angle in radians
	//   - dElevation: change of the vertical angle in radians
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the eye toward the target by delta scaled by the zoom speed. Positive
	// values zoom in. The radius stays within its bounds.
	//
	// Parameters:
	//   - delta: zoom amount
	Zoom(delta float32)

	// Radius returns the distance between eye and target.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32

	// Angles returns the current spherical angles.
	//
	// Returns:
	//   - azimuth, elevation: the angles in radians
	Angles() (azimuth, elevation float32)
}

// orbitController keeps the eye on a sphere around the target.
type orbitController struct {
	mu *sync.Mutex

	target    mgl32.Vec3
	position  mgl32.Vec3
	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32
	zoomSpeed    float32
}

var _ Controller = &orbitController{}

// NewOrbitController creates an orbit controller looking at the origin from a short
// distance above the horizon.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewOrbitController(options ...OrbitOption) Controller {
	o := &orbitController{
		mu:           &sync.Mutex{},
		radius:       15,
		elevation:    float32(math.Pi / 8),
		minRadius:    1,
		maxRadius:    80,
		minElevation: -float32(math.Pi/2 - 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),
		zoomSpeed:    1,
	}
	for _, opt := range options {
		opt(o)
	}
	o.radius = common.Clamp(o.radius, o.minRadius, o.maxRadius)
	o.elevation = common.Clamp(o.elevation, o.minElevation, o.maxElevation)
	o.updatePosition()
	return o
}

// updatePosition recomputes the eye from the spherical coordinates. Caller must hold the mutex.
func (o *orbitController) updatePosition() {
	ce := float32(math.Cos(float64(o.elevation)))
	se := float32(math.Sin(float64(o.elevation)))
	ca := float32(math.Cos(float64(o.azimuth)))
	sa := float32(math.Sin(float64(o.azimuth)))
	o.position = o.target.Add(mgl32.Vec3{ce * sa, se, ce * ca}.Mul(o.radius))
}

func (o *orbitController) Position() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position
}

func (o *orbitController) Target() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

func (o *orbitController) SetTarget(target mgl32.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = target
	o.updatePosition()
}

func (o *orbitController) Orbit(dAzimuth, dElevation float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.azimuth = float32(math.Mod(float64(o.azimuth+dAzimuth), 2*math.Pi))
	o.elevation = common.Clamp(o.elevation+dElevation, o.minElevation, o.maxElevation)
	o.updatePosition()
}

func (o *orbitController) Zoom(delta float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.radius = common.Clamp(o.radius-delta*o.zoomSpeed, o.minRadius, o.maxRadius)
	o.updatePosition()
}

func (o *orbitController) Radius() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.radius
}

func (o *orbitController) Angles() (float32, float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.azimuth, o.elevation
}
