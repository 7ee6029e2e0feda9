package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitOption is a functional option for configuring an orbit controller.
type OrbitOption func(*orbitController)

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: the orbit radius
//
// Returns:
//   - OrbitOption: a function that sets the radius
func WithRadius(radius float32) OrbitOption {
	return func(o *orbitController) {
		o.radius = radius
	}
}

// WithAngles sets the initial azimuth and elevation in radians.
//
// Parameters:
//   - azimuth: horizontal angle around the Y axis
//   - elevation: angle above the horizontal plane
//
// Returns:
//   - OrbitOption: a function that sets both angles
func WithAngles(azimuth, elevation float32) OrbitOption {
	return func(o *orbitController) {
		o.azimuth = azimuth
		o.elevation = elevation
	}
}

// WithTarget sets the pivot point.
//
// Parameters:
//   - target: the world-space look-at point
//
// Returns:
//   - OrbitOption: a function that sets the target
func WithTarget(target mgl32.Vec3) OrbitOption {
	return func(o *orbitController) {
		o.target = target
	}
}

// WithRadiusBounds constrains how far Zoom can move the eye.
//
// Parameters:
//   - min: smallest allowed radius
//   - max: largest allowed radius
//
// Returns:
//   - OrbitOption: a function that sets the bounds
func WithRadiusBounds(min, max float32) OrbitOption {
	return func(o *orbitController) {
		o.minRadius = min
		o.maxRadius = max
	}
}

// WithZoomSpeed scales every Zoom delta.
//
// Parameters:
//   - speed: the multiplier
//
// Returns:
//   - OrbitOption: a function that sets the zoom speed
func WithZoomSpeed(speed float32) OrbitOption {
	return func(o *orbitController) {
		o.zoomSpeed = speed
	}
}
