package camera

// CameraBuilderOption is a functional option applied by NewCamera before the first
// matrix update.
type CameraBuilderOption func(*cameraImpl)

// WithLens replaces the whole lens.
//
// Parameters:
//   - l: the lens
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's lens
func WithLens(l Lens) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens = l
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.FovY = fov
	}
}

// WithViewport sets the initial render target size, which also fixes the aspect ratio.
//
// Parameters:
//   - width, height: the viewport size in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's viewport
func WithViewport(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.width, c.height = width, height
	}
}

// WithClipPlanes sets the near and far plane distances. The ratio far/near also controls
// how quickly the logarithmic depth slices grow.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lens.Near, c.lens.Far = near, far
	}
}

// WithController attaches a controller to the camera.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl Controller) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
