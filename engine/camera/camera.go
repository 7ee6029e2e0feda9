// Package camera derives the view and projection used by every stage of a frame. A
// Camera pairs a Lens and a viewport with an optional Controller that places the eye.
package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraSeq numbers cameras so each bind group provider gets a distinct label.
var cameraSeq atomic.Uint64

// Lens is the projection part of a camera.
type Lens struct {
	// FovY is the vertical field of view in radians.
	FovY float32

	// Near and Far are the clip plane distances. Far/Near also sets how fast the
	// logarithmic depth slices grow.
	Near, Far float32
}

// DefaultLens is a 45 degree lens clipping at 0.1 and 100.
var DefaultLens = Lens{FovY: math.Pi / 4, Near: 0.1, Far: 100}

// Matrices is one consistent snapshot of the derived camera state.
type Matrices struct {
	Eye      mgl32.Vec3
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	ViewProj mgl32.Mat4

	// InvProj unprojects clip space into view space for cluster bounds.
	InvProj mgl32.Mat4
}

// Camera is the single source of the camera uniform read by the geometry, clustering and
// lighting stages.
type Camera interface {
	// Lens returns the projection settings.
	//
	// Returns:
	//   - Lens: the lens
	Lens() Lens

	// SetLens replaces the projection settings and refreshes the matrices.
	//
	// Parameters:
	//   - l: the new lens
	SetLens(l Lens)

	// Viewport returns the render target size in pixels.
	//
	// Returns:
	//   - width, height: the viewport size
	Viewport() (width, height int)

	// SetViewport records a new render target size and refreshes the projection.
	//
	// Parameters:
	//   - width, height: the viewport size in pixels
	SetViewport(width, height int)

	// Aspect returns width / height, or 1 for an empty viewport.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Matrices returns the state derived by the last refresh.
	//
	// Returns:
	//   - Matrices: the snapshot
	Matrices() Matrices

	// Uniform packs the current matrices, clip planes and viewport for the GPU.
	//
	// Returns:
	//   - GPUCameraUniform: the packed uniform
	Uniform() GPUCameraUniform

	// Controller returns the attached controller, or nil.
	//
	// Returns:
	//   - Controller: the controller
	Controller() Controller

	// SetController attaches a controller and refreshes the view.
	//
	// Parameters:
	//   - ctrl: the controller, nil to detach
	SetController(ctrl Controller)

	// BindGroupProvider returns the provider holding the camera uniform buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Update re-reads the controller's eye and target. Without a controller the view stays
	// where it was.
	Update()
}

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	lens          Lens
	width, height int
	controller    Controller
	provider      bind_group_provider.BindGroupProvider

	m Matrices
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera with DefaultLens and a 1x1 viewport unless options say
// otherwise. The view is the identity until a controller is attached.
//
// Parameters:
//   - options: functional options applied before the first refresh
//
// Returns:
//   - Camera: the camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		lens:     DefaultLens,
		width:    1,
		height:   1,
		provider: bind_group_provider.NewBindGroupProvider("camera_" + strconv.FormatUint(cameraSeq.Add(1)-1, 10)),
		m:        Matrices{View: mgl32.Ident4()},
	}
	for _, opt := range options {
		opt(c)
	}
	c.refresh()
	return c
}

func (c *cameraImpl) Lens() Lens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lens
}

func (c *cameraImpl) SetLens(l Lens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lens = l
	c.refresh()
}

func (c *cameraImpl) Viewport() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *cameraImpl) SetViewport(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	c.refresh()
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect()
}

func (c *cameraImpl) aspect() float32 {
	if c.width <= 0 || c.height <= 0 {
		return 1
	}
	return float32(c.width) / float32(c.height)
}

func (c *cameraImpl) Matrices() Matrices {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		ViewProj:       c.m.ViewProj,
		View:           c.m.View,
		InvProj:        c.m.InvProj,
		Position:       c.m.Eye,
		Near:           c.lens.Near,
		Viewport:       [2]float32{float32(c.width), float32(c.height)},
		Far:            c.lens.Far,
		LogFarOverNear: float32(math.Log(float64(c.lens.Far / c.lens.Near))),
	}
}

func (c *cameraImpl) Controller() Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl Controller) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.refresh()
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.provider
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller != nil {
		c.refresh()
	}
}

// refresh rebuilds the projection, and the view when a controller is attached. The caller
// holds mu.
func (c *cameraImpl) refresh() {
	c.m.Proj = common.Perspective(c.lens.FovY, c.aspect(), c.lens.Near, c.lens.Far)
	c.m.InvProj = c.m.Proj.Inv()
	if c.controller != nil {
		c.m.Eye = c.controller.Position()
		c.m.View = mgl32.LookAtV(c.m.Eye, c.controller.Target(), mgl32.Vec3{0, 1, 0})
	}
	c.m.ViewProj = c.m.Proj.Mul4(c.m.View)
}
