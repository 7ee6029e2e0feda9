// Package game_object holds the drawable nodes of a scene. A GameObject pairs a shared
// Model and Material with its own Transform, which the geometry pass uploads to a
// per-object ModelData uniform whenever it changes.
package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places an object in the world. Rotation is Euler angles in radians, applied
// yaw (Y) first, then pitch (X), then roll (Z).
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// Identity is the transform of an object at the origin with unit scale.
var Identity = Transform{Scale: mgl32.Vec3{1, 1, 1}}

// Matrix returns the model matrix.
//
// Returns:
//   - mgl32.Mat4: the model matrix
func (t Transform) Matrix() mgl32.Mat4 {
	return common.ModelMatrix(t.Position, t.Rotation, t.Scale)
}

// maxScale is the largest absolute scale factor.
func (t Transform) maxScale() float32 {
	var m float32
	for _, s := range t.Scale {
		m = max(m, s, -s)
	}
	return m
}

// GameObject is a drawable scene node.
type GameObject interface {
	// ID returns the identifier assigned by the scene.
	//
	// Returns:
	//   - uint64: the ID, 0 before the object is added
	ID() uint64

	// SetID assigns the identifier. Scenes call it once on Add.
	//
	// Parameters:
	//   - id: the ID
	SetID(id uint64)

	// Enabled reports whether the object is drawn.
	//
	// Returns:
	//   - bool: true when drawn
	Enabled() bool

	// SetEnabled shows or hides the object. Safe from any goroutine.
	//
	// Parameters:
	//   - enabled: false to skip the object
	SetEnabled(enabled bool)

	// Model returns the mesh, or nil.
	//
	// Returns:
	//   - model.Model: the mesh
	Model() model.Model

	// Material returns the surface material, or nil.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// ModelProvider returns the provider holding the object's ModelData uniform.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the per-object provider
	ModelProvider() bind_group_provider.BindGroupProvider

	// Transform returns the current transform.
	//
	// Returns:
	//   - Transform: the transform
	Transform() Transform

	// SetTransform replaces the transform and marks the object dirty.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t Transform)

	// Spin returns the angular velocity Update applies, in radians per second per axis.
	//
	// Returns:
	//   - mgl32.Vec3: the angular velocity
	Spin() mgl32.Vec3

	// SetSpin sets the angular velocity.
	//
	// Parameters:
	//   - spin: radians per second around X, Y and Z
	SetSpin(spin mgl32.Vec3)

	// Update advances the rotation by Spin * dt. A still object stays clean.
	//
	// Parameters:
	//   - dt: elapsed seconds
	Update(dt float32)

	// ModelData builds the GPU uniform for the current transform.
	//
	// Returns:
	//   - model.GPUModelData: the model and normal matrices
	ModelData() model.GPUModelData

	// BoundingSphere returns a world-space sphere around the mesh.
	//
	// Returns:
	//   - mgl32.Vec3: the centre, which is the object position
	//   - float32: the mesh radius times the largest scale factor, 0 without a mesh
	BoundingSphere() (mgl32.Vec3, float32)

	// TakeDirty reports whether the transform changed since the last call and clears the flag.
	//
	// Returns:
	//   - bool: true when ModelData must be uploaded again
	TakeDirty() bool
}

// gameObject is the implementation of the GameObject interface.
type gameObject struct {
	mu *sync.Mutex

	id       atomic.Uint64
	enabled  atomic.Bool
	mdl      model.Model
	mat      material.Material
	provider bind_group_provider.BindGroupProvider

	transform Transform
	spin      mgl32.Vec3
	dirty     bool
}

var _ GameObject = &gameObject{}

// NewGameObject creates an enabled object at the Identity transform.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu:        &sync.Mutex{},
		transform: Identity,
		dirty:     true,
	}
	obj.enabled.Store(true)
	for _, opt := range options {
		opt(obj)
	}
	obj.provider = bind_group_provider.NewBindGroupProvider("game_object")
	return obj
}

func (g *gameObject) ID() uint64         { return g.id.Load() }
func (g *gameObject) SetID(id uint64)    { g.id.Store(id) }
func (g *gameObject) Enabled() bool      { return g.enabled.Load() }
func (g *gameObject) SetEnabled(on bool) { g.enabled.Store(on) }

func (g *gameObject) Model() model.Model          { return g.mdl }
func (g *gameObject) Material() material.Material { return g.mat }

func (g *gameObject) ModelProvider() bind_group_provider.BindGroupProvider {
	return g.provider
}

func (g *gameObject) Transform() Transform {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transform
}

func (g *gameObject) SetTransform(t Transform) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transform = t
	g.dirty = true
}

func (g *gameObject) Spin() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spin
}

func (g *gameObject) SetSpin(spin mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spin = spin
}

func (g *gameObject) Update(dt float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.spin == (mgl32.Vec3{}) {
		return
	}
	g.transform.Rotation = g.transform.Rotation.Add(g.spin.Mul(dt))
	g.dirty = true
}

func (g *gameObject) ModelData() model.GPUModelData {
	m := g.Transform().Matrix()
	return model.GPUModelData{Model: m, Normal: common.NormalMatrix(m)}
}

func (g *gameObject) BoundingSphere() (mgl32.Vec3, float32) {
	t := g.Transform()
	if g.mdl == nil {
		return t.Position, 0
	}
	return t.Position, g.mdl.BoundingRadius() * t.maxScale()
}

func (g *gameObject) TakeDirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.dirty
	g.dirty = false
	return d
}
