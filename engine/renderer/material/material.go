// Package material holds the surface parameters the geometry pass writes into the albedo
// target.
package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// White is the base color of a material built without WithBaseColor.
var White = mgl32.Vec4{1, 1, 1, 1}

// Material is an opaque surface shared by any number of game objects. Its base color lives
// in a MaterialParams uniform owned by BindGroupProvider and is re-uploaded after a change.
type Material interface {
	// Name returns the material's name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// BaseColor returns the linear RGBA albedo.
	//
	// Returns:
	//   - mgl32.Vec4: the base color
	BaseColor() mgl32.Vec4

	// SetBaseColor replaces the albedo and marks the material dirty. Safe from any goroutine.
	//
	// Parameters:
	//   - color: linear RGBA
	SetBaseColor(color mgl32.Vec4)

	// Params packs the current albedo for the GPU.
	//
	// Returns:
	//   - GPUMaterialParams: the uniform contents
	Params() GPUMaterialParams

	// TakeDirty reports whether the albedo changed since the last call and clears the flag.
	// A new material starts dirty.
	//
	// Returns:
	//   - bool: true when Params must be uploaded
	TakeDirty() bool

	// BindGroupProvider returns the provider holding the MaterialParams buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	BindGroupProvider() bind_group_provider.BindGroupProvider
}

// material is the implementation of the Material interface.
type material struct {
	mu *sync.Mutex

	name      string
	baseColor mgl32.Vec4
	dirty     bool
	provider  bind_group_provider.BindGroupProvider
}

var _ Material = &material{}

// NewMaterial creates a White material unless options say otherwise.
//
// Parameters:
//   - options: name and color options
//
// Returns:
//   - Material: the material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{mu: &sync.Mutex{}, baseColor: White, dirty: true}
	for _, opt := range options {
		opt(m)
	}
	m.provider = bind_group_provider.NewBindGroupProvider(m.name + " material")
	return m
}

func (m *material) Name() string { return m.name }

func (m *material) BaseColor() mgl32.Vec4 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseColor
}

func (m *material) SetBaseColor(color mgl32.Vec4) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseColor, m.dirty = color, true
}

func (m *material) Params() GPUMaterialParams {
	return GPUMaterialParams{BaseColor: m.BaseColor()}
}

func (m *material) TakeDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.dirty
	m.dirty = false
	return d
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.provider
}
