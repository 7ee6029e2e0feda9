// Package model holds static meshes and the GPU layouts of their vertices and per-object
// transforms.
package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
)

// Model is a named Mesh shared by any number of game objects. The geometry pass uploads it
// once into MeshProvider on first draw.
type Model interface {
	// Name returns the model's name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Mesh returns the CPU mesh.
	//
	// Returns:
	//   - Mesh: the mesh
	Mesh() Mesh

	// BoundingRadius returns the mesh's radius around the model origin, used for culling.
	//
	// Returns:
	//   - float32: the radius
	BoundingRadius() float32

	// MeshProvider returns the provider that holds, or will hold, the GPU buffers.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	MeshProvider() bind_group_provider.BindGroupProvider
}

// model is the implementation of the Model interface.
type model struct {
	name     string
	mesh     Mesh
	radius   float32
	provider bind_group_provider.BindGroupProvider
}

var _ Model = &model{}

// NewModel creates a model. The mesh is validated when it is uploaded.
//
// Parameters:
//   - options: name and mesh options
//
// Returns:
//   - Model: the model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	m.radius = m.mesh.BoundingRadius()
	m.provider = bind_group_provider.NewBindGroupProvider(m.name + " mesh")
	return m
}

func (m *model) Name() string            { return m.name }
func (m *model) Mesh() Mesh              { return m.mesh }
func (m *model) BoundingRadius() float32 { return m.radius }

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.provider
}
