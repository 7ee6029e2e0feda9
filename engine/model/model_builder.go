package model

// ModelBuilderOption configures a Model in NewModel.
type ModelBuilderOption func(*model)

// WithName sets the model name, which also labels its mesh buffers.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - ModelBuilderOption: a function that applies the name
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMesh sets the mesh.
//
// Parameters:
//   - mesh: the vertices and triangle list indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh
func WithMesh(mesh Mesh) ModelBuilderOption {
	return func(m *model) {
		m.mesh = mesh
	}
}
