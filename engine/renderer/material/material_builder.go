package material

import "github.com/go-gl/mathgl/mgl32"

// MaterialBuilderOption configures a Material in NewMaterial.
type MaterialBuilderOption func(*material)

// WithName sets the material name, which also labels its uniform buffer.
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor sets the linear RGBA albedo.
//
// Parameters:
//   - color: the base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color
func WithBaseColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}
