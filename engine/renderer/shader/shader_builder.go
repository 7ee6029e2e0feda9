package shader

// ShaderBuilderOption configures a shader before its source is processed.
type ShaderBuilderOption func(*shader)

// WithPrelude prepends shared WGSL source (helper functions, common structs) to the shader.
//
// Parameters:
//   - prelude: WGSL source placed ahead of the shader body
//
// Returns:
//   - ShaderBuilderOption: a function that applies the prelude to a shader
func WithPrelude(prelude string) ShaderBuilderOption {
	return func(s *shader) {
		s.prelude = prelude
	}
}

// WithConstants sets the values substituted for ${name} tokens in the shader source.
//
// Parameters:
//   - constants: replacement values keyed by token name
//
// Returns:
//   - ShaderBuilderOption: a function that applies the constants to a shader
func WithConstants(constants map[string]string) ShaderBuilderOption {
	return func(s *shader) {
		s.constants = constants
	}
}
