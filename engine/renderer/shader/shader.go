// Package shader prepares WGSL for pipeline creation. Sources are expanded in three steps
// (prelude and ${name} constants, @oxy directives, constants again for pasted structs) and
// then reflected so pipelines and bind groups can be built without hand-written layouts.
package shader

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType is the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeCompute is a shader with a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is a shader with a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment is a shader with a @fragment entry point.
	ShaderTypeFragment
)

func (t ShaderType) stage() (string, wgpu.ShaderStage) {
	switch t {
	case ShaderTypeVertex:
		return "vertex", wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return "fragment", wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return "compute", wgpu.ShaderStageCompute
	}
	return "", wgpu.ShaderStageNone
}

// String returns the stage name.
func (t ShaderType) String() string {
	if name, _ := t.stage(); name != "" {
		return name
	}
	return fmt.Sprintf("ShaderType(%d)", int(t))
}

var constantToken = regexp.MustCompile(`\$\{(\w+)\}`)

// ErrUnbound is returned when a shader does not declare a binding its caller needs.
var ErrUnbound = errors.New("shader: binding not declared")

// Shader is an expanded and reflected WGSL module for one stage.
type Shader interface {
	// Key returns the shader's label.
	//
	// Returns:
	//   - string: the key given at construction
	Key() string

	// Type returns the stage the shader was built for.
	//
	// Returns:
	//   - ShaderType: the stage
	Type() ShaderType

	// Source returns the fully expanded WGSL handed to the compiler.
	//
	// Returns:
	//   - string: the source
	Source() string

	// EntryPoint returns the name of the function carrying the stage attribute.
	//
	// Returns:
	//   - string: the entry point, empty when the module has none for its stage
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size of a compute entry point, with omitted
	// dimensions set to 1.
	//
	// Returns:
	//   - [3]uint32: the size, zero for other stages
	WorkgroupSize() [3]uint32

	// VertexLayouts returns one buffer layout per struct input of the vertex entry point,
	// indexed by vertex buffer slot.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts, nil for other stages
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptor returns the reflected layout of one bind group. Buffer
	// entries carry the byte size of their type as MinBindingSize.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the layout, empty when the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every reflected bind group layout.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: layouts keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Declarations returns the bindings declared by group and provider directives.
	//
	// Returns:
	//   - []Declaration: the declarations in source order
	Declarations() []Declaration

	// StructBinding finds the binding a group directive declared for a struct.
	//
	// Parameters:
	//   - key: the registered struct key
	//
	// Returns:
	//   - Declaration: the first declaration of key
	//   - bool: false when the shader does not bind key
	StructBinding(key StructKey) (Declaration, bool)

	// RoleBinding finds the binding a provider directive tagged with a role.
	//
	// Parameters:
	//   - provider: the owning provider
	//   - role: the role within the provider's group
	//
	// Returns:
	//   - Declaration: the tagged declaration
	//   - bool: false when the shader has no such binding
	RoleBinding(provider Provider, role Role) (Declaration, bool)
}

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	shaderType ShaderType
	prelude    string
	constants  map[string]string

	source        string
	entryPoint    string
	workgroupSize [3]uint32
	vertexLayouts []wgpu.VertexBufferLayout
	groups        map[int]wgpu.BindGroupLayoutDescriptor
	declarations  []Declaration
}

var _ Shader = &shader{}

// NewShaderFromSource expands and reflects in-memory WGSL, typically embedded with
// go:embed. The prelude is prepended, ${name} tokens are replaced from the constants and
// @oxy directives are expanded. Failures panic: shader sources are compiled into the
// binary, so a failure is a programming error.
//
// Parameters:
//   - key: the shader's label
//   - shaderType: the stage to reflect
//   - source: the WGSL source
//   - options: prelude and constant options
//
// Returns:
//   - Shader: the reflected shader
func NewShaderFromSource(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) Shader {
	s := &shader{key: key, shaderType: shaderType}
	for _, opt := range options {
		opt(s)
	}
	if err := s.build(source); err != nil {
		panic(fmt.Sprintf("shader: %s: %v", key, err))
	}
	return s
}

func (s *shader) build(source string) error {
	if s.prelude != "" {
		source = s.prelude + "\n" + source
	}
	expanded, err := ExpandConstants(source, s.constants)
	if err != nil {
		return err
	}
	expanded, s.declarations, err = expandDirectives(expanded)
	if err != nil {
		return err
	}
	// Pasted structs may carry their own tokens, e.g. fixed array lengths.
	if s.source, err = ExpandConstants(expanded, s.constants); err != nil {
		return fmt.Errorf("included struct: %w", err)
	}

	stage, visibility := s.shaderType.stage()
	m := reflectModule(s.source)
	if e, ok := m.entry(stage); ok {
		s.entryPoint = e.name
		if s.shaderType == ShaderTypeCompute {
			s.workgroupSize = e.workgroup
		}
	}
	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = m.vertexLayouts()
	}
	s.groups = m.bindGroupLayouts(visibility)
	return nil
}

// ExpandConstants replaces every ${name} token in source with constants[name]. A token
// without a constant is an error so a misspelt name never reaches the compiler.
//
// Parameters:
//   - source: the WGSL source containing ${name} tokens
//   - constants: the replacement values keyed by token name
//
// Returns:
//   - string: the expanded source
//   - error: an error naming the first unknown token
func ExpandConstants(source string, constants map[string]string) (string, error) {
	var missing string
	out := constantToken.ReplaceAllStringFunc(source, func(tok string) string {
		name := tok[2 : len(tok)-1]
		if v, ok := constants[name]; ok {
			return v
		}
		if missing == "" {
			missing = name
		}
		return tok
	})
	if missing != "" {
		return "", fmt.Errorf("unknown constant ${%s}", missing)
	}
	return out, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Type() ShaderType {
	return s.shaderType
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workgroupSize
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.groups[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

func (s *shader) Declarations() []Declaration {
	return s.declarations
}

func (s *shader) StructBinding(key StructKey) (Declaration, bool) {
	for _, d := range s.declarations {
		if d.Struct == key {
			return d, true
		}
	}
	return Declaration{}, false
}

func (s *shader) RoleBinding(provider Provider, role Role) (Declaration, bool) {
	for _, d := range s.declarations {
		if d.Provider == provider && d.Role == role {
			return d, true
		}
	}
	return Declaration{}, false
}

// StructBindings resolves the binding index of each struct key, in order. Every key must be
// declared by a group directive in the given group.
//
// Parameters:
//   - s: the shader to search
//   - group: the bind group the keys must live in
//   - keys: the struct keys to resolve
//
// Returns:
//   - []int: the binding of each key
//   - error: ErrUnbound naming the first key that is missing or in another group
func StructBindings(s Shader, group int, keys ...StructKey) ([]int, error) {
	out := make([]int, len(keys))
	for i, k := range keys {
		d, ok := s.StructBinding(k)
		if !ok || d.Group != group {
			return nil, fmt.Errorf("%w: %s: %s in group %d", ErrUnbound, s.Key(), k, group)
		}
		out[i] = d.Binding
	}
	return out, nil
}
