package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// typeExpr is a parsed WGSL type: a name with optional template arguments. Numeric and
// keyword arguments (array counts, texel formats, access modes) are leaf expressions.
type typeExpr struct {
	name string
	args []typeExpr
}

func (t typeExpr) String() string {
	if len(t.args) == 0 {
		return t.name
	}
	parts := make([]string, len(t.args))
	for i, a := range t.args {
		parts[i] = a.String()
	}
	return t.name + "<" + strings.Join(parts, ", ") + ">"
}

// parseType reads one type expression from the cursor.
func parseType(c *cursor) typeExpr {
	t := typeExpr{name: c.next().text}
	if !c.accept("<") {
		return t
	}
	for !c.done() {
		t.args = append(t.args, parseType(c))
		if c.accept(">") {
			break
		}
		c.accept(",")
	}
	return t
}

// parseTypeString parses a type written as text, e.g. "array<u32, 128>".
func parseTypeString(s string) typeExpr {
	return parseType(&cursor{toks: tokenize(s)})
}

// typeLayout is the size and alignment of a host-shareable WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

func roundUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

func (l typeLayout) stride() uint64 {
	return roundUp(l.align, l.size)
}

// vectorShorthand expands the predeclared aliases: vec3f, vec4u, mat4x4f, ...
func vectorShorthand(name string) (base, elem string, ok bool) {
	suffix := map[byte]string{'f': "f32", 'i': "i32", 'u': "u32", 'h': "f16"}
	if len(name) == 5 && strings.HasPrefix(name, "vec") || len(name) == 7 && strings.HasPrefix(name, "mat") {
		if e, ok := suffix[name[len(name)-1]]; ok {
			return name[:len(name)-1], e, true
		}
	}
	return "", "", false
}

func scalarSize(name string) (uint64, bool) {
	switch name {
	case "f32", "i32", "u32", "bool":
		return 4, true
	case "f16":
		return 2, true
	}
	return 0, false
}

// vectorLayout follows the WGSL rule that vec3 aligns like vec4.
func vectorLayout(n, scalar uint64) typeLayout {
	align := n * scalar
	if n == 3 {
		align = 4 * scalar
	}
	return typeLayout{size: n * scalar, align: align}
}

// layoutOf resolves the layout of t. Structs are looked up in known. A runtime-sized
// array reports one element so buffers bound to it can hold at least that much.
func layoutOf(t typeExpr, known map[string]typeLayout) (typeLayout, bool) {
	if base, elem, ok := vectorShorthand(t.name); ok {
		return layoutOf(typeExpr{name: base, args: []typeExpr{{name: elem}}}, known)
	}
	if s, ok := scalarSize(t.name); ok {
		return typeLayout{s, s}, true
	}
	switch {
	case t.name == "atomic" && len(t.args) == 1:
		return layoutOf(t.args[0], known)

	case strings.HasPrefix(t.name, "vec") && len(t.name) == 4 && len(t.args) == 1:
		n := uint64(t.name[3] - '0')
		s, ok := scalarSize(t.args[0].name)
		if !ok || n < 2 || n > 4 {
			return typeLayout{}, false
		}
		return vectorLayout(n, s), true

	case strings.HasPrefix(t.name, "mat") && len(t.name) == 6 && t.name[4] == 'x' && len(t.args) == 1:
		cols, rows := uint64(t.name[3]-'0'), uint64(t.name[5]-'0')
		s, ok := scalarSize(t.args[0].name)
		if !ok || cols < 2 || cols > 4 || rows < 2 || rows > 4 {
			return typeLayout{}, false
		}
		col := vectorLayout(rows, s)
		return typeLayout{size: cols * col.stride(), align: col.align}, true

	case t.name == "array" && len(t.args) >= 1:
		elem, ok := layoutOf(t.args[0], known)
		if !ok {
			return typeLayout{}, false
		}
		count := uint64(1)
		if len(t.args) == 2 {
			n, err := strconv.ParseUint(strings.TrimRight(t.args[1].name, "iu"), 10, 64)
			if err != nil {
				return typeLayout{}, false
			}
			count = n
		}
		return typeLayout{size: count * elem.stride(), align: elem.align}, true
	}
	l, ok := known[t.name]
	return l, ok
}

// isRuntimeArray reports whether t is array<T> without a count.
func isRuntimeArray(t typeExpr) bool {
	return t.name == "array" && len(t.args) == 1
}

// structLayout places the fields at their aligned offsets. When the last field is a
// runtime-sized array the size is that array's offset, or one element when the array is
// the only field.
func structLayout(s wgslStruct, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for i, f := range s.fields {
		if f.builtin {
			continue
		}
		fl, ok := layoutOf(f.typ, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUp(fl.align, offset)
		align = max(align, fl.align)
		if i == len(s.fields)-1 && isRuntimeArray(f.typ) {
			if offset == 0 {
				return fl, true
			}
			return typeLayout{size: offset, align: align}, true
		}
		offset += fl.size
	}
	return typeLayout{size: roundUp(align, offset), align: align}, true
}

// structLayouts resolves every struct, repeating until no more resolve so declaration
// order does not matter.
func structLayouts(structs []wgslStruct) map[string]typeLayout {
	known := make(map[string]typeLayout, len(structs))
	pending := structs
	for len(pending) > 0 {
		var next []wgslStruct
		for _, s := range pending {
			if l, ok := structLayout(s, known); ok {
				known[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return known
}

var vertexFormats = map[string]wgpu.VertexFormat{
	"f32": wgpu.VertexFormatFloat32, "vec2<f32>": wgpu.VertexFormatFloat32x2,
	"vec3<f32>": wgpu.VertexFormatFloat32x3, "vec4<f32>": wgpu.VertexFormatFloat32x4,
	"i32": wgpu.VertexFormatSint32, "vec2<i32>": wgpu.VertexFormatSint32x2,
	"vec3<i32>": wgpu.VertexFormatSint32x3, "vec4<i32>": wgpu.VertexFormatSint32x4,
	"u32": wgpu.VertexFormatUint32, "vec2<u32>": wgpu.VertexFormatUint32x2,
	"vec3<u32>": wgpu.VertexFormatUint32x3, "vec4<u32>": wgpu.VertexFormatUint32x4,
	"vec2<f16>": wgpu.VertexFormatFloat16x2, "vec4<f16>": wgpu.VertexFormatFloat16x4,
}

// vertexFormat maps a vertex attribute type to its format and packed byte size.
func vertexFormat(t typeExpr) (wgpu.VertexFormat, uint64, bool) {
	if base, elem, ok := vectorShorthand(t.name); ok {
		t = typeExpr{name: base, args: []typeExpr{{name: elem}}}
	}
	f, ok := vertexFormats[t.String()]
	if !ok {
		return 0, 0, false
	}
	l, _ := layoutOf(t, nil)
	return f, l.size, true
}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var storageAccess = map[string]wgpu.StorageTextureAccess{
	"read":       wgpu.StorageTextureAccessReadOnly,
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

var texelFormats = map[string]wgpu.TextureFormat{
	"rgba8unorm": wgpu.TextureFormatRGBA8Unorm, "rgba8snorm": wgpu.TextureFormatRGBA8Snorm,
	"rgba8uint": wgpu.TextureFormatRGBA8Uint, "rgba8sint": wgpu.TextureFormatRGBA8Sint,
	"bgra8unorm": wgpu.TextureFormatBGRA8Unorm, "rgba16float": wgpu.TextureFormatRGBA16Float,
	"rgba16uint": wgpu.TextureFormatRGBA16Uint, "rgba16sint": wgpu.TextureFormatRGBA16Sint,
	"r32float": wgpu.TextureFormatR32Float, "r32uint": wgpu.TextureFormatR32Uint,
	"r32sint": wgpu.TextureFormatR32Sint, "rg32float": wgpu.TextureFormatRG32Float,
	"rg32uint": wgpu.TextureFormatRG32Uint, "rg32sint": wgpu.TextureFormatRG32Sint,
	"rgba32float": wgpu.TextureFormatRGBA32Float, "rgba32uint": wgpu.TextureFormatRGBA32Uint,
	"rgba32sint": wgpu.TextureFormatRGBA32Sint,
}

// resourceEntry builds the layout entry of a module-scope resource variable.
func resourceEntry(v wgslVar, visibility wgpu.ShaderStage, known map[string]typeLayout) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: uint32(v.binding), Visibility: visibility}
	switch {
	case v.space == "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
	case v.space == "storage" && v.access == "read_write":
		e.Buffer.Type = wgpu.BufferBindingTypeStorage
	case v.space == "storage":
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case v.typ.name == "sampler":
		e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case v.typ.name == "sampler_comparison":
		e.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(v.typ.name, "texture_storage_"):
		e.StorageTexture.ViewDimension = textureDimensions[strings.TrimPrefix(v.typ.name, "texture_storage_")]
		if len(v.typ.args) == 2 {
			e.StorageTexture.Format = texelFormats[v.typ.args[0].name]
			e.StorageTexture.Access = storageAccess[v.typ.args[1].name]
		}
	case strings.HasPrefix(v.typ.name, "texture_"):
		dim := strings.TrimPrefix(v.typ.name, "texture_")
		if rest, ok := strings.CutPrefix(dim, "depth_"); ok {
			dim = rest
			e.Texture.SampleType = wgpu.TextureSampleTypeDepth
		}
		if rest, ok := strings.CutPrefix(dim, "multisampled_"); ok {
			dim = rest
			e.Texture.Multisampled = true
		}
		e.Texture.ViewDimension = textureDimensions[dim]
		if len(v.typ.args) == 1 {
			e.Texture.SampleType = sampleTypes[v.typ.args[0].name]
		}
	}
	if e.Buffer.Type != wgpu.BufferBindingTypeUndefined {
		if l, ok := layoutOf(v.typ, known); ok {
			e.Buffer.MinBindingSize = l.size
		}
	}
	return e
}
