package shader

import (
	"slices"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
)

type attribute struct {
	name string
	args []string
}

type attributes []attribute

func (as attributes) find(name string) (attribute, bool) {
	for _, a := range as {
		if a.name == name {
			return a, true
		}
	}
	return attribute{}, false
}

// intArg returns the i-th argument of the named attribute.
func (as attributes) intArg(name string, i int) (int, bool) {
	a, ok := as.find(name)
	if !ok || i >= len(a.args) {
		return 0, false
	}
	v, err := strconv.Atoi(trimIntSuffix(a.args[i]))
	return v, err == nil
}

func trimIntSuffix(s string) string {
	if n := len(s); n > 1 && (s[n-1] == 'u' || s[n-1] == 'i') {
		return s[:n-1]
	}
	return s
}

type wgslField struct {
	name     string
	typ      typeExpr
	location int // -1 when the field has no @location
	builtin  bool
}

type wgslStruct struct {
	name   string
	fields []wgslField
}

// wgslVar is a module-scope resource variable with @group and @binding.
type wgslVar struct {
	group, binding int
	space, access  string
	name           string
	typ            typeExpr
}

type wgslEntry struct {
	stage     string // "vertex", "fragment" or "compute"
	name      string
	params    []wgslField
	workgroup [3]uint32
}

// wgslModule is the reflected interface of a WGSL module.
type wgslModule struct {
	structs []wgslStruct
	vars    []wgslVar
	entries []wgslEntry
}

// reflectModule walks the top-level declarations of src. Function bodies are skipped.
func reflectModule(src string) wgslModule {
	var m wgslModule
	c := &cursor{toks: tokenize(src)}
	for !c.done() {
		attrs := parseAttributes(c)
		switch c.peek().text {
		case "struct":
			c.next()
			m.structs = append(m.structs, parseStruct(c))
		case "var":
			c.next()
			if v, ok := parseVar(c, attrs); ok {
				m.vars = append(m.vars, v)
			}
		case "fn":
			c.next()
			if e, ok := parseFunction(c, attrs); ok {
				m.entries = append(m.entries, e)
			}
		default:
			c.next()
		}
	}
	return m
}

func parseAttributes(c *cursor) attributes {
	var as attributes
	for c.accept("@") {
		a := attribute{name: c.next().text}
		if c.accept("(") {
			for !c.done() && !c.accept(")") {
				if t := c.next(); t.text != "," {
					a.args = append(a.args, t.text)
				}
			}
		}
		as = append(as, a)
	}
	return as
}

// parseField reads "attrs name : type".
func parseField(c *cursor) (wgslField, bool) {
	attrs := parseAttributes(c)
	name := c.next()
	if name.kind != tokIdent || !c.accept(":") {
		return wgslField{}, false
	}
	f := wgslField{name: name.text, typ: parseType(c), location: -1}
	if loc, ok := attrs.intArg("location", 0); ok {
		f.location = loc
	}
	_, f.builtin = attrs.find("builtin")
	return f, true
}

func parseStruct(c *cursor) wgslStruct {
	s := wgslStruct{name: c.next().text}
	if !c.accept("{") {
		return s
	}
	for !c.done() && !c.accept("}") {
		if c.accept(",") {
			continue
		}
		f, ok := parseField(c)
		if !ok {
			c.skipBalanced("{", "}")
			break
		}
		s.fields = append(s.fields, f)
	}
	return s
}

// parseVar reads "var<space, access> name : type ;". Only resources carrying both
// @group and @binding are reported.
func parseVar(c *cursor, attrs attributes) (wgslVar, bool) {
	var v wgslVar
	if c.accept("<") {
		v.space = c.next().text
		if c.accept(",") {
			v.access = c.next().text
		}
		c.accept(">")
	}
	v.name = c.next().text
	if c.accept(":") {
		v.typ = parseType(c)
	}
	c.accept(";")

	g, okG := attrs.intArg("group", 0)
	b, okB := attrs.intArg("binding", 0)
	v.group, v.binding = g, b
	return v, okG && okB
}

// parseFunction reads a function header and skips its body. Only stage entry points are
// reported.
func parseFunction(c *cursor, attrs attributes) (wgslEntry, bool) {
	e := wgslEntry{name: c.next().text, workgroup: [3]uint32{1, 1, 1}}
	for _, stage := range []string{"vertex", "fragment", "compute"} {
		if _, ok := attrs.find(stage); ok {
			e.stage = stage
		}
	}
	for i := range 3 {
		if v, ok := attrs.intArg("workgroup_size", i); ok && v > 0 {
			e.workgroup[i] = uint32(v)
		}
	}
	if c.accept("(") {
		for !c.done() && !c.accept(")") {
			if c.accept(",") {
				continue
			}
			p, ok := parseField(c)
			if !ok {
				c.skipBalanced("(", ")")
				break
			}
			e.params = append(e.params, p)
		}
	}
	for !c.done() && !c.accept("{") {
		c.next()
	}
	c.skipBalanced("{", "}")
	return e, e.stage != ""
}

func (m wgslModule) entry(stage string) (wgslEntry, bool) {
	for _, e := range m.entries {
		if e.stage == stage {
			return e, true
		}
	}
	return wgslEntry{}, false
}

func (m wgslModule) structByName(name string) (wgslStruct, bool) {
	for _, s := range m.structs {
		if s.name == name {
			return s, true
		}
	}
	return wgslStruct{}, false
}

// vertexLayouts builds one buffer layout per struct-typed input of the vertex entry
// point, in parameter order. Built-in inputs take no buffer.
func (m wgslModule) vertexLayouts() []wgpu.VertexBufferLayout {
	e, ok := m.entry("vertex")
	if !ok {
		return nil
	}
	var layouts []wgpu.VertexBufferLayout
	for _, p := range e.params {
		s, ok := m.structByName(p.typ.name)
		if p.builtin || !ok {
			continue
		}
		var l wgpu.VertexBufferLayout
		l.StepMode = wgpu.VertexStepModeVertex
		for _, f := range s.fields {
			if f.builtin || f.location < 0 {
				continue
			}
			format, size, ok := vertexFormat(f.typ)
			if !ok {
				return nil
			}
			l.Attributes = append(l.Attributes, wgpu.VertexAttribute{
				Format:         format,
				Offset:         l.ArrayStride,
				ShaderLocation: uint32(f.location),
			})
			l.ArrayStride += size
		}
		layouts = append(layouts, l)
	}
	return layouts
}

// bindGroupLayouts groups the resource variables into one descriptor per group with
// entries in binding order.
func (m wgslModule) bindGroupLayouts(visibility wgpu.ShaderStage) map[int]wgpu.BindGroupLayoutDescriptor {
	known := structLayouts(m.structs)
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, v := range m.vars {
		groups[v.group] = append(groups[v.group], resourceEntry(v, visibility, known))
	}
	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int { return int(a.Binding) - int(b.Binding) })
		unfilterableWithoutSampler(entries)
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return out
}

// unfilterableWithoutSampler marks float textures unfilterable when their group has no
// filtering sampler. They can then only be read with textureLoad, which lets rgba32float
// targets bind without the float32-filterable feature.
func unfilterableWithoutSampler(entries []wgpu.BindGroupLayoutEntry) {
	if slices.ContainsFunc(entries, func(e wgpu.BindGroupLayoutEntry) bool {
		return e.Sampler.Type == wgpu.SamplerBindingTypeFiltering
	}) {
		return
	}
	for i := range entries {
		if entries[i].Texture.SampleType == wgpu.TextureSampleTypeFloat {
			entries[i].Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
		}
	}
}
