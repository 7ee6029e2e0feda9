package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	testVertex   = "@vertex fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4f { return vec4f(0.0); }"
	testFragment = "@fragment fn fs_main() -> @location(0) vec4f { return vec4f(1.0); }"
	testCompute  = "@compute @workgroup_size(64) fn cs_main() {}"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("lighting", PipelineTypeRender)
	s := p.State()
	if s.CullMode != wgpu.CullModeNone || s.FrontFace != wgpu.FrontFaceCCW || s.Topology != wgpu.PrimitiveTopologyTriangleList {
		t.Errorf("unexpected rasterizer state %+v", s)
	}
	if !s.DepthTest || !s.DepthWrite || s.Blend != nil {
		t.Errorf("depth %v/%v blend %v", s.DepthTest, s.DepthWrite, s.Blend)
	}
	if s.Offscreen() {
		t.Error("pipeline without color targets reported offscreen")
	}
	if p.RenderPipeline() != nil || p.ComputePipeline() != nil {
		t.Error("unregistered pipeline holds a created object")
	}
}

func TestPipelineOptions(t *testing.T) {
	vs := shader.NewShaderFromSource("vs", shader.ShaderTypeVertex, testVertex)
	p := NewPipeline("geometry", PipelineTypeRender,
		WithShaders(vs, nil),
		WithCullMode(wgpu.CullModeBack),
		WithColorTargets(wgpu.TextureFormatRGBA16Float, wgpu.TextureFormatRGBA8Unorm),
	)
	s := p.State()
	if s.CullMode != wgpu.CullModeBack {
		t.Errorf("cull mode = %v", s.CullMode)
	}
	if !s.Offscreen() || len(s.ColorTargets) != 2 {
		t.Errorf("color targets = %v", s.ColorTargets)
	}
	if p.Shader(shader.ShaderTypeVertex) != vs {
		t.Error("vertex shader not attached by its stage")
	}
	if p.Shader(shader.ShaderTypeFragment) != nil || p.Shader(shader.ShaderTypeCompute) != nil {
		t.Error("unexpected shaders attached")
	}
}

func TestValidate(t *testing.T) {
	vs := shader.NewShaderFromSource("vs", shader.ShaderTypeVertex, testVertex)
	fs := shader.NewShaderFromSource("fs", shader.ShaderTypeFragment, testFragment)
	cs := shader.NewShaderFromSource("cs", shader.ShaderTypeCompute, testCompute)
	noEntry := shader.NewShaderFromSource("empty", shader.ShaderTypeFragment, "const x = 1;")

	tests := []struct {
		name       string
		p          Pipeline
		incomplete bool
		wantErr    bool
	}{
		{"render", NewPipeline("r", PipelineTypeRender, WithShaders(vs, fs)), false, false},
		{"compute", NewPipeline("c", PipelineTypeCompute, WithShaders(cs)), false, false},
		{"render without fragment", NewPipeline("r", PipelineTypeRender, WithShaders(vs)), true, true},
		{"compute given render stages", NewPipeline("c", PipelineTypeCompute, WithShaders(vs, fs)), true, true},
		{"fragment without entry point", NewPipeline("r", PipelineTypeRender, WithShaders(vs, noEntry)), true, true},
		{"unknown type", NewPipeline("x", PipelineType(7), WithShaders(cs)), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrIncomplete); got != tt.incomplete {
				t.Errorf("errors.Is(ErrIncomplete) = %v, want %v (%v)", got, tt.incomplete, err)
			}
		})
	}
}
