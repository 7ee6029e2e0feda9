// Package pipeline describes GPU pipelines before and after creation: the shaders they
// compile, the fixed-function state of render pipelines and the created wgpu object.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrIncomplete is returned by Validate when a stage the pipeline type needs has no shader
// or no entry point.
var ErrIncomplete = errors.New("pipeline: missing stage")

// PipelineType selects which stages a pipeline runs.
type PipelineType int

const (
	// PipelineTypeCompute runs a single compute stage.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender runs a vertex and a fragment stage.
	PipelineTypeRender
)

// stages lists the shader stages a pipeline of type t must carry.
func (t PipelineType) stages() []shader.ShaderType {
	switch t {
	case PipelineTypeCompute:
		return []shader.ShaderType{shader.ShaderTypeCompute}
	case PipelineTypeRender:
		return []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment}
	}
	return nil
}

// RenderState is the fixed-function state of a render pipeline. Compute pipelines ignore it.
type RenderState struct {
	CullMode  wgpu.CullMode
	FrontFace wgpu.FrontFace
	Topology  wgpu.PrimitiveTopology
	WriteMask wgpu.ColorWriteMask

	// Blend is nil for opaque output.
	Blend *wgpu.BlendState

	// DepthTest and DepthWrite apply to offscreen pipelines only. Surface pipelines have no
	// depth attachment.
	DepthTest  bool
	DepthWrite bool

	// ColorTargets lists the attachment formats of an offscreen pipeline in fragment output
	// order. Empty means the pipeline draws into the surface.
	ColorTargets []wgpu.TextureFormat
}

// Offscreen reports whether the pipeline draws into render targets rather than the surface.
//
// Returns:
//   - bool: true when ColorTargets is non-empty
func (s RenderState) Offscreen() bool {
	return len(s.ColorTargets) > 0
}

// Pipeline is a render or compute pipeline keyed for the renderer's cache. The backend reads
// its shaders and state when registering it and stores the created object back on it.
type Pipeline interface {
	// Type returns which stages the pipeline runs.
	//
	// Returns:
	//   - PipelineType: render or compute
	Type() PipelineType

	// PipelineKey returns the cache key.
	//
	// Returns:
	//   - string: the key
	PipelineKey() string

	// Shader returns the shader of a stage, or nil.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the stage's shader or nil
	Shader(shaderType shader.ShaderType) shader.Shader

	// State returns the fixed-function state.
	//
	// Returns:
	//   - RenderState: the state
	State() RenderState

	// Validate checks that every stage the type needs has a shader with an entry point.
	//
	// Returns:
	//   - error: ErrIncomplete naming the first missing stage
	Validate() error

	// RenderPipeline returns the created render pipeline, nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// ComputePipeline returns the created compute pipeline, nil before registration.
	ComputePipeline() *wgpu.ComputePipeline

	// SetRenderPipeline stores the created render pipeline.
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// SetComputePipeline stores the created compute pipeline.
	SetComputePipeline(p *wgpu.ComputePipeline)
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string
	shaders      map[shader.ShaderType]shader.Shader
	state        RenderState

	render  *wgpu.RenderPipeline
	compute *wgpu.ComputePipeline
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an unregistered pipeline. Render pipelines default to unculled,
// counter-clockwise triangle lists with depth testing and writing enabled.
//
// Parameters:
//   - pipelineKey: the cache key
//   - pipelineType: render or compute
//   - opts: functional options
//
// Returns:
//   - Pipeline: the pipeline
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
		shaders:      make(map[shader.ShaderType]shader.Shader, 2),
		state: RenderState{
			CullMode:   wgpu.CullModeNone,
			FrontFace:  wgpu.FrontFaceCCW,
			Topology:   wgpu.PrimitiveTopologyTriangleList,
			WriteMask:  wgpu.ColorWriteMaskAll,
			DepthTest:  true,
			DepthWrite: true,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType  { return p.pipelineType }
func (p *pipeline) PipelineKey() string { return p.pipelineKey }
func (p *pipeline) State() RenderState  { return p.state }

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	return p.shaders[shaderType]
}

func (p *pipeline) Validate() error {
	stages := p.pipelineType.stages()
	if stages == nil {
		return fmt.Errorf("pipeline: %s: unknown type %d", p.pipelineKey, p.pipelineType)
	}
	for _, st := range stages {
		s := p.shaders[st]
		if s == nil {
			return fmt.Errorf("%w: %s has no %s shader", ErrIncomplete, p.pipelineKey, st)
		}
		if s.EntryPoint() == "" {
			return fmt.Errorf("%w: %s: shader %s has no %s entry point", ErrIncomplete, p.pipelineKey, s.Key(), st)
		}
	}
	return nil
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline   { return p.render }
func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline { return p.compute }

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.render = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.compute = cp
}
