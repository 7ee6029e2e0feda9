package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestMergeBindGroupLayouts(t *testing.T) {
	uniform := func(binding uint32, stage wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: stage,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		}
	}
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Label: "scene", Entries: []wgpu.BindGroupLayoutEntry{uniform(0, wgpu.ShaderStageVertex)}},
		1: {Label: "model", Entries: []wgpu.BindGroupLayoutEntry{uniform(0, wgpu.ShaderStageVertex)}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Label: "scene", Entries: []wgpu.BindGroupLayoutEntry{
			uniform(2, wgpu.ShaderStageFragment),
			uniform(0, wgpu.ShaderStageFragment),
		}},
		2: {Label: "material", Entries: []wgpu.BindGroupLayoutEntry{uniform(0, wgpu.ShaderStageFragment)}},
	}

	merged := mergeBindGroupLayouts(vertex, fragment)
	if len(merged) != 3 {
		t.Fatalf("groups = %d, want 3", len(merged))
	}

	scene := merged[0].Entries
	if len(scene) != 2 || scene[0].Binding != 0 || scene[1].Binding != 2 {
		t.Fatalf("scene entries = %+v, want bindings 0 and 2 in order", scene)
	}
	if scene[0].Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("shared binding visibility = %v", scene[0].Visibility)
	}
	if scene[1].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("fragment-only binding visibility = %v", scene[1].Visibility)
	}
	if merged[1].Entries[0].Visibility != wgpu.ShaderStageVertex {
		t.Error("vertex-only group changed")
	}
	if merged[2].Label != "material" {
		t.Error("fragment-only group missing")
	}
	if len(vertex[0].Entries) != 1 {
		t.Error("input layouts were modified")
	}
}

func TestPipelineLookup(t *testing.T) {
	cached := pipeline.NewPipeline("lighting", pipeline.PipelineTypeRender)
	r := &renderer{mu: &sync.Mutex{}, pipelines: map[string]pipeline.Pipeline{"lighting": cached}}

	// Cached keys never reach the backend, which is nil here.
	if err := r.RegisterPipelines(pipeline.NewPipeline("lighting", pipeline.PipelineTypeRender)); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if err := r.RegisterPipelines(pipeline.NewPipeline("odd", pipeline.PipelineType(99))); err == nil {
		t.Error("unknown pipeline type registered")
	}
	if _, ok := r.pipelines["odd"]; ok {
		t.Error("failed pipeline was cached")
	}
	if err := r.RegisterPipelines(pipeline.NewPipeline("bare", pipeline.PipelineTypeCompute)); !errors.Is(err, pipeline.ErrIncomplete) {
		t.Errorf("shaderless pipeline err = %v, want ErrIncomplete", err)
	}

	if p, err := r.pipeline("lighting"); err != nil || p != cached {
		t.Errorf("pipeline(lighting) = %v, %v", p, err)
	}
	if err := r.DispatchCompute("cluster_lights", nil, [3]uint32{1, 1, 1}); !errors.Is(err, ErrUnknownPipeline) {
		t.Errorf("DispatchCompute err = %v, want ErrUnknownPipeline", err)
	}
	if err := r.FullscreenDraw("missing", 3, nil); !errors.Is(err, ErrUnknownPipeline) {
		t.Errorf("FullscreenDraw err = %v, want ErrUnknownPipeline", err)
	}
	if err := r.GeometryDrawCall("missing", nil, 1, nil); !errors.Is(err, ErrUnknownPipeline) {
		t.Errorf("GeometryDrawCall err = %v, want ErrUnknownPipeline", err)
	}
}
