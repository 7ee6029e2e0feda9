package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// MovePipelineKey is the pipeline cache key of the light motion kernel.
const MovePipelineKey = "move_lights"

// ComputeRenderer is the subset of the renderer the motion pass needs.
type ComputeRenderer interface {
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error
}

// MovePass owns the GPU copy of the light store and the compute kernel that animates it.
// The light buffer it allocates is shared with the clustering and lighting stages.
type MovePass struct {
	r     ComputeRenderer
	store Store
	sh    shader.Shader
	bgp   bind_group_provider.BindGroupProvider

	// kernel bindings of the LightSet buffer and the time uniform
	lights, time int
}

// NewMovePass compiles the motion kernel, allocates the LightSet buffer at full capacity
// and uploads the store's current contents.
//
// Parameters:
//   - r: the renderer used to create GPU resources and record dispatches
//   - store: the light store mirrored by the GPU buffer
//   - cfg: the configuration supplying the kernel constants
//
// Returns:
//   - *MovePass: the ready pass
//   - error: shader.ErrUnbound, or an error if bind group or pipeline creation fails
func NewMovePass(r ComputeRenderer, store Store, cfg config.Config) (*MovePass, error) {
	sh := shader.NewShaderFromSource(MovePipelineKey, shader.ShaderTypeCompute, GPUMoveLightsSource,
		shader.WithPrelude(config.CommonWGSL),
		shader.WithConstants(cfg.Constants()),
	)

	b, err := shader.StructBindings(sh, 0, StructKeyLightSet, StructKeyTime)
	if err != nil {
		return nil, err
	}
	m := &MovePass{r: r, store: store, sh: sh, lights: b[0], time: b[1]}

	m.bgp = bind_group_provider.NewBindGroupProvider("light_set")
	sizes := map[int]uint64{
		m.lights: store.BufferSize(),
		m.time:   uint64((&GPUTimeUniform{}).Size()),
	}
	if err := r.InitBindGroup(m.bgp, sh.BindGroupLayoutDescriptor(0), nil, sizes); err != nil {
		return nil, fmt.Errorf("light: init motion bind group: %w", err)
	}

	p := pipeline.NewPipeline(MovePipelineKey, pipeline.PipelineTypeCompute, pipeline.WithShaders(sh))
	if err := r.RegisterPipelines(p); err != nil {
		return nil, fmt.Errorf("light: register motion pipeline: %w", err)
	}

	r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: m.bgp, Binding: m.lights, Offset: 0, Data: store.Marshal()},
	})
	return m, nil
}

// Buffer returns the GPU LightSet storage buffer.
//
// Returns:
//   - *wgpu.Buffer: the buffer holding the header and every light slot
func (m *MovePass) Buffer() *wgpu.Buffer {
	return m.bgp.Buffer(m.lights)
}

// WorkgroupCount returns the dispatch size needed to cover n lights.
//
// Parameters:
//   - n: the active light count
//
// Returns:
//   - [3]uint32: ceil(n / workgroup size) groups along x
func (m *MovePass) WorkgroupCount(n int) [3]uint32 {
	wg := max(int(m.sh.WorkgroupSize()[0]), 1)
	return [3]uint32{uint32(common.CeilDiv(n, wg)), 1, 1}
}

// Encode writes the current light count and time, then records the motion dispatch into
// the open compute frame. Nothing is dispatched when no lights are active.
//
// Parameters:
//   - t: the absolute time in seconds
//
// Returns:
//   - error: an error if the motion pipeline is not registered
func (m *MovePass) Encode(t float32) error {
	tu := GPUTimeUniform{Time: t}
	m.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: m.bgp, Binding: m.lights, Offset: 0, Data: m.store.MarshalHeader()},
		{Provider: m.bgp, Binding: m.time, Offset: 0, Data: tu.Marshal()},
	})
	n := m.store.Count()
	if n == 0 {
		return nil
	}
	return m.r.DispatchCompute(MovePipelineKey, m.bgp, m.WorkgroupCount(n))
}

// Release frees the pass's GPU resources.
func (m *MovePass) Release() {
	m.bgp.Release()
}
