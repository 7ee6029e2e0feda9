package cluster

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineKey is the pipeline cache key of the clustering kernel.
const PipelineKey = "cluster_lights"

// Pass runs light clustering on the GPU: one workgroup per cluster, writing the ClusterSet
// buffer the lighting pass reads. The camera and light buffers are borrowed from their owners.
type Pass struct {
	r    light.ComputeRenderer
	cfg  config.Config
	sh   shader.Shader
	bgp  bind_group_provider.BindGroupProvider
	grid Grid

	cameraBuffer, lightBuffer *wgpu.Buffer

	// kernel bindings in group 0
	camera, lights, clusters int
}

// NewPass compiles the clustering kernel and allocates a ClusterSet buffer for the viewport.
//
// Parameters:
//   - r: the renderer used to create GPU resources and record dispatches
//   - cfg: the configuration supplying the grid constants
//   - cameraBuffer: the camera uniform buffer
//   - lightBuffer: the LightSet storage buffer
//   - width, height: the viewport size in pixels
//
// Returns:
//   - *Pass: the ready pass
//   - error: ErrZeroViewport, shader.ErrUnbound, or an error from bind group or pipeline creation
func NewPass(r light.ComputeRenderer, cfg config.Config, cameraBuffer, lightBuffer *wgpu.Buffer, width, height int) (*Pass, error) {
	sh := shader.NewShaderFromSource(PipelineKey, shader.ShaderTypeCompute, GPUClusteringSource,
		shader.WithPrelude(config.CommonWGSL),
		shader.WithConstants(cfg.Constants()),
	)
	b, err := shader.StructBindings(sh, 0, camera.StructKeyCamera, light.StructKeyLightSet, StructKeyClusterSet)
	if err != nil {
		return nil, err
	}
	p := &Pass{
		r:            r,
		cfg:          cfg,
		sh:           sh,
		cameraBuffer: cameraBuffer,
		lightBuffer:  lightBuffer,
		camera:       b[0],
		lights:       b[1],
		clusters:     b[2],
	}

	bgp, g, err := p.allocate(width, height)
	if err != nil {
		return nil, err
	}
	p.bgp, p.grid = bgp, g
	cp := pipeline.NewPipeline(PipelineKey, pipeline.PipelineTypeCompute, pipeline.WithShaders(p.sh))
	if err := r.RegisterPipelines(cp); err != nil {
		return nil, fmt.Errorf("cluster: register pipeline: %w", err)
	}
	return p, nil
}

// allocate sizes a grid and builds a provider holding a fresh ClusterSet buffer with its
// header written. The pass itself is left untouched.
func (p *Pass) allocate(width, height int) (bind_group_provider.BindGroupProvider, Grid, error) {
	g, err := NewGrid(p.cfg, width, height)
	if err != nil {
		return nil, Grid{}, err
	}
	bgp := bind_group_provider.NewBindGroupProvider("cluster_set",
		bind_group_provider.WithBuffer(p.camera, p.cameraBuffer),
		bind_group_provider.WithBuffer(p.lights, p.lightBuffer),
	)
	sizes := map[int]uint64{p.clusters: g.BufferSize()}
	if err := p.r.InitBindGroup(bgp, p.sh.BindGroupLayoutDescriptor(0), nil, sizes); err != nil {
		bgp.Release()
		return nil, Grid{}, fmt.Errorf("cluster: init bind group: %w", err)
	}
	p.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: bgp, Binding: p.clusters, Offset: 0, Data: MarshalHeader(g.Dims)},
	})
	log.Printf("[Cluster] GPU cluster set %dx%dx%d (%d bytes)", g.Dims.X, g.Dims.Y, g.Dims.Z, g.BufferSize())
	return bgp, g, nil
}

// Resize reallocates the ClusterSet buffer for a new viewport. Callers holding the old
// buffer (the lighting pass) must rebind to Buffer() afterwards.
//
// Parameters:
//   - width, height: the new viewport size
//
// Returns:
//   - error: ErrZeroViewport or a GPU allocation error; on any error the old buffer is kept
func (p *Pass) Resize(width, height int) error {
	bgp, g, err := p.allocate(width, height)
	if err != nil {
		return err
	}
	p.bgp.Release()
	p.bgp, p.grid = bgp, g
	return nil
}

// Grid returns the grid the current buffer was sized for.
//
// Returns:
//   - Grid: the grid
func (p *Pass) Grid() Grid {
	return p.grid
}

// Buffer returns the ClusterSet storage buffer.
//
// Returns:
//   - *wgpu.Buffer: the buffer
func (p *Pass) Buffer() *wgpu.Buffer {
	return p.bgp.Buffer(p.clusters)
}

// WorkgroupCount returns the dispatch size: one workgroup per cluster.
//
// Returns:
//   - [3]uint32: the grid dimensions
func (p *Pass) WorkgroupCount() [3]uint32 {
	return [3]uint32{uint32(p.grid.Dims.X), uint32(p.grid.Dims.Y), uint32(p.grid.Dims.Z)}
}

// Encode records the clustering dispatch into the open compute frame. Every record is
// rewritten, so no clear is needed between frames.
//
// Returns:
//   - error: an error if the clustering pipeline is not registered
func (p *Pass) Encode() error {
	return p.r.DispatchCompute(PipelineKey, p.bgp, p.WorkgroupCount())
}

// Release frees the ClusterSet buffer and bind group.
func (p *Pass) Release() {
	p.bgp.Release()
}
