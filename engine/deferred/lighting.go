package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// LightingPipelineKey is the pipeline cache key of the fullscreen lighting pipeline.
const LightingPipelineKey = "deferred_lighting"

// lightingBindings are the binding indices the lighting shader declares for its inputs.
type lightingBindings struct {
	camera, lights, clusters int
	position, albedo, normal int
}

// resolveLightingBindings reads the binding of every lighting input from the fragment
// shader's directives. Scene buffers must share one group and the targets another.
func resolveLightingBindings(fs shader.Shader, groupScene, groupGBuffer int) (lightingBindings, error) {
	var b lightingBindings
	scene, err := shader.StructBindings(fs, groupScene, camera.StructKeyCamera, light.StructKeyLightSet, cluster.StructKeyClusterSet)
	if err != nil {
		return b, fmt.Errorf("%w: %w", ErrBindGroupLayout, err)
	}
	b.camera, b.lights, b.clusters = scene[0], scene[1], scene[2]

	targets := []struct {
		role shader.Role
		dst  *int
	}{
		{shader.RolePositionTarget, &b.position},
		{shader.RoleAlbedoTarget, &b.albedo},
		{shader.RoleNormalTarget, &b.normal},
	}
	for _, t := range targets {
		d, ok := fs.RoleBinding(shader.ProviderGBuffer, t.role)
		if !ok || d.Group != groupGBuffer {
			return b, fmt.Errorf("%w: %s not bound in group %d", ErrBindGroupLayout, t.role, groupGBuffer)
		}
		*t.dst = d.Binding
	}
	return b, nil
}

// LightingRenderer is the subset of the renderer the lighting pass needs.
type LightingRenderer interface {
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	FullscreenDraw(pipelineKey string, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
}

// LightingPass draws one fullscreen triangle that shades every G-buffer pixel. All of its
// buffers and texture views are borrowed; only the two bind groups are owned.
type LightingPass struct {
	r      LightingRenderer
	vs, fs shader.Shader

	scene   bind_group_provider.BindGroupProvider
	gbuffer bind_group_provider.BindGroupProvider

	groupScene, groupGBuffer int
	bindings                 lightingBindings
}

// NewLightingPass compiles the fullscreen shaders, builds both bind groups and registers
// the pipeline.
//
// Parameters:
//   - r: the renderer used to create GPU resources and record draws
//   - cfg: the configuration supplying constants and bind group indices
//   - cameraBuffer: the camera uniform buffer
//   - lightBuffer: the LightSet storage buffer
//   - clusterBuffer: the ClusterSet storage buffer
//   - gb: the G-buffer to read
//
// Returns:
//   - *LightingPass: the ready pass
//   - error: ErrBindGroupLayout when the group indices or shader bindings do not fit, or an error from bind group or pipeline creation
func NewLightingPass(r LightingRenderer, cfg config.Config, cameraBuffer, lightBuffer, clusterBuffer *wgpu.Buffer, gb *GBuffer) (*LightingPass, error) {
	if cfg.BindGroupScene == cfg.BindGroupGBuffer || min(cfg.BindGroupScene, cfg.BindGroupGBuffer) != 0 || max(cfg.BindGroupScene, cfg.BindGroupGBuffer) != 1 {
		return nil, fmt.Errorf("%w: scene %d g-buffer %d", ErrBindGroupLayout, cfg.BindGroupScene, cfg.BindGroupGBuffer)
	}
	opts := []shader.ShaderBuilderOption{
		shader.WithPrelude(config.CommonWGSL),
		shader.WithConstants(cfg.Constants()),
	}
	p := &LightingPass{
		r:            r,
		vs:           shader.NewShaderFromSource(LightingPipelineKey+"_vs", shader.ShaderTypeVertex, GPUFullscreenVertexSource, opts...),
		fs:           shader.NewShaderFromSource(LightingPipelineKey+"_fs", shader.ShaderTypeFragment, GPULightingFragmentSource, opts...),
		scene:        bind_group_provider.NewBindGroupProvider("lighting_scene"),
		gbuffer:      bind_group_provider.NewBindGroupProvider("lighting_gbuffer"),
		groupScene:   cfg.BindGroupScene,
		groupGBuffer: cfg.BindGroupGBuffer,
	}
	bindings, err := resolveLightingBindings(p.fs, p.groupScene, p.groupGBuffer)
	if err != nil {
		return nil, err
	}
	p.bindings = bindings
	p.scene.SetBuffer(bindings.camera, cameraBuffer)
	p.scene.SetBuffer(bindings.lights, lightBuffer)

	if err := p.Rebind(clusterBuffer, gb); err != nil {
		return nil, err
	}

	lp := pipeline.NewPipeline(LightingPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithShaders(p.vs, p.fs),
	)
	if err := r.RegisterPipelines(lp); err != nil {
		return nil, fmt.Errorf("deferred: register lighting pipeline: %w", err)
	}
	return p, nil
}

// Rebind rebuilds both bind groups around a new cluster buffer and G-buffer. It must be
// called after either is reallocated by a resize.
//
// Parameters:
//   - clusterBuffer: the current ClusterSet storage buffer
//   - gb: the current G-buffer
//
// Returns:
//   - error: an error from bind group creation
func (p *LightingPass) Rebind(clusterBuffer *wgpu.Buffer, gb *GBuffer) error {
	p.scene.ReleaseBindGroup()
	p.scene.SetBuffer(p.bindings.clusters, clusterBuffer)
	if err := p.r.InitBindGroup(p.scene, p.fs.BindGroupLayoutDescriptor(p.groupScene), nil, nil); err != nil {
		return fmt.Errorf("deferred: init lighting scene bind group: %w", err)
	}

	p.gbuffer.ReleaseBindGroup()
	p.gbuffer.SetTextureView(p.bindings.position, gb.Position.View)
	p.gbuffer.SetTextureView(p.bindings.albedo, gb.Albedo.View)
	p.gbuffer.SetTextureView(p.bindings.normal, gb.Normal.View)
	if err := p.r.InitBindGroup(p.gbuffer, p.fs.BindGroupLayoutDescriptor(p.groupGBuffer), nil, nil); err != nil {
		return fmt.Errorf("deferred: init g-buffer bind group: %w", err)
	}
	return nil
}

// Encode records the fullscreen triangle into the open main frame.
//
// Returns:
//   - error: an error if the lighting pipeline is not registered
func (p *LightingPass) Encode() error {
	groups := make([]bind_group_provider.BindGroupProvider, 2)
	groups[p.groupScene] = p.scene
	groups[p.groupGBuffer] = p.gbuffer
	return p.r.FullscreenDraw(LightingPipelineKey, 3, groups)
}

// Release frees the pass's bind groups. Borrowed buffers and views are left intact.
func (p *LightingPass) Release() {
	p.scene.ReleaseBindGroup()
	p.gbuffer.ReleaseBindGroup()
}
