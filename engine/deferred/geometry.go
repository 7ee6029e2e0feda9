package deferred

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// GeometryPipelineKey is the pipeline cache key of the G-buffer pipeline.
const GeometryPipelineKey = "gbuffer"

// ErrBindGroupLayout is returned when the configured bind group indices cannot be used
// together.
var ErrBindGroupLayout = errors.New("deferred: invalid bind group indices")

// GeometryRenderer is the subset of the renderer the geometry pass needs.
type GeometryRenderer interface {
	TargetCreator
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	BeginGeometryFrame() error
	BeginGeometryPass(colorViews []*wgpu.TextureView, depthView *wgpu.TextureView)
	GeometryDrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
	EndGeometryPass()
	EndGeometryFrame()
}

// NodeFunc receives the model-transform binding of the next drawable node.
type NodeFunc func(model bind_group_provider.BindGroupProvider)

// MaterialFunc receives the material binding used by the primitives that follow.
type MaterialFunc func(material bind_group_provider.BindGroupProvider)

// PrimitiveFunc receives a mesh binding carrying a vertex buffer, a uint32 index buffer and
// an index count.
type PrimitiveFunc func(mesh bind_group_provider.BindGroupProvider)

// SceneIterator walks every drawable in node, material, primitive order.
type SceneIterator interface {
	Iterate(node NodeFunc, material MaterialFunc, primitive PrimitiveFunc)
}

// GeometryPass rasterizes the scene into a GBuffer. Besides encoding the pass it owns the
// layouts the per-object model and material bindings are created from.
type GeometryPass struct {
	r      GeometryRenderer
	vs, fs shader.Shader
	camera bind_group_provider.BindGroupProvider

	groupScene, groupModel, groupMaterial int
	bindings                              geometryBindings
}

// geometryBindings are the uniform bindings the G-buffer shaders declare, one per group.
type geometryBindings struct {
	camera, model, material int
}

// resolveGeometryBindings reads the camera and model bindings from the vertex shader and
// the material binding from the fragment shader.
func resolveGeometryBindings(vs, fs shader.Shader, groupScene, groupModel, groupMaterial int) (geometryBindings, error) {
	var b geometryBindings
	for _, e := range []struct {
		sh    shader.Shader
		group int
		key   shader.StructKey
		dst   *int
	}{
		{vs, groupScene, camera.StructKeyCamera, &b.camera},
		{vs, groupModel, model.StructKeyModel, &b.model},
		{fs, groupMaterial, material.StructKeyMaterial, &b.material},
	} {
		found, err := shader.StructBindings(e.sh, e.group, e.key)
		if err != nil {
			return b, fmt.Errorf("%w: %w", ErrBindGroupLayout, err)
		}
		*e.dst = found[0]
	}
	return b, nil
}

// NewGeometryPass compiles the G-buffer shaders, creates the camera uniform on camera and
// registers the pipeline.
//
// Parameters:
//   - r: the renderer used to create GPU resources and record draws
//   - cfg: the configuration supplying the bind group indices
//   - camera: the camera's provider; its uniform buffer is created here if not yet present
//
// Returns:
//   - *GeometryPass: the ready pass
//   - error: ErrBindGroupLayout, or an error from bind group or pipeline creation
func NewGeometryPass(r GeometryRenderer, cfg config.Config, camera bind_group_provider.BindGroupProvider) (*GeometryPass, error) {
	groups := []int{cfg.BindGroupScene, cfg.BindGroupModel, cfg.BindGroupMaterial}
	seen := map[int]bool{}
	for _, g := range groups {
		if g < 0 || g >= len(groups) || seen[g] {
			return nil, fmt.Errorf("%w: scene %d model %d material %d", ErrBindGroupLayout, groups[0], groups[1], groups[2])
		}
		seen[g] = true
	}

	opts := []shader.ShaderBuilderOption{
		shader.WithPrelude(config.CommonWGSL),
		shader.WithConstants(cfg.Constants()),
	}
	p := &GeometryPass{
		r:             r,
		vs:            shader.NewShaderFromSource(GeometryPipelineKey+"_vs", shader.ShaderTypeVertex, GPUGBufferVertexSource, opts...),
		fs:            shader.NewShaderFromSource(GeometryPipelineKey+"_fs", shader.ShaderTypeFragment, GPUGBufferFragmentSource, opts...),
		camera:        camera,
		groupScene:    cfg.BindGroupScene,
		groupModel:    cfg.BindGroupModel,
		groupMaterial: cfg.BindGroupMaterial,
	}
	b, err := resolveGeometryBindings(p.vs, p.fs, p.groupScene, p.groupModel, p.groupMaterial)
	if err != nil {
		return nil, err
	}
	p.bindings = b

	if camera.BindGroup() == nil {
		if err := r.InitBindGroup(camera, p.vs.BindGroupLayoutDescriptor(p.groupScene), nil, nil); err != nil {
			return nil, fmt.Errorf("deferred: init camera bind group: %w", err)
		}
	}

	gp := pipeline.NewPipeline(GeometryPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithShaders(p.vs, p.fs),
		pipeline.WithColorTargets(ColorFormats()...),
		pipeline.WithCullMode(wgpu.CullModeBack),
	)
	if err := r.RegisterPipelines(gp); err != nil {
		return nil, fmt.Errorf("deferred: register geometry pipeline: %w", err)
	}
	return p, nil
}

// Prepare creates any missing GPU resources of a drawable: its model uniform, its
// material uniform and its mesh buffers. Models and materials shared between objects are
// only uploaded once.
//
// Parameters:
//   - obj: the drawable
//
// Returns:
//   - error: an error if the object lacks a model or material, or resource creation fails
func (p *GeometryPass) Prepare(obj game_object.GameObject) error {
	mdl, mat := obj.Model(), obj.Material()
	if mdl == nil || mat == nil {
		return fmt.Errorf("deferred: object %d needs a model and a material", obj.ID())
	}
	if obj.ModelProvider().BindGroup() == nil {
		if err := p.r.InitBindGroup(obj.ModelProvider(), p.vs.BindGroupLayoutDescriptor(p.groupModel), nil, nil); err != nil {
			return fmt.Errorf("deferred: init model bind group: %w", err)
		}
	}
	if mat.BindGroupProvider().BindGroup() == nil {
		if err := p.r.InitBindGroup(mat.BindGroupProvider(), p.fs.BindGroupLayoutDescriptor(p.groupMaterial), nil, nil); err != nil {
			return fmt.Errorf("deferred: init material bind group: %w", err)
		}
	}
	if provider := mdl.MeshProvider(); !hasMesh(provider) {
		mesh := mdl.Mesh()
		if err := mesh.Validate(); err != nil {
			return fmt.Errorf("deferred: mesh %q: %w", mdl.Name(), err)
		}
		if err := p.r.InitMeshBuffers(provider, mesh.VertexData(), mesh.IndexData(), len(mesh.Indices)); err != nil {
			return fmt.Errorf("deferred: init mesh %q: %w", mdl.Name(), err)
		}
	}
	return nil
}

// StageUploads appends the uniform writes of a drawable whose transform or material
// changed since the last call.
//
// Parameters:
//   - writes: the batch to append to
//   - obj: the drawable
//
// Returns:
//   - []bind_group_provider.BufferWrite: the extended batch
func (p *GeometryPass) StageUploads(writes []bind_group_provider.BufferWrite, obj game_object.GameObject) []bind_group_provider.BufferWrite {
	if obj.TakeDirty() {
		data := obj.ModelData()
		writes = append(writes, bind_group_provider.BufferWrite{Provider: obj.ModelProvider(), Binding: p.bindings.model, Data: data.Marshal()})
	}
	if mat := obj.Material(); mat != nil && mat.TakeDirty() {
		params := mat.Params()
		writes = append(writes, bind_group_provider.BufferWrite{Provider: mat.BindGroupProvider(), Binding: p.bindings.material, Data: params.Marshal()})
	}
	return writes
}

// Encode clears the G-buffer and draws every primitive the scene yields into it, then
// submits the geometry command buffer.
//
// Parameters:
//   - gb: the target G-buffer
//   - scene: the drawables to rasterize
//
// Returns:
//   - error: an error if the command encoder cannot be created or a draw references an
//     unregistered pipeline
func (p *GeometryPass) Encode(gb *GBuffer, scene SceneIterator) error {
	if err := p.r.BeginGeometryFrame(); err != nil {
		return fmt.Errorf("deferred: begin geometry frame: %w", err)
	}
	p.r.BeginGeometryPass(gb.ColorViews(), gb.Depth.View)

	groups := make([]bind_group_provider.BindGroupProvider, 3)
	groups[p.groupScene] = p.camera

	var drawErr error
	scene.Iterate(
		func(model bind_group_provider.BindGroupProvider) {
			groups[p.groupModel] = model
		},
		func(material bind_group_provider.BindGroupProvider) {
			groups[p.groupMaterial] = material
		},
		func(mesh bind_group_provider.BindGroupProvider) {
			if drawErr != nil || groups[p.groupModel] == nil || groups[p.groupMaterial] == nil {
				return
			}
			drawErr = p.r.GeometryDrawCall(GeometryPipelineKey, mesh, 1, groups)
		},
	)

	p.r.EndGeometryPass()
	p.r.EndGeometryFrame()
	return drawErr
}

// Shaders returns the vertex and fragment shaders of the pass.
//
// Returns:
//   - shader.Shader: the vertex shader
//   - shader.Shader: the fragment shader
func (p *GeometryPass) Shaders() (shader.Shader, shader.Shader) {
	return p.vs, p.fs
}

// CameraBinding returns the binding of the camera uniform on the camera's provider.
//
// Returns:
//   - int: the binding index within the scene group
func (p *GeometryPass) CameraBinding() int {
	return p.bindings.camera
}

// hasMesh reports whether a mesh provider's buffers have been uploaded.
func hasMesh(mesh bind_group_provider.BindGroupProvider) bool {
	vertex, _, _ := mesh.Mesh()
	return vertex != nil
}
