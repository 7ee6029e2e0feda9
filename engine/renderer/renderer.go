// Package renderer records the GPU work of a deferred frame. A frame is made of compute
// submissions (light motion, clustering), one geometry submission that fills offscreen
// targets and one main submission that draws to the surface before it is presented.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnknownPipeline is returned when a draw or dispatch names a pipeline that was never
// registered.
var ErrUnknownPipeline = errors.New("renderer: pipeline not registered")

// Renderer is the GPU API the deferred passes record against. Pipelines are looked up by
// key; everything else is forwarded to the backend.
type Renderer interface {
	// RegisterPipelines validates, compiles and caches pipelines by key. A key that is
	// already cached is skipped.
	//
	// Parameters:
	//   - pipelines: the pipelines to register
	//
	// Returns:
	//   - error: the first validation or compilation error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface. Offscreen targets are owned by their passes and must
	// be resized separately.
	//
	// Parameters:
	//   - width, height: the surface size in pixels
	Resize(width, height int)

	// SetPresentMode selects vsync or uncapped presentation from the next Resize.
	//
	// Parameters:
	//   - mode: PresentModeVSync or PresentModeUncapped
	SetPresentMode(mode PresentMode)

	// InitMeshBuffers uploads vertex and index data and attaches both buffers to provider.
	//
	// Parameters:
	//   - provider: the provider that takes ownership of the buffers
	//   - vertexData, indexData: packed vertex and uint32 index bytes
	//   - indexCount: the number of indices to draw
	//
	// Returns:
	//   - error: an error on empty data or failed allocation
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup builds the bind group described by descriptor. Bindings that already hold
	// a buffer or texture view are used as they are. Missing buffers are allocated at their
	// MinBindingSize or the size override and adopted by the provider. Texture views must be
	// attached beforehand and sampler bindings are rejected.
	//
	// Parameters:
	//   - provider: the provider receiving the bind group
	//   - descriptor: the reflected layout
	//   - bufferUsageOverrides: usage bits ORed into allocated buffers, by binding (nil safe)
	//   - bufferSizeOverrides: allocation sizes replacing MinBindingSize, by binding (nil safe)
	//
	// Returns:
	//   - error: an error if a binding cannot be satisfied
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers queues the writes. They land before any later submission.
	//
	// Parameters:
	//   - writes: the staged writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// CreateRenderTarget allocates a single-sample offscreen texture and its view.
	//
	// Parameters:
	//   - desc: the size, format and usage of the target
	//
	// Returns:
	//   - common.RenderTarget: the texture and view
	//   - error: an error if allocation fails
	CreateRenderTarget(desc common.RenderTargetDescriptor) (common.RenderTarget, error)

	// BeginComputeFrame opens an encoder that batches the dispatches up to EndComputeFrame
	// into one submission.
	//
	// Returns:
	//   - error: an error if the encoder cannot be created
	BeginComputeFrame() error

	// DispatchCompute records one compute pass with computeProvider bound at group 0.
	//
	// Parameters:
	//   - pipelineKey: the compute pipeline
	//   - computeProvider: the provider whose bind group is used
	//   - workGroupCount: the dispatch size
	//
	// Returns:
	//   - error: ErrUnknownPipeline
	DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// EndComputeFrame submits the batched dispatches.
	EndComputeFrame()

	// BeginGeometryFrame opens the encoder for offscreen geometry passes.
	//
	// Returns:
	//   - error: an error if the encoder cannot be created
	BeginGeometryFrame() error

	// BeginGeometryPass starts a pass that clears colorViews and depthView and draws into them.
	//
	// Parameters:
	//   - colorViews: the color attachments in pipeline target order
	//   - depthView: the depth attachment
	BeginGeometryPass(colorViews []*wgpu.TextureView, depthView *wgpu.TextureView)

	// GeometryDrawCall records an indexed draw of meshProvider's buffers.
	//
	// Parameters:
	//   - pipelineKey: the offscreen render pipeline
	//   - meshProvider: the provider holding the vertex and index buffers
	//   - instanceCount: the number of instances
	//   - bindGroups: providers bound at their slice index
	//
	// Returns:
	//   - error: ErrUnknownPipeline
	GeometryDrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndGeometryPass ends the open geometry pass.
	EndGeometryPass()

	// EndGeometryFrame submits the geometry encoder.
	EndGeometryFrame()

	// BeginFrame acquires the next surface texture and starts the main pass.
	//
	// Returns:
	//   - error: an error if no surface texture is available
	BeginFrame() error

	// FullscreenDraw records vertexCount vertices without vertex buffers in the main pass.
	//
	// Parameters:
	//   - pipelineKey: the surface render pipeline
	//   - vertexCount: 3 for a fullscreen triangle
	//   - bindGroups: providers bound at their slice index
	//
	// Returns:
	//   - error: ErrUnknownPipeline
	FullscreenDraw(pipelineKey string, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the main pass and submits it without presenting.
	EndFrame()

	// Present shows the submitted frame and releases the surface texture.
	Present()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu        *sync.Mutex
	pipelines map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// applied when the backend is created
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

var _ Renderer = &renderer{}

// NewRenderer requests a device for the window's surface and configures the surface at
// the window's current size.
//
// Parameters:
//   - backendType: the GPU backend (BackendTypeWGPU)
//   - window: the window whose surface is rendered to
//   - options: functional options applied before the device is requested
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if no adapter or device is available
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		pipelines:   make(map[string]pipeline.Pipeline),
		backendType: backendType,
	}
	for _, opt := range options {
		opt(r)
	}

	if backendType != BackendTypeWGPU {
		return nil, fmt.Errorf("renderer: unknown backend %d", backendType)
	}
	b, err := newWGPUBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.backend = b

	if r.pendingPresentMode != nil {
		b.SetPresentMode(*r.pendingPresentMode)
	}
	b.ConfigureSurface(window.Size())
	return r, nil
}

// pipeline returns the cached pipeline for key.
func (r *renderer) pipeline(key string) (pipeline.Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pipelines[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, key)
	}
	return p, nil
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		if _, ok := r.pipelines[p.PipelineKey()]; ok {
			continue
		}
		if err := p.Validate(); err != nil {
			return err
		}
		var err error
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			err = r.backend.RegisterComputePipeline(p)
		case pipeline.PipelineTypeRender:
			err = r.backend.RegisterRenderPipeline(p)
		}
		if err != nil {
			return err
		}
		r.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers(writes)
}

func (r *renderer) CreateRenderTarget(desc common.RenderTargetDescriptor) (common.RenderTarget, error) {
	return r.backend.CreateRenderTarget(desc)
}

func (r *renderer) BeginComputeFrame() error { return r.backend.BeginComputeFrame() }
func (r *renderer) EndComputeFrame()         { r.backend.EndComputeFrame() }

func (r *renderer) DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	p, err := r.pipeline(pipelineKey)
	if err != nil {
		return err
	}
	r.backend.DispatchCompute(p, computeProvider, workGroupCount)
	return nil
}

func (r *renderer) BeginGeometryFrame() error { return r.backend.BeginGeometryFrame() }
func (r *renderer) EndGeometryPass()          { r.backend.EndGeometryPass() }
func (r *renderer) EndGeometryFrame()         { r.backend.EndGeometryFrame() }

func (r *renderer) BeginGeometryPass(colorViews []*wgpu.TextureView, depthView *wgpu.TextureView) {
	r.backend.BeginGeometryPass(colorViews, depthView)
}

func (r *renderer) GeometryDrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, err := r.pipeline(pipelineKey)
	if err != nil {
		return err
	}
	r.backend.GeometryDrawCall(p, meshProvider, instanceCount, bindGroups)
	return nil
}

func (r *renderer) BeginFrame() error { return r.backend.BeginFrame() }
func (r *renderer) EndFrame()         { r.backend.EndFrame() }
func (r *renderer) Present()          { r.backend.Present() }

func (r *renderer) FullscreenDraw(pipelineKey string, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, err := r.pipeline(pipelineKey)
	if err != nil {
		return err
	}
	r.backend.FullscreenDraw(p, vertexCount, bindGroups)
	return nil
}
