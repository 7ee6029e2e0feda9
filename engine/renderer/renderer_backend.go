package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType selects the GPU API a Renderer records against.
type RendererBackendType int

// BackendTypeWGPU records through wgpu-native. It is the only backend.
const BackendTypeWGPU RendererBackendType = 0

// PresentMode selects how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync presents on vertical blank (FIFO).
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// String returns "vsync" or "uncapped".
func (m PresentMode) String() string {
	if m == PresentModeVSync {
		return "vsync"
	}
	return "uncapped"
}

// RendererBackend is the GPU API behind a Renderer. Command recording is split into three
// encoder scopes per frame: compute frames, a geometry frame drawing into offscreen targets,
// and the main frame drawing into the acquired surface image. Each scope submits when it ends,
// so queue order is recording order.
type RendererBackend interface {
	// ConfigureSurface (re)configures the surface for a new size or present mode.
	ConfigureSurface(width, height int)

	// SetPresentMode records the present mode used by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline compiles p's vertex and fragment shaders into a render pipeline.
	// Pipelines declaring color targets render offscreen with a depth attachment; the
	// rest draw into the surface without one.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// RegisterComputePipeline compiles p's compute shader into a compute pipeline.
	RegisterComputePipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads vertex and index data into new buffers stored on provider.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the layout, any missing buffers and the bind group of provider.
	// Texture bindings must already hold a view. Buffer sizes default to the entry's
	// MinBindingSize unless bufferSizeOverrides names the binding.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers queues every write. Writes whose binding has no buffer are skipped.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame opens the compute encoder.
	BeginComputeFrame() error

	// DispatchCompute records one compute pass with computeProvider bound at group 0.
	DispatchCompute(p pipeline.Pipeline, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32)

	// EndComputeFrame submits the compute encoder.
	EndComputeFrame()

	// CreateRenderTarget creates a single-sample texture and its default view.
	CreateRenderTarget(desc common.RenderTargetDescriptor) (common.RenderTarget, error)

	// BeginGeometryFrame opens the geometry encoder.
	BeginGeometryFrame() error

	// BeginGeometryPass starts a pass clearing colorViews to zero and depthView to 1.
	BeginGeometryPass(colorViews []*wgpu.TextureView, depthView *wgpu.TextureView)

	// GeometryDrawCall records an indexed draw of meshProvider's buffers.
	GeometryDrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider)

	// EndGeometryPass ends the geometry pass.
	EndGeometryPass()

	// EndGeometryFrame submits the geometry encoder.
	EndGeometryFrame()

	// BeginFrame acquires the surface image and begins the main pass, cleared to black.
	BeginFrame() error

	// FullscreenDraw records a draw of vertexCount vertices without vertex buffers in the main pass.
	FullscreenDraw(p pipeline.Pipeline, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider)

	// EndFrame ends the main pass and submits it. The image stays acquired until Present.
	EndFrame()

	// Present shows the acquired surface image.
	Present()
}
