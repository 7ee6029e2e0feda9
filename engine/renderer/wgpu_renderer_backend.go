package renderer

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// depthFormat is the format of every depth attachment the backend binds.
const depthFormat = wgpu.TextureFormatDepth24Plus

type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	// main frame: the acquired surface image and the pass drawing into it
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	computeEncoder *wgpu.CommandEncoder

	geometryEncoder *wgpu.CommandEncoder
	geometryPass    *wgpu.RenderPassEncoder
}

var _ RendererBackend = &wgpuBackend{}

// newWGPUBackend creates the instance, surface, adapter and device. The calling goroutine is
// locked to its OS thread because surface presentation is thread-affine on some platforms.
func newWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (*wgpuBackend, error) {
	runtime.LockOSThread()
	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = adapter

	// The default limits cover four bind groups and a 128 MiB storage binding,
	// enough for the cluster set of any realistic viewport.
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: wgpu.DefaultLimits()},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return b, nil
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	caps := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = caps.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mode == PresentModeVSync {
		b.presentMode = wgpu.PresentModeFifo
		return
	}
	b.presentMode = wgpu.PresentModeImmediate
}

func (b *wgpuBackend) shaderModule(sh shader.Shader) (*wgpu.ShaderModule, error) {
	return b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          sh.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: sh.Source()},
	})
}

// pipelineLayout creates one bind group layout per group index. Groups absent from groups
// stay nil, which WebGPU treats as an empty layout.
func (b *wgpuBackend) pipelineLayout(label string, groups map[int]wgpu.BindGroupLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	n := 0
	for g := range groups {
		n = max(n, g+1)
	}
	layouts := make([]*wgpu.BindGroupLayout, n)
	for g, desc := range groups {
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("bind group layout %d: %w", g, err)
		}
		layouts[g] = layout
	}
	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
}

// RegisterRenderPipeline expects a pipeline that passed Validate.
func (b *wgpuBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader, fragmentShader := p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)

	vs, err := b.shaderModule(vertexShader)
	if err != nil {
		return fmt.Errorf("%s: %w", vertexShader.Key(), err)
	}
	fs, err := b.shaderModule(fragmentShader)
	if err != nil {
		return fmt.Errorf("%s: %w", fragmentShader.Key(), err)
	}
	layout, err := b.pipelineLayout(p.PipelineKey(), mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors()))
	if err != nil {
		return fmt.Errorf("%s: %w", p.PipelineKey(), err)
	}

	state := p.State()
	var depth *wgpu.DepthStencilState
	if state.Offscreen() {
		compare := wgpu.CompareFunctionLess
		if !state.DepthTest {
			compare = wgpu.CompareFunctionAlways
		}
		depth = &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: state.DepthWrite,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    b.colorTargets(state),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  state.Topology,
			FrontFace: state.FrontFace,
			CullMode:  state.CullMode,
		},
		Multisample:  wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		DepthStencil: depth,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", p.PipelineKey(), err)
	}
	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuBackend) RegisterComputePipeline(p pipeline.Pipeline) error {
	computeShader := p.Shader(shader.ShaderTypeCompute)

	module, err := b.shaderModule(computeShader)
	if err != nil {
		return fmt.Errorf("%s: %w", computeShader.Key(), err)
	}
	layout, err := b.pipelineLayout(p.PipelineKey(), computeShader.BindGroupLayoutDescriptors())
	if err != nil {
		return fmt.Errorf("%s: %w", p.PipelineKey(), err)
	}
	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", p.PipelineKey(), err)
	}
	p.SetComputePipeline(created)
	return nil
}

// uploadBuffer creates a buffer sized to data and queues its contents.
func (b *wgpuBackend) uploadBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) == 0 || len(indexData) == 0 {
		return fmt.Errorf("%s: empty mesh", provider.Label())
	}
	vertex, err := b.uploadBuffer(provider.Label()+" Vertex Buffer", wgpu.BufferUsageVertex, vertexData)
	if err != nil {
		return err
	}
	index, err := b.uploadBuffer(provider.Label()+" Index Buffer", wgpu.BufferUsageIndex, indexData)
	if err != nil {
		vertex.Release()
		return err
	}
	provider.SetMesh(vertex, index, indexCount)
	return nil
}

func (b *wgpuBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		if layout, err = b.device.CreateBindGroupLayout(&descriptor); err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		entries[i].Binding = entry.Binding

		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no view", provider.Label(), binding)
			}
			entries[i].TextureView = tv

		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			return fmt.Errorf("%s: sampler binding %d is not supported", provider.Label(), binding)

		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
				if entry.Buffer.Type == wgpu.BufferBindingTypeUniform {
					usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
				}
				usage |= bufferUsageOverrides[binding]
				size := entry.Buffer.MinBindingSize
				if override, ok := bufferSizeOverrides[binding]; ok {
					size = override
				}
				var err error
				buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
					Size:  size,
					Usage: usage,
				})
				if err != nil {
					return err
				}
				provider.AdoptBuffer(binding, buf)
			}
			entries[i].Buffer = buf
			entries[i].Size = wgpu.WholeSize
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if buf := w.Provider.Buffer(w.Binding); buf != nil {
			b.queue.WriteBuffer(buf, w.Offset, w.Data)
		}
	}
}

// submit finishes *enc, submits it and clears it. A failed finish drops the recorded work.
func (b *wgpuBackend) submit(enc **wgpu.CommandEncoder) {
	if *enc == nil {
		return
	}
	defer func() {
		(*enc).Release()
		*enc = nil
	}()
	cmd, err := (*enc).Finish(nil)
	if err != nil {
		return
	}
	b.queue.Submit(cmd)
	cmd.Release()
}

func (b *wgpuBackend) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	enc, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeEncoder = enc
	return nil
}

func (b *wgpuBackend) DispatchCompute(p pipeline.Pipeline, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeEncoder == nil {
		return
	}
	pass := b.computeEncoder.BeginComputePass(nil)
	pass.SetPipeline(p.ComputePipeline())
	pass.SetBindGroup(0, computeProvider.BindGroup(), nil)
	pass.DispatchWorkgroups(workGroupCount[0], workGroupCount[1], workGroupCount[2])
	pass.End()
}

func (b *wgpuBackend) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submit(&b.computeEncoder)
}

func (b *wgpuBackend) CreateRenderTarget(desc common.RenderTargetDescriptor) (common.RenderTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	usage := wgpu.TextureUsageRenderAttachment
	if desc.Sampled {
		usage |= wgpu.TextureUsageTextureBinding
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return common.RenderTarget{}, fmt.Errorf("create render target %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return common.RenderTarget{}, fmt.Errorf("create render target view %q: %w", desc.Label, err)
	}
	return common.RenderTarget{
		Texture: tex,
		View:    view,
		Format:  desc.Format,
		Width:   desc.Width,
		Height:  desc.Height,
	}, nil
}

func (b *wgpuBackend) BeginGeometryFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	enc, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.geometryEncoder = enc
	return nil
}

func (b *wgpuBackend) BeginGeometryPass(colorViews []*wgpu.TextureView, depthView *wgpu.TextureView) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.geometryEncoder == nil {
		return
	}
	attachments := make([]wgpu.RenderPassColorAttachment, len(colorViews))
	for i, v := range colorViews {
		attachments[i] = wgpu.RenderPassColorAttachment{
			View:    v,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}
	}
	b.geometryPass = b.geometryEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: attachments,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
}

func (b *wgpuBackend) GeometryDrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.geometryPass == nil {
		return
	}
	b.geometryPass.SetPipeline(p.RenderPipeline())
	for i, bg := range bindGroups {
		b.geometryPass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	vertex, index, indexCount := meshProvider.Mesh()
	b.geometryPass.SetVertexBuffer(0, vertex, 0, wgpu.WholeSize)
	b.geometryPass.SetIndexBuffer(index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.geometryPass.DrawIndexed(uint32(indexCount), instanceCount, 0, 0, 0)
}

func (b *wgpuBackend) EndGeometryPass() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.geometryPass != nil {
		b.geometryPass.End()
		b.geometryPass = nil
	}
}

func (b *wgpuBackend) EndGeometryFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submit(&b.geometryEncoder)
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A surface image acquired by the previous frame must be presented first.
	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	enc, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameEncoder = enc
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.framePass = enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{A: 1},
		}},
	})
	return nil
}

func (b *wgpuBackend) FullscreenDraw(p pipeline.Pipeline, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.SetPipeline(p.RenderPipeline())
	for i, bg := range bindGroups {
		b.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	b.framePass.Draw(vertexCount, 1, 0, 0)
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass = nil
	b.submit(&b.frameEncoder)
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameView = nil
	b.frameSurface = nil
}

// colorTargets builds the fragment target states. Surface pipelines target the surface format.
func (b *wgpuBackend) colorTargets(state pipeline.RenderState) []wgpu.ColorTargetState {
	formats := state.ColorTargets
	if len(formats) == 0 {
		formats = []wgpu.TextureFormat{b.surfaceFormat}
	}
	targets := make([]wgpu.ColorTargetState, len(formats))
	for i, f := range formats {
		targets[i] = wgpu.ColorTargetState{Format: f, WriteMask: state.WriteMask, Blend: state.Blend}
	}
	return targets
}

// mergeBindGroupLayouts combines the vertex and fragment layouts of a render pipeline.
// A binding declared by both stages keeps the vertex entry with the visibilities ORed.
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := maps.Clone(vertexLayouts)
	if merged == nil {
		merged = make(map[int]wgpu.BindGroupLayoutDescriptor)
	}
	for g, fDesc := range fragmentLayouts {
		vDesc, ok := merged[g]
		if !ok {
			merged[g] = fDesc
			continue
		}
		byBinding := make(map[uint32]wgpu.BindGroupLayoutEntry, len(vDesc.Entries)+len(fDesc.Entries))
		for _, e := range vDesc.Entries {
			byBinding[e.Binding] = e
		}
		for _, e := range fDesc.Entries {
			if existing, ok := byBinding[e.Binding]; ok {
				existing.Visibility |= e.Visibility
				e = existing
			}
			byBinding[e.Binding] = e
		}
		entries := slices.SortedFunc(maps.Values(byBinding), func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{Label: vDesc.Label, Entries: entries}
	}
	return merged
}
