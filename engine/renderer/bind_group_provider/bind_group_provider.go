// Package bind_group_provider tracks the GPU resources behind one bind group (or one mesh)
// and who owns them. Resources created by the renderer for a provider are owned and freed
// by Release; resources attached from elsewhere are borrowed and left alone.
package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProvider describes the resources one bind group is built from. Passes and
// drawables (camera, light set, cluster set, G-buffer, objects) each hold one; the Renderer
// fills in what is missing during InitBindGroup or InitMeshBuffers.
//
// Lifecycle:
//  1. The owner creates a provider and attaches borrowed buffers and texture views
//  2. Renderer.InitBindGroup creates the remaining buffers (owned) and the bind group
//  3. Renderer.WriteBuffers updates buffer contents
//  4. The provider is passed to draw or dispatch calls
//  5. ReleaseBindGroup before re-attaching resources, Release when done
type BindGroupProvider interface {
	// Label returns the debug label used for the GPU objects created for this provider.
	//
	// Returns:
	//   - string: the label
	Label() string

	// BindGroup returns the bind group, or nil before InitBindGroup.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	BindGroup() *wgpu.BindGroup

	// SetBindGroup stores the bind group created by the renderer.
	//
	// Parameters:
	//   - bg: the bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// BindGroupLayout returns the layout, or nil before InitBindGroup.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	BindGroupLayout() *wgpu.BindGroupLayout

	// SetBindGroupLayout stores the layout created by the renderer.
	//
	// Parameters:
	//   - bgl: the layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// Buffer returns the buffer at a binding, owned or borrowed.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer attaches a borrowed buffer. Passing nil detaches the binding without
	// releasing anything.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer, owned by someone else
	SetBuffer(binding int, buf *wgpu.Buffer)

	// AdoptBuffer attaches a buffer the provider owns from now on.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	AdoptBuffer(binding int, buf *wgpu.Buffer)

	// ReleaseBuffer frees an owned buffer and detaches its binding. Borrowed buffers are
	// only detached.
	//
	// Parameters:
	//   - binding: the binding index
	ReleaseBuffer(binding int)

	// TextureView returns the borrowed texture view at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the view or nil
	TextureView(binding int) *wgpu.TextureView

	// SetTextureView attaches a borrowed texture view.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the view, owned by its render target
	SetTextureView(binding int, tv *wgpu.TextureView)

	// Mesh returns the vertex and index buffers and the index count of a mesh provider.
	//
	// Returns:
	//   - vertex, index: the buffers, nil before InitMeshBuffers
	//   - indexCount: the number of indices to draw
	Mesh() (vertex, index *wgpu.Buffer, indexCount int)

	// SetMesh stores owned mesh buffers created by the renderer.
	//
	// Parameters:
	//   - vertex, index: the buffers
	//   - indexCount: the number of indices to draw
	SetMesh(vertex, index *wgpu.Buffer, indexCount int)

	// ReleaseBindGroup frees the bind group and its layout and keeps every buffer and view,
	// so the group can be rebuilt around new attachments.
	ReleaseBindGroup()

	// Release frees the bind group, its layout, owned buffers and mesh buffers. Borrowed
	// resources are detached but not freed.
	Release()
}

type binding struct {
	buffer *wgpu.Buffer
	view   *wgpu.TextureView
	owned  bool
}

// bindGroupProvider is the implementation of the BindGroupProvider interface.
type bindGroupProvider struct {
	label string

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	bindings        map[int]binding

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: the debug label for GPU objects created for it
//   - options: functional options attaching borrowed resources
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		bindings: make(map[int]binding),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) Buffer(index int) *wgpu.Buffer {
	return p.bindings[index].buffer
}

func (p *bindGroupProvider) SetBuffer(index int, buf *wgpu.Buffer) {
	p.attach(index, binding{buffer: buf})
}

func (p *bindGroupProvider) AdoptBuffer(index int, buf *wgpu.Buffer) {
	p.attach(index, binding{buffer: buf, owned: true})
}

func (p *bindGroupProvider) ReleaseBuffer(index int) {
	p.free(index)
	delete(p.bindings, index)
}

func (p *bindGroupProvider) TextureView(index int) *wgpu.TextureView {
	return p.bindings[index].view
}

func (p *bindGroupProvider) SetTextureView(index int, tv *wgpu.TextureView) {
	p.attach(index, binding{view: tv})
}

// attach replaces a binding, freeing the previous resource when it was owned.
func (p *bindGroupProvider) attach(index int, b binding) {
	p.free(index)
	if b.buffer == nil && b.view == nil {
		delete(p.bindings, index)
		return
	}
	p.bindings[index] = b
}

func (p *bindGroupProvider) free(index int) {
	if b, ok := p.bindings[index]; ok && b.owned && b.buffer != nil {
		b.buffer.Release()
	}
}

func (p *bindGroupProvider) Mesh() (*wgpu.Buffer, *wgpu.Buffer, int) {
	return p.vertexBuffer, p.indexBuffer, p.indexCount
}

func (p *bindGroupProvider) SetMesh(vertex, index *wgpu.Buffer, indexCount int) {
	p.releaseMesh()
	p.vertexBuffer, p.indexBuffer, p.indexCount = vertex, index, indexCount
}

func (p *bindGroupProvider) releaseMesh() {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}

func (p *bindGroupProvider) ReleaseBindGroup() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}

func (p *bindGroupProvider) Release() {
	p.ReleaseBindGroup()
	for index := range p.bindings {
		p.free(index)
	}
	clear(p.bindings)
	p.releaseMesh()
}
