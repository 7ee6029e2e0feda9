package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption configures a provider during NewBindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer attaches a borrowed buffer at construction.
//
// Parameters:
//   - binding: the binding index
//   - buf: the buffer, owned elsewhere
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetBuffer(binding, buf)
	}
}

// WithTextureView attaches a borrowed texture view at construction.
//
// Parameters:
//   - binding: the binding index
//   - tv: the view, owned by its render target
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithTextureView(binding int, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.SetTextureView(binding, tv)
	}
}
