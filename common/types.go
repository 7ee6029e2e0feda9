// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderTarget pairs a GPU texture with the view used to attach or sample it.
// Render targets are owned by whoever created them and must be released on resize.
type RenderTarget struct {
	// Texture is the underlying GPU texture.
	Texture *wgpu.Texture
	// View is the default full-texture view.
	View *wgpu.TextureView
	// Format is the texel format the texture was created with.
	Format wgpu.TextureFormat
	// Width and Height are the texture dimensions in pixels.
	Width, Height uint32
}

// Release frees the view and texture. Safe to call on a zero RenderTarget.
func (t *RenderTarget) Release() {
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

// RenderTargetDescriptor describes an offscreen render target to be created by the renderer.
type RenderTargetDescriptor struct {
	// Label is the debug label of the texture.
	Label string
	// Format is the texel format.
	Format wgpu.TextureFormat
	// Width and Height are the texture dimensions in pixels.
	Width, Height uint32
	// Sampled marks the target as readable from shaders in a later pass.
	Sampled bool
}
