package deferred

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/cogentcore/webgpu/wgpu"
)

// TargetCreator creates offscreen render targets.
type TargetCreator interface {
	CreateRenderTarget(desc common.RenderTargetDescriptor) (common.RenderTarget, error)
}

// GBuffer is the set of screen-sized targets the geometry pass writes and the lighting
// pass reads. The targets persist across frames and are only recreated by Resize.
type GBuffer struct {
	Position common.RenderTarget
	Albedo   common.RenderTarget
	Normal   common.RenderTarget
	Depth    common.RenderTarget

	Width, Height int
}

// NewGBuffer allocates the four targets at the given size.
//
// Parameters:
//   - r: the renderer that creates the textures
//   - width, height: the viewport size in pixels
//
// Returns:
//   - *GBuffer: the allocated targets
//   - error: cluster.ErrZeroViewport for an empty viewport, or a texture creation error
func NewGBuffer(r TargetCreator, width, height int) (*GBuffer, error) {
	g := &GBuffer{}
	if err := g.allocate(r, width, height); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GBuffer) allocate(r TargetCreator, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: g-buffer %dx%d", cluster.ErrZeroViewport, width, height)
	}
	dsts := []*common.RenderTarget{&g.Position, &g.Albedo, &g.Normal, &g.Depth}
	for i, desc := range Descriptors(width, height) {
		rt, err := r.CreateRenderTarget(desc)
		if err != nil {
			g.Release()
			return fmt.Errorf("deferred: %w", err)
		}
		*dsts[i] = rt
	}
	g.Width, g.Height = width, height
	log.Printf("[GBuffer] allocated %dx%d targets", width, height)
	return nil
}

// Resize allocates new targets and releases the current ones once all four exist. On any
// error the current targets are kept.
//
// Parameters:
//   - r: the renderer that creates the textures
//   - width, height: the new viewport size
//
// Returns:
//   - error: cluster.ErrZeroViewport or a texture creation error
func (g *GBuffer) Resize(r TargetCreator, width, height int) error {
	next, err := NewGBuffer(r, width, height)
	if err != nil {
		return err
	}
	g.Release()
	*g = *next
	return nil
}

// Descriptors returns the render target descriptors of a G-buffer in position, albedo,
// normal, depth order. Color targets are sampled by the lighting pass; depth is not.
//
// Parameters:
//   - width, height: the viewport size in pixels
//
// Returns:
//   - []common.RenderTargetDescriptor: the four descriptors
func Descriptors(width, height int) []common.RenderTargetDescriptor {
	w, h := uint32(width), uint32(height)
	return []common.RenderTargetDescriptor{
		{Label: "gbuffer position", Format: PositionFormat, Width: w, Height: h, Sampled: true},
		{Label: "gbuffer albedo", Format: AlbedoFormat, Width: w, Height: h, Sampled: true},
		{Label: "gbuffer normal", Format: NormalFormat, Width: w, Height: h, Sampled: true},
		{Label: "gbuffer depth", Format: DepthFormat, Width: w, Height: h},
	}
}

// ColorViews returns the color attachments in target order: position, albedo, normal.
//
// Returns:
//   - []*wgpu.TextureView: the three color views
func (g *GBuffer) ColorViews() []*wgpu.TextureView {
	return []*wgpu.TextureView{g.Position.View, g.Albedo.View, g.Normal.View}
}

// ColorFormats returns the color target formats in attachment order.
//
// Returns:
//   - []wgpu.TextureFormat: the three formats
func ColorFormats() []wgpu.TextureFormat {
	return []wgpu.TextureFormat{PositionFormat, AlbedoFormat, NormalFormat}
}

// Release frees all four targets.
func (g *GBuffer) Release() {
	g.Position.Release()
	g.Albedo.Release()
	g.Normal.Release()
	g.Depth.Release()
}
