// Package deferred implements the two raster stages of the renderer: the geometry pass
// that resolves scene surfaces into a G-buffer, and the lighting pass that shades every
// covered pixel from the lights of its cluster. ShadePixel and ShadeImage are the CPU
// reference for the lighting shader.
package deferred

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// StructKeyGeometryVaryings is the annotation key of the struct passed from the G-buffer
// vertex shader to its fragment shader.
const StructKeyGeometryVaryings shader.StructKey = "geometry_varyings"

// G-buffer target formats.
const (
	PositionFormat = wgpu.TextureFormatRGBA32Float
	AlbedoFormat   = wgpu.TextureFormatRGBA8Unorm
	NormalFormat   = wgpu.TextureFormatRGBA16Float
	DepthFormat    = wgpu.TextureFormatDepth24Plus
)

// GPUGeometryVaryingsSource is the WGSL definition of the GeometryVaryings struct.
//
//go:embed assets/geometry_varyings.wgsl
var GPUGeometryVaryingsSource string

// GPUGBufferVertexSource transforms mesh vertices into world and clip space.
//
//go:embed assets/gbuffer_vs.wgsl
var GPUGBufferVertexSource string

// GPUGBufferFragmentSource writes position, albedo and normal targets.
//
//go:embed assets/gbuffer_fs.wgsl
var GPUGBufferFragmentSource string

// GPUFullscreenVertexSource emits the three vertices of a viewport-covering triangle.
//
//go:embed assets/fullscreen_vs.wgsl
var GPUFullscreenVertexSource string

// GPULightingFragmentSource shades one pixel from the lights of its cluster.
//
//go:embed assets/lighting_fs.wgsl
var GPULightingFragmentSource string

func init() {
	shader.RegisterStruct(StructKeyGeometryVaryings, "GeometryVaryings", GPUGeometryVaryingsSource)
}
