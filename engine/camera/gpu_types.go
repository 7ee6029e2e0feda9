package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// StructKeyCamera is the annotation key of the CameraUniform struct.
const StructKeyCamera shader.StructKey = "camera"

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (224 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

func init() {
	shader.RegisterStruct(StructKeyCamera, "CameraUniform", GPUCameraUniformSource)
}

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer shared by
// the geometry, clustering and lighting stages.
// Size: 224 bytes.
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset   0
	View           [16]float32 // offset  64
	InvProj        [16]float32 // offset 128
	Position       [3]float32  // offset 192
	Near           float32     // offset 204
	Viewport       [2]float32  // offset 208
	Far            float32     // offset 216
	LogFarOverNear float32     // offset 220
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (224)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	put := func(off int, f float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
	}
	for i := range 16 {
		put(i*4, g.ViewProj[i])
		put(64+i*4, g.View[i])
		put(128+i*4, g.InvProj[i])
	}
	for i := range 3 {
		put(192+i*4, g.Position[i])
	}
	put(204, g.Near)
	put(208, g.Viewport[0])
	put(212, g.Viewport[1])
	put(216, g.Far)
	put(220, g.LogFarOverNear)
	return buf
}
