package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// StructKeyMaterial names the MaterialParams struct for include and group directives.
const StructKeyMaterial shader.StructKey = "material"

//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

func init() {
	shader.RegisterStruct(StructKeyMaterial, "MaterialParams", GPUMaterialParamsSource)
}

// GPUMaterialParams is the MaterialParams uniform: one vec4f.
type GPUMaterialParams struct {
	BaseColor [4]float32 // offset 0: linear RGBA written to the albedo target
}

// Size returns the packed size in bytes.
//
// Returns:
//   - int: 16
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal packs the color little-endian.
//
// Returns:
//   - []byte: 16 bytes
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	for _, c := range g.BaseColor {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
	}
	return buf
}
