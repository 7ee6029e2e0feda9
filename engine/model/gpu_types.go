package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

const (
	// StructKeyVertex names the VertexInput struct for include directives.
	StructKeyVertex shader.StructKey = "vertex"

	// StructKeyModel names the ModelData struct for include and group directives.
	StructKeyModel shader.StructKey = "model"
)

//go:embed assets/vertex.wgsl
var GPUVertexSource string

//go:embed assets/model_data.wgsl
var GPUModelDataSource string

func init() {
	shader.RegisterStruct(StructKeyVertex, "VertexInput", GPUVertexSource)
	shader.RegisterStruct(StructKeyModel, "ModelData", GPUModelDataSource)
}

// GPUVertex is one VertexInput: 32 tightly packed bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0
	Normal   [3]float32 // offset 12
	TexCoord [2]float32 // offset 24
}

// Size returns the packed size in bytes.
//
// Returns:
//   - int: 32
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal packs the vertex little-endian.
//
// Returns:
//   - []byte: 32 bytes
func (g *GPUVertex) Marshal() []byte {
	return g.appendTo(make([]byte, 0, g.Size()))
}

func (g *GPUVertex) appendTo(buf []byte) []byte {
	for _, f := range g.Position {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.Normal {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.TexCoord {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// GPUModelData is the per-object ModelData uniform: 128 bytes.
type GPUModelData struct {
	Model  [16]float32 // offset  0: model to world
	Normal [16]float32 // offset 64: inverse transpose of Model's linear part
}

// Size returns the packed size in bytes.
//
// Returns:
//   - int: 128
func (g *GPUModelData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal packs both matrices column-major, little-endian.
//
// Returns:
//   - []byte: 128 bytes
func (g *GPUModelData) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	for _, m := range [2][16]float32{g.Model, g.Normal} {
		for _, f := range m {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}
