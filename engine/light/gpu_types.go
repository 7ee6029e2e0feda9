package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// Struct keys for include and group directives.
const (
	StructKeyLight    shader.StructKey = "light"
	StructKeyLightSet shader.StructKey = "light_set"
	StructKeyTime     shader.StructKey = "time"
)

//go:embed assets/light.wgsl
var GPULightSource string

//go:embed assets/light_set.wgsl
var GPULightSetSource string

//go:embed assets/time_uniform.wgsl
var GPUTimeUniformSource string

// GPUMoveLightsSource is the light motion compute kernel.
//
//go:embed assets/move_lights.wgsl
var GPUMoveLightsSource string

func init() {
	shader.RegisterStruct(StructKeyLight, "Light", GPULightSource)
	shader.RegisterStruct(StructKeyLightSet, "LightSet", GPULightSetSource)
	shader.RegisterStruct(StructKeyTime, "TimeUniform", GPUTimeUniformSource)
}

// GPULight is one Light record of the LightSet array: 32 bytes, each vec3f padded to 16.
type GPULight struct {
	Position [3]float32 // offset  0
	_        float32
	Color    [3]float32 // offset 16
	_        float32
}

// Size returns the packed size in bytes.
//
// Returns:
//   - int: 32
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// AppendTo appends the packed record to buf.
//
// Parameters:
//   - buf: the destination
//
// Returns:
//   - []byte: buf grown by 32 bytes
func (g *GPULight) AppendTo(buf []byte) []byte {
	buf = appendVec3(buf, g.Position)
	return appendVec3(buf, g.Color)
}

// Marshal packs the record little-endian.
//
// Returns:
//   - []byte: 32 bytes
func (g *GPULight) Marshal() []byte {
	return g.AppendTo(make([]byte, 0, g.Size()))
}

// GPULightSetHeader is the count that precedes the light array. The array is 16-byte
// aligned, so the header occupies 16 bytes.
type GPULightSetHeader struct {
	NumLights uint32 // offset 0
	_         [3]uint32
}

func (g *GPULightSetHeader) Size() int {
	return int(unsafe.Sizeof(*g))
}

// AppendTo appends the packed header to buf.
func (g *GPULightSetHeader) AppendTo(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, g.NumLights)
	return append(buf, make([]byte, 12)...)
}

func (g *GPULightSetHeader) Marshal() []byte {
	return g.AppendTo(make([]byte, 0, g.Size()))
}

// GPUTimeUniform is the absolute time in seconds that drives the motion kernel.
type GPUTimeUniform struct {
	Time float32 // offset 0
	_    [3]float32
}

func (g *GPUTimeUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *GPUTimeUniform) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.Time))
	return append(buf, make([]byte, 12)...)
}

// appendVec3 appends v followed by one word of padding.
func appendVec3(buf []byte, v [3]float32) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return binary.LittleEndian.AppendUint32(buf, 0)
}
