package model

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidMesh is returned by Mesh.Validate.
var ErrInvalidMesh = errors.New("model: invalid mesh")

// Mesh is an indexed triangle list in model space.
type Mesh struct {
	Vertices []GPUVertex
	Indices  []uint32
}

// Validate checks that the mesh is a non-empty triangle list whose indices all address a
// vertex.
//
// Returns:
//   - error: ErrInvalidMesh describing the first problem
func (m Mesh) Validate() error {
	if len(m.Indices) == 0 {
		return fmt.Errorf("%w: no indices", ErrInvalidMesh)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices do not form triangles", ErrInvalidMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d addresses vertex %d of %d", ErrInvalidMesh, i, idx, len(m.Vertices))
		}
	}
	return nil
}

// BoundingRadius returns the largest vertex distance from the model-space origin.
//
// Returns:
//   - float32: the radius, 0 for an empty mesh
func (m Mesh) BoundingRadius() float32 {
	var r float32
	for _, v := range m.Vertices {
		r = max(r, mgl32.Vec3(v.Position).Len())
	}
	return r
}

// VertexData packs every vertex for the vertex buffer.
//
// Returns:
//   - []byte: 32 bytes per vertex
func (m Mesh) VertexData() []byte {
	buf := make([]byte, 0, len(m.Vertices)*32)
	for i := range m.Vertices {
		buf = m.Vertices[i].appendTo(buf)
	}
	return buf
}

// IndexData packs the indices for a uint32 index buffer.
//
// Returns:
//   - []byte: 4 bytes per index
func (m Mesh) IndexData() []byte {
	buf := make([]byte, 0, len(m.Indices)*4)
	for _, idx := range m.Indices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	return buf
}
