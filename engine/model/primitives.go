package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// cubeFaces lists each face's outward normal and the in-plane axes (u, v) with u x v = normal,
// so corners walked (-u,-v) (+u,-v) (+u,+v) (-u,+v) wind counter-clockwise from outside.
var cubeFaces = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// Cube generates an axis-aligned cube centred on the origin with flat per-face normals.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - Mesh: 24 vertices and 36 counter-clockwise indices
func Cube(size float32) Mesh {
	h := size / 2
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range cubeFaces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(vertices))
		for _, c := range corners {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1])).Mul(h)
			vertices = append(vertices, GPUVertex{
				Position: [3]float32(p),
				Normal:   [3]float32(n),
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return Mesh{Vertices: vertices, Indices: indices}
}

// Plane generates a subdivided plane in the XZ plane facing +Y, centred on the origin.
//
// Parameters:
//   - width: the extent along X
//   - depth: the extent along Z
//   - divisions: the number of quads along each edge, clamped to at least 1
//
// Returns:
//   - Mesh: (divisions+1)^2 vertices with counter-clockwise indices
func Plane(width, depth float32, divisions int) Mesh {
	divisions = max(divisions, 1)
	row := divisions + 1

	vertices := make([]GPUVertex, 0, row*row)
	for j := 0; j <= divisions; j++ {
		for i := 0; i <= divisions; i++ {
			s := float32(i) / float32(divisions)
			t := float32(j) / float32(divisions)
			vertices = append(vertices, GPUVertex{
				Position: [3]float32{(s - 0.5) * width, 0, (t - 0.5) * depth},
				Normal:   [3]float32{0, 1, 0},
				TexCoord: [2]float32{s, t},
			})
		}
	}

	indices := make([]uint32, 0, divisions*divisions*6)
	for j := 0; j < divisions; j++ {
		for i := 0; i < divisions; i++ {
			a := uint32(j*row + i)
			b := a + 1
			d := a + uint32(row)
			c := d + 1
			indices = append(indices, a, d, c, a, c, b)
		}
	}
	return Mesh{Vertices: vertices, Indices: indices}
}

// Sphere generates a UV sphere centred on the origin with smooth normals.
//
// Parameters:
//   - radius: the sphere radius
//   - segments: the number of longitudinal divisions, clamped to at least 3
//   - rings: the number of latitudinal divisions, clamped to at least 2
//
// Returns:
//   - Mesh: (rings+1)*(segments+1) vertices with counter-clockwise indices
func Sphere(radius float32, segments, rings int) Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)
	row := segments + 1

	vertices := make([]GPUVertex, 0, (rings+1)*row)
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			n := [3]float32{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			vertices = append(vertices, GPUVertex{
				Position: [3]float32{n[0] * radius, n[1] * radius, n[2] * radius},
				Normal:   n,
				TexCoord: [2]float32{float32(s) / float32(segments), float32(r) / float32(rings)},
			})
		}
	}

	indices := make([]uint32, 0, rings*segments*6)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r*row + s)
			b := a + 1
			d := a + uint32(row)
			c := d + 1
			indices = append(indices, a, b, c, a, c, d)
		}
	}
	return Mesh{Vertices: vertices, Indices: indices}
}
